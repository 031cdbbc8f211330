package port

import (
	"context"
	"errors"

	"encoding-service/ddd/domain/vo"
)

// ErrQueueClosed 队列已关闭
var ErrQueueClosed = errors.New("stage queue is closed")

// StageDelivery 出队的一条阶段任务，处理完成后必须 Ack
type StageDelivery struct {
	Task vo.StageTask
	Ack  func(ctx context.Context) error
}

// StageQueue 阶段任务队列
type StageQueue interface {
	Enqueue(ctx context.Context, task vo.StageTask) error
	// Dequeue 阻塞直到有任务、ctx 取消或队列关闭
	Dequeue(ctx context.Context) (*StageDelivery, error)
	Size() int
	Close() error
}

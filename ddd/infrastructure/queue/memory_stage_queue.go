package queue

import (
	"context"
	"sync"

	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/observability"
)

// MemoryStageQueue 基于内存的阶段任务队列，进程退出即丢失，依赖恢复调度补偿
type MemoryStageQueue struct {
	queue chan vo.StageTask
	done  chan struct{}
	once  sync.Once
}

var _ port.StageQueue = (*MemoryStageQueue)(nil)

func NewMemoryStageQueue(capacity int) *MemoryStageQueue {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryStageQueue{
		queue: make(chan vo.StageTask, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue 队列满时立即返回 ErrQueueFull
func (q *MemoryStageQueue) Enqueue(ctx context.Context, task vo.StageTask) error {
	select {
	case <-q.done:
		return port.ErrQueueClosed
	default:
	}
	select {
	case q.queue <- task:
		observability.SetQueueDepth("memory", len(q.queue))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errno.ErrQueueFull
	}
}

func (q *MemoryStageQueue) Dequeue(ctx context.Context) (*port.StageDelivery, error) {
	select {
	case <-q.done:
		return nil, port.ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case task := <-q.queue:
		observability.SetQueueDepth("memory", len(q.queue))
		return &port.StageDelivery{Task: task, Ack: noopAck}, nil
	}
}

func (q *MemoryStageQueue) Size() int { return len(q.queue) }

func (q *MemoryStageQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

func noopAck(context.Context) error { return nil }

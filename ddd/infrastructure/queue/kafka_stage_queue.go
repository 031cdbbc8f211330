package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/kafka"
	"encoding-service/pkg/logger"
)

// KafkaStageQueue 阶段任务经 kafka 分发，多实例 worker 共享同一消费组。
// 以资产 UUID 为 key，同一资产的任务落在同一分区。
type KafkaStageQueue struct {
	client *kafka.Client
	topic  string
	reader *kafkago.Reader
	mu     sync.Mutex
	closed bool
}

var _ port.StageQueue = (*KafkaStageQueue)(nil)

func NewKafkaStageQueue(client *kafka.Client, topic, groupID string) *KafkaStageQueue {
	return &KafkaStageQueue{
		client: client,
		topic:  topic,
		reader: client.Reader(topic, groupID),
	}
}

func (q *KafkaStageQueue) Enqueue(ctx context.Context, task vo.StageTask) error {
	if q.isClosed() {
		return port.ErrQueueClosed
	}
	return q.client.ProduceJSON(ctx, q.topic, task.AssetUUID, task)
}

// Dequeue 无法解码的消息直接提交并跳过
func (q *KafkaStageQueue) Dequeue(ctx context.Context) (*port.StageDelivery, error) {
	for {
		if q.isClosed() {
			return nil, port.ErrQueueClosed
		}
		msg, err := q.reader.FetchMessage(ctx)
		if err != nil {
			if q.isClosed() {
				return nil, port.ErrQueueClosed
			}
			return nil, err
		}
		task, err := DecodeStageTask(msg.Value)
		if err != nil {
			logger.Warnf("Drop undecodable stage message topic=%s partition=%d offset=%d error=%v", msg.Topic, msg.Partition, msg.Offset, err)
			if cerr := q.reader.CommitMessages(ctx, msg); cerr != nil {
				logger.Warnf("Commit stage message failed offset=%d error=%v", msg.Offset, cerr)
			}
			continue
		}
		m := msg
		return &port.StageDelivery{
			Task: task,
			Ack: func(ctx context.Context) error {
				return q.reader.CommitMessages(ctx, m)
			},
		}, nil
	}
}

// Size kafka 积压由 broker 侧监控，这里不统计
func (q *KafkaStageQueue) Size() int { return 0 }

func (q *KafkaStageQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()
	return q.reader.Close()
}

func (q *KafkaStageQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// DecodeStageTask 解析并校验阶段任务
func DecodeStageTask(data []byte) (vo.StageTask, error) {
	var task vo.StageTask
	if err := json.Unmarshal(data, &task); err != nil {
		return task, err
	}
	if task.RunUUID == "" || task.AssetUUID == "" {
		return task, errors.New("run_uuid and asset_uuid are required")
	}
	if !task.Stage.IsValid() || task.Stage == vo.StageDone {
		return task, errors.New("invalid stage " + task.Stage.String())
	}
	if task.Attempt <= 0 {
		task.Attempt = 1
	}
	return task, nil
}

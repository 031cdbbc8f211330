package event

import (
	"context"
	"time"

	"encoding-service/ddd/domain/gateway"
	"encoding-service/pkg/kafka"
	"encoding-service/pkg/logger"
)

// KafkaEventReporter 将资产终态事件写入 kafka，按资产 UUID 分区
type KafkaEventReporter struct {
	client *kafka.Client
	topic  string
}

func NewKafkaEventReporter(client *kafka.Client, topic string) gateway.AssetEventReporter {
	return &KafkaEventReporter{client: client, topic: topic}
}

func (r *KafkaEventReporter) Report(ctx context.Context, ev gateway.AssetEvent) error {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	if err := r.client.ProduceJSON(ctx, r.topic, ev.AssetUUID, ev); err != nil {
		logger.Errorf("Asset event publish failed type=%s asset_uuid=%s error=%v", ev.Type, ev.AssetUUID, err)
		return err
	}
	logger.Debugf("Asset event published type=%s asset_uuid=%s topic=%s", ev.Type, ev.AssetUUID, r.topic)
	return nil
}

// LogEventReporter kafka 关闭时只记录日志
type LogEventReporter struct{}

func NewLogEventReporter() gateway.AssetEventReporter { return LogEventReporter{} }

func (LogEventReporter) Report(_ context.Context, ev gateway.AssetEvent) error {
	logger.Infof("Asset event type=%s asset_uuid=%s status=%s error=%s", ev.Type, ev.AssetUUID, ev.Status, ev.Error)
	return nil
}

// NewReporter 根据 kafka 是否启用选择实现
func NewReporter(client *kafka.Client, topic string) gateway.AssetEventReporter {
	if client != nil && client.Enabled() && topic != "" {
		return NewKafkaEventReporter(client, topic)
	}
	return NewLogEventReporter()
}

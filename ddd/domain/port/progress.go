package port

import (
	"context"

	"encoding-service/ddd/domain/entity"
)

// ProgressSink 持久化或转发编码进度
type ProgressSink interface {
	SaveProgress(ctx context.Context, log *entity.EncodingLogEntity, progress int) error
}

package repo

import (
	"context"
	"errors"
	"time"

	"encoding-service/ddd/domain/entity"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// AssetRepository 资产仓储接口
type AssetRepository interface {
	CreateAsset(ctx context.Context, asset *entity.AssetEntity) error
	// GetAsset 包含已软删除的资产
	GetAsset(ctx context.Context, assetUUID string) (*entity.AssetEntity, error)
	SaveAsset(ctx context.Context, asset *entity.AssetEntity) error
	DeleteAsset(ctx context.Context, assetUUID string) error
}

// RenditionRepository 产物仓储，(asset_uuid, profile_name) 唯一
type RenditionRepository interface {
	FindRendition(ctx context.Context, assetUUID, profileName string) (*entity.RenditionEntity, error)
	// SaveRendition 按 (asset_uuid, profile_name) upsert，并回填 ID
	SaveRendition(ctx context.Context, r *entity.RenditionEntity) error
	ListRenditions(ctx context.Context, assetUUID string) ([]*entity.RenditionEntity, error)
	DeleteRenditionsByAsset(ctx context.Context, assetUUID string) error
}

// EncodingLogRepository 编码日志仓储，只追加
type EncodingLogRepository interface {
	CreateLog(ctx context.Context, l *entity.EncodingLogEntity) error
	UpdateLog(ctx context.Context, l *entity.EncodingLogEntity) error
	UpdateLogProgress(ctx context.Context, logID uint64, progress int) error
	ListLogs(ctx context.Context, assetUUID string, limit int) ([]*entity.EncodingLogEntity, error)
	DeleteLogsByAsset(ctx context.Context, assetUUID string) error
}

// PipelineRunRepository 流水线运行仓储
type PipelineRunRepository interface {
	CreateRun(ctx context.Context, run *entity.PipelineRunEntity) error
	GetRun(ctx context.Context, runUUID string) (*entity.PipelineRunEntity, error)
	SaveRun(ctx context.Context, run *entity.PipelineRunEntity) error
	// FindActiveRun 返回资产正在运行的流水线，没有时返回 ErrNotFound
	FindActiveRun(ctx context.Context, assetUUID string) (*entity.PipelineRunEntity, error)
	// ListStalledRuns 运行中且 updated_at 早于 before 的流水线
	ListStalledRuns(ctx context.Context, before time.Time, limit int) ([]*entity.PipelineRunEntity, error)
	DeleteRunsByAsset(ctx context.Context, assetUUID string) error
}

// VideoAttachmentRepository 视频关联仓储，(owner_type, owner_id, field_name) 唯一
type VideoAttachmentRepository interface {
	SaveAttachment(ctx context.Context, a *entity.VideoAttachmentEntity) error
	FindAttachment(ctx context.Context, ownerType, ownerID, fieldName string) (*entity.VideoAttachmentEntity, error)
	ListAttachmentsByOwner(ctx context.Context, ownerType, ownerID string) ([]*entity.VideoAttachmentEntity, error)
	DeleteAttachmentsByAsset(ctx context.Context, assetUUID string) error
}

package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"encoding-service/ddd/infrastructure/database/po"
	"encoding-service/pkg/logger"
)

// EncodingLogDAO 编码日志数据访问对象
type EncodingLogDAO struct {
	db *gorm.DB
}

func NewEncodingLogDAO(db *gorm.DB) *EncodingLogDAO {
	return &EncodingLogDAO{db: db}
}

func (d *EncodingLogDAO) Create(ctx context.Context, l *po.EncodingLog) error {
	if err := d.db.WithContext(ctx).Create(l).Error; err != nil {
		logger.Errorf("Error creating encoding log asset_uuid=%s profile=%s error=%v", l.AssetUUID, l.ProfileName, err)
		return err
	}
	return nil
}

func (d *EncodingLogDAO) Save(ctx context.Context, l *po.EncodingLog) error {
	if err := d.db.WithContext(ctx).Save(l).Error; err != nil {
		logger.Errorf("Error saving encoding log id=%d error=%v", l.Id, err)
		return err
	}
	return nil
}

// UpdateProgress 只更新进度列，高频调用
func (d *EncodingLogDAO) UpdateProgress(ctx context.Context, id uint64, progress int) error {
	return d.db.WithContext(ctx).Model(&po.EncodingLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"progress": progress, "updated_at": time.Now()}).Error
}

// ListByAsset 最新的在前
func (d *EncodingLogDAO) ListByAsset(ctx context.Context, assetUUID string, limit int) ([]*po.EncodingLog, error) {
	var out []*po.EncodingLog
	query := d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *EncodingLogDAO) DeleteByAsset(ctx context.Context, assetUUID string) error {
	return d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).Delete(&po.EncodingLog{}).Error
}

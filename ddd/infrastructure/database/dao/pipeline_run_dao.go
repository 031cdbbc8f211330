package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"encoding-service/ddd/infrastructure/database/po"
	"encoding-service/pkg/logger"
)

const runStatusRunning = "running"

// PipelineRunDAO 流水线运行数据访问对象
type PipelineRunDAO struct {
	db *gorm.DB
}

func NewPipelineRunDAO(db *gorm.DB) *PipelineRunDAO {
	return &PipelineRunDAO{db: db}
}

func (d *PipelineRunDAO) Create(ctx context.Context, r *po.PipelineRun) error {
	if err := d.db.WithContext(ctx).Create(r).Error; err != nil {
		logger.Errorf("Error creating pipeline run asset_uuid=%s error=%v", r.AssetUUID, err)
		return err
	}
	return nil
}

func (d *PipelineRunDAO) FindByUUID(ctx context.Context, runUUID string) (*po.PipelineRun, error) {
	var r po.PipelineRun
	if err := d.db.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// Save 会刷新 updated_at，恢复调度依赖它判断停滞
func (d *PipelineRunDAO) Save(ctx context.Context, r *po.PipelineRun) error {
	if err := d.db.WithContext(ctx).Save(r).Error; err != nil {
		logger.Errorf("Error saving pipeline run run_uuid=%s error=%v", r.RunUUID, err)
		return err
	}
	return nil
}

func (d *PipelineRunDAO) FindActive(ctx context.Context, assetUUID string) (*po.PipelineRun, error) {
	var r po.PipelineRun
	if err := d.db.WithContext(ctx).
		Where("asset_uuid = ? AND status = ?", assetUUID, runStatusRunning).
		Order("id DESC").
		First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListStalled 运行中但长时间未更新的记录，最旧的在前
func (d *PipelineRunDAO) ListStalled(ctx context.Context, before time.Time, limit int) ([]*po.PipelineRun, error) {
	var out []*po.PipelineRun
	query := d.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", runStatusRunning, before).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		logger.Errorf("Error query stalled pipeline runs error=%v", err)
		return nil, err
	}
	return out, nil
}

func (d *PipelineRunDAO) DeleteByAsset(ctx context.Context, assetUUID string) error {
	return d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).Delete(&po.PipelineRun{}).Error
}

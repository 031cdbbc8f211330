package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"encoding-service/ddd/infrastructure/database/po"
	"encoding-service/pkg/logger"
)

// RenditionDAO 档位产物数据访问对象
type RenditionDAO struct {
	db *gorm.DB
}

func NewRenditionDAO(db *gorm.DB) *RenditionDAO {
	return &RenditionDAO{db: db}
}

func (d *RenditionDAO) FindByAssetProfile(ctx context.Context, assetUUID, profileName string) (*po.Rendition, error) {
	var r po.Rendition
	if err := d.db.WithContext(ctx).
		Where("asset_uuid = ? AND profile_name = ?", assetUUID, profileName).
		First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert 以 (asset_uuid, profile_name) 为键插入或更新，并回填主键
func (d *RenditionDAO) Upsert(ctx context.Context, r *po.Rendition) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.Id == 0 {
			var existing po.Rendition
			err := tx.Select("id", "created_at").
				Where("asset_uuid = ? AND profile_name = ?", r.AssetUUID, r.ProfileName).
				First(&existing).Error
			switch {
			case err == nil:
				r.Id = existing.Id
				r.CreatedAt = existing.CreatedAt
			case errors.Is(err, gorm.ErrRecordNotFound):
				return tx.Create(r).Error
			default:
				return err
			}
		}
		return tx.Save(r).Error
	})
	if err != nil {
		logger.Errorf("Error upserting rendition asset_uuid=%s profile=%s error=%v", r.AssetUUID, r.ProfileName, err)
	}
	return err
}

// ListByAsset 按创建顺序返回
func (d *RenditionDAO) ListByAsset(ctx context.Context, assetUUID string) ([]*po.Rendition, error) {
	var out []*po.Rendition
	if err := d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *RenditionDAO) DeleteByAsset(ctx context.Context, assetUUID string) error {
	return d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).Delete(&po.Rendition{}).Error
}

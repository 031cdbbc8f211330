package dao

import (
	"context"

	"gorm.io/gorm"

	"encoding-service/ddd/infrastructure/database/po"
	"encoding-service/pkg/logger"
)

// AssetDAO 资产数据访问对象
type AssetDAO struct {
	db *gorm.DB
}

func NewAssetDAO(db *gorm.DB) *AssetDAO {
	return &AssetDAO{db: db}
}

// Create 创建资产
func (d *AssetDAO) Create(ctx context.Context, asset *po.Asset) error {
	if err := d.db.WithContext(ctx).Create(asset).Error; err != nil {
		logger.Errorf("Error creating asset asset_uuid=%s error=%v", asset.AssetUUID, err)
		return err
	}
	return nil
}

// FindByUUID 根据资产UUID查询，包含已软删除记录
func (d *AssetDAO) FindByUUID(ctx context.Context, assetUUID string) (*po.Asset, error) {
	var asset po.Asset
	if err := d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// Save 按主键整行更新
func (d *AssetDAO) Save(ctx context.Context, asset *po.Asset) error {
	if err := d.db.WithContext(ctx).Save(asset).Error; err != nil {
		logger.Errorf("Error saving asset asset_uuid=%s error=%v", asset.AssetUUID, err)
		return err
	}
	return nil
}

func (d *AssetDAO) DeleteByUUID(ctx context.Context, assetUUID string) error {
	return d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).Delete(&po.Asset{}).Error
}

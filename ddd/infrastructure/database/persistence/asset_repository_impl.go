package persistence

import (
	"context"

	"gorm.io/gorm"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/infrastructure/database/convertor"
	"encoding-service/ddd/infrastructure/database/dao"
)

// assetRepositoryImpl 资产仓储实现
type assetRepositoryImpl struct {
	assetDao  *dao.AssetDAO
	convertor *convertor.AssetConvertor
}

func NewAssetRepository(db *gorm.DB) repo.AssetRepository {
	return &assetRepositoryImpl{
		assetDao:  dao.NewAssetDAO(db),
		convertor: convertor.NewAssetConvertor(),
	}
}

func (r *assetRepositoryImpl) CreateAsset(ctx context.Context, asset *entity.AssetEntity) error {
	p := r.convertor.ToPO(asset)
	if err := r.assetDao.Create(ctx, p); err != nil {
		return err
	}
	asset.SetID(p.Id)
	return nil
}

func (r *assetRepositoryImpl) GetAsset(ctx context.Context, assetUUID string) (*entity.AssetEntity, error) {
	p, err := r.assetDao.FindByUUID(ctx, assetUUID)
	if err != nil {
		return nil, translate(err)
	}
	return r.convertor.ToEntity(p), nil
}

func (r *assetRepositoryImpl) SaveAsset(ctx context.Context, asset *entity.AssetEntity) error {
	p := r.convertor.ToPO(asset)
	if err := r.assetDao.Save(ctx, p); err != nil {
		return err
	}
	asset.SetID(p.Id)
	return nil
}

func (r *assetRepositoryImpl) DeleteAsset(ctx context.Context, assetUUID string) error {
	return r.assetDao.DeleteByUUID(ctx, assetUUID)
}

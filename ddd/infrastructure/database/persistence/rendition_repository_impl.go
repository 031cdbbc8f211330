package persistence

import (
	"context"

	"gorm.io/gorm"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/infrastructure/database/convertor"
	"encoding-service/ddd/infrastructure/database/dao"
)

type renditionRepositoryImpl struct {
	renditionDao *dao.RenditionDAO
	convertor    *convertor.RenditionConvertor
}

func NewRenditionRepository(db *gorm.DB) repo.RenditionRepository {
	return &renditionRepositoryImpl{
		renditionDao: dao.NewRenditionDAO(db),
		convertor:    convertor.NewRenditionConvertor(),
	}
}

func (r *renditionRepositoryImpl) FindRendition(ctx context.Context, assetUUID, profileName string) (*entity.RenditionEntity, error) {
	p, err := r.renditionDao.FindByAssetProfile(ctx, assetUUID, profileName)
	if err != nil {
		return nil, translate(err)
	}
	return r.convertor.ToEntity(p), nil
}

func (r *renditionRepositoryImpl) SaveRendition(ctx context.Context, rendition *entity.RenditionEntity) error {
	p := r.convertor.ToPO(rendition)
	if err := r.renditionDao.Upsert(ctx, p); err != nil {
		return err
	}
	rendition.SetID(p.Id)
	return nil
}

func (r *renditionRepositoryImpl) ListRenditions(ctx context.Context, assetUUID string) ([]*entity.RenditionEntity, error) {
	pos, err := r.renditionDao.ListByAsset(ctx, assetUUID)
	if err != nil {
		return nil, err
	}
	return r.convertor.ToEntities(pos), nil
}

func (r *renditionRepositoryImpl) DeleteRenditionsByAsset(ctx context.Context, assetUUID string) error {
	return r.renditionDao.DeleteByAsset(ctx, assetUUID)
}

// encodingLogRepositoryImpl 编码日志仓储实现
type encodingLogRepositoryImpl struct {
	logDao    *dao.EncodingLogDAO
	convertor *convertor.RenditionConvertor
}

func NewEncodingLogRepository(db *gorm.DB) repo.EncodingLogRepository {
	return &encodingLogRepositoryImpl{
		logDao:    dao.NewEncodingLogDAO(db),
		convertor: convertor.NewRenditionConvertor(),
	}
}

func (r *encodingLogRepositoryImpl) CreateLog(ctx context.Context, l *entity.EncodingLogEntity) error {
	p := r.convertor.LogToPO(l)
	if err := r.logDao.Create(ctx, p); err != nil {
		return err
	}
	l.SetID(p.Id)
	return nil
}

func (r *encodingLogRepositoryImpl) UpdateLog(ctx context.Context, l *entity.EncodingLogEntity) error {
	return r.logDao.Save(ctx, r.convertor.LogToPO(l))
}

func (r *encodingLogRepositoryImpl) UpdateLogProgress(ctx context.Context, logID uint64, progress int) error {
	return r.logDao.UpdateProgress(ctx, logID, progress)
}

func (r *encodingLogRepositoryImpl) ListLogs(ctx context.Context, assetUUID string, limit int) ([]*entity.EncodingLogEntity, error) {
	pos, err := r.logDao.ListByAsset(ctx, assetUUID, limit)
	if err != nil {
		return nil, err
	}
	return r.convertor.LogsToEntities(pos), nil
}

func (r *encodingLogRepositoryImpl) DeleteLogsByAsset(ctx context.Context, assetUUID string) error {
	return r.logDao.DeleteByAsset(ctx, assetUUID)
}

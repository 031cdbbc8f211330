package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/infrastructure/database/convertor"
	"encoding-service/ddd/infrastructure/database/dao"
)

type pipelineRunRepositoryImpl struct {
	runDao    *dao.PipelineRunDAO
	convertor *convertor.PipelineConvertor
}

func NewPipelineRunRepository(db *gorm.DB) repo.PipelineRunRepository {
	return &pipelineRunRepositoryImpl{
		runDao:    dao.NewPipelineRunDAO(db),
		convertor: convertor.NewPipelineConvertor(),
	}
}

func (r *pipelineRunRepositoryImpl) CreateRun(ctx context.Context, run *entity.PipelineRunEntity) error {
	p := r.convertor.RunToPO(run)
	if err := r.runDao.Create(ctx, p); err != nil {
		return err
	}
	run.SetID(p.Id)
	return nil
}

func (r *pipelineRunRepositoryImpl) GetRun(ctx context.Context, runUUID string) (*entity.PipelineRunEntity, error) {
	p, err := r.runDao.FindByUUID(ctx, runUUID)
	if err != nil {
		return nil, translate(err)
	}
	return r.convertor.RunToEntity(p), nil
}

func (r *pipelineRunRepositoryImpl) SaveRun(ctx context.Context, run *entity.PipelineRunEntity) error {
	p := r.convertor.RunToPO(run)
	if err := r.runDao.Save(ctx, p); err != nil {
		return err
	}
	run.SetID(p.Id)
	return nil
}

func (r *pipelineRunRepositoryImpl) FindActiveRun(ctx context.Context, assetUUID string) (*entity.PipelineRunEntity, error) {
	p, err := r.runDao.FindActive(ctx, assetUUID)
	if err != nil {
		return nil, translate(err)
	}
	return r.convertor.RunToEntity(p), nil
}

func (r *pipelineRunRepositoryImpl) ListStalledRuns(ctx context.Context, before time.Time, limit int) ([]*entity.PipelineRunEntity, error) {
	pos, err := r.runDao.ListStalled(ctx, before, limit)
	if err != nil {
		return nil, err
	}
	return r.convertor.RunsToEntities(pos), nil
}

func (r *pipelineRunRepositoryImpl) DeleteRunsByAsset(ctx context.Context, assetUUID string) error {
	return r.runDao.DeleteByAsset(ctx, assetUUID)
}

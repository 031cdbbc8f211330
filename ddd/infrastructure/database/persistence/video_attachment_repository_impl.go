package persistence

import (
	"context"

	"gorm.io/gorm"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/infrastructure/database/convertor"
	"encoding-service/ddd/infrastructure/database/dao"
)

type videoAttachmentRepositoryImpl struct {
	attachmentDao *dao.VideoAttachmentDAO
	convertor     *convertor.PipelineConvertor
}

func NewVideoAttachmentRepository(db *gorm.DB) repo.VideoAttachmentRepository {
	return &videoAttachmentRepositoryImpl{
		attachmentDao: dao.NewVideoAttachmentDAO(db),
		convertor:     convertor.NewPipelineConvertor(),
	}
}

func (r *videoAttachmentRepositoryImpl) SaveAttachment(ctx context.Context, a *entity.VideoAttachmentEntity) error {
	p := r.convertor.AttachmentToPO(a)
	if err := r.attachmentDao.Upsert(ctx, p); err != nil {
		return err
	}
	a.SetID(p.Id)
	return nil
}

func (r *videoAttachmentRepositoryImpl) FindAttachment(ctx context.Context, ownerType, ownerID, fieldName string) (*entity.VideoAttachmentEntity, error) {
	p, err := r.attachmentDao.Find(ctx, ownerType, ownerID, fieldName)
	if err != nil {
		return nil, translate(err)
	}
	return r.convertor.AttachmentToEntity(p), nil
}

func (r *videoAttachmentRepositoryImpl) ListAttachmentsByOwner(ctx context.Context, ownerType, ownerID string) ([]*entity.VideoAttachmentEntity, error) {
	pos, err := r.attachmentDao.ListByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.VideoAttachmentEntity, 0, len(pos))
	for _, p := range pos {
		out = append(out, r.convertor.AttachmentToEntity(p))
	}
	return out, nil
}

func (r *videoAttachmentRepositoryImpl) DeleteAttachmentsByAsset(ctx context.Context, assetUUID string) error {
	return r.attachmentDao.DeleteByAsset(ctx, assetUUID)
}

package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"encoding-service/ddd/infrastructure/database/po"
)

// VideoAttachmentDAO 视频关联数据访问对象
type VideoAttachmentDAO struct {
	db *gorm.DB
}

func NewVideoAttachmentDAO(db *gorm.DB) *VideoAttachmentDAO {
	return &VideoAttachmentDAO{db: db}
}

func (d *VideoAttachmentDAO) Find(ctx context.Context, ownerType, ownerID, fieldName string) (*po.VideoAttachment, error) {
	var a po.VideoAttachment
	if err := d.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND field_name = ?", ownerType, ownerID, fieldName).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert 同一字段只保留一条关联
func (d *VideoAttachmentDAO) Upsert(ctx context.Context, a *po.VideoAttachment) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Id == 0 {
			var existing po.VideoAttachment
			err := tx.Where("owner_type = ? AND owner_id = ? AND field_name = ?", a.OwnerType, a.OwnerID, a.FieldName).
				First(&existing).Error
			switch {
			case err == nil:
				a.Id = existing.Id
				a.CreatedAt = existing.CreatedAt
			case errors.Is(err, gorm.ErrRecordNotFound):
				return tx.Create(a).Error
			default:
				return err
			}
		}
		return tx.Save(a).Error
	})
}

func (d *VideoAttachmentDAO) ListByOwner(ctx context.Context, ownerType, ownerID string) ([]*po.VideoAttachment, error) {
	var out []*po.VideoAttachment
	if err := d.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *VideoAttachmentDAO) DeleteByAsset(ctx context.Context, assetUUID string) error {
	return d.db.WithContext(ctx).Where("asset_uuid = ?", assetUUID).Delete(&po.VideoAttachment{}).Error
}

package entity

import "time"

// VideoOwner 引用视频资产的业务实体需实现的接口
type VideoOwner interface {
	OwnerType() string
	OwnerID() string
}

// VideoAttachmentEntity 业务实体字段与资产之间的关联
type VideoAttachmentEntity struct {
	id        uint64
	ownerType string
	ownerID   string
	fieldName string
	assetUUID string
	createdAt time.Time
	updatedAt time.Time
}

func NewVideoAttachmentEntity(owner VideoOwner, fieldName, assetUUID string) *VideoAttachmentEntity {
	now := time.Now()
	return &VideoAttachmentEntity{
		ownerType: owner.OwnerType(),
		ownerID:   owner.OwnerID(),
		fieldName: fieldName,
		assetUUID: assetUUID,
		createdAt: now,
		updatedAt: now,
	}
}

func RestoreVideoAttachment(id uint64, ownerType, ownerID, fieldName, assetUUID string, createdAt, updatedAt time.Time) *VideoAttachmentEntity {
	return &VideoAttachmentEntity{
		id:        id,
		ownerType: ownerType,
		ownerID:   ownerID,
		fieldName: fieldName,
		assetUUID: assetUUID,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (a *VideoAttachmentEntity) ID() uint64           { return a.id }
func (a *VideoAttachmentEntity) SetID(id uint64)      { a.id = id }
func (a *VideoAttachmentEntity) OwnerType() string    { return a.ownerType }
func (a *VideoAttachmentEntity) OwnerID() string      { return a.ownerID }
func (a *VideoAttachmentEntity) FieldName() string    { return a.fieldName }
func (a *VideoAttachmentEntity) AssetUUID() string    { return a.assetUUID }
func (a *VideoAttachmentEntity) CreatedAt() time.Time { return a.createdAt }
func (a *VideoAttachmentEntity) UpdatedAt() time.Time { return a.updatedAt }

// Retarget 同一字段换绑到另一资产
func (a *VideoAttachmentEntity) Retarget(assetUUID string) {
	a.assetUUID = assetUUID
	a.updatedAt = time.Now()
}

// OwnerRef 简单的 VideoOwner 实现，供适配层使用
type OwnerRef struct {
	Type string
	ID   string
}

func (o OwnerRef) OwnerType() string { return o.Type }
func (o OwnerRef) OwnerID() string   { return o.ID }

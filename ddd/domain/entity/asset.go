package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"encoding-service/ddd/domain/vo"
)

// AssetEntity 已上传的视频资产
type AssetEntity struct {
	id               uint64
	assetUUID        string
	title            string
	sourcePath       string
	status           vo.AssetStatus
	metadata         vo.MediaMetadata
	thumbnailPath    string
	sprite           vo.SpriteSheet
	hlsManifestPath  string
	dashManifestPath string
	abrProfiles      map[string]string
	errorMessage     string
	deletedAt        *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// AssetState 用于从持久化层还原实体
type AssetState struct {
	ID               uint64
	AssetUUID        string
	Title            string
	SourcePath       string
	Status           vo.AssetStatus
	Metadata         vo.MediaMetadata
	ThumbnailPath    string
	Sprite           vo.SpriteSheet
	HLSManifestPath  string
	DASHManifestPath string
	ABRProfiles      map[string]string
	ErrorMessage     string
	DeletedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewAssetEntity 创建一个刚上传完成的资产
func NewAssetEntity(title, sourcePath string) *AssetEntity {
	now := time.Now()
	return &AssetEntity{
		assetUUID:   uuid.NewString(),
		title:       title,
		sourcePath:  sourcePath,
		status:      vo.AssetStatusUploaded,
		abrProfiles: map[string]string{},
		createdAt:   now,
		updatedAt:   now,
	}
}

// NewAssetEntityWithUUID 使用上游分配的资产 UUID
func NewAssetEntityWithUUID(assetUUID, title, sourcePath string) *AssetEntity {
	a := NewAssetEntity(title, sourcePath)
	if assetUUID != "" {
		a.assetUUID = assetUUID
	}
	return a
}

// RestoreAsset 从持久化状态还原
func RestoreAsset(s AssetState) *AssetEntity {
	abr := s.ABRProfiles
	if abr == nil {
		abr = map[string]string{}
	}
	return &AssetEntity{
		id:               s.ID,
		assetUUID:        s.AssetUUID,
		title:            s.Title,
		sourcePath:       s.SourcePath,
		status:           s.Status,
		metadata:         s.Metadata,
		thumbnailPath:    s.ThumbnailPath,
		sprite:           s.Sprite,
		hlsManifestPath:  s.HLSManifestPath,
		dashManifestPath: s.DASHManifestPath,
		abrProfiles:      abr,
		errorMessage:     s.ErrorMessage,
		deletedAt:        s.DeletedAt,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}
}

func (a *AssetEntity) ID() uint64                     { return a.id }
func (a *AssetEntity) SetID(id uint64)                { a.id = id }
func (a *AssetEntity) AssetUUID() string              { return a.assetUUID }
func (a *AssetEntity) Title() string                  { return a.title }
func (a *AssetEntity) SourcePath() string             { return a.sourcePath }
func (a *AssetEntity) Status() vo.AssetStatus         { return a.status }
func (a *AssetEntity) Metadata() vo.MediaMetadata     { return a.metadata }
func (a *AssetEntity) ThumbnailPath() string          { return a.thumbnailPath }
func (a *AssetEntity) Sprite() vo.SpriteSheet         { return a.sprite }
func (a *AssetEntity) HLSManifestPath() string        { return a.hlsManifestPath }
func (a *AssetEntity) DASHManifestPath() string       { return a.dashManifestPath }
func (a *AssetEntity) ErrorMessage() string           { return a.errorMessage }
func (a *AssetEntity) DeletedAt() *time.Time          { return a.deletedAt }
func (a *AssetEntity) CreatedAt() time.Time           { return a.createdAt }
func (a *AssetEntity) UpdatedAt() time.Time           { return a.updatedAt }
func (a *AssetEntity) IsDeleted() bool                { return a.deletedAt != nil }
func (a *AssetEntity) HasMetadata() bool              { return !a.metadata.IsZero() }
func (a *AssetEntity) ABRProfiles() map[string]string { return a.abrProfiles }

func (a *AssetEntity) transition(target vo.AssetStatus) error {
	if a.status == target {
		return nil
	}
	if !a.status.CanTransitionTo(target) {
		return fmt.Errorf("asset %s cannot move from %s to %s", a.assetUUID, a.status, target)
	}
	a.status = target
	a.updatedAt = time.Now()
	return nil
}

// MarkPending 进入队列
func (a *AssetEntity) MarkPending() error {
	if err := a.transition(vo.AssetStatusPending); err != nil {
		return err
	}
	a.errorMessage = ""
	return nil
}

// StartProcessing 编码开始
func (a *AssetEntity) StartProcessing() error { return a.transition(vo.AssetStatusProcessing) }

// Complete 编码阶段至少产出一个 rendition
func (a *AssetEntity) Complete() error {
	if err := a.transition(vo.AssetStatusCompleted); err != nil {
		return err
	}
	a.errorMessage = ""
	return nil
}

// Fail 编码阶段失败
func (a *AssetEntity) Fail(msg string) error {
	if err := a.transition(vo.AssetStatusFailed); err != nil {
		return err
	}
	a.errorMessage = msg
	return nil
}

func (a *AssetEntity) SetMetadata(m vo.MediaMetadata) {
	a.metadata = m
	a.updatedAt = time.Now()
}

func (a *AssetEntity) SetThumbnailPath(p string) {
	a.thumbnailPath = p
	a.updatedAt = time.Now()
}

func (a *AssetEntity) SetSprite(s vo.SpriteSheet) {
	a.sprite = s
	a.updatedAt = time.Now()
}

func (a *AssetEntity) SetHLSManifestPath(p string) {
	a.hlsManifestPath = p
	a.updatedAt = time.Now()
}

func (a *AssetEntity) SetDASHManifestPath(p string) {
	a.dashManifestPath = p
	a.updatedAt = time.Now()
}

func (a *AssetEntity) SetABRProfiles(m map[string]string) {
	a.abrProfiles = m
	a.updatedAt = time.Now()
}

func (a *AssetEntity) SetErrorMessage(msg string) {
	a.errorMessage = msg
	a.updatedAt = time.Now()
}

// SoftDelete 标记删除，不清理产物
func (a *AssetEntity) SoftDelete() {
	now := time.Now()
	a.deletedAt = &now
	a.updatedAt = now
}

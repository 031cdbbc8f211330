package convertor

import (
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/database/po"
)

// AssetConvertor 资产转换器
type AssetConvertor struct{}

func NewAssetConvertor() *AssetConvertor {
	return &AssetConvertor{}
}

// ToEntity 将PO转换为Entity
func (c *AssetConvertor) ToEntity(p *po.Asset) *entity.AssetEntity {
	if p == nil {
		return nil
	}
	return entity.RestoreAsset(entity.AssetState{
		ID:         p.Id,
		AssetUUID:  p.AssetUUID,
		Title:      p.Title,
		SourcePath: p.SourcePath,
		Status:     vo.AssetStatus(p.Status),
		Metadata: vo.MediaMetadata{
			Duration:  p.Duration,
			Width:     p.Width,
			Height:    p.Height,
			Framerate: p.Framerate,
			Bitrate:   p.Bitrate,
		},
		ThumbnailPath: p.ThumbnailPath,
		Sprite: vo.SpriteSheet{
			Path:        p.SpritePath,
			Columns:     p.SpriteColumns,
			Rows:        p.SpriteRows,
			Interval:    p.SpriteInterval,
			FrameWidth:  p.SpriteWidth,
			FrameHeight: p.SpriteHeight,
		},
		HLSManifestPath:  p.HLSManifestPath,
		DASHManifestPath: p.DASHManifestPath,
		ABRProfiles:      map[string]string(p.ABRProfiles),
		ErrorMessage:     p.ErrorMessage,
		DeletedAt:        p.DeletedAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	})
}

// ToPO 将Entity转换为PO
func (c *AssetConvertor) ToPO(e *entity.AssetEntity) *po.Asset {
	meta := e.Metadata()
	sprite := e.Sprite()
	return &po.Asset{
		BaseModel: po.BaseModel{
			Id:        e.ID(),
			CreatedAt: e.CreatedAt(),
			UpdatedAt: e.UpdatedAt(),
		},
		AssetUUID:        e.AssetUUID(),
		Title:            e.Title(),
		Status:           e.Status().String(),
		SourcePath:       e.SourcePath(),
		Duration:         meta.Duration,
		Width:            meta.Width,
		Height:           meta.Height,
		Framerate:        meta.Framerate,
		Bitrate:          meta.Bitrate,
		ThumbnailPath:    e.ThumbnailPath(),
		SpritePath:       sprite.Path,
		SpriteColumns:    sprite.Columns,
		SpriteRows:       sprite.Rows,
		SpriteInterval:   sprite.Interval,
		SpriteWidth:      sprite.FrameWidth,
		SpriteHeight:     sprite.FrameHeight,
		HLSManifestPath:  e.HLSManifestPath(),
		DASHManifestPath: e.DASHManifestPath(),
		ABRProfiles:      po.JSONMap(e.ABRProfiles()),
		ErrorMessage:     e.ErrorMessage(),
		DeletedAt:        e.DeletedAt(),
	}
}

package convertor

import (
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/database/po"
)

// RenditionConvertor 产物与编码日志转换器
type RenditionConvertor struct{}

func NewRenditionConvertor() *RenditionConvertor {
	return &RenditionConvertor{}
}

func (c *RenditionConvertor) ToEntity(p *po.Rendition) *entity.RenditionEntity {
	if p == nil {
		return nil
	}
	return entity.RestoreRendition(entity.RenditionState{
		ID:        p.Id,
		AssetUUID: p.AssetUUID,
		Profile: vo.EncodingProfile{
			Name:      p.ProfileName,
			Width:     p.Width,
			Height:    p.Height,
			Framerate: p.Framerate,
			Bitrate:   p.Bitrate,
			Codec:     p.Codec,
			Profile:   p.CodecProfile,
			Level:     p.CodecLevel,
		},
		Exports: vo.ExportFlags{
			Progressive: p.ExportProgressive,
			HLS:         p.ExportHLS,
			DASH:        p.ExportDASH,
		},
		ProgressivePath: p.ProgressivePath,
		HLSPath:         p.HLSPath,
		DASHPath:        p.DASHPath,
		Encoded:         p.Encoded,
		Status:          vo.RenditionStatus(p.Status),
		FileSize:        p.FileSize,
		ErrorMessage:    p.ErrorMessage,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	})
}

func (c *RenditionConvertor) ToPO(e *entity.RenditionEntity) *po.Rendition {
	prof := e.Profile()
	exports := e.Exports()
	return &po.Rendition{
		BaseModel: po.BaseModel{
			Id:        e.ID(),
			CreatedAt: e.CreatedAt(),
			UpdatedAt: e.UpdatedAt(),
		},
		AssetUUID:         e.AssetUUID(),
		ProfileName:       prof.Name,
		Width:             prof.Width,
		Height:            prof.Height,
		Framerate:         prof.Framerate,
		Bitrate:           prof.Bitrate,
		Codec:             prof.Codec,
		CodecProfile:      prof.Profile,
		CodecLevel:        prof.Level,
		ExportProgressive: exports.Progressive,
		ExportHLS:         exports.HLS,
		ExportDASH:        exports.DASH,
		ProgressivePath:   e.ProgressivePath(),
		HLSPath:           e.HLSPath(),
		DASHPath:          e.DASHPath(),
		Encoded:           e.Encoded(),
		Status:            e.Status().String(),
		FileSize:          e.FileSize(),
		ErrorMessage:      e.ErrorMessage(),
	}
}

// ToEntities 批量将PO转换为Entity
func (c *RenditionConvertor) ToEntities(pos []*po.Rendition) []*entity.RenditionEntity {
	out := make([]*entity.RenditionEntity, 0, len(pos))
	for _, p := range pos {
		out = append(out, c.ToEntity(p))
	}
	return out
}

func (c *RenditionConvertor) LogToEntity(p *po.EncodingLog) *entity.EncodingLogEntity {
	if p == nil {
		return nil
	}
	return entity.RestoreEncodingLog(entity.EncodingLogState{
		ID:          p.Id,
		RenditionID: p.RenditionID,
		AssetUUID:   p.AssetUUID,
		ProfileName: p.ProfileName,
		Status:      vo.LogStatus(p.Status),
		Message:     p.Message,
		Progress:    p.Progress,
		CommandLine: p.CommandLine,
		ErrorOutput: p.ErrorOutput,
		DurationMs:  p.DurationMs,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
}

func (c *RenditionConvertor) LogToPO(e *entity.EncodingLogEntity) *po.EncodingLog {
	return &po.EncodingLog{
		BaseModel: po.BaseModel{
			Id:        e.ID(),
			CreatedAt: e.CreatedAt(),
			UpdatedAt: e.UpdatedAt(),
		},
		RenditionID: e.RenditionID(),
		AssetUUID:   e.AssetUUID(),
		ProfileName: e.ProfileName(),
		Status:      e.Status().String(),
		Message:     truncate(e.Message(), 255),
		Progress:    e.Progress(),
		CommandLine: e.CommandLine(),
		ErrorOutput: e.ErrorOutput(),
		DurationMs:  e.DurationMs(),
	}
}

func (c *RenditionConvertor) LogsToEntities(pos []*po.EncodingLog) []*entity.EncodingLogEntity {
	out := make([]*entity.EncodingLogEntity, 0, len(pos))
	for _, p := range pos {
		out = append(out, c.LogToEntity(p))
	}
	return out
}

// truncate 按字符截断，避免超出 varchar 长度
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

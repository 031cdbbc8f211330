package convertor

import (
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/database/po"
)

// PipelineConvertor 流水线运行与视频关联转换器
type PipelineConvertor struct{}

func NewPipelineConvertor() *PipelineConvertor {
	return &PipelineConvertor{}
}

func (c *PipelineConvertor) RunToEntity(p *po.PipelineRun) *entity.PipelineRunEntity {
	if p == nil {
		return nil
	}
	return entity.RestorePipelineRun(entity.PipelineRunState{
		ID:         p.Id,
		RunUUID:    p.RunUUID,
		AssetUUID:  p.AssetUUID,
		Stage:      vo.PipelineStage(p.Stage),
		Status:     vo.RunStatus(p.Status),
		Attempts:   p.Attempts,
		Force:      p.Force,
		Profiles:   []string(p.Profiles),
		LastError:  p.LastError,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		FinishedAt: p.FinishedAt,
	})
}

func (c *PipelineConvertor) RunToPO(e *entity.PipelineRunEntity) *po.PipelineRun {
	return &po.PipelineRun{
		BaseModel: po.BaseModel{
			Id:        e.ID(),
			CreatedAt: e.CreatedAt(),
			UpdatedAt: e.UpdatedAt(),
		},
		RunUUID:    e.RunUUID(),
		AssetUUID:  e.AssetUUID(),
		Stage:      e.Stage().String(),
		Status:     e.Status().String(),
		Attempts:   e.Attempts(),
		Force:      e.Force(),
		Profiles:   po.JSONStrings(e.Profiles()),
		LastError:  e.LastError(),
		FinishedAt: e.FinishedAt(),
	}
}

func (c *PipelineConvertor) RunsToEntities(pos []*po.PipelineRun) []*entity.PipelineRunEntity {
	out := make([]*entity.PipelineRunEntity, 0, len(pos))
	for _, p := range pos {
		out = append(out, c.RunToEntity(p))
	}
	return out
}

func (c *PipelineConvertor) AttachmentToEntity(p *po.VideoAttachment) *entity.VideoAttachmentEntity {
	if p == nil {
		return nil
	}
	return entity.RestoreVideoAttachment(p.Id, p.OwnerType, p.OwnerID, p.FieldName, p.AssetUUID, p.CreatedAt, p.UpdatedAt)
}

func (c *PipelineConvertor) AttachmentToPO(e *entity.VideoAttachmentEntity) *po.VideoAttachment {
	return &po.VideoAttachment{
		BaseModel: po.BaseModel{
			Id:        e.ID(),
			CreatedAt: e.CreatedAt(),
			UpdatedAt: e.UpdatedAt(),
		},
		OwnerType: e.OwnerType(),
		OwnerID:   e.OwnerID(),
		FieldName: e.FieldName(),
		AssetUUID: e.AssetUUID(),
	}
}

package dto

import (
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
)

// AssetDTO 资产详情
type AssetDTO struct {
	AssetUUID    string            `json:"asset_uuid"`
	Title        string            `json:"title"`
	Status       string            `json:"status"`
	SourcePath   string            `json:"source_path"`
	Metadata     vo.MediaMetadata  `json:"metadata"`
	Thumbnail    string            `json:"thumbnail,omitempty"`
	Sprite       *vo.SpriteSheet   `json:"sprite,omitempty"`
	HLSManifest  string            `json:"hls_manifest,omitempty"`
	DASHManifest string            `json:"dash_manifest,omitempty"`
	ABRProfiles  map[string]string `json:"abr_profiles,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Deleted      bool              `json:"deleted"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewAssetDTO(a *entity.AssetEntity) *AssetDTO {
	if a == nil {
		return nil
	}
	d := &AssetDTO{
		AssetUUID:    a.AssetUUID(),
		Title:        a.Title(),
		Status:       a.Status().String(),
		SourcePath:   a.SourcePath(),
		Metadata:     a.Metadata(),
		Thumbnail:    a.ThumbnailPath(),
		HLSManifest:  a.HLSManifestPath(),
		DASHManifest: a.DASHManifestPath(),
		ABRProfiles:  a.ABRProfiles(),
		ErrorMessage: a.ErrorMessage(),
		Deleted:      a.IsDeleted(),
		CreatedAt:    a.CreatedAt(),
		UpdatedAt:    a.UpdatedAt(),
	}
	if s := a.Sprite(); !s.IsEmpty() {
		d.Sprite = &s
	}
	return d
}

// RenditionDTO 单个档位的产物
type RenditionDTO struct {
	Profile         string    `json:"profile"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Framerate       float64   `json:"framerate"`
	Bitrate         string    `json:"bitrate"`
	Status          string    `json:"status"`
	Encoded         bool      `json:"encoded"`
	ProgressivePath string    `json:"progressive_path,omitempty"`
	HLSPath         string    `json:"hls_path,omitempty"`
	DASHPath        string    `json:"dash_path,omitempty"`
	FileSize        int64     `json:"file_size"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewRenditionDTOs(rs []*entity.RenditionEntity) []*RenditionDTO {
	out := make([]*RenditionDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, &RenditionDTO{
			Profile:         r.ProfileName(),
			Width:           r.Width(),
			Height:          r.Height(),
			Framerate:       r.Framerate(),
			Bitrate:         r.Profile().Bitrate,
			Status:          r.Status().String(),
			Encoded:         r.Encoded(),
			ProgressivePath: r.ProgressivePath(),
			HLSPath:         r.HLSPath(),
			DASHPath:        r.DASHPath(),
			FileSize:        r.FileSize(),
			ErrorMessage:    r.ErrorMessage(),
			UpdatedAt:       r.UpdatedAt(),
		})
	}
	return out
}

// EncodingLogDTO 编码日志
type EncodingLogDTO struct {
	ID          uint64    `json:"id"`
	Profile     string    `json:"profile"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Progress    int       `json:"progress"`
	CommandLine string    `json:"command_line,omitempty"`
	ErrorOutput string    `json:"error_output,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewEncodingLogDTOs(ls []*entity.EncodingLogEntity) []*EncodingLogDTO {
	out := make([]*EncodingLogDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, &EncodingLogDTO{
			ID:          l.ID(),
			Profile:     l.ProfileName(),
			Status:      l.Status().String(),
			Message:     l.Message(),
			Progress:    l.Progress(),
			CommandLine: l.CommandLine(),
			ErrorOutput: l.ErrorOutput(),
			DurationMs:  l.DurationMs(),
			CreatedAt:   l.CreatedAt(),
		})
	}
	return out
}

// PipelineRunDTO 流水线运行
type PipelineRunDTO struct {
	RunUUID   string    `json:"run_uuid"`
	AssetUUID string    `json:"asset_uuid"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Force     bool      `json:"force"`
	Profiles  []string  `json:"profiles,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPipelineRunDTO(r *entity.PipelineRunEntity) *PipelineRunDTO {
	return &PipelineRunDTO{
		RunUUID:   r.RunUUID(),
		AssetUUID: r.AssetUUID(),
		Stage:     r.Stage().String(),
		Status:    r.Status().String(),
		Attempts:  r.Attempts(),
		Force:     r.Force(),
		Profiles:  r.Profiles(),
		LastError: r.LastError(),
		CreatedAt: r.CreatedAt(),
	}
}

// AttachmentDTO 视频关联
type AttachmentDTO struct {
	OwnerType string `json:"owner_type"`
	OwnerID   string `json:"owner_id"`
	FieldName string `json:"field_name"`
	AssetUUID string `json:"asset_uuid"`
}

func NewAttachmentDTO(a *entity.VideoAttachmentEntity) *AttachmentDTO {
	return &AttachmentDTO{
		OwnerType: a.OwnerType(),
		OwnerID:   a.OwnerID(),
		FieldName: a.FieldName(),
		AssetUUID: a.AssetUUID(),
	}
}

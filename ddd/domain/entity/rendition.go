package entity

import (
	"time"

	"encoding-service/ddd/domain/vo"
)

// RenditionEntity 资产在某一档位下的编码产物
type RenditionEntity struct {
	id              uint64
	assetUUID       string
	profile         vo.EncodingProfile
	exports         vo.ExportFlags
	progressivePath string
	hlsPath         string
	dashPath        string
	encoded         bool
	status          vo.RenditionStatus
	fileSize        int64
	errorMessage    string
	createdAt       time.Time
	updatedAt       time.Time
}

// RenditionState 用于从持久化层还原
type RenditionState struct {
	ID              uint64
	AssetUUID       string
	Profile         vo.EncodingProfile
	Exports         vo.ExportFlags
	ProgressivePath string
	HLSPath         string
	DASHPath        string
	Encoded         bool
	Status          vo.RenditionStatus
	FileSize        int64
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewRenditionEntity(assetUUID string, profile vo.EncodingProfile, exports vo.ExportFlags) *RenditionEntity {
	now := time.Now()
	return &RenditionEntity{
		assetUUID: assetUUID,
		profile:   profile,
		exports:   exports,
		status:    vo.RenditionStatusPending,
		createdAt: now,
		updatedAt: now,
	}
}

func RestoreRendition(s RenditionState) *RenditionEntity {
	return &RenditionEntity{
		id:              s.ID,
		assetUUID:       s.AssetUUID,
		profile:         s.Profile,
		exports:         s.Exports,
		progressivePath: s.ProgressivePath,
		hlsPath:         s.HLSPath,
		dashPath:        s.DASHPath,
		encoded:         s.Encoded,
		status:          s.Status,
		fileSize:        s.FileSize,
		errorMessage:    s.ErrorMessage,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}
}

func (r *RenditionEntity) ID() uint64                  { return r.id }
func (r *RenditionEntity) SetID(id uint64)             { r.id = id }
func (r *RenditionEntity) AssetUUID() string           { return r.assetUUID }
func (r *RenditionEntity) ProfileName() string         { return r.profile.Name }
func (r *RenditionEntity) Profile() vo.EncodingProfile { return r.profile }
func (r *RenditionEntity) Exports() vo.ExportFlags     { return r.exports }
func (r *RenditionEntity) ProgressivePath() string     { return r.progressivePath }
func (r *RenditionEntity) HLSPath() string             { return r.hlsPath }
func (r *RenditionEntity) DASHPath() string            { return r.dashPath }
func (r *RenditionEntity) Encoded() bool               { return r.encoded }
func (r *RenditionEntity) Status() vo.RenditionStatus  { return r.status }
func (r *RenditionEntity) FileSize() int64             { return r.fileSize }
func (r *RenditionEntity) ErrorMessage() string        { return r.errorMessage }
func (r *RenditionEntity) CreatedAt() time.Time        { return r.createdAt }
func (r *RenditionEntity) UpdatedAt() time.Time        { return r.updatedAt }
func (r *RenditionEntity) IsCompleted() bool           { return r.status == vo.RenditionStatusCompleted }

// Width/Height/Framerate 为已达成的输出参数
func (r *RenditionEntity) Width() int         { return r.profile.Width }
func (r *RenditionEntity) Height() int        { return r.profile.Height }
func (r *RenditionEntity) Framerate() float64 { return r.profile.Framerate }

// PathFor 返回某一格式的产物路径
func (r *RenditionEntity) PathFor(f vo.OutputFormat) string {
	switch f {
	case vo.FormatProgressive:
		return r.progressivePath
	case vo.FormatHLS:
		return r.hlsPath
	case vo.FormatDASH:
		return r.dashPath
	}
	return ""
}

// BestPath 按 progressive、hls、dash 顺序返回第一个可用路径
func (r *RenditionEntity) BestPath() string {
	for _, f := range vo.AllFormats {
		if p := r.PathFor(f); p != "" {
			return p
		}
	}
	return ""
}

// StartProcessing 重新编码前重置产物
func (r *RenditionEntity) StartProcessing(profile vo.EncodingProfile, exports vo.ExportFlags) {
	r.profile = profile
	r.exports = exports
	r.status = vo.RenditionStatusProcessing
	r.encoded = false
	r.errorMessage = ""
	r.updatedAt = time.Now()
}

// Complete 记录各格式路径与文件大小
func (r *RenditionEntity) Complete(paths map[vo.OutputFormat]string, fileSize int64) {
	r.progressivePath = paths[vo.FormatProgressive]
	r.hlsPath = paths[vo.FormatHLS]
	r.dashPath = paths[vo.FormatDASH]
	r.fileSize = fileSize
	r.encoded = true
	r.status = vo.RenditionStatusCompleted
	r.errorMessage = ""
	r.updatedAt = time.Now()
}

func (r *RenditionEntity) Fail(msg string) {
	r.status = vo.RenditionStatusFailed
	r.encoded = false
	r.errorMessage = msg
	r.updatedAt = time.Now()
}

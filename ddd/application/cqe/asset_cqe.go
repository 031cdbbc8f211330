package cqe

import (
	"strings"

	"encoding-service/pkg/errno"
)

// RegisterAssetReq 登记一个已上传完成的源文件
type RegisterAssetReq struct {
	AssetUUID  string   `json:"asset_uuid"`
	Title      string   `json:"title"`
	SourcePath string   `json:"source_path" binding:"required"` // 相对存储根目录
	AutoStart  bool     `json:"auto_start"`
	Force      bool     `json:"force"`
	Profiles   []string `json:"profiles"`
}

func (req *RegisterAssetReq) Validate() error {
	req.SourcePath = strings.TrimSpace(req.SourcePath)
	if req.SourcePath == "" {
		return errno.ErrSourcePathRequired
	}
	if strings.Contains(req.SourcePath, "..") {
		return errno.NewBizError(errno.ErrInvalidParam, errSourceEscapes)
	}
	return nil
}

// StartPipelineReq 启动编码流水线
type StartPipelineReq struct {
	AssetUUID string   `json:"-" uri:"uuid"`
	Force     bool     `json:"force"`
	Profiles  []string `json:"profiles"`
}

func (req *StartPipelineReq) Validate() error {
	if req.AssetUUID == "" {
		return errno.ErrAssetUUIDRequired
	}
	return nil
}

// AttachAssetReq 将业务实体字段绑定到资产
type AttachAssetReq struct {
	OwnerType string `json:"owner_type" binding:"required"`
	OwnerID   string `json:"owner_id" binding:"required"`
	FieldName string `json:"field_name" binding:"required"`
	AssetUUID string `json:"asset_uuid" binding:"required"`
}

func (req *AttachAssetReq) Validate() error {
	if req.OwnerType == "" || req.OwnerID == "" || req.FieldName == "" {
		return errno.ErrAttachmentInvalid
	}
	if req.AssetUUID == "" {
		return errno.ErrAssetUUIDRequired
	}
	return nil
}

// AssetUploadedEvent 上传服务在源文件落盘后发出的消息
type AssetUploadedEvent struct {
	AssetUUID  string   `json:"asset_uuid"`
	Title      string   `json:"title"`
	SourcePath string   `json:"source_path"`
	Force      bool     `json:"force"`
	Profiles   []string `json:"profiles,omitempty"`
}

// ToRegisterReq 消息触发的登记总是自动启动流水线
func (e *AssetUploadedEvent) ToRegisterReq() *RegisterAssetReq {
	return &RegisterAssetReq{
		AssetUUID:  e.AssetUUID,
		Title:      e.Title,
		SourcePath: e.SourcePath,
		AutoStart:  true,
		Force:      e.Force,
		Profiles:   e.Profiles,
	}
}

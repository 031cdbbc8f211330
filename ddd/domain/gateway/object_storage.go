package gateway

import "context"

// ObjectStorage 对象存储网关，用于发布与清理资产产物
type ObjectStorage interface {
	Enabled() bool
	// UploadDir 将本地目录镜像到 prefix 下，跳过 skip 中的本地路径，返回上传的对象数
	UploadDir(ctx context.Context, localDir, prefix string, skip ...string) (int, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"encoding-service/ddd/domain/gateway"
	"encoding-service/internal/resource"
	"encoding-service/pkg/logger"
)

// MinioStorage MinIO 对象存储，用于发布资产产物与硬删除清理
type MinioStorage struct {
	minioResource *resource.MinioResource
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(minioResource *resource.MinioResource) gateway.ObjectStorage {
	return &MinioStorage{
		minioResource: minioResource,
	}
}

// Enabled 资源未初始化时视为关闭
func (s *MinioStorage) Enabled() bool {
	return s.minioResource.Enabled()
}

// UploadDir 将本地目录逐文件上传到 prefix 下，skip 为绝对路径
func (s *MinioStorage) UploadDir(ctx context.Context, localDir, prefix string, skip ...string) (int, error) {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	uploaded := 0
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if skipped(p, skip) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		objectKey := path.Join(filepath.ToSlash(prefix), filepath.ToSlash(rel))

		file, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open local file failed: %w", err)
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil {
			return fmt.Errorf("get file info failed: %w", err)
		}

		_, err = client.PutObject(ctx, bucketName, objectKey, file, info.Size(), minio.PutObjectOptions{
			ContentType: getContentTypeFromExtension(objectKey),
		})
		if err != nil {
			logger.Error("Failed to upload object to MinIO", map[string]interface{}{
				"local_path": p,
				"object_key": objectKey,
				"error":      err.Error(),
			})
			return fmt.Errorf("upload object to minio failed: %w", err)
		}
		uploaded++
		logger.Debug("Uploaded object", map[string]interface{}{
			"object_key": objectKey,
			"size":       info.Size(),
		})
		return nil
	})
	if err != nil {
		return uploaded, err
	}

	logger.Info("Directory mirrored to MinIO", map[string]interface{}{
		"local_dir": localDir,
		"prefix":    prefix,
		"objects":   uploaded,
	})
	return uploaded, nil
}

// DeletePrefix 删除 prefix 下的全部对象
func (s *MinioStorage) DeletePrefix(ctx context.Context, prefix string) error {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	prefix = strings.TrimSuffix(filepath.ToSlash(prefix), "/") + "/"
	objects := client.ListObjects(ctx, bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	removed := 0
	for rerr := range client.RemoveObjects(ctx, bucketName, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("remove object %s: %w", rerr.ObjectName, rerr.Err)
		}
		removed++
	}

	logger.Info("MinIO prefix deleted", map[string]interface{}{
		"prefix":  prefix,
		"objects": removed,
	})
	return nil
}

func skipped(p string, skip []string) bool {
	for _, s := range skip {
		if s != "" && filepath.Clean(s) == p {
			return true
		}
	}
	return false
}

// getContentTypeFromExtension 根据文件扩展名获取内容类型
func getContentTypeFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".mpd":
		return "application/dash+xml"
	case ".m4s":
		return "video/iso.segment"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}

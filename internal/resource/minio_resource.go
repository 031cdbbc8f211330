package resource

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"encoding-service/pkg/assert"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
)

const minioBucketCheckTimeout = 10 * time.Second

var (
	minioResourceOnce      sync.Once
	singletonMinioResource *MinioResource
)

// MinioResource 发布目标桶，未启用时 client 为 nil，发布阶段与远端清理随之跳过
type MinioResource struct {
	client     *minio.Client
	bucketName string
}

func DefaultMinioResource() *MinioResource {
	assert.NotCircular()
	minioResourceOnce.Do(func() {
		singletonMinioResource = &MinioResource{}
	})
	assert.NotNil(singletonMinioResource)
	return singletonMinioResource
}

func (r *MinioResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before MinioResource")
	}
	mc := cfg.Minio
	if !mc.Enabled {
		logger.Infof("MinIO disabled, publish stage skipped")
		return
	}
	if mc.Endpoint == "" || mc.BucketName == "" {
		panic("minio endpoint and bucket_name are required when minio is enabled")
	}

	endpoint, secure := splitEndpoint(mc.Endpoint, mc.UseSSL)
	accessKey, secretKey := mc.AccessKeyID, mc.SecretAccessKey
	if accessKey == "" {
		accessKey = mc.AccessKey
	}
	if secretKey == "" {
		secretKey = mc.SecretKey
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		panic(fmt.Sprintf("create minio client: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), minioBucketCheckTimeout)
	defer cancel()
	if err := ensureBucket(ctx, client, mc.BucketName); err != nil {
		panic(fmt.Sprintf("prepare minio bucket %s: %v", mc.BucketName, err))
	}

	r.client = client
	r.bucketName = mc.BucketName
	logger.Infof("MinIO resource opened endpoint=%s bucket=%s secure=%t", endpoint, r.bucketName, secure)
}

// splitEndpoint 兼容带 scheme 的 endpoint，scheme 优先于 use_ssl
func splitEndpoint(raw string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "https://"), "/"), true
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "http://"), "/"), false
	default:
		return strings.TrimSuffix(raw, "/"), useSSL
	}
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	logger.Infof("MinIO bucket missing, creating bucket=%s", bucket)
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

// Enabled 是否已连接到发布桶
func (r *MinioResource) Enabled() bool { return r != nil && r.client != nil }

func (r *MinioResource) GetClient() *minio.Client { return r.client }

func (r *MinioResource) GetBucketName() string { return r.bucketName }

func (r *MinioResource) Close() {}

type MinioResourcePlugin struct{}

func (p *MinioResourcePlugin) Name() string { return "minioResource" }

func (p *MinioResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMinioResource()
}

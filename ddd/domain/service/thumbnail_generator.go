package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
)

// ThumbnailGenerator 截取封面图
type ThumbnailGenerator struct {
	runner  port.ProcessRunner
	storage port.LocalStorage
	builder *CommandBuilder
	cfg     config.ThumbnailConfig
	ffmpeg  string
	timeout time.Duration
	logger  *logger.Logger
}

func NewThumbnailGenerator(runner port.ProcessRunner, storage port.LocalStorage, builder *CommandBuilder, cfg *config.Config, log *logger.Logger) *ThumbnailGenerator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ThumbnailGenerator{
		runner:  runner,
		storage: storage,
		builder: builder,
		cfg:     cfg.Thumbnail,
		ffmpeg:  cfg.Encoding.FFmpegPath,
		timeout: cfg.Encoding.ImageTimeout,
		logger:  log,
	}
}

// ThumbnailTime 请求时间不早于时长时取中点
func ThumbnailTime(requested, duration float64) float64 {
	if requested < 0 {
		requested = 0
	}
	if duration > 0 && requested >= duration {
		return duration / 2
	}
	return requested
}

// Generate 返回封面图的存储相对路径
func (g *ThumbnailGenerator) Generate(ctx context.Context, asset *entity.AssetEntity) (string, error) {
	assetUUID := asset.AssetUUID()
	out := g.storage.ThumbnailFile(assetUUID, ImageExt(g.cfg.Format))
	if err := g.storage.EnsureDir(filepath.Dir(out)); err != nil {
		return "", &errno.StorageError{Path: out, Err: err}
	}

	at := ThumbnailTime(g.cfg.Time, asset.Metadata().Duration)
	args := g.builder.BuildThumbnail(g.storage.Abs(asset.SourcePath()), g.storage.Abs(out), at, g.cfg.MaxWidth, g.cfg.MaxHeight, g.cfg.Quality)
	cmdline := CommandLine(g.ffmpeg, args)
	g.logger.Infof("Generating thumbnail asset_uuid=%s at=%.3f command=%s", assetUUID, at, cmdline)

	res := g.runner.Run(ctx, port.ProcessRequest{Binary: g.ffmpeg, Args: args, Timeout: g.timeout})
	if !res.Success {
		g.logger.Errorf("Thumbnail failed asset_uuid=%s command=%s stderr=%s", assetUUID, cmdline, res.Stderr)
		return "", fmt.Errorf("thumbnail: %w", res.Err)
	}
	if !g.storage.Exists(out) {
		return "", &errno.StorageError{Path: out, Err: errno.ErrEmptyOutput}
	}
	return out, nil
}

// ImageExt 规范化栅格格式扩展名
func ImageExt(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "jpeg", "jpg", "":
		return "jpg"
	case "png", "webp":
		return f
	default:
		return "jpg"
	}
}

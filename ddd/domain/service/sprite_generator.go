package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
)

// SpriteGenerator 生成拖动预览雪碧图。
// 优先使用 tile 滤镜一次生成，失败时逐帧截取后在进程内拼接。
type SpriteGenerator struct {
	runner  port.ProcessRunner
	storage port.LocalStorage
	builder *CommandBuilder
	cfg     config.SpriteConfig
	ffmpeg  string
	timeout time.Duration
	tempDir string
	logger  *logger.Logger
}

func NewSpriteGenerator(runner port.ProcessRunner, storage port.LocalStorage, builder *CommandBuilder, cfg *config.Config, log *logger.Logger) *SpriteGenerator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &SpriteGenerator{
		runner:  runner,
		storage: storage,
		builder: builder,
		cfg:     cfg.Sprite,
		ffmpeg:  cfg.Encoding.FFmpegPath,
		timeout: cfg.Encoding.ImageTimeout,
		tempDir: cfg.Storage.TempDir,
		logger:  log,
	}
}

// SpriteInterval duration / (min(frames, columns*rows) + 1)
func SpriteInterval(duration float64, frames, columns, rows int) float64 {
	n := frames
	if cells := columns * rows; cells < n {
		n = cells
	}
	if n < 0 {
		n = 0
	}
	return duration / float64(n+1)
}

// Generate 返回雪碧图描述
func (g *SpriteGenerator) Generate(ctx context.Context, asset *entity.AssetEntity) (vo.SpriteSheet, error) {
	assetUUID := asset.AssetUUID()
	duration := asset.Metadata().Duration
	if duration <= 0 {
		return vo.SpriteSheet{}, fmt.Errorf("sprite: asset %s has no duration", assetUUID)
	}

	cols, rows := g.cfg.Columns, g.cfg.Rows
	count := g.cfg.Frames
	if cells := cols * rows; cells < count {
		count = cells
	}
	interval := SpriteInterval(duration, g.cfg.Frames, cols, rows)
	sheet := vo.SpriteSheet{
		Path:        g.storage.SpriteFile(assetUUID, ImageExt(g.cfg.Format)),
		Columns:     cols,
		Rows:        rows,
		Interval:    interval,
		FrameWidth:  g.cfg.FrameWidth,
		FrameHeight: g.cfg.FrameHeight,
	}
	if err := g.storage.EnsureDir(filepath.Dir(sheet.Path)); err != nil {
		return vo.SpriteSheet{}, &errno.StorageError{Path: sheet.Path, Err: err}
	}
	source := g.storage.Abs(asset.SourcePath())
	out := g.storage.Abs(sheet.Path)

	args := g.builder.BuildSpriteTile(source, out, interval, g.cfg.FrameWidth, g.cfg.FrameHeight, cols, rows, g.cfg.Quality)
	g.logger.Infof("Generating sprite asset_uuid=%s interval=%.4f grid=%dx%d command=%s", assetUUID, interval, cols, rows, CommandLine(g.ffmpeg, args))
	res := g.runner.Run(ctx, port.ProcessRequest{Binary: g.ffmpeg, Args: args, Timeout: g.timeout})
	if res.Success && g.storage.Exists(sheet.Path) {
		return sheet, nil
	}
	g.logger.Warnf("Sprite tile filter failed, fall back to frame extraction asset_uuid=%s success=%t stderr=%s", assetUUID, res.Success, res.Stderr)

	if err := g.composeFromFrames(ctx, source, out, interval, count, cols); err != nil {
		return vo.SpriteSheet{}, fmt.Errorf("sprite fallback: %w", err)
	}
	if !g.storage.Exists(sheet.Path) {
		return vo.SpriteSheet{}, &errno.StorageError{Path: sheet.Path, Err: errno.ErrEmptyOutput}
	}
	return sheet, nil
}

// composeFromFrames 逐帧截取并按行优先拼接，临时目录在任何情况下都会删除
func (g *SpriteGenerator) composeFromFrames(ctx context.Context, source, out string, interval float64, count, cols int) error {
	if err := os.MkdirAll(g.tempDir, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(g.tempDir, "sprite-*")
	if err != nil {
		return err
	}
	defer func() {
		if rerr := os.RemoveAll(tmp); rerr != nil {
			g.logger.Warnf("Remove sprite temp dir failed dir=%s error=%v", tmp, rerr)
		}
	}()

	w, h := g.cfg.FrameWidth, g.cfg.FrameHeight
	canvas := imaging.New(cols*w, g.cfg.Rows*h, color.Black)
	extracted := 0
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		framePath := filepath.Join(tmp, fmt.Sprintf("frame_%04d.png", i))
		at := float64(i+1) * interval
		args := g.builder.BuildFrameExtract(source, framePath, at, w, h)
		res := g.runner.Run(ctx, port.ProcessRequest{Binary: g.ffmpeg, Args: args, Timeout: g.timeout})
		if !res.Success {
			g.logger.Warnf("Extract sprite frame failed index=%d at=%.3f stderr=%s", i, at, res.Stderr)
			continue
		}
		frame, err := imaging.Open(framePath)
		if err != nil {
			g.logger.Warnf("Decode sprite frame failed index=%d error=%v", i, err)
			continue
		}
		if b := frame.Bounds(); b.Dx() != w || b.Dy() != h {
			frame = imaging.Fill(frame, w, h, imaging.Center, imaging.Lanczos)
		}
		canvas = imaging.Paste(canvas, frame, image.Pt((i%cols)*w, (i/cols)*h))
		extracted++
	}
	if extracted == 0 {
		return errors.New("no frame could be extracted")
	}
	return g.encode(canvas, out)
}

func (g *SpriteGenerator) encode(img image.Image, out string) error {
	pf, err := renameio.NewPendingFile(out)
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	switch ImageExt(g.cfg.Format) {
	case "webp":
		err = webp.Encode(pf, img, &webp.Options{Quality: float32(g.cfg.Quality)})
	case "png":
		err = imaging.Encode(pf, img, imaging.PNG)
	default:
		err = imaging.Encode(pf, img, imaging.JPEG, imaging.JPEGQuality(g.cfg.Quality))
	}
	if err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}

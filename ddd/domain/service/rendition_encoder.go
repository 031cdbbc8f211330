package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/observability"
)

// EncodeOptions 编码阶段选项
type EncodeOptions struct {
	Force bool
}

// EncodeSummary 编码阶段的档位结果
type EncodeSummary struct {
	Completed []string
	Skipped   []string
	Failed    []string
}

// Succeeded 至少一个档位完成或已存在
func (s *EncodeSummary) Succeeded() bool {
	return len(s.Completed)+len(s.Skipped) > 0
}

type profileOutcome int

const (
	outcomeCompleted profileOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// RenditionEncoder 按档位驱动 ffmpeg 并维护 rendition 与编码日志
type RenditionEncoder struct {
	renditions repo.RenditionRepository
	logs       repo.EncodingLogRepository
	runner     port.ProcessRunner
	storage    port.LocalStorage
	builder    *CommandBuilder
	progress   port.ProgressSink
	cfg        config.EncodingConfig
	logger     *logger.Logger
}

func NewRenditionEncoder(
	renditions repo.RenditionRepository,
	logs repo.EncodingLogRepository,
	runner port.ProcessRunner,
	storage port.LocalStorage,
	builder *CommandBuilder,
	progress port.ProgressSink,
	cfg config.EncodingConfig,
	log *logger.Logger,
) *RenditionEncoder {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &RenditionEncoder{
		renditions: renditions,
		logs:       logs,
		runner:     runner,
		storage:    storage,
		builder:    builder,
		progress:   progress,
		cfg:        cfg,
		logger:     log,
	}
}

// EncodeAsset 编码全部档位。单个档位失败不影响其他档位，
// 所有档位错误合并后返回，summary 始终非空。
func (e *RenditionEncoder) EncodeAsset(ctx context.Context, asset *entity.AssetEntity, profiles []vo.EncodingProfile, opts EncodeOptions) (*EncodeSummary, error) {
	summary := &EncodeSummary{}
	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(name string, outcome profileOutcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case outcomeCompleted:
			summary.Completed = append(summary.Completed, name)
		case outcomeSkipped:
			summary.Skipped = append(summary.Skipped, name)
		default:
			summary.Failed = append(summary.Failed, name)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if e.cfg.ParallelProfiles <= 1 || len(profiles) <= 1 {
		for _, p := range profiles {
			outcome, err := e.encodeProfile(ctx, asset, p, opts.Force)
			record(p.Name, outcome, err)
		}
		return summary, errors.Join(errs...)
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.ParallelProfiles)
	for _, p := range profiles {
		p := p
		g.Go(func() error {
			outcome, err := e.encodeProfile(ctx, asset, p, opts.Force)
			record(p.Name, outcome, err)
			return nil
		})
	}
	_ = g.Wait()
	return summary, errors.Join(errs...)
}

func (e *RenditionEncoder) encodeProfile(ctx context.Context, asset *entity.AssetEntity, profile vo.EncodingProfile, force bool) (outcome profileOutcome, err error) {
	assetUUID := asset.AssetUUID()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("Rendition encode panicked asset_uuid=%s profile=%s panic=%v", assetUUID, profile.Name, r)
			outcome, err = outcomeFailed, &errno.EncodeError{Profile: profile.Name, Err: fmt.Errorf("panic: %v", r)}
		}
		observability.ObserveRendition(profile.Name, [...]string{"completed", "skipped", "failed"}[outcome])
	}()

	existing, err := e.renditions.FindRendition(ctx, assetUUID, profile.Name)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return outcomeFailed, &errno.EncodeError{Profile: profile.Name, Err: err}
	}
	if existing != nil && existing.Encoded() && !force && e.storage.Exists(existing.BestPath()) {
		e.logger.Infof("Rendition already encoded, skip asset_uuid=%s profile=%s path=%s", assetUUID, profile.Name, existing.BestPath())
		return outcomeSkipped, nil
	}

	exports := e.defaultExports()
	rendition := existing
	if rendition == nil {
		rendition = entity.NewRenditionEntity(assetUUID, profile, exports)
	} else if rendition.Exports().Any() {
		exports = rendition.Exports()
	}
	rendition.StartProcessing(profile, exports)
	if err := e.renditions.SaveRendition(ctx, rendition); err != nil {
		return outcomeFailed, &errno.EncodeError{Profile: profile.Name, Err: fmt.Errorf("save rendition: %w", err)}
	}

	entry := entity.NewEncodingLogEntity(rendition.ID(), assetUUID, profile.Name, fmt.Sprintf("Encoding %s started", profile.Name))
	if err := e.logs.CreateLog(ctx, entry); err != nil {
		e.logger.Warnf("Create encoding log failed asset_uuid=%s profile=%s error=%v", assetUUID, profile.Name, err)
	}

	start := time.Now()
	formats := exports.Enabled()
	paths := make(map[vo.OutputFormat]string, len(formats))
	var formatErrs []error
	for i, format := range formats {
		artifact, ferr := e.encodeFormat(ctx, asset, profile, format, entry, i, len(formats))
		if ferr != nil {
			formatErrs = append(formatErrs, ferr)
			continue
		}
		paths[format] = artifact
	}
	elapsed := time.Since(start)

	if len(paths) == 0 {
		cause := errors.Join(formatErrs...)
		if cause == nil {
			cause = errors.New("no output format enabled")
		}
		msg := fmt.Sprintf("Encoding %s failed: %v", profile.Name, cause)
		rendition.Fail(msg)
		entry.Fail(msg, elapsed)
		e.persist(ctx, rendition, entry)
		e.logger.Errorf("Rendition failed asset_uuid=%s profile=%s formats=%v duration=%s error=%v", assetUUID, profile.Name, formats, elapsed, cause)
		return outcomeFailed, &errno.EncodeError{Profile: profile.Name, Err: cause}
	}

	rendition.Complete(paths, e.outputSize(paths))
	msg := fmt.Sprintf("Encoding %s completed in %s", profile.Name, elapsed.Round(time.Millisecond))
	if len(formatErrs) > 0 {
		msg = fmt.Sprintf("Encoding %s completed with %d failed format(s)", profile.Name, len(formatErrs))
	}
	entry.Complete(msg, elapsed)
	e.persist(ctx, rendition, entry)
	e.logger.Infof("Rendition completed asset_uuid=%s profile=%s formats=%d size=%d duration=%s", assetUUID, profile.Name, len(paths), rendition.FileSize(), elapsed)
	return outcomeCompleted, nil
}

// encodeFormat 执行单个格式，返回校验通过的产物相对路径
func (e *RenditionEncoder) encodeFormat(ctx context.Context, asset *entity.AssetEntity, profile vo.EncodingProfile, format vo.OutputFormat, entry *entity.EncodingLogEntity, index, total int) (string, error) {
	assetUUID := asset.AssetUUID()
	output := e.outputFor(assetUUID, profile.Name, format)
	dir := output
	if format == vo.FormatProgressive {
		dir = filepath.Dir(output)
	}
	if err := e.storage.EnsureDir(dir); err != nil {
		return "", &errno.EncodeError{Profile: profile.Name, Format: format.String(), Err: &errno.StorageError{Path: dir, Err: err}}
	}

	args := e.builder.Build(e.storage.Abs(asset.SourcePath()), e.storage.Abs(output), profile, format)
	cmdline := CommandLine(e.cfg.FFmpegPath, args)
	entry.AppendCommand(cmdline)
	if err := e.logs.UpdateLog(ctx, entry); err != nil {
		e.logger.Warnf("Persist command line failed asset_uuid=%s profile=%s error=%v", assetUUID, profile.Name, err)
	}
	e.logger.Infof("Encoding format asset_uuid=%s profile=%s format=%s command=%s", assetUUID, profile.Name, format, cmdline)

	res := e.runner.Run(ctx, port.ProcessRequest{
		Binary:      e.cfg.FFmpegPath,
		Args:        args,
		Timeout:     e.cfg.EncodeTimeout,
		DurationSec: asset.Metadata().Duration,
		ProgressCb:  e.progressCallback(ctx, entry, index, total),
	})
	if !res.Success {
		entry.AppendErrorOutput(format, res.Stderr)
		e.logger.Errorf("Encoding format failed asset_uuid=%s profile=%s format=%s timed_out=%t exit_code=%d command=%s stderr=%s",
			assetUUID, profile.Name, format, res.TimedOut, res.ExitCode, cmdline, res.Stderr)
		return "", &errno.EncodeError{Profile: profile.Name, Format: format.String(), Stderr: res.Stderr, Err: res.Err}
	}

	artifact := ArtifactPath(format, output)
	if !e.storage.Exists(artifact) {
		serr := &errno.StorageError{Path: artifact, Err: errno.ErrEmptyOutput}
		entry.AppendErrorOutput(format, serr.Error())
		e.logger.Errorf("Encoding output missing asset_uuid=%s profile=%s format=%s path=%s", assetUUID, profile.Name, format, artifact)
		return "", &errno.EncodeError{Profile: profile.Name, Format: format.String(), Err: serr}
	}
	return artifact, nil
}

func (e *RenditionEncoder) outputFor(assetUUID, profile string, format vo.OutputFormat) string {
	switch format {
	case vo.FormatHLS:
		return e.storage.HLSDir(assetUUID, profile)
	case vo.FormatDASH:
		return e.storage.DASHDir(assetUUID, profile)
	default:
		return e.storage.ProgressiveFile(assetUUID, profile)
	}
}

// progressCallback 将单格式进度折算为整个档位的进度
func (e *RenditionEncoder) progressCallback(ctx context.Context, entry *entity.EncodingLogEntity, index, total int) port.ProgressCallback {
	if e.progress == nil || total == 0 {
		return nil
	}
	return func(p int) {
		overall := (index*100 + p) / total
		if err := e.progress.SaveProgress(ctx, entry, overall); err != nil {
			e.logger.Debugf("Save progress failed log_id=%d progress=%d error=%v", entry.ID(), overall, err)
		}
	}
}

func (e *RenditionEncoder) defaultExports() vo.ExportFlags {
	f := e.cfg.Formats
	return vo.ExportFlags{Progressive: f.Progressive, HLS: f.HLS, DASH: f.DASH}
}

// outputSize 优先取 progressive 文件大小，否则统计产物目录
func (e *RenditionEncoder) outputSize(paths map[vo.OutputFormat]string) int64 {
	if p, ok := paths[vo.FormatProgressive]; ok {
		return e.storage.Size(p)
	}
	var total int64
	for _, p := range paths {
		total += e.storage.Size(filepath.Dir(p))
	}
	return total
}

func (e *RenditionEncoder) persist(ctx context.Context, r *entity.RenditionEntity, entry *entity.EncodingLogEntity) {
	if err := e.renditions.SaveRendition(ctx, r); err != nil {
		e.logger.Errorf("Save rendition failed asset_uuid=%s profile=%s error=%v", r.AssetUUID(), r.ProfileName(), err)
	}
	if err := e.logs.UpdateLog(ctx, entry); err != nil {
		e.logger.Errorf("Update encoding log failed asset_uuid=%s profile=%s error=%v", entry.AssetUUID(), entry.ProfileName(), err)
	}
}

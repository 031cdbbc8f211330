package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/observability"
)

// StageOutcome 阶段执行结果
type StageOutcome struct {
	// Next 需要继续入队的任务（下一阶段或当前阶段重试），nil 表示运行已结束
	Next  *vo.StageTask
	Retry bool
	Err   error
}

// PipelineDeps 流水线依赖
type PipelineDeps struct {
	Assets     repo.AssetRepository
	Renditions repo.RenditionRepository
	Runs       repo.PipelineRunRepository
	Prober     port.MetadataProber
	Storage    port.LocalStorage
	Selector   *ProfileSelector
	Encoder    *RenditionEncoder
	Thumbnails *ThumbnailGenerator
	Sprites    *SpriteGenerator
	Manifests  *ManifestSynthesizer
	Objects    gateway.ObjectStorage
	Events     gateway.AssetEventReporter
	Catalog    vo.ProfileCatalog
	Pipeline   config.PipelineConfig
	Logger     *logger.Logger
}

// PipelineService 编排单个资产的各阶段：encode → thumbnail → sprite → manifest (→ publish)
type PipelineService struct {
	PipelineDeps
}

func NewPipelineService(deps PipelineDeps) *PipelineService {
	if deps.Logger == nil {
		deps.Logger = logger.GetGlobalLogger()
	}
	return &PipelineService{PipelineDeps: deps}
}

// HandleStage 执行一次阶段任务并推进运行记录
func (s *PipelineService) HandleStage(ctx context.Context, task vo.StageTask) StageOutcome {
	run, err := s.Runs.GetRun(ctx, task.RunUUID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Logger.Warnf("Pipeline run missing, drop task run_uuid=%s stage=%s", task.RunUUID, task.Stage)
			return StageOutcome{}
		}
		return StageOutcome{Next: &task, Retry: true, Err: err}
	}
	if !run.IsActive() || run.Stage() != task.Stage {
		s.Logger.Infof("Stale stage task, drop run_uuid=%s task_stage=%s run_stage=%s run_status=%s", run.RunUUID(), task.Stage, run.Stage(), run.Status())
		return StageOutcome{}
	}

	run.RecordAttempt()
	if err := s.Runs.SaveRun(ctx, run); err != nil {
		s.Logger.Warnf("Save run attempt failed run_uuid=%s error=%v", run.RunUUID(), err)
	}

	start := time.Now()
	err = s.RunStage(ctx, task.AssetUUID, task.Stage, task.Force, task.Profiles)
	result := "success"
	if err != nil {
		result = "failure"
	}
	observability.ObserveStage(task.Stage.String(), result, time.Since(start))

	if err == nil {
		s.Logger.Infof("Stage completed run_uuid=%s asset_uuid=%s stage=%s attempt=%d duration=%s", run.RunUUID(), run.AssetUUID(), task.Stage, run.Attempts(), time.Since(start))
		return s.advance(ctx, run, task)
	}

	run.RecordError(err.Error())
	if errors.Is(err, errno.ErrAssetDeleted) {
		run.Fail(err.Error())
		s.saveRun(ctx, run)
		s.Logger.Warnf("Asset deleted, abort run run_uuid=%s asset_uuid=%s", run.RunUUID(), run.AssetUUID())
		return StageOutcome{Err: err}
	}

	maxAttempts := s.Pipeline.StageAttempts(task.Stage.String())
	if !errno.IsPermanent(err) && run.Attempts() < maxAttempts {
		s.saveRun(ctx, run)
		retry := task
		retry.Attempt = run.Attempts() + 1
		s.Logger.Warnf("Stage failed, retry scheduled run_uuid=%s asset_uuid=%s stage=%s attempt=%d max_attempts=%d error=%v",
			run.RunUUID(), run.AssetUUID(), task.Stage, run.Attempts(), maxAttempts, err)
		return StageOutcome{Next: &retry, Retry: true, Err: err}
	}

	if task.Stage == vo.StageEncode {
		s.failEncode(ctx, run, err)
		return StageOutcome{Err: err}
	}

	// 后续阶段失败不回退资产状态，继续后面的阶段
	s.Logger.Errorf("Stage failed permanently, continue run_uuid=%s asset_uuid=%s stage=%s attempts=%d error=%v",
		run.RunUUID(), run.AssetUUID(), task.Stage, run.Attempts(), err)
	out := s.advance(ctx, run, task)
	out.Err = err
	return out
}

func (s *PipelineService) advance(ctx context.Context, run *entity.PipelineRunEntity, task vo.StageTask) StageOutcome {
	next := task.Stage.Next(s.publishEnabled())
	run.Advance(next)
	s.saveRun(ctx, run)
	if next == vo.StageDone {
		s.finishRun(ctx, run)
		return StageOutcome{}
	}
	nt := task.NextStage(next)
	return StageOutcome{Next: &nt}
}

func (s *PipelineService) publishEnabled() bool {
	return s.Pipeline.Publish && s.Objects != nil && s.Objects.Enabled()
}

// RunStage 执行单个阶段，不处理重试
func (s *PipelineService) RunStage(ctx context.Context, assetUUID string, stage vo.PipelineStage, force bool, profiles []string) error {
	asset, err := s.Assets.GetAsset(ctx, assetUUID)
	if err != nil {
		return fmt.Errorf("load asset %s: %w", assetUUID, err)
	}
	if asset.IsDeleted() {
		return errno.ErrAssetDeleted
	}

	switch stage {
	case vo.StageEncode:
		return s.encode(ctx, asset, force, profiles)
	case vo.StageThumbnail:
		path, err := s.Thumbnails.Generate(ctx, asset)
		if err != nil {
			return err
		}
		asset.SetThumbnailPath(path)
		return s.Assets.SaveAsset(ctx, asset)
	case vo.StageSprite:
		sheet, err := s.Sprites.Generate(ctx, asset)
		if err != nil {
			return err
		}
		asset.SetSprite(sheet)
		return s.Assets.SaveAsset(ctx, asset)
	case vo.StageManifest:
		return s.manifests(ctx, asset)
	case vo.StagePublish:
		return s.publish(ctx, asset)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (s *PipelineService) encode(ctx context.Context, asset *entity.AssetEntity, force bool, requested []string) error {
	if err := asset.StartProcessing(); err != nil {
		return err
	}
	if err := s.Assets.SaveAsset(ctx, asset); err != nil {
		return err
	}

	if force || !asset.HasMetadata() {
		meta, err := s.Prober.Probe(ctx, s.Storage.Abs(asset.SourcePath()))
		if err != nil {
			return err
		}
		asset.SetMetadata(*meta)
		if err := s.Assets.SaveAsset(ctx, asset); err != nil {
			return err
		}
	}

	meta := asset.Metadata()
	profiles := s.Selector.Select(meta, s.Catalog, requested)
	if len(profiles) == 0 {
		s.Logger.Warnf("No suitable profile, nothing to encode asset_uuid=%s source=%dx%d@%.2f", asset.AssetUUID(), meta.Width, meta.Height, meta.Framerate)
		if err := asset.Complete(); err != nil {
			return err
		}
		return s.Assets.SaveAsset(ctx, asset)
	}

	s.Logger.Infof("Encoding asset asset_uuid=%s profiles=%v force=%t", asset.AssetUUID(), profileNames(profiles), force)
	summary, err := s.Encoder.EncodeAsset(ctx, asset, profiles, EncodeOptions{Force: force})
	if !summary.Succeeded() {
		if err == nil {
			err = errors.New("no rendition completed")
		}
		return fmt.Errorf("encode asset %s: %w", asset.AssetUUID(), err)
	}
	if err != nil {
		s.Logger.Warnf("Encode partially failed asset_uuid=%s completed=%v skipped=%v failed=%v error=%v",
			asset.AssetUUID(), summary.Completed, summary.Skipped, summary.Failed, err)
	}
	if err := asset.Complete(); err != nil {
		return err
	}
	return s.Assets.SaveAsset(ctx, asset)
}

func (s *PipelineService) manifests(ctx context.Context, asset *entity.AssetEntity) error {
	renditions, err := s.Renditions.ListRenditions(ctx, asset.AssetUUID())
	if err != nil {
		return err
	}
	res, synthErr := s.Manifests.Synthesize(asset, renditions)
	if res.HLSMaster != "" {
		asset.SetHLSManifestPath(res.HLSMaster)
	}
	if res.DASHManifest != "" {
		asset.SetDASHManifestPath(res.DASHManifest)
	}
	asset.SetABRProfiles(BuildABRProfileMap(s.Catalog, renditions))
	if err := s.Assets.SaveAsset(ctx, asset); err != nil {
		return errors.Join(synthErr, err)
	}
	return synthErr
}

func (s *PipelineService) publish(ctx context.Context, asset *entity.AssetEntity) error {
	if s.Objects == nil || !s.Objects.Enabled() {
		return nil
	}
	root := s.Storage.Root(asset.AssetUUID())
	var skip []string
	for _, p := range s.Storage.Preserved(asset.AssetUUID(), asset.SourcePath()) {
		skip = append(skip, s.Storage.Abs(p))
	}
	n, err := s.Objects.UploadDir(ctx, s.Storage.Abs(root), root, skip...)
	if err != nil {
		return &errno.StorageError{Path: root, Err: err}
	}
	s.Logger.Infof("Asset published asset_uuid=%s objects=%d", asset.AssetUUID(), n)
	s.report(ctx, gateway.AssetEvent{Type: gateway.EventAssetPublished, AssetUUID: asset.AssetUUID(), Status: asset.Status().String()})
	return nil
}

func (s *PipelineService) failEncode(ctx context.Context, run *entity.PipelineRunEntity, cause error) {
	msg := cause.Error()
	run.Fail(msg)
	s.saveRun(ctx, run)

	asset, err := s.Assets.GetAsset(ctx, run.AssetUUID())
	if err != nil {
		s.Logger.Errorf("Load asset for failure failed asset_uuid=%s error=%v", run.AssetUUID(), err)
		return
	}
	if err := asset.Fail(msg); err != nil {
		s.Logger.Warnf("Asset status transition rejected asset_uuid=%s status=%s error=%v", asset.AssetUUID(), asset.Status(), err)
		asset.SetErrorMessage(msg)
	}
	if err := s.Assets.SaveAsset(ctx, asset); err != nil {
		s.Logger.Errorf("Save failed asset failed asset_uuid=%s error=%v", asset.AssetUUID(), err)
	}
	s.Logger.Errorf("Encode stage failed, run terminated run_uuid=%s asset_uuid=%s attempts=%d error=%v", run.RunUUID(), asset.AssetUUID(), run.Attempts(), cause)
	s.report(ctx, gateway.AssetEvent{
		Type:      gateway.EventAssetFailed,
		AssetUUID: asset.AssetUUID(),
		RunUUID:   run.RunUUID(),
		Status:    asset.Status().String(),
		Error:     msg,
	})
}

func (s *PipelineService) finishRun(ctx context.Context, run *entity.PipelineRunEntity) {
	asset, err := s.Assets.GetAsset(ctx, run.AssetUUID())
	if err != nil {
		s.Logger.Errorf("Load asset for completion failed asset_uuid=%s error=%v", run.AssetUUID(), err)
		return
	}
	var names []string
	if rs, err := s.Renditions.ListRenditions(ctx, asset.AssetUUID()); err == nil {
		for _, r := range rs {
			if r.IsCompleted() {
				names = append(names, r.ProfileName())
			}
		}
	}
	s.Logger.Infof("Pipeline run completed run_uuid=%s asset_uuid=%s renditions=%v", run.RunUUID(), asset.AssetUUID(), names)
	s.report(ctx, gateway.AssetEvent{
		Type:         gateway.EventAssetCompleted,
		AssetUUID:    asset.AssetUUID(),
		RunUUID:      run.RunUUID(),
		Status:       asset.Status().String(),
		Renditions:   names,
		HLSManifest:  asset.HLSManifestPath(),
		DASHManifest: asset.DASHManifestPath(),
	})
}

func (s *PipelineService) report(ctx context.Context, ev gateway.AssetEvent) {
	if s.Events == nil {
		return
	}
	ev.Timestamp = time.Now().Unix()
	if err := s.Events.Report(ctx, ev); err != nil {
		s.Logger.Warnf("Report asset event failed type=%s asset_uuid=%s error=%v", ev.Type, ev.AssetUUID, err)
	}
}

func (s *PipelineService) saveRun(ctx context.Context, run *entity.PipelineRunEntity) {
	if err := s.Runs.SaveRun(ctx, run); err != nil {
		s.Logger.Errorf("Save pipeline run failed run_uuid=%s error=%v", run.RunUUID(), err)
	}
}

func profileNames(ps []vo.EncodingProfile) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

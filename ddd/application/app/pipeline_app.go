package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"encoding-service/ddd/application/cqe"
	"encoding-service/ddd/application/dto"
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
)

const defaultLogLimit = 200

type PipelineApp interface {
	// RegisterAsset 登记已上传的源文件，AutoStart 时立即启动流水线
	RegisterAsset(ctx context.Context, req *cqe.RegisterAssetReq) (*dto.AssetDTO, error)
	// StartPipeline 启动编码流水线，同一资产同时只允许一个运行
	StartPipeline(ctx context.Context, req *cqe.StartPipelineReq) (*dto.PipelineRunDTO, error)
	GetAsset(ctx context.Context, assetUUID string) (*dto.AssetDTO, error)
	ListRenditions(ctx context.Context, assetUUID string) ([]*dto.RenditionDTO, error)
	ListLogs(ctx context.Context, assetUUID string, limit int) ([]*dto.EncodingLogDTO, error)
	// DeleteAsset hard=false 只做软删除；hard=true 同时清理产物与所有关联记录
	DeleteAsset(ctx context.Context, assetUUID string, hard bool) error
	AttachAsset(ctx context.Context, req *cqe.AttachAssetReq) (*dto.AttachmentDTO, error)
	ListAttachments(ctx context.Context, ownerType, ownerID string) ([]*dto.AttachmentDTO, error)
	// RecoverStalledRuns 重新投递 worker 中途退出的运行，返回投递数量
	RecoverStalledRuns(ctx context.Context, stalledBefore time.Time, limit int) (int, error)
}

// PipelineAppDeps 应用服务依赖
type PipelineAppDeps struct {
	Assets      repo.AssetRepository
	Renditions  repo.RenditionRepository
	Logs        repo.EncodingLogRepository
	Runs        repo.PipelineRunRepository
	Attachments repo.VideoAttachmentRepository
	Storage     port.LocalStorage
	Objects     gateway.ObjectStorage
	Queue       port.StageQueue
	Catalog     vo.ProfileCatalog
	// CleanupStorage 硬删除时是否删除本地产物
	CleanupStorage bool
}

type pipelineAppImpl struct {
	PipelineAppDeps
}

func NewPipelineApp(deps PipelineAppDeps) PipelineApp {
	return &pipelineAppImpl{PipelineAppDeps: deps}
}

func (a *pipelineAppImpl) RegisterAsset(ctx context.Context, req *cqe.RegisterAssetReq) (*dto.AssetDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 幂等：同一 UUID 重复登记返回已有资产
	if req.AssetUUID != "" {
		existing, err := a.Assets.GetAsset(ctx, req.AssetUUID)
		switch {
		case err == nil:
			if existing.IsDeleted() {
				return nil, errno.ErrAssetDeleted
			}
			if req.AutoStart && existing.Status() == vo.AssetStatusUploaded {
				if _, err := a.StartPipeline(ctx, &cqe.StartPipelineReq{AssetUUID: existing.AssetUUID(), Force: req.Force, Profiles: req.Profiles}); err != nil {
					return nil, err
				}
				return a.GetAsset(ctx, existing.AssetUUID())
			}
			return dto.NewAssetDTO(existing), nil
		case !errors.Is(err, repo.ErrNotFound):
			return nil, errno.NewBizError(errno.ErrDatabase, err)
		}
	}

	if a.Storage != nil && !a.Storage.Exists(req.SourcePath) {
		return nil, errno.NewBizError(errno.ErrSourceMissing, fmt.Errorf("source %s", req.SourcePath))
	}
	if err := a.validateProfiles(req.Profiles); err != nil {
		return nil, err
	}

	asset := entity.NewAssetEntityWithUUID(req.AssetUUID, req.Title, req.SourcePath)
	if err := a.Assets.CreateAsset(ctx, asset); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	logger.Infof("Asset registered asset_uuid=%s source=%s", asset.AssetUUID(), asset.SourcePath())

	if req.AutoStart {
		if _, err := a.StartPipeline(ctx, &cqe.StartPipelineReq{AssetUUID: asset.AssetUUID(), Force: req.Force, Profiles: req.Profiles}); err != nil {
			return nil, err
		}
		return a.GetAsset(ctx, asset.AssetUUID())
	}
	return dto.NewAssetDTO(asset), nil
}

func (a *pipelineAppImpl) StartPipeline(ctx context.Context, req *cqe.StartPipelineReq) (*dto.PipelineRunDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := a.validateProfiles(req.Profiles); err != nil {
		return nil, err
	}
	asset, err := a.loadAsset(ctx, req.AssetUUID)
	if err != nil {
		return nil, err
	}
	if asset.IsDeleted() {
		return nil, errno.ErrAssetDeleted
	}

	active, err := a.Runs.FindActiveRun(ctx, asset.AssetUUID())
	if err == nil && active != nil {
		logger.Infof("Pipeline already in flight asset_uuid=%s run_uuid=%s stage=%s", asset.AssetUUID(), active.RunUUID(), active.Stage())
		return nil, errno.ErrPipelineInFlight
	}
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	if err := asset.MarkPending(); err != nil {
		return nil, errno.NewBizError(errno.ErrInvalidAssetStatus, err)
	}
	if err := a.Assets.SaveAsset(ctx, asset); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	run := entity.NewPipelineRunEntity(asset.AssetUUID(), req.Force, req.Profiles)
	if err := a.Runs.CreateRun(ctx, run); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	task := vo.StageTask{
		RunUUID:   run.RunUUID(),
		AssetUUID: asset.AssetUUID(),
		Stage:     vo.StageEncode,
		Attempt:   1,
		Force:     req.Force,
		Profiles:  req.Profiles,
	}
	if err := a.Queue.Enqueue(ctx, task); err != nil {
		logger.Errorf("Stage task enqueue failed asset_uuid=%s run_uuid=%s error=%v", asset.AssetUUID(), run.RunUUID(), err)
		msg := fmt.Sprintf("enqueue pipeline: %v", err)
		run.Fail(msg)
		_ = a.Runs.SaveRun(ctx, run)
		if ferr := asset.Fail(msg); ferr == nil {
			_ = a.Assets.SaveAsset(ctx, asset)
		}
		if errors.Is(err, errno.ErrQueueFull) {
			return nil, errno.ErrQueueFull
		}
		return nil, errno.NewBizError(errno.ErrInternalServer, err)
	}

	logger.Infof("Pipeline started asset_uuid=%s run_uuid=%s force=%t profiles=%v", asset.AssetUUID(), run.RunUUID(), req.Force, req.Profiles)
	return dto.NewPipelineRunDTO(run), nil
}

func (a *pipelineAppImpl) GetAsset(ctx context.Context, assetUUID string) (*dto.AssetDTO, error) {
	asset, err := a.loadAsset(ctx, assetUUID)
	if err != nil {
		return nil, err
	}
	return dto.NewAssetDTO(asset), nil
}

func (a *pipelineAppImpl) ListRenditions(ctx context.Context, assetUUID string) ([]*dto.RenditionDTO, error) {
	if _, err := a.loadAsset(ctx, assetUUID); err != nil {
		return nil, err
	}
	rs, err := a.Renditions.ListRenditions(ctx, assetUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return dto.NewRenditionDTOs(rs), nil
}

func (a *pipelineAppImpl) ListLogs(ctx context.Context, assetUUID string, limit int) ([]*dto.EncodingLogDTO, error) {
	if _, err := a.loadAsset(ctx, assetUUID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultLogLimit {
		limit = defaultLogLimit
	}
	ls, err := a.Logs.ListLogs(ctx, assetUUID, limit)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return dto.NewEncodingLogDTOs(ls), nil
}

func (a *pipelineAppImpl) DeleteAsset(ctx context.Context, assetUUID string, hard bool) error {
	asset, err := a.loadAsset(ctx, assetUUID)
	if err != nil {
		return err
	}

	// 先软删除，进行中的阶段看到删除标记后会中止
	if !asset.IsDeleted() {
		asset.SoftDelete()
		if err := a.Assets.SaveAsset(ctx, asset); err != nil {
			return errno.NewBizError(errno.ErrDatabase, err)
		}
	}
	if !hard {
		logger.Infof("Asset soft deleted asset_uuid=%s", assetUUID)
		return nil
	}

	if a.CleanupStorage && a.Storage != nil {
		keep := a.Storage.Preserved(assetUUID, asset.SourcePath())
		for _, dir := range a.Storage.Subtrees(assetUUID) {
			if err := a.Storage.RemoveAllExcept(dir, keep...); err != nil {
				return errno.NewBizError(errno.ErrInternalServer, &errno.StorageError{Path: dir, Err: err})
			}
		}
	}
	if a.Objects != nil && a.Objects.Enabled() && a.Storage != nil {
		prefix := a.Storage.Root(assetUUID)
		if err := a.Objects.DeletePrefix(ctx, prefix); err != nil {
			return errno.NewBizError(errno.ErrInternalServer, &errno.StorageError{Path: prefix, Err: err})
		}
	}

	steps := []struct {
		name string
		fn   func(context.Context, string) error
	}{
		{"renditions", a.Renditions.DeleteRenditionsByAsset},
		{"logs", a.Logs.DeleteLogsByAsset},
		{"runs", a.Runs.DeleteRunsByAsset},
		{"attachments", a.Attachments.DeleteAttachmentsByAsset},
		{"asset", a.Assets.DeleteAsset},
	}
	for _, step := range steps {
		if err := step.fn(ctx, assetUUID); err != nil {
			logger.Errorf("Hard delete step failed asset_uuid=%s step=%s error=%v", assetUUID, step.name, err)
			return errno.NewBizError(errno.ErrDatabase, err)
		}
	}
	logger.Infof("Asset hard deleted asset_uuid=%s", assetUUID)
	return nil
}

func (a *pipelineAppImpl) AttachAsset(ctx context.Context, req *cqe.AttachAssetReq) (*dto.AttachmentDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	asset, err := a.loadAsset(ctx, req.AssetUUID)
	if err != nil {
		return nil, err
	}
	if asset.IsDeleted() {
		return nil, errno.ErrAssetDeleted
	}

	att, err := a.Attachments.FindAttachment(ctx, req.OwnerType, req.OwnerID, req.FieldName)
	switch {
	case err == nil:
		att.Retarget(req.AssetUUID)
	case errors.Is(err, repo.ErrNotFound):
		att = entity.NewVideoAttachmentEntity(entity.OwnerRef{Type: req.OwnerType, ID: req.OwnerID}, req.FieldName, req.AssetUUID)
	default:
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	if err := a.Attachments.SaveAttachment(ctx, att); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return dto.NewAttachmentDTO(att), nil
}

func (a *pipelineAppImpl) ListAttachments(ctx context.Context, ownerType, ownerID string) ([]*dto.AttachmentDTO, error) {
	if ownerType == "" || ownerID == "" {
		return nil, errno.ErrAttachmentInvalid
	}
	list, err := a.Attachments.ListAttachmentsByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	out := make([]*dto.AttachmentDTO, 0, len(list))
	for _, att := range list {
		out = append(out, dto.NewAttachmentDTO(att))
	}
	return out, nil
}

func (a *pipelineAppImpl) RecoverStalledRuns(ctx context.Context, stalledBefore time.Time, limit int) (int, error) {
	runs, err := a.Runs.ListStalledRuns(ctx, stalledBefore, limit)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, run := range runs {
		task := vo.StageTask{
			RunUUID:   run.RunUUID(),
			AssetUUID: run.AssetUUID(),
			Stage:     run.Stage(),
			Attempt:   run.Attempts() + 1,
			Force:     run.Force(),
			Profiles:  run.Profiles(),
		}
		if err := a.Queue.Enqueue(ctx, task); err != nil {
			logger.Warnf("Recover run enqueue failed run_uuid=%s stage=%s error=%v", run.RunUUID(), run.Stage(), err)
			if errors.Is(err, errno.ErrQueueFull) {
				break
			}
			continue
		}
		// 刷新 updated_at，避免下一轮重复投递
		run.Touch()
		if err := a.Runs.SaveRun(ctx, run); err != nil {
			logger.Warnf("Recover run touch failed run_uuid=%s error=%v", run.RunUUID(), err)
		}
		recovered++
		logger.Infof("Stalled run requeued run_uuid=%s asset_uuid=%s stage=%s attempts=%d", run.RunUUID(), run.AssetUUID(), run.Stage(), run.Attempts())
	}
	return recovered, nil
}

func (a *pipelineAppImpl) loadAsset(ctx context.Context, assetUUID string) (*entity.AssetEntity, error) {
	if assetUUID == "" {
		return nil, errno.ErrAssetUUIDRequired
	}
	asset, err := a.Assets.GetAsset(ctx, assetUUID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errno.ErrAssetNotFound
		}
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return asset, nil
}

func (a *pipelineAppImpl) validateProfiles(names []string) error {
	for _, n := range names {
		if _, ok := a.Catalog.Lookup(n); !ok {
			return errno.NewBizError(errno.ErrUnknownProfile, fmt.Errorf("profile %q", n))
		}
	}
	return nil
}

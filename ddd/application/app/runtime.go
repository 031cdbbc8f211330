package app

import (
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/service"
	"encoding-service/ddd/infrastructure/database/persistence"
	"encoding-service/ddd/infrastructure/event"
	"encoding-service/ddd/infrastructure/executor"
	"encoding-service/ddd/infrastructure/lock"
	"encoding-service/ddd/infrastructure/progress"
	"encoding-service/ddd/infrastructure/queue"
	"encoding-service/ddd/infrastructure/storage"
	"encoding-service/internal/resource"
	"encoding-service/pkg/assert"
	"encoding-service/pkg/config"
	"encoding-service/pkg/kafka"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/redisclient"
)

// Runtime 进程内共享的流水线对象，HTTP、消费者、worker 与调度器使用同一份
type Runtime struct {
	Config   *config.Config
	Queue    port.StageQueue
	Pipeline *service.PipelineService
	Locker   port.AssetLocker
	App      PipelineApp
}

var (
	runtimeMu      sync.RWMutex
	defaultRuntime *Runtime
)

// SetDefaultRuntime 启动阶段设置一次
func SetDefaultRuntime(rt *Runtime) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	defaultRuntime = rt
}

func DefaultRuntime() *Runtime {
	assert.NotCircular()
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	assert.NotNil(defaultRuntime)
	return defaultRuntime
}

// DefaultPipelineApp 供控制器与消费者使用
func DefaultPipelineApp() PipelineApp {
	return DefaultRuntime().App
}

// RuntimeOptions 外部依赖，nil 表示未启用
type RuntimeOptions struct {
	Kafka   *kafka.Client
	Redis   *redisclient.Client
	Objects gateway.ObjectStorage
}

// NewRuntime 装配仓储、执行器、领域服务、队列与租约
func NewRuntime(cfg *config.Config, db *gorm.DB, opts RuntimeOptions) (*Runtime, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("runtime requires config and database")
	}
	log := logger.GetGlobalLogger()

	assets := persistence.NewAssetRepository(db)
	renditions := persistence.NewRenditionRepository(db)
	logs := persistence.NewEncodingLogRepository(db)
	runs := persistence.NewPipelineRunRepository(db)
	attachments := persistence.NewVideoAttachmentRepository(db)

	local := storage.NewLocalStorage(cfg.Storage)
	runner := executor.NewProcessRunner(log)
	builder := service.NewCommandBuilder(cfg.Encoding)
	catalog := service.CatalogFromConfig(cfg.Encoding.Profiles)

	stageQueue, err := newStageQueue(cfg, opts.Kafka)
	if err != nil {
		return nil, err
	}
	locker, err := newLocker(cfg, opts.Redis)
	if err != nil {
		return nil, err
	}

	var events gateway.AssetEventReporter = event.NewLogEventReporter()
	if opts.Kafka != nil {
		events = event.NewReporter(opts.Kafka, cfg.Kafka.Topics.AssetEvents)
	}

	pipeline := service.NewPipelineService(service.PipelineDeps{
		Assets:     assets,
		Renditions: renditions,
		Runs:       runs,
		Prober:     executor.NewFFprobe(runner, cfg.Encoding, log),
		Storage:    local,
		Selector:   service.NewProfileSelector(log),
		Encoder:    service.NewRenditionEncoder(renditions, logs, runner, local, builder, progress.NewDBSink(logs), cfg.Encoding, log),
		Thumbnails: service.NewThumbnailGenerator(runner, local, builder, cfg, log),
		Sprites:    service.NewSpriteGenerator(runner, local, builder, cfg, log),
		Manifests:  service.NewManifestSynthesizer(local, catalog, log),
		Objects:    opts.Objects,
		Events:     events,
		Catalog:    catalog,
		Pipeline:   cfg.Pipeline,
		Logger:     log,
	})

	pipelineApp := NewPipelineApp(PipelineAppDeps{
		Assets:         assets,
		Renditions:     renditions,
		Logs:           logs,
		Runs:           runs,
		Attachments:    attachments,
		Storage:        local,
		Objects:        opts.Objects,
		Queue:          stageQueue,
		Catalog:        catalog,
		CleanupStorage: cfg.Storage.Cleanup,
	})

	return &Runtime{
		Config:   cfg,
		Queue:    stageQueue,
		Pipeline: pipeline,
		Locker:   locker,
		App:      pipelineApp,
	}, nil
}

// MustNewRuntimeFromResources 使用已打开的全局资源装配
func MustNewRuntimeFromResources(cfg *config.Config) *Runtime {
	opts := RuntimeOptions{}
	if kc := kafka.DefaultClient(); kc.Enabled() {
		opts.Kafka = kc
	}
	opts.Redis = resource.DefaultRedisResource().LeaseClient()
	if objects := storage.NewMinioStorage(resource.DefaultMinioResource()); objects.Enabled() {
		opts.Objects = objects
	}
	rt, err := NewRuntime(cfg, resource.DefaultDatabaseResource().DB(), opts)
	if err != nil {
		panic(fmt.Sprintf("assemble runtime: %v", err))
	}
	return rt
}

func newStageQueue(cfg *config.Config, kc *kafka.Client) (port.StageQueue, error) {
	switch strings.ToLower(cfg.Worker.QueueBackend) {
	case "", "memory":
		return queue.NewMemoryStageQueue(cfg.Worker.QueueCapacity), nil
	case "kafka":
		if kc == nil || !kc.Enabled() {
			return nil, fmt.Errorf("queue backend kafka requires kafka.enabled")
		}
		return queue.NewKafkaStageQueue(kc, cfg.Kafka.Topics.Stages, cfg.Kafka.GroupID+"-stages"), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend %q", cfg.Worker.QueueBackend)
	}
}

// newLocker Redis 可用时用分布式租约，否则退化为本机文件锁
func newLocker(cfg *config.Config, rc *redisclient.Client) (port.AssetLocker, error) {
	if rc != nil {
		return lock.NewRedisLocker(rc, cfg.Storage.LockTTL), nil
	}
	return lock.NewFileLocker(cfg.Storage.LockDir)
}

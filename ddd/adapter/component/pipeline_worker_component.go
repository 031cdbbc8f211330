package component

import (
	appsvc "encoding-service/ddd/application/app"
	"encoding-service/ddd/infrastructure/worker"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/task"
)

func init() {
	manager.RegisterComponentPlugin(&PipelineWorkerComponentPlugin{})
}

// PipelineWorkerComponentPlugin 负责启动阶段任务 worker
type PipelineWorkerComponentPlugin struct{}

func (p *PipelineWorkerComponentPlugin) Name() string {
	return "pipelineWorkerComponent"
}

func (p *PipelineWorkerComponentPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.Worker.Enabled {
		logger.Infof("Pipeline worker disabled")
		return nil
	}
	rt := appsvc.DefaultRuntime()
	w := worker.NewPipelineWorker(worker.Options{
		ID:             cfg.Worker.WorkerID,
		Concurrency:    cfg.Worker.Concurrency,
		RetryBackoff:   cfg.Pipeline.RetryBackoff,
		LockRetryDelay: cfg.Pipeline.LockRetryDelay,
		GracePeriod:    cfg.Worker.ShutdownGracePeriod,
	}, rt.Queue, rt.Pipeline, rt.Locker)
	return &pipelineWorkerComponent{name: "pipelineWorker", worker: w, closeQueue: rt.Queue.Close}
}

type pipelineWorkerComponent struct {
	name       string
	worker     worker.PipelineWorker
	closeQueue func() error
}

func (c *pipelineWorkerComponent) Start() error {
	// 由 task 管理器统一启动与停止
	task.Register(&backgroundTask{
		name:      c.name,
		startFunc: c.worker.Start,
		stopFunc:  c.worker.Stop,
	})
	logger.Infof("Pipeline worker component registered name=%s", c.name)
	return nil
}

// Stop 在 worker 停止后关闭队列
func (c *pipelineWorkerComponent) Stop() error {
	if err := c.closeQueue(); err != nil {
		logger.Warnf("Close stage queue failed error=%v", err)
	}
	logger.Infof("Pipeline worker component stopped name=%s stats=%+v", c.name, c.worker.GetStats())
	return nil
}

func (c *pipelineWorkerComponent) GetName() string { return c.name }

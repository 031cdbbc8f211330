package component

import (
	"context"
	"sync"
	"time"

	appsvc "encoding-service/ddd/application/app"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/task"
)

func init() {
	manager.RegisterComponentPlugin(&RecoverySchedulerPlugin{})
}

// RecoverySchedulerPlugin 周期性重新投递卡住的流水线
type RecoverySchedulerPlugin struct{}

func (p *RecoverySchedulerPlugin) Name() string { return "recoveryScheduler" }

func (p *RecoverySchedulerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.Scheduler.Enabled {
		logger.Infof("Recovery scheduler disabled")
		return nil
	}
	var app appsvc.PipelineApp
	if deps != nil {
		app, _ = deps.PipelineApp.(appsvc.PipelineApp)
	}
	if app == nil {
		app = appsvc.DefaultPipelineApp()
	}
	return NewRecoveryScheduler(app, cfg.Scheduler)
}

// RecoveryScheduler 扫描 updated_at 超过 StallTimeout 的运行
type RecoveryScheduler struct {
	app appsvc.PipelineApp
	cfg config.SchedulerConfig
	now func() time.Time
	wg  sync.WaitGroup
}

func NewRecoveryScheduler(app appsvc.PipelineApp, cfg config.SchedulerConfig) *RecoveryScheduler {
	return &RecoveryScheduler{app: app, cfg: cfg, now: time.Now}
}

func (s *RecoveryScheduler) Start() error {
	task.Register(&backgroundTask{name: s.GetName(), startFunc: s.run, stopFunc: s.stop})
	return nil
}

func (s *RecoveryScheduler) Stop() error     { return nil }
func (s *RecoveryScheduler) GetName() string { return "recoveryScheduler" }

func (s *RecoveryScheduler) run(ctx context.Context) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.RecoveryInterval)
		defer ticker.Stop()
		logger.Infof("Recovery scheduler started interval=%s stall_timeout=%s", s.cfg.RecoveryInterval, s.cfg.StallTimeout)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
	return nil
}

func (s *RecoveryScheduler) stop() error {
	s.wg.Wait()
	return nil
}

// Tick 执行一轮恢复
func (s *RecoveryScheduler) Tick(ctx context.Context) int {
	n, err := s.app.RecoverStalledRuns(ctx, s.now().Add(-s.cfg.StallTimeout), s.cfg.BatchSize)
	if err != nil {
		logger.Errorf("Recover stalled runs failed error=%v", err)
		return 0
	}
	if n > 0 {
		logger.Infof("Recovered stalled runs count=%d", n)
	}
	return n
}

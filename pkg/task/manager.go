package task

import (
	"context"
	"fmt"
	"sync"

	"encoding-service/pkg/logger"
)

// BackgroundTask represents a long-running background process (consumer, worker, recovery loop).
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

type manager struct {
	tasks   []BackgroundTask
	started []BackgroundTask
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

var (
	defaultManager = &manager{tasks: make([]BackgroundTask, 0)}
)

// Register adds a background task; should be called during assembly before StartAll.
func Register(task BackgroundTask) {
	if task == nil {
		return
	}
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.tasks = append(defaultManager.tasks, task)
}

// Names lists registered task names in registration order.
func Names() []string {
	defaultManager.mu.RLock()
	defer defaultManager.mu.RUnlock()
	names := make([]string, 0, len(defaultManager.tasks))
	for _, t := range defaultManager.tasks {
		names = append(names, t.Name())
	}
	return names
}

// StartAll starts all registered tasks once. Tasks already started are stopped
// again when a later one fails.
func StartAll(ctx context.Context) error {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		return nil
	}
	defaultManager.ctx, defaultManager.cancel = context.WithCancel(ctx)
	for _, t := range defaultManager.tasks {
		if err := t.Start(defaultManager.ctx); err != nil {
			for i := len(defaultManager.started) - 1; i >= 0; i-- {
				_ = defaultManager.started[i].Stop()
			}
			defaultManager.started = nil
			defaultManager.cancel()
			defaultManager.cancel = nil
			return fmt.Errorf("start background task %s: %w", t.Name(), err)
		}
		defaultManager.started = append(defaultManager.started, t)
		logger.Infof("Background task started name=%s", t.Name())
	}
	return nil
}

// StopAll stops all running tasks in reverse start order.
func StopAll() {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		defaultManager.cancel()
	}
	for i := len(defaultManager.started) - 1; i >= 0; i-- {
		t := defaultManager.started[i]
		if err := t.Stop(); err != nil {
			logger.Warnf("Background task stop failed name=%s error=%v", t.Name(), err)
		}
	}
	defaultManager.started = nil
	defaultManager.cancel = nil
}

// Reset drops all registrations, used by tests.
func Reset() {
	StopAll()
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.tasks = defaultManager.tasks[:0]
}

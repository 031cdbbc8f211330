package component

import "context"

// backgroundTask 将 Start/Stop 函数适配为 task.BackgroundTask
type backgroundTask struct {
	name      string
	startFunc func(ctx context.Context) error
	stopFunc  func() error
}

func (b *backgroundTask) Name() string                    { return b.name }
func (b *backgroundTask) Start(ctx context.Context) error { return b.startFunc(ctx) }
func (b *backgroundTask) Stop() error                     { return b.stopFunc() }

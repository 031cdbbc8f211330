package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/service"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/logger"
)

// StageHandler 执行单个阶段任务
type StageHandler interface {
	HandleStage(ctx context.Context, task vo.StageTask) service.StageOutcome
}

// PipelineWorker 阶段任务工作器接口
type PipelineWorker interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	GetStats() WorkerStats
}

// WorkerStats 工作器统计信息
type WorkerStats struct {
	ProcessedTasks   uint64
	SuccessfulTasks  uint64
	FailedTasks      uint64
	RequeuedTasks    uint64
	CurrentlyRunning int64
	StartTime        time.Time
	LastTaskTime     time.Time
}

// Options 工作器参数
type Options struct {
	ID             string
	Concurrency    int
	RetryBackoff   time.Duration
	LockRetryDelay time.Duration
	// GracePeriod Stop 时等待进行中的阶段结束的最长时间
	GracePeriod time.Duration
}

type pipelineWorkerImpl struct {
	opts    Options
	queue   port.StageQueue
	handler StageHandler
	locker  port.AssetLocker

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	// loops 出队协程；delayed 延迟回投协程
	loops   sync.WaitGroup
	delayed sync.WaitGroup

	processed  atomic.Uint64
	succeeded  atomic.Uint64
	failed     atomic.Uint64
	requeued   atomic.Uint64
	inFlight   atomic.Int64
	startTime  time.Time
	lastTaskAt atomic.Int64
}

// NewPipelineWorker locker 为 nil 时不做资产级互斥
func NewPipelineWorker(opts Options, queue port.StageQueue, handler StageHandler, locker port.AssetLocker) PipelineWorker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.ID == "" {
		opts.ID = "encoding-worker"
	}
	if opts.LockRetryDelay <= 0 {
		opts.LockRetryDelay = 15 * time.Second
	}
	return &pipelineWorkerImpl{
		opts:    opts,
		queue:   queue,
		handler: handler,
		locker:  locker,
	}
}

func (w *pipelineWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("worker %s is already running", w.opts.ID)
	}
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.startTime = time.Now()

	logger.Infof("Pipeline worker starting worker_id=%s concurrency=%d", w.opts.ID, w.opts.Concurrency)
	for i := 0; i < w.opts.Concurrency; i++ {
		w.loops.Add(1)
		go w.loop(workerCtx, i)
	}
	return nil
}

// Stop 取消出队并等待进行中的阶段，超过 GracePeriod 直接返回
func (w *pipelineWorkerImpl) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.loops.Wait()
		w.delayed.Wait()
		close(done)
	}()
	if w.opts.GracePeriod > 0 {
		select {
		case <-done:
		case <-time.After(w.opts.GracePeriod):
			logger.Warnf("Pipeline worker stop timed out worker_id=%s in_flight=%d", w.opts.ID, w.inFlight.Load())
		}
	} else {
		<-done
	}
	w.running = false
	logger.Infof("Pipeline worker stopped worker_id=%s processed=%d", w.opts.ID, w.processed.Load())
	return nil
}

func (w *pipelineWorkerImpl) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *pipelineWorkerImpl) GetStats() WorkerStats {
	w.mu.Lock()
	start := w.startTime
	w.mu.Unlock()
	var last time.Time
	if ns := w.lastTaskAt.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return WorkerStats{
		ProcessedTasks:   w.processed.Load(),
		SuccessfulTasks:  w.succeeded.Load(),
		FailedTasks:      w.failed.Load(),
		RequeuedTasks:    w.requeued.Load(),
		CurrentlyRunning: w.inFlight.Load(),
		StartTime:        start,
		LastTaskTime:     last,
	}
}

func (w *pipelineWorkerImpl) loop(ctx context.Context, slot int) {
	defer w.loops.Done()
	logger.Debugf("Pipeline worker loop started worker_id=%s slot=%d", w.opts.ID, slot)
	for {
		delivery, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, port.ErrQueueClosed) {
				return
			}
			logger.Warnf("Dequeue stage task failed worker_id=%s slot=%d error=%v", w.opts.ID, slot, err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}
		if delivery == nil {
			continue
		}
		w.process(ctx, delivery)
	}
}

// process 阶段执行与后续任务的投递都完成后才 Ack，kafka 后端因此至少投递一次
func (w *pipelineWorkerImpl) process(ctx context.Context, d *port.StageDelivery) {
	task := d.Task
	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	w.lastTaskAt.Store(time.Now().UnixNano())

	if w.locker != nil {
		release, err := w.locker.Acquire(ctx, task.AssetUUID)
		if err != nil {
			if errors.Is(err, port.ErrLockHeld) {
				logger.Infof("Asset busy, requeue stage task asset_uuid=%s stage=%s delay=%s", task.AssetUUID, task.Stage, w.opts.LockRetryDelay)
			} else {
				logger.Warnf("Acquire asset lease failed asset_uuid=%s stage=%s error=%v", task.AssetUUID, task.Stage, err)
			}
			// kafka 队列上延迟期间同分区后续 offset 可能先提交，进程崩溃会丢失该任务，由 RecoverStalledRuns 重新投递
			w.requeueLater(ctx, task, w.opts.LockRetryDelay, d)
			return
		}
		defer release()
	}

	out := w.handler.HandleStage(ctx, task)
	w.processed.Add(1)
	if out.Err != nil {
		w.failed.Add(1)
	} else {
		w.succeeded.Add(1)
	}

	if out.Next == nil {
		w.ack(d)
		return
	}
	if out.Retry {
		// 延迟回投前未 ack 的任务在崩溃后同样依赖 RecoverStalledRuns 补偿
		w.requeueLater(ctx, *out.Next, w.opts.RetryBackoff, d)
		return
	}
	if err := w.queue.Enqueue(ctx, *out.Next); err != nil {
		logger.Errorf("Enqueue next stage failed run_uuid=%s asset_uuid=%s stage=%s error=%v", out.Next.RunUUID, out.Next.AssetUUID, out.Next.Stage, err)
	}
	w.ack(d)
}

// requeueLater 延迟回投；worker 停止时放弃，由恢复调度补偿
func (w *pipelineWorkerImpl) requeueLater(ctx context.Context, task vo.StageTask, delay time.Duration, d *port.StageDelivery) {
	w.requeued.Add(1)
	if delay <= 0 {
		if err := w.queue.Enqueue(ctx, task); err != nil {
			logger.Errorf("Requeue stage task failed run_uuid=%s stage=%s error=%v", task.RunUUID, task.Stage, err)
		}
		w.ack(d)
		return
	}
	w.delayed.Add(1)
	go func() {
		defer w.delayed.Done()
		if !sleepCtx(ctx, delay) {
			logger.Infof("Worker stopping, drop delayed stage task run_uuid=%s stage=%s", task.RunUUID, task.Stage)
			return
		}
		if err := w.queue.Enqueue(ctx, task); err != nil {
			logger.Errorf("Requeue stage task failed run_uuid=%s stage=%s error=%v", task.RunUUID, task.Stage, err)
		}
		w.ack(d)
	}()
}

func (w *pipelineWorkerImpl) ack(d *port.StageDelivery) {
	if d.Ack == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Ack(ctx); err != nil {
		logger.Warnf("Ack stage task failed run_uuid=%s stage=%s error=%v", d.Task.RunUUID, d.Task.Stage, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

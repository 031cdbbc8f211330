package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/service"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/queue"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedHandler 按阶段返回预设结果并记录调用顺序
type scriptedHandler struct {
	mu      sync.Mutex
	calls   []vo.StageTask
	results map[vo.PipelineStage][]service.StageOutcome
	done    chan struct{}
	doneAt  vo.PipelineStage
}

func (h *scriptedHandler) HandleStage(_ context.Context, task vo.StageTask) service.StageOutcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, task)
	if task.Stage == h.doneAt {
		close(h.done)
		return service.StageOutcome{}
	}
	rs := h.results[task.Stage]
	if len(rs) == 0 {
		next := task.NextStage(task.Stage.Next(false))
		return service.StageOutcome{Next: &next}
	}
	out := rs[0]
	h.results[task.Stage] = rs[1:]
	return out
}

func (h *scriptedHandler) stages() []vo.PipelineStage {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]vo.PipelineStage, 0, len(h.calls))
	for _, c := range h.calls {
		out = append(out, c.Stage)
	}
	return out
}

type busyLocker struct {
	mu    sync.Mutex
	busy  int
	calls int
}

func (l *busyLocker) Acquire(context.Context, string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.busy > 0 {
		l.busy--
		return nil, port.ErrLockHeld
	}
	return func() {}, nil
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not reach the final stage")
	}
}

func TestWorkerChainsStages(t *testing.T) {
	q := queue.NewMemoryStageQueue(10)
	defer q.Close()
	h := &scriptedHandler{done: make(chan struct{}), doneAt: vo.StageManifest, results: map[vo.PipelineStage][]service.StageOutcome{}}
	w := NewPipelineWorker(Options{Concurrency: 2}, q, h, nil)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, q.Enqueue(context.Background(), vo.StageTask{RunUUID: "r", AssetUUID: "a", Stage: vo.StageEncode, Attempt: 1}))
	waitDone(t, h.done)
	require.NoError(t, w.Stop())

	assert.Equal(t, []vo.PipelineStage{vo.StageEncode, vo.StageThumbnail, vo.StageSprite, vo.StageManifest}, h.stages())
	assert.False(t, w.IsRunning())
	assert.Equal(t, uint64(4), w.GetStats().ProcessedTasks)
}

func TestWorkerRetriesAfterBackoff(t *testing.T) {
	q := queue.NewMemoryStageQueue(10)
	defer q.Close()
	retry := vo.StageTask{RunUUID: "r", AssetUUID: "a", Stage: vo.StageEncode, Attempt: 2}
	h := &scriptedHandler{
		done:   make(chan struct{}),
		doneAt: vo.StageThumbnail,
		results: map[vo.PipelineStage][]service.StageOutcome{
			vo.StageEncode: {{Next: &retry, Retry: true, Err: assert.AnError}},
		},
	}
	w := NewPipelineWorker(Options{RetryBackoff: 20 * time.Millisecond}, q, h, nil)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, q.Enqueue(context.Background(), vo.StageTask{RunUUID: "r", AssetUUID: "a", Stage: vo.StageEncode, Attempt: 1}))
	waitDone(t, h.done)
	require.NoError(t, w.Stop())

	assert.Equal(t, []vo.PipelineStage{vo.StageEncode, vo.StageEncode, vo.StageThumbnail}, h.stages())
	stats := w.GetStats()
	assert.Equal(t, uint64(1), stats.FailedTasks)
	assert.Equal(t, uint64(1), stats.RequeuedTasks)
}

func TestWorkerRequeuesWhenAssetBusy(t *testing.T) {
	q := queue.NewMemoryStageQueue(10)
	defer q.Close()
	h := &scriptedHandler{done: make(chan struct{}), doneAt: vo.StageEncode, results: map[vo.PipelineStage][]service.StageOutcome{}}
	locker := &busyLocker{busy: 2}
	w := NewPipelineWorker(Options{LockRetryDelay: 10 * time.Millisecond}, q, h, locker)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, q.Enqueue(context.Background(), vo.StageTask{RunUUID: "r", AssetUUID: "a", Stage: vo.StageEncode, Attempt: 1}))
	waitDone(t, h.done)
	require.NoError(t, w.Stop())

	assert.Equal(t, 3, locker.calls)
	assert.Len(t, h.stages(), 1)
}

func TestWorkerStopDropsDelayedTask(t *testing.T) {
	q := queue.NewMemoryStageQueue(10)
	defer q.Close()
	h := &scriptedHandler{done: make(chan struct{}), doneAt: vo.StageDone, results: map[vo.PipelineStage][]service.StageOutcome{}}
	w := NewPipelineWorker(Options{LockRetryDelay: time.Hour}, q, h, &busyLocker{busy: 1})

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, q.Enqueue(context.Background(), vo.StageTask{RunUUID: "r", AssetUUID: "a", Stage: vo.StageEncode, Attempt: 1}))
	require.Eventually(t, func() bool { return w.GetStats().RequeuedTasks == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Empty(t, h.stages())
	assert.Zero(t, q.Size())
}

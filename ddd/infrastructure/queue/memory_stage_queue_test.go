package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/errno"
)

func TestMemoryStageQueueFIFO(t *testing.T) {
	q := NewMemoryStageQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, vo.StageTask{RunUUID: "r1", Stage: vo.StageEncode}))
	require.NoError(t, q.Enqueue(ctx, vo.StageTask{RunUUID: "r2", Stage: vo.StageEncode}))
	assert.ErrorIs(t, q.Enqueue(ctx, vo.StageTask{RunUUID: "r3"}), errno.ErrQueueFull)
	assert.Equal(t, 2, q.Size())

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", d.Task.RunUUID)
	assert.NoError(t, d.Ack(ctx))
}

func TestMemoryStageQueueDequeueHonoursContext(t *testing.T) {
	q := NewMemoryStageQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryStageQueueCloseUnblocksConsumers(t *testing.T) {
	q := NewMemoryStageQueue(1)
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, port.ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return after close")
	}
	assert.ErrorIs(t, q.Enqueue(context.Background(), vo.StageTask{}), port.ErrQueueClosed)
}

func TestDecodeStageTask(t *testing.T) {
	task, err := DecodeStageTask([]byte(`{"run_uuid":"r","asset_uuid":"a","stage":"sprite"}`))
	require.NoError(t, err)
	assert.Equal(t, vo.StageSprite, task.Stage)
	assert.Equal(t, 1, task.Attempt)

	_, err = DecodeStageTask([]byte(`{"run_uuid":"r","asset_uuid":"a","stage":"done"}`))
	assert.Error(t, err)
	_, err = DecodeStageTask([]byte(`{"asset_uuid":"a","stage":"encode"}`))
	assert.Error(t, err)
	_, err = DecodeStageTask([]byte(`nope`))
	assert.Error(t, err)
}

package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/entity"
)

type recordingLogRepo struct {
	entityLogRepo
	writes []int
}

func (r *recordingLogRepo) UpdateLogProgress(_ context.Context, _ uint64, progress int) error {
	r.writes = append(r.writes, progress)
	return nil
}

func TestDBSinkThrottles(t *testing.T) {
	repo := &recordingLogRepo{}
	sink := NewDBSink(repo).(*DBSink)
	clock := time.Unix(1000, 0)
	sink.now = func() time.Time { return clock }

	log := entity.NewEncodingLogEntity(1, "asset-1", "720p", "encoding")
	log.SetID(7)
	ctx := context.Background()

	for _, p := range []int{1, 2, 3, 7, 7, 9, 12} {
		require.NoError(t, sink.SaveProgress(ctx, log, p))
	}
	assert.Equal(t, []int{1, 7, 12}, repo.writes)

	clock = clock.Add(3 * time.Second)
	require.NoError(t, sink.SaveProgress(ctx, log, 13))
	require.NoError(t, sink.SaveProgress(ctx, log, 100))
	assert.Equal(t, []int{1, 7, 12, 13, 100}, repo.writes)
}

func TestDBSinkSkipsUnsavedLog(t *testing.T) {
	repo := &recordingLogRepo{}
	sink := NewDBSink(repo)
	log := entity.NewEncodingLogEntity(1, "asset-1", "720p", "encoding")

	require.NoError(t, sink.SaveProgress(context.Background(), log, 50))
	assert.Empty(t, repo.writes)
}

type entityLogRepo struct{}

func (entityLogRepo) CreateLog(context.Context, *entity.EncodingLogEntity) error { return nil }
func (entityLogRepo) UpdateLog(context.Context, *entity.EncodingLogEntity) error { return nil }
func (entityLogRepo) UpdateLogProgress(context.Context, uint64, int) error       { return nil }
func (entityLogRepo) ListLogs(context.Context, string, int) ([]*entity.EncodingLogEntity, error) {
	return nil, nil
}
func (entityLogRepo) DeleteLogsByAsset(context.Context, string) error { return nil }

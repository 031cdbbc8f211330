package component

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"encoding-service/ddd/application/cqe"
	"encoding-service/ddd/application/dto"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
)

type stubApp struct {
	registered  []*cqe.RegisterAssetReq
	registerErr error
	recovered   int
	before      time.Time
}

func (s *stubApp) RegisterAsset(_ context.Context, req *cqe.RegisterAssetReq) (*dto.AssetDTO, error) {
	s.registered = append(s.registered, req)
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &dto.AssetDTO{AssetUUID: req.AssetUUID}, nil
}
func (s *stubApp) StartPipeline(context.Context, *cqe.StartPipelineReq) (*dto.PipelineRunDTO, error) {
	return nil, nil
}
func (s *stubApp) GetAsset(context.Context, string) (*dto.AssetDTO, error) { return nil, nil }
func (s *stubApp) ListRenditions(context.Context, string) ([]*dto.RenditionDTO, error) {
	return nil, nil
}
func (s *stubApp) ListLogs(context.Context, string, int) ([]*dto.EncodingLogDTO, error) {
	return nil, nil
}
func (s *stubApp) DeleteAsset(context.Context, string, bool) error { return nil }
func (s *stubApp) AttachAsset(context.Context, *cqe.AttachAssetReq) (*dto.AttachmentDTO, error) {
	return nil, nil
}
func (s *stubApp) ListAttachments(context.Context, string, string) ([]*dto.AttachmentDTO, error) {
	return nil, nil
}
func (s *stubApp) RecoverStalledRuns(_ context.Context, before time.Time, _ int) (int, error) {
	s.before = before
	return s.recovered, nil
}

func TestAssetUploadedConsumerHandle(t *testing.T) {
	app := &stubApp{}
	c := &assetUploadedConsumer{app: app, commitOnDecode: true}
	ctx := context.Background()

	assert.True(t, c.handle(ctx, []byte(`{"asset_uuid":"a-1","source_path":"uploads/a.mp4","profiles":["720p"]}`)))
	if assert.Len(t, app.registered, 1) {
		req := app.registered[0]
		assert.Equal(t, "a-1", req.AssetUUID)
		assert.True(t, req.AutoStart)
		assert.Equal(t, []string{"720p"}, req.Profiles)
	}

	assert.True(t, c.handle(ctx, []byte(`not json`)))
	c.commitOnDecode = false
	assert.False(t, c.handle(ctx, []byte(`not json`)))

	app.registerErr = errno.ErrPipelineInFlight
	assert.True(t, c.handle(ctx, []byte(`{"asset_uuid":"a-1","source_path":"uploads/a.mp4"}`)))

	app.registerErr = errno.NewBizError(errno.ErrDatabase, assert.AnError)
	assert.False(t, c.handle(ctx, []byte(`{"asset_uuid":"a-1","source_path":"uploads/a.mp4"}`)))
	c.commitOnProcess = true
	assert.True(t, c.handle(ctx, []byte(`{"asset_uuid":"a-1","source_path":"uploads/a.mp4"}`)))
}

func TestRecoverySchedulerTickUsesStallTimeout(t *testing.T) {
	app := &stubApp{recovered: 2}
	s := NewRecoveryScheduler(app, config.SchedulerConfig{StallTimeout: 30 * time.Minute, BatchSize: 5})
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.Equal(t, 2, s.Tick(context.Background()))
	assert.Equal(t, now.Add(-30*time.Minute), app.before)
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/application/cqe"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/database/po"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/repository"
)

const sourceRel = "uploads/clip.mp4"

type appFixture struct {
	cfg *config.Config
	rt  *Runtime
}

func newAppFixture(t *testing.T, queueCapacity int) *appFixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.BasePath = filepath.Join(dir, "storage")
	cfg.Storage.LockDir = filepath.Join(dir, "locks")
	cfg.Worker.QueueCapacity = queueCapacity
	cfg.Storage.Cleanup = true

	db, err := repository.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "encoding.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Self.AutoMigrate(po.AllModels()...))

	src := filepath.Join(cfg.Storage.BasePath, sourceRel)
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("fake video"), 0o644))

	rt, err := NewRuntime(cfg, db.Self, RuntimeOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Queue.Close() })
	return &appFixture{cfg: cfg, rt: rt}
}

func errCode(err error) int {
	code, _ := errno.Decode(err)
	return code
}

func TestRegisterAssetAutoStartEnqueuesEncode(t *testing.T) {
	f := newAppFixture(t, 10)
	ctx := context.Background()

	asset, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{Title: "clip", SourcePath: sourceRel, AutoStart: true, Profiles: []string{"720p"}})
	require.NoError(t, err)
	assert.Equal(t, vo.AssetStatusPending.String(), asset.Status)

	require.Equal(t, 1, f.rt.Queue.Size())
	d, err := f.rt.Queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, vo.StageEncode, d.Task.Stage)
	assert.Equal(t, asset.AssetUUID, d.Task.AssetUUID)
	assert.Equal(t, []string{"720p"}, d.Task.Profiles)
	assert.Equal(t, 1, d.Task.Attempt)

	_, err = f.rt.App.StartPipeline(ctx, &cqe.StartPipelineReq{AssetUUID: asset.AssetUUID})
	assert.Equal(t, errno.ErrPipelineInFlight.Code, errCode(err))
}

func TestRegisterAssetIsIdempotentByUUID(t *testing.T) {
	f := newAppFixture(t, 10)
	ctx := context.Background()

	req := &cqe.RegisterAssetReq{AssetUUID: "upload-42", Title: "clip", SourcePath: sourceRel, AutoStart: true}
	first, err := f.rt.App.RegisterAsset(ctx, req)
	require.NoError(t, err)
	second, err := f.rt.App.RegisterAsset(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "upload-42", first.AssetUUID)
	assert.Equal(t, first.AssetUUID, second.AssetUUID)
	assert.Equal(t, 1, f.rt.Queue.Size())
}

func TestRegisterAssetValidation(t *testing.T) {
	f := newAppFixture(t, 10)
	ctx := context.Background()

	_, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{SourcePath: "uploads/missing.mp4"})
	assert.Equal(t, errno.ErrSourceMissing.Code, errCode(err))

	_, err = f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{SourcePath: "../etc/passwd"})
	assert.Equal(t, errno.ErrInvalidParam.Code, errCode(err))

	_, err = f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{SourcePath: sourceRel, AutoStart: true, Profiles: []string{"8k"}})
	assert.Equal(t, errno.ErrUnknownProfile.Code, errCode(err))

	_, err = f.rt.App.GetAsset(ctx, "nope")
	assert.Equal(t, errno.ErrAssetNotFound.Code, errCode(err))
}

func TestStartPipelineQueueFullFailsAsset(t *testing.T) {
	f := newAppFixture(t, 1)
	ctx := context.Background()

	_, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{Title: "a", SourcePath: sourceRel, AutoStart: true})
	require.NoError(t, err)

	b, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{Title: "b", SourcePath: sourceRel})
	require.NoError(t, err)
	_, err = f.rt.App.StartPipeline(ctx, &cqe.StartPipelineReq{AssetUUID: b.AssetUUID})
	assert.ErrorIs(t, err, errno.ErrQueueFull)

	got, err := f.rt.App.GetAsset(ctx, b.AssetUUID)
	require.NoError(t, err)
	assert.Equal(t, vo.AssetStatusFailed.String(), got.Status)
	assert.Contains(t, got.ErrorMessage, "enqueue")
}

func TestRecoverStalledRunsRequeuesCurrentStage(t *testing.T) {
	f := newAppFixture(t, 10)
	ctx := context.Background()

	asset, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{Title: "clip", SourcePath: sourceRel, AutoStart: true, Force: true})
	require.NoError(t, err)
	_, err = f.rt.Queue.Dequeue(ctx)
	require.NoError(t, err)

	n, err := f.rt.App.RecoverStalledRuns(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.rt.App.RecoverStalledRuns(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d, err := f.rt.Queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, asset.AssetUUID, d.Task.AssetUUID)
	assert.Equal(t, vo.StageEncode, d.Task.Stage)
	assert.True(t, d.Task.Force)
}

func TestDeleteAsset(t *testing.T) {
	f := newAppFixture(t, 10)
	ctx := context.Background()

	asset, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{Title: "clip", SourcePath: sourceRel})
	require.NoError(t, err)
	_, err = f.rt.App.AttachAsset(ctx, &cqe.AttachAssetReq{OwnerType: "course", OwnerID: "7", FieldName: "intro", AssetUUID: asset.AssetUUID})
	require.NoError(t, err)

	hlsDir := filepath.Join(f.cfg.Storage.BasePath, "assets", asset.AssetUUID, "hls", "720p")
	require.NoError(t, os.MkdirAll(hlsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hlsDir, "playlist.m3u8"), []byte("#EXTM3U\n"), 0o644))

	require.NoError(t, f.rt.App.DeleteAsset(ctx, asset.AssetUUID, false))
	got, err := f.rt.App.GetAsset(ctx, asset.AssetUUID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.DirExists(t, hlsDir)

	_, err = f.rt.App.StartPipeline(ctx, &cqe.StartPipelineReq{AssetUUID: asset.AssetUUID})
	assert.ErrorIs(t, err, errno.ErrAssetDeleted)

	require.NoError(t, f.rt.App.DeleteAsset(ctx, asset.AssetUUID, true))
	_, err = f.rt.App.GetAsset(ctx, asset.AssetUUID)
	assert.Equal(t, errno.ErrAssetNotFound.Code, errCode(err))
	assert.NoDirExists(t, filepath.Join(f.cfg.Storage.BasePath, "assets", asset.AssetUUID, "hls"))
	assert.FileExists(t, filepath.Join(f.cfg.Storage.BasePath, sourceRel))

	atts, err := f.rt.App.ListAttachments(ctx, "course", "7")
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestHardDeleteKeepsOriginalUpload(t *testing.T) {
	f := newAppFixture(t, 10)
	ctx := context.Background()

	base := f.cfg.Storage.BasePath
	sourceInTree := filepath.Join("assets", "asset-1", "original", "clip.mp4")
	require.NoError(t, os.MkdirAll(filepath.Join(base, filepath.Dir(sourceInTree)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, sourceInTree), []byte("fake video"), 0o644))

	_, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{AssetUUID: "asset-1", Title: "clip", SourcePath: sourceInTree})
	require.NoError(t, err)

	master := filepath.Join(base, "assets", "asset-1", "master.m3u8")
	require.NoError(t, os.WriteFile(master, []byte("#EXTM3U\n"), 0o644))
	mp4 := filepath.Join(base, "assets", "asset-1", "mp4", "720p.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(mp4), 0o755))
	require.NoError(t, os.WriteFile(mp4, []byte("x"), 0o644))

	require.NoError(t, f.rt.App.DeleteAsset(ctx, "asset-1", true))

	assert.FileExists(t, filepath.Join(base, sourceInTree))
	assert.NoFileExists(t, master)
	assert.NoDirExists(t, filepath.Dir(mp4))
}

func TestAttachAssetRetargetsField(t *testing.T) {
	f := newAppFixture(t, 10)
	ctx := context.Background()

	a, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{Title: "a", SourcePath: sourceRel})
	require.NoError(t, err)
	b, err := f.rt.App.RegisterAsset(ctx, &cqe.RegisterAssetReq{Title: "b", SourcePath: sourceRel})
	require.NoError(t, err)

	_, err = f.rt.App.AttachAsset(ctx, &cqe.AttachAssetReq{OwnerType: "lesson", OwnerID: "1", FieldName: "video", AssetUUID: a.AssetUUID})
	require.NoError(t, err)
	_, err = f.rt.App.AttachAsset(ctx, &cqe.AttachAssetReq{OwnerType: "lesson", OwnerID: "1", FieldName: "video", AssetUUID: b.AssetUUID})
	require.NoError(t, err)

	atts, err := f.rt.App.ListAttachments(ctx, "lesson", "1")
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, b.AssetUUID, atts[0].AssetUUID)

	_, err = f.rt.App.AttachAsset(ctx, &cqe.AttachAssetReq{OwnerType: "lesson", FieldName: "video", AssetUUID: b.AssetUUID})
	assert.ErrorIs(t, err, errno.ErrAttachmentInvalid)
}

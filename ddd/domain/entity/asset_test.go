package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/vo"
)

func TestAssetLifecycle(t *testing.T) {
	a := NewAssetEntity("demo", "assets/x/original/source.mp4")
	assert.Equal(t, vo.AssetStatusUploaded, a.Status())
	assert.NotEmpty(t, a.AssetUUID())

	require.Error(t, a.Complete())
	require.NoError(t, a.MarkPending())
	require.NoError(t, a.StartProcessing())
	require.NoError(t, a.Complete())
	assert.Equal(t, vo.AssetStatusCompleted, a.Status())

	require.NoError(t, a.MarkPending())
	require.NoError(t, a.Fail("no renditions"))
	assert.Equal(t, "no renditions", a.ErrorMessage())
}

func TestRenditionBestPath(t *testing.T) {
	r := NewRenditionEntity("a", vo.EncodingProfile{Name: "720p"}, vo.ExportFlags{HLS: true, DASH: true})
	r.Complete(map[vo.OutputFormat]string{
		vo.FormatHLS:  "assets/a/hls/720p/playlist.m3u8",
		vo.FormatDASH: "assets/a/dash/720p/manifest.mpd",
	}, 10)
	assert.True(t, r.Encoded())
	assert.Equal(t, "assets/a/hls/720p/playlist.m3u8", r.BestPath())

	r.StartProcessing(vo.EncodingProfile{Name: "720p"}, vo.ExportFlags{Progressive: true})
	assert.False(t, r.Encoded())
	assert.Equal(t, vo.RenditionStatusProcessing, r.Status())
}

func TestEncodingLogCommandsAccumulate(t *testing.T) {
	l := NewEncodingLogEntity(1, "a", "720p", "Encoding 720p started")
	l.AppendCommand("ffmpeg -i a out.mp4")
	l.AppendCommand("ffmpeg -i a playlist.m3u8")
	l.AppendErrorOutput(vo.FormatHLS, "boom\n")
	assert.Equal(t, "ffmpeg -i a out.mp4\nffmpeg -i a playlist.m3u8", l.CommandLine())
	assert.Equal(t, "[hls] boom", l.ErrorOutput())

	l.UpdateProgress(140)
	assert.Equal(t, 100, l.Progress())
	assert.Equal(t, vo.LogStatusProgress, l.Status())
}

func TestPipelineRunAdvance(t *testing.T) {
	r := NewPipelineRunEntity("a", false, nil)
	r.RecordAttempt()
	assert.Equal(t, 1, r.Attempts())
	r.Advance(vo.StageThumbnail)
	assert.Zero(t, r.Attempts())
	assert.True(t, r.IsActive())
	r.Advance(vo.StageDone)
	assert.Equal(t, vo.RunStatusCompleted, r.Status())
	assert.NotNil(t, r.FinishedAt())
}

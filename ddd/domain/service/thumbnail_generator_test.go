package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
)

func TestThumbnailTimeClampsToDuration(t *testing.T) {
	assert.Equal(t, 5.0, ThumbnailTime(5, 30))
	assert.Equal(t, 2.0, ThumbnailTime(5, 4))
	assert.Equal(t, 2.0, ThumbnailTime(4, 4))
	assert.Equal(t, 0.0, ThumbnailTime(-1, 4))
}

func TestThumbnailGenerate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Thumbnail.Format = "jpeg"
	runner := &fakeRunner{}
	gen := NewThumbnailGenerator(runner, newTestStorage(cfg), NewCommandBuilder(cfg.Encoding), cfg, nil)
	asset := entity.NewAssetEntity("clip", "assets/a/original/source.mp4")
	asset.SetMetadata(vo.MediaMetadata{Duration: 3})

	path, err := gen.Generate(context.Background(), asset)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "poster.jpg"))
	require.Equal(t, 1, runner.callCount())
	assert.Contains(t, strings.Join(runner.calls[0], " "), "-ss 1.500000")
}

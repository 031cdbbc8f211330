package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "encoding.db", cfg.Database.Path)
	assert.Equal(t, "ffmpeg", cfg.Encoding.FFmpegPath)
	assert.Equal(t, time.Hour, cfg.Encoding.EncodeTimeout)
	assert.Equal(t, 60*time.Second, cfg.Encoding.ProbeTimeout)
	assert.Equal(t, 300*time.Second, cfg.Encoding.ImageTimeout)
	assert.True(t, cfg.Encoding.Formats.Progressive)
	assert.True(t, cfg.Encoding.Formats.HLS)
	assert.True(t, cfg.Encoding.Formats.DASH)
	assert.Len(t, cfg.Encoding.Profiles, len(DefaultProfiles()))
	assert.Equal(t, 3, cfg.Pipeline.EncodeAttempts)
	assert.Equal(t, 1, cfg.Pipeline.SpriteAttempts)
	assert.Equal(t, "assets/{assetId}/hls", cfg.Storage.Layout.HLS)
	assert.Equal(t, 100, cfg.Sprite.Frames)
}

func TestLoadKeepsProfileOrder(t *testing.T) {
	path := writeConfig(t, `
encoding:
  profiles:
    - name: hd
      width: 1280
      height: 720
      bitrate: 2500k
    - name: sd
      width: 640
      height: 360
      framerate: 25
      bitrate: 800k
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Encoding.Profiles, 2)
	assert.Equal(t, "hd", cfg.Encoding.Profiles[0].Name)
	assert.Equal(t, "sd", cfg.Encoding.Profiles[1].Name)
	assert.Equal(t, 30.0, cfg.Encoding.Profiles[0].Framerate)
	assert.Equal(t, 25.0, cfg.Encoding.Profiles[1].Framerate)
	assert.Equal(t, "libx264", cfg.Encoding.Profiles[1].Codec)
}

func TestLoadRejectsDuplicateProfiles(t *testing.T) {
	path := writeConfig(t, `
encoding:
  profiles:
    - {name: hd, width: 1280, height: 720}
    - {name: hd, width: 640, height: 360}
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "duplicate encoding profile")
}

func TestLoadRejectsKafkaQueueWithoutKafka(t *testing.T) {
	path := writeConfig(t, "worker:\n  queue_backend: kafka\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestStageAttempts(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.Pipeline.StageAttempts("encode"))
	assert.Equal(t, 1, cfg.Pipeline.StageAttempts("thumbnail"))
	assert.Equal(t, 1, cfg.Pipeline.StageAttempts("unknown"))
}

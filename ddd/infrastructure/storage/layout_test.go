package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/pkg/config"
)

func newTestStorage(t *testing.T) *LocalStorage {
	cfg := config.Default().Storage
	cfg.BasePath = t.TempDir()
	return NewLocalStorage(cfg)
}

func TestLayoutSubstitutesAssetID(t *testing.T) {
	s := newTestStorage(t)
	assert.Equal(t, filepath.FromSlash("assets/a1/mp4/720p.mp4"), s.ProgressiveFile("a1", "720p"))
	assert.Equal(t, filepath.FromSlash("assets/a1/hls/720p"), s.HLSDir("a1", "720p"))
	assert.Equal(t, filepath.FromSlash("assets/a1/dash/720p"), s.DASHDir("a1", "720p"))
	assert.Equal(t, filepath.FromSlash("assets/a1/sprites/sprite.jpg"), s.SpriteFile("a1", "jpg"))
	assert.Equal(t, filepath.FromSlash("assets/a1"), s.Root("a1"))
}

func TestRootFallsBackWhenLayoutIsShared(t *testing.T) {
	cfg := config.Default().Storage
	cfg.BasePath = t.TempDir()
	cfg.Layout.Progressive = "mp4/{assetId}"
	cfg.Layout.HLS = "hls/{assetId}"
	s := NewLocalStorage(cfg)
	assert.Equal(t, filepath.FromSlash("assets/a1"), s.Root("a1"))
}

func TestExistsRequiresNonEmptyFile(t *testing.T) {
	s := newTestStorage(t)
	rel := s.ProgressiveFile("a1", "720p")
	require.NoError(t, s.EnsureDir(filepath.Dir(rel)))
	assert.False(t, s.Exists(rel))

	require.NoError(t, os.WriteFile(s.Abs(rel), nil, 0o644))
	assert.False(t, s.Exists(rel))

	require.NoError(t, s.WriteAtomic(rel, []byte("data")))
	assert.True(t, s.Exists(rel))
	assert.EqualValues(t, 4, s.Size(rel))
	assert.EqualValues(t, 4, s.Size(filepath.Dir(rel)))

	require.NoError(t, s.RemoveAll(s.Root("a1")))
	assert.False(t, s.Exists(rel))
}

func TestPreservedCoversOriginalsAndSource(t *testing.T) {
	s := newTestStorage(t)
	keep := s.Preserved("a1", s.Abs("uploads/clip.mp4"))
	assert.Equal(t, []string{filepath.FromSlash("assets/a1/original"), filepath.FromSlash("uploads/clip.mp4")}, keep)
	assert.Len(t, s.Preserved("a1", ""), 1)
}

func TestRemoveAllExceptKeepsOriginals(t *testing.T) {
	s := newTestStorage(t)
	original := filepath.Join(s.OriginalsDir("a1"), "clip.mp4")
	master := filepath.Join(s.ManifestDir("a1"), "master.m3u8")
	playlist := filepath.Join(s.HLSDir("a1", "720p"), "playlist.m3u8")
	for _, rel := range []string{original, master, playlist} {
		require.NoError(t, s.WriteAtomic(rel, []byte("data")))
	}

	for _, dir := range s.Subtrees("a1") {
		require.NoError(t, s.RemoveAllExcept(dir, s.Preserved("a1", original)...))
	}

	assert.FileExists(t, s.Abs(original))
	assert.NoFileExists(t, s.Abs(master))
	assert.NoDirExists(t, s.Abs(s.HLSRoot("a1")))
}

func TestRemoveAllExceptWithoutOverlap(t *testing.T) {
	s := newTestStorage(t)
	rel := s.SpriteFile("a1", "jpg")
	require.NoError(t, s.WriteAtomic(rel, []byte("data")))

	require.NoError(t, s.RemoveAllExcept(filepath.Dir(rel), "uploads/clip.mp4"))
	assert.NoDirExists(t, s.Abs(filepath.Dir(rel)))

	require.NoError(t, s.WriteAtomic(rel, []byte("data")))
	require.NoError(t, s.RemoveAllExcept(filepath.Dir(rel), "assets/a1"))
	assert.FileExists(t, s.Abs(rel))
}

func TestUploadSkipMatchesExactPaths(t *testing.T) {
	skip := []string{"/data/assets/a1/original/", ""}
	assert.True(t, skipped("/data/assets/a1/original", skip))
	assert.False(t, skipped("/data/assets/a1/original-2", skip))
	assert.False(t, skipped("/data/assets/a1", skip))
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"encoding-service/ddd/domain/vo"
)

var selectorCatalog = vo.ProfileCatalog{
	{Name: "sd", Width: 640, Height: 480, Framerate: 30, Bitrate: "1M"},
	{Name: "hd", Width: 1280, Height: 720, Framerate: 30, Bitrate: "2500k"},
	{Name: "hd60", Width: 1280, Height: 720, Framerate: 60, Bitrate: "4M"},
	{Name: "4k", Width: 3840, Height: 2160, Framerate: 30, Bitrate: "16M"},
}

func TestSelectProfilesFiltersByResolutionAndFramerate(t *testing.T) {
	s := NewProfileSelector(nil)
	meta := vo.MediaMetadata{Width: 1920, Height: 1080, Framerate: 30}

	got := s.Select(meta, vo.ProfileCatalog{selectorCatalog[1], selectorCatalog[3]}, nil)
	assert.Equal(t, []string{"hd"}, profileNames(got))

	got = s.Select(meta, selectorCatalog, nil)
	assert.Equal(t, []string{"sd", "hd"}, profileNames(got))
}

func TestSelectProfilesFramerateTolerance(t *testing.T) {
	s := NewProfileSelector(nil)
	p := vo.EncodingProfile{Name: "hd", Width: 1280, Height: 720, Framerate: 30}
	assert.True(t, IsSuitable(vo.MediaMetadata{Width: 1280, Height: 720, Framerate: 25}, p))
	assert.False(t, IsSuitable(vo.MediaMetadata{Width: 1280, Height: 720, Framerate: 24.9}, p))
	assert.Empty(t, s.Select(vo.MediaMetadata{Width: 320, Height: 240, Framerate: 30}, selectorCatalog, nil))
}

func TestSelectExplicitSubsetSkipsFramerateCheck(t *testing.T) {
	s := NewProfileSelector(nil)
	meta := vo.MediaMetadata{Width: 1920, Height: 1080, Framerate: 24}

	got := s.Select(meta, selectorCatalog, []string{"hd60", "4k", "missing", "sd"})
	assert.Equal(t, []string{"sd", "hd60"}, profileNames(got))

	// 同一档位在未显式指定时会被帧率规则过滤
	assert.NotContains(t, profileNames(s.Select(meta, selectorCatalog, nil)), "hd60")
}

func TestCatalogFromConfigKeepsOrder(t *testing.T) {
	cfg := testConfig(t)
	catalog := CatalogFromConfig(cfg.Encoding.Profiles)
	assert.Equal(t, []string{"360p", "480p", "720p", "1080p", "2160p"}, catalog.Names())
	assert.Equal(t, "libx264", catalog[0].Codec)
}

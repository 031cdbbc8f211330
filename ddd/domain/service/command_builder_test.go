package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
)

var hd = vo.EncodingProfile{Name: "720p", Width: 1280, Height: 720, Framerate: 30, Bitrate: "2500k", Codec: "libx264", Profile: "main", Level: "3.1"}

func TestBuildCommonArgs(t *testing.T) {
	b := NewCommandBuilder(config.EncodingConfig{Threads: 4})
	args := strings.Join(b.Build("/in.mp4", "/out/720p.mp4", hd, vo.FormatProgressive), " ")

	assert.Contains(t, args, "-i /in.mp4")
	assert.Contains(t, args, "-c:v libx264 -b:v 2500k -r 30 -vf scale=1280:720 -profile:v main -level 3.1 -pix_fmt yuv420p -c:a aac -b:a 128k -threads 4")
	assert.True(t, strings.HasSuffix(args, "-movflags +faststart /out/720p.mp4"))
	assert.True(t, strings.HasPrefix(args, "-y "))
}

func TestBuildHLSArgs(t *testing.T) {
	b := NewCommandBuilder(config.EncodingConfig{})
	args := strings.Join(b.Build("/in.mp4", "/out/hls/720p", hd, vo.FormatHLS), " ")
	assert.Contains(t, args, "-f hls -hls_time 10 -hls_list_size 0 -hls_segment_filename /out/hls/720p/segment_%03d.ts /out/hls/720p/playlist.m3u8")
	assert.NotContains(t, args, "-threads")
}

func TestBuildDASHArgs(t *testing.T) {
	b := NewCommandBuilder(config.EncodingConfig{})
	args := strings.Join(b.Build("/in.mp4", "/out/dash/720p", hd, vo.FormatDASH), " ")
	assert.Contains(t, args, "-f dash -seg_duration 10 -use_template 1 -use_timeline 1")
	assert.Contains(t, args, "-init_seg_name init-stream$RepresentationID$.m4s")
	assert.Contains(t, args, "-media_seg_name chunk-stream$RepresentationID$-$Number%05d$.m4s /out/dash/720p/manifest.mpd")
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "/o/720p.mp4", ArtifactPath(vo.FormatProgressive, "/o/720p.mp4"))
	assert.Equal(t, "/o/hls/playlist.m3u8", ArtifactPath(vo.FormatHLS, "/o/hls"))
	assert.Equal(t, "/o/dash/manifest.mpd", ArtifactPath(vo.FormatDASH, "/o/dash"))
}

func TestBuildImageArgs(t *testing.T) {
	b := NewCommandBuilder(config.EncodingConfig{})
	thumb := strings.Join(b.BuildThumbnail("/in.mp4", "/t.jpg", 5, 1280, 720, 100), " ")
	assert.Equal(t, "-y -ss 5.000000 -i /in.mp4 -frames:v 1 -vf scale=w=1280:h=720:force_original_aspect_ratio=decrease -q:v 2 /t.jpg", thumb)

	tile := strings.Join(b.BuildSpriteTile("/in.mp4", "/s.jpg", 0.5, 160, 90, 10, 10, 85), " ")
	assert.Contains(t, tile, "-vf fps=1/0.500000,scale=160:90,tile=10x10 -frames:v 1")
	assert.Contains(t, tile, "-q:v 6 /s.jpg")
}

func TestImageQualityFollowsOutputFormat(t *testing.T) {
	b := NewCommandBuilder(config.EncodingConfig{})

	webpThumb := b.BuildThumbnail("/in.mp4", "/t.webp", 5, 1280, 720, 90)
	assert.Equal(t, []string{"-quality", "90", "/t.webp"}, webpThumb[len(webpThumb)-3:])
	assert.NotContains(t, webpThumb, "-q:v")

	webpTile := b.BuildSpriteTile("/in.mp4", "/s.WEBP", 1, 160, 90, 10, 10, 70)
	assert.Equal(t, []string{"-quality", "70", "/s.WEBP"}, webpTile[len(webpTile)-3:])

	png := b.BuildThumbnail("/in.mp4", "/t.png", 5, 1280, 720, 90)
	assert.NotContains(t, png, "-q:v")
	assert.NotContains(t, png, "-quality")

	assert.Equal(t, []string{"-q:v", "4"}, ImageQualityArgs("/t.jpg", 90))
	assert.Equal(t, []string{"-q:v", "6"}, ImageQualityArgs("/t.jpeg", 0))
	assert.Equal(t, []string{"-quality", "85"}, ImageQualityArgs("/t.webp", 400))
}

func TestCommandLineQuotesSpaces(t *testing.T) {
	assert.Equal(t, `ffmpeg -i "/a b.mp4" out.mp4`, CommandLine("ffmpeg", []string{"-i", "/a b.mp4", "out.mp4"}))
}

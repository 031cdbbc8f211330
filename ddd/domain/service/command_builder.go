package service

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
)

const (
	HLSPlaylistName   = "playlist.m3u8"
	HLSSegmentPattern = "segment_%03d.ts"
	DASHManifestName  = "manifest.mpd"
	DASHInitTemplate  = "init-stream$RepresentationID$.m4s"
	DASHMediaTemplate = "chunk-stream$RepresentationID$-$Number%05d$.m4s"
)

// CommandBuilder 构建全部 ffmpeg 参数
type CommandBuilder struct {
	threads         int
	audioCodec      string
	audioBitrate    string
	segmentDuration int
}

func NewCommandBuilder(cfg config.EncodingConfig) *CommandBuilder {
	b := &CommandBuilder{
		threads:         cfg.Threads,
		audioCodec:      cfg.AudioCodec,
		audioBitrate:    cfg.AudioBitrate,
		segmentDuration: cfg.SegmentDuration,
	}
	if b.audioCodec == "" {
		b.audioCodec = "aac"
	}
	if b.audioBitrate == "" {
		b.audioBitrate = "128k"
	}
	if b.segmentDuration <= 0 {
		b.segmentDuration = 10
	}
	return b
}

// Build 构建单个 (档位, 格式) 的编码参数。
// progressive 的 output 为目标文件，hls/dash 的 output 为目录。
func (b *CommandBuilder) Build(source, output string, p vo.EncodingProfile, format vo.OutputFormat) []string {
	args := []string{"-y", "-i", source, "-progress", "pipe:2", "-nostats"}
	args = append(args, b.codecArgs(p)...)

	switch format {
	case vo.FormatHLS:
		args = append(args,
			"-f", "hls",
			"-hls_time", strconv.Itoa(b.segmentDuration),
			"-hls_list_size", "0",
			"-hls_segment_filename", filepath.Join(output, HLSSegmentPattern),
			filepath.Join(output, HLSPlaylistName),
		)
	case vo.FormatDASH:
		args = append(args,
			"-f", "dash",
			"-seg_duration", strconv.Itoa(b.segmentDuration),
			"-use_template", "1",
			"-use_timeline", "1",
			"-init_seg_name", DASHInitTemplate,
			"-media_seg_name", DASHMediaTemplate,
			filepath.Join(output, DASHManifestName),
		)
	default:
		args = append(args, "-movflags", "+faststart", output)
	}
	return args
}

// ArtifactPath 返回用于校验产出的文件
func ArtifactPath(format vo.OutputFormat, output string) string {
	switch format {
	case vo.FormatHLS:
		return filepath.Join(output, HLSPlaylistName)
	case vo.FormatDASH:
		return filepath.Join(output, DASHManifestName)
	default:
		return output
	}
}

func (b *CommandBuilder) codecArgs(p vo.EncodingProfile) []string {
	codec := p.Codec
	if codec == "" {
		codec = "libx264"
	}
	args := []string{
		"-c:v", codec,
		"-b:v", p.Bitrate,
		"-r", vo.FormatFramerate(p.Framerate),
		"-vf", fmt.Sprintf("scale=%d:%d", p.Width, p.Height),
	}
	if p.Profile != "" {
		args = append(args, "-profile:v", p.Profile)
	}
	if p.Level != "" {
		args = append(args, "-level", p.Level)
	}
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-c:a", b.audioCodec,
		"-b:a", b.audioBitrate,
	)
	if b.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(b.threads))
	}
	return args
}

// BuildThumbnail 在 at 秒处截取一帧，等比缩放到不超过 maxW x maxH，quality 取 1-100
func (b *CommandBuilder) BuildThumbnail(source, output string, at float64, maxW, maxH, quality int) []string {
	args := []string{
		"-y",
		"-ss", formatSeconds(at),
		"-i", source,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease", maxW, maxH),
	}
	args = append(args, ImageQualityArgs(output, quality)...)
	return append(args, output)
}

// BuildSpriteTile 一次调用完成采样、缩放与拼图
func (b *CommandBuilder) BuildSpriteTile(source, output string, interval float64, cellW, cellH, cols, rows, quality int) []string {
	filter := fmt.Sprintf("fps=1/%s,scale=%d:%d,tile=%dx%d", formatSeconds(interval), cellW, cellH, cols, rows)
	args := []string{
		"-y",
		"-i", source,
		"-vf", filter,
		"-frames:v", "1",
	}
	args = append(args, ImageQualityArgs(output, quality)...)
	return append(args, output)
}

// BuildFrameExtract 截取单帧并缩放到格子尺寸
func (b *CommandBuilder) BuildFrameExtract(source, output string, at float64, cellW, cellH int) []string {
	return []string{
		"-y",
		"-ss", formatSeconds(at),
		"-i", source,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", cellW, cellH),
		output,
	}
}

// ImageQualityArgs 按输出扩展名把 1-100 的质量映射为编码器参数；png 无损，不带质量参数
func ImageQualityArgs(output string, quality int) []string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(output), ".")) {
	case "png":
		return nil
	case "webp":
		return []string{"-quality", strconv.Itoa(clampQuality(quality))}
	default:
		return []string{"-q:v", strconv.Itoa(FFmpegQScale(quality))}
	}
}

func clampQuality(quality int) int {
	if quality <= 0 || quality > 100 {
		return 85
	}
	return quality
}

// FFmpegQScale 将 1-100 的质量换算为 mjpeg 的 2-31
func FFmpegQScale(quality int) int {
	return 2 + (100-clampQuality(quality))*29/100
}

// CommandLine 拼接可读的命令行，用于日志与审计
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, binary)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func formatSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	return strconv.FormatFloat(sec, 'f', 6, 64)
}

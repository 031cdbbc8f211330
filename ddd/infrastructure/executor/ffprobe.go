package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
)

// FFprobe 通过 ffprobe 的 JSON 输出探测源文件
type FFprobe struct {
	runner  port.ProcessRunner
	binary  string
	timeout time.Duration
	logger  *logger.Logger
}

var _ port.MetadataProber = (*FFprobe)(nil)

func NewFFprobe(runner port.ProcessRunner, cfg config.EncodingConfig, log *logger.Logger) *FFprobe {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &FFprobe{runner: runner, binary: cfg.FFprobePath, timeout: cfg.ProbeTimeout, logger: log}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

func (p *FFprobe) Probe(ctx context.Context, absPath string) (*vo.MediaMetadata, error) {
	args := []string{"-v", "error", "-print_format", "json", "-show_format", "-show_streams", absPath}
	res := p.runner.Run(ctx, port.ProcessRequest{Binary: p.binary, Args: args, Timeout: p.timeout})
	if !res.Success {
		var te *errno.ToolUnavailableError
		if errors.As(res.Err, &te) {
			return nil, te
		}
		p.logger.Errorf("ffprobe failed path=%s exit_code=%d timed_out=%t stderr=%s", absPath, res.ExitCode, res.TimedOut, res.Stderr)
		return nil, &errno.MetadataError{Path: absPath, Err: fmt.Errorf("ffprobe: %w", res.Err)}
	}

	meta, err := ParseProbeOutput([]byte(res.Stdout))
	if err != nil {
		return nil, &errno.MetadataError{Path: absPath, Err: err}
	}
	p.logger.Infof("Probed source path=%s duration=%.3f resolution=%dx%d framerate=%.3f bitrate=%d",
		absPath, meta.Duration, meta.Width, meta.Height, meta.Framerate, meta.Bitrate)
	return meta, nil
}

// ParseProbeOutput 取 format 的时长码率与第一条视频流的尺寸帧率
func ParseProbeOutput(data []byte) (*vo.MediaMetadata, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	var video *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, errors.New("no video stream")
	}

	meta := &vo.MediaMetadata{
		Width:     video.Width,
		Height:    video.Height,
		Framerate: ParseFraction(video.RFrameRate),
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil {
		meta.Duration = d
	}
	if b, err := strconv.ParseInt(strings.TrimSpace(out.Format.BitRate), 10, 64); err == nil {
		meta.Bitrate = b
	}
	return meta, nil
}

// ParseFraction 解析 "30000/1001"，分母为 0 或无法解析时返回 0
func ParseFraction(s string) float64 {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

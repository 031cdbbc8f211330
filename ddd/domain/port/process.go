package port

import (
	"context"
	"time"

	"encoding-service/ddd/domain/vo"
)

// ProgressCallback 由执行器回调，参数为 0-100 的百分比
type ProgressCallback func(progress int)

// ProcessRequest 一次外部进程调用
type ProcessRequest struct {
	Binary  string
	Args    []string
	Timeout time.Duration
	// DurationSec 源时长，用于把 ffmpeg 的时间戳换算成百分比
	DurationSec float64
	ProgressCb  ProgressCallback
}

// ProcessResult 进程执行结果，Err 为 nil 当且仅当 Success
type ProcessResult struct {
	Success  bool
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
	Err      error
}

// ProcessRunner 带超时地执行外部进程
type ProcessRunner interface {
	Run(ctx context.Context, req ProcessRequest) *ProcessResult
}

// MetadataProber 探测源文件的媒体信息
type MetadataProber interface {
	Probe(ctx context.Context, absPath string) (*vo.MediaMetadata, error)
}

package executor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/observability"
)

// stderrTailLines 失败诊断保留的 stderr 行数
const stderrTailLines = 200

var reStatsTime = regexp.MustCompile(`time=(\d+):(\d+):(\d+\.?\d*)`)

// ProcessRunner 以子进程方式执行 ffmpeg/ffprobe，超时后杀掉整个进程组
type ProcessRunner struct {
	logger *logger.Logger
}

var _ port.ProcessRunner = (*ProcessRunner)(nil)

func NewProcessRunner(log *logger.Logger) *ProcessRunner {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ProcessRunner{logger: log}
}

func (r *ProcessRunner) Run(ctx context.Context, req port.ProcessRequest) *port.ProcessResult {
	start := time.Now()
	res := r.run(ctx, req)
	res.Duration = time.Since(start)
	res.Success = res.Err == nil

	outcome := "success"
	switch {
	case res.TimedOut:
		outcome = "timeout"
	case res.Err != nil:
		var te *errno.ToolUnavailableError
		if errors.As(res.Err, &te) {
			outcome = "unavailable"
		} else {
			outcome = "failure"
		}
	}
	observability.ObserveProcess(filepath.Base(req.Binary), outcome, res.Duration)
	return res
}

func (r *ProcessRunner) run(ctx context.Context, req port.ProcessRequest) *port.ProcessResult {
	res := &port.ProcessResult{ExitCode: -1}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.Command(req.Binary, req.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		res.Err = err
		return res
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			res.Err = &errno.ToolUnavailableError{Binary: req.Binary, Err: err}
		} else {
			res.Err = err
		}
		return res
	}

	tail := newLineRing(stderrTailLines)
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		scanStderr(stderr, req.DurationSec, tail, req.ProgressCb)
	}()

	waitDone := make(chan error, 1)
	go func() {
		<-scanDone
		waitDone <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		killGroup(cmd)
		<-waitDone
		res.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		res.Stdout = stdout.String()
		res.Stderr = tail.String()
		res.Err = ctx.Err()
		r.logger.Warnf("Process killed binary=%s timed_out=%t timeout=%s", req.Binary, res.TimedOut, req.Timeout)
		return res
	case err := <-waitDone:
		res.Stdout = stdout.String()
		res.Stderr = tail.String()
		if cmd.ProcessState != nil {
			res.ExitCode = cmd.ProcessState.ExitCode()
		}
		res.Err = err
		return res
	}
}

// killGroup 杀掉 ffmpeg 及其派生的子进程
func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

func scanStderr(stderr io.Reader, durationSec float64, tail *lineRing, cb port.ProgressCallback) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if sec, ok := progressSeconds(line); ok {
			emitProgress(sec, durationSec, cb)
			continue
		}
		if isProgressKey(line) {
			continue
		}
		tail.Add(line)
	}
	// 扫描出错时继续排空管道，避免子进程阻塞在写 stderr
	_, _ = io.Copy(io.Discard, stderr)
}

// progressSeconds 解析 -progress 输出中的 out_time_us/out_time_ms/out_time 以及统计行里的 time=
func progressSeconds(line string) (float64, bool) {
	switch {
	case strings.HasPrefix(line, "out_time_us="), strings.HasPrefix(line, "out_time_ms="):
		// ffmpeg 的 out_time_ms 实际单位也是微秒
		v, err := strconv.ParseFloat(line[strings.IndexByte(line, '=')+1:], 64)
		if err != nil {
			return 0, false
		}
		return v / 1e6, true
	case strings.HasPrefix(line, "out_time="):
		return parseClock(strings.TrimPrefix(line, "out_time="))
	}
	if m := reStatsTime.FindStringSubmatch(line); len(m) == 4 {
		hh, _ := strconv.ParseFloat(m[1], 64)
		mm, _ := strconv.ParseFloat(m[2], 64)
		ss, _ := strconv.ParseFloat(m[3], 64)
		return hh*3600 + mm*60 + ss, true
	}
	return 0, false
}

func parseClock(s string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hh, err1 := strconv.ParseFloat(parts[0], 64)
	mm, err2 := strconv.ParseFloat(parts[1], 64)
	ss, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return hh*3600 + mm*60 + ss, true
}

var progressKeys = []string{
	"frame=", "fps=", "stream_", "bitrate=", "total_size=", "dup_frames=",
	"drop_frames=", "speed=", "progress=",
}

func isProgressKey(line string) bool {
	for _, k := range progressKeys {
		if strings.HasPrefix(line, k) {
			return true
		}
	}
	return false
}

// emitProgress 完成前最多报告 99
func emitProgress(currentSec, totalSec float64, cb port.ProgressCallback) {
	if cb == nil || totalSec <= 0 {
		return
	}
	pct := int((currentSec / totalSec) * 100)
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	cb(pct)
}

// lineRing 固定容量的行缓冲，只保留最后 n 行
type lineRing struct {
	lines []string
	next  int
	full  bool
}

func newLineRing(n int) *lineRing {
	return &lineRing{lines: make([]string, n)}
}

func (l *lineRing) Add(line string) {
	l.lines[l.next] = line
	l.next = (l.next + 1) % len(l.lines)
	if l.next == 0 {
		l.full = true
	}
}

func (l *lineRing) String() string {
	var out []string
	if l.full {
		out = append(out, l.lines[l.next:]...)
	}
	out = append(out, l.lines[:l.next]...)
	return strings.Join(out, "\n")
}

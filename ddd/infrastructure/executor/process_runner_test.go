package executor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/errno"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewProcessRunner(nil)
	res := r.Run(context.Background(), port.ProcessRequest{
		Binary:  "sh",
		Args:    []string{"-c", "echo out; echo err 1>&2; exit 3"},
		Timeout: 10 * time.Second,
	})
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err", res.Stderr)
	assert.False(t, res.TimedOut)
}

func TestRunSuccess(t *testing.T) {
	res := NewProcessRunner(nil).Run(context.Background(), port.ProcessRequest{Binary: "true"})
	assert.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunTimeoutKillsProcessGroup(t *testing.T) {
	r := NewProcessRunner(nil)
	start := time.Now()
	res := r.Run(context.Background(), port.ProcessRequest{
		Binary:  "sh",
		Args:    []string{"-c", "sleep 30 & sleep 30"},
		Timeout: 200 * time.Millisecond,
	})
	assert.False(t, res.Success)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunMissingBinary(t *testing.T) {
	res := NewProcessRunner(nil).Run(context.Background(), port.ProcessRequest{Binary: "definitely-not-a-real-binary-xyz"})
	assert.False(t, res.Success)
	var te *errno.ToolUnavailableError
	require.ErrorAs(t, res.Err, &te)
	assert.True(t, errno.IsPermanent(res.Err))
}

func TestRunReportsProgress(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	script := "printf 'out_time_us=5000000\\nprogress=continue\\nout_time=00:00:08.000000\\nframe=1 fps=0.0 q=28.0 size=0kB time=00:00:20.00 bitrate=0\\nreal error\\n' 1>&2"
	res := NewProcessRunner(nil).Run(context.Background(), port.ProcessRequest{
		Binary:      "sh",
		Args:        []string{"-c", script},
		DurationSec: 10,
		ProgressCb: func(p int) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		},
	})
	require.True(t, res.Success)
	assert.Equal(t, []int{50, 80, 99}, seen)
	assert.Equal(t, "real error", res.Stderr)
}

func TestLineRingKeepsTail(t *testing.T) {
	ring := newLineRing(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		ring.Add(s)
	}
	assert.Equal(t, "c\nd\ne", ring.String())

	short := newLineRing(3)
	short.Add("x")
	assert.Equal(t, "x", short.String())
	assert.Equal(t, "", newLineRing(2).String())
}

func TestProgressSeconds(t *testing.T) {
	sec, ok := progressSeconds("out_time_ms=1500000")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, sec, 1e-9)

	sec, ok = progressSeconds("frame=10 time=01:00:01.50 bitrate=1")
	assert.True(t, ok)
	assert.InDelta(t, 3601.5, sec, 1e-9)

	_, ok = progressSeconds(strings.Repeat("x", 10))
	assert.False(t, ok)
}

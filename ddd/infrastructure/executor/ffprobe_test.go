package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
)

const sampleProbe = `{
  "streams": [
    {"index": 0, "codec_type": "audio", "codec_name": "aac"},
    {"index": 1, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"}
  ],
  "format": {"duration": "30.033333", "bit_rate": "5123456"}
}`

type stubRunner struct {
	res  *port.ProcessResult
	args []string
}

func (s *stubRunner) Run(_ context.Context, req port.ProcessRequest) *port.ProcessResult {
	s.args = req.Args
	return s.res
}

func TestParseFraction(t *testing.T) {
	assert.InDelta(t, 29.97, ParseFraction("30000/1001"), 0.001)
	assert.Equal(t, 25.0, ParseFraction("25/1"))
	assert.Equal(t, 24.0, ParseFraction("24"))
	assert.Equal(t, 0.0, ParseFraction("0/0"))
	assert.Equal(t, 0.0, ParseFraction("30/0"))
	assert.Equal(t, 0.0, ParseFraction(""))
}

func TestProbeParsesFirstVideoStream(t *testing.T) {
	runner := &stubRunner{res: &port.ProcessResult{Success: true, Stdout: sampleProbe}}
	p := NewFFprobe(runner, config.Default().Encoding, nil)

	meta, err := p.Probe(context.Background(), "/data/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, 1920, meta.Width)
	assert.Equal(t, 1080, meta.Height)
	assert.InDelta(t, 29.97, meta.Framerate, 0.001)
	assert.InDelta(t, 30.033333, meta.Duration, 1e-6)
	assert.Equal(t, int64(5123456), meta.Bitrate)
	assert.Equal(t, "/data/a.mp4", runner.args[len(runner.args)-1])
	assert.Contains(t, runner.args, "-show_streams")
}

func TestProbeErrors(t *testing.T) {
	cases := []struct {
		name string
		res  *port.ProcessResult
	}{
		{"process failure", &port.ProcessResult{Err: errors.New("exit status 1"), ExitCode: 1}},
		{"garbage output", &port.ProcessResult{Success: true, Stdout: "not json"}},
		{"audio only", &port.ProcessResult{Success: true, Stdout: `{"streams":[{"codec_type":"audio"}],"format":{}}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewFFprobe(&stubRunner{res: tc.res}, config.Default().Encoding, nil)
			_, err := p.Probe(context.Background(), "/data/a.mp4")
			var me *errno.MetadataError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, "/data/a.mp4", me.Path)
		})
	}
}

func TestProbeToolUnavailable(t *testing.T) {
	te := &errno.ToolUnavailableError{Binary: "ffprobe", Err: errors.New("not found")}
	p := NewFFprobe(&stubRunner{res: &port.ProcessResult{Err: te}}, config.Default().Encoding, nil)
	_, err := p.Probe(context.Background(), "/data/a.mp4")
	assert.ErrorAs(t, err, &te)
	assert.True(t, errno.IsPermanent(err))
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/storage"
	"encoding-service/pkg/config"
)

type memAssets struct {
	mu    sync.Mutex
	items map[string]*entity.AssetEntity
}

func newMemAssets() *memAssets { return &memAssets{items: map[string]*entity.AssetEntity{}} }

func (m *memAssets) CreateAsset(_ context.Context, a *entity.AssetEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[a.AssetUUID()] = a
	return nil
}

func (m *memAssets) GetAsset(_ context.Context, id string) (*entity.AssetEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return a, nil
}

func (m *memAssets) SaveAsset(ctx context.Context, a *entity.AssetEntity) error {
	return m.CreateAsset(ctx, a)
}

func (m *memAssets) DeleteAsset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

type memRenditions struct {
	mu     sync.Mutex
	nextID uint64
	items  map[string]*entity.RenditionEntity
}

func newMemRenditions() *memRenditions {
	return &memRenditions{items: map[string]*entity.RenditionEntity{}}
}

func (m *memRenditions) FindRendition(_ context.Context, assetUUID, profile string) (*entity.RenditionEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[assetUUID+"/"+profile]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r, nil
}

func (m *memRenditions) SaveRendition(_ context.Context, r *entity.RenditionEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID() == 0 {
		m.nextID++
		r.SetID(m.nextID)
	}
	m.items[r.AssetUUID()+"/"+r.ProfileName()] = r
	return nil
}

func (m *memRenditions) ListRenditions(_ context.Context, assetUUID string) ([]*entity.RenditionEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.RenditionEntity
	for _, r := range m.items {
		if r.AssetUUID() == assetUUID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *memRenditions) DeleteRenditionsByAsset(_ context.Context, assetUUID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, r := range m.items {
		if r.AssetUUID() == assetUUID {
			delete(m.items, k)
		}
	}
	return nil
}

type memLogs struct {
	mu     sync.Mutex
	nextID uint64
	items  []*entity.EncodingLogEntity
}

func (m *memLogs) CreateLog(_ context.Context, l *entity.EncodingLogEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.SetID(m.nextID)
	m.items = append(m.items, l)
	return nil
}

func (m *memLogs) UpdateLog(context.Context, *entity.EncodingLogEntity) error { return nil }

func (m *memLogs) UpdateLogProgress(context.Context, uint64, int) error { return nil }

func (m *memLogs) ListLogs(_ context.Context, assetUUID string, _ int) ([]*entity.EncodingLogEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.EncodingLogEntity
	for _, l := range m.items {
		if l.AssetUUID() == assetUUID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLogs) DeleteLogsByAsset(context.Context, string) error { return nil }

func (m *memLogs) byStatus(status vo.LogStatus) []*entity.EncodingLogEntity {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.EncodingLogEntity
	for _, l := range m.items {
		if l.Status() == status {
			out = append(out, l)
		}
	}
	return out
}

type memRuns struct {
	mu    sync.Mutex
	items map[string]*entity.PipelineRunEntity
}

func newMemRuns() *memRuns { return &memRuns{items: map[string]*entity.PipelineRunEntity{}} }

func (m *memRuns) CreateRun(_ context.Context, r *entity.PipelineRunEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.RunUUID()] = r
	return nil
}

func (m *memRuns) GetRun(_ context.Context, id string) (*entity.PipelineRunEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r, nil
}

func (m *memRuns) SaveRun(ctx context.Context, r *entity.PipelineRunEntity) error {
	return m.CreateRun(ctx, r)
}

func (m *memRuns) FindActiveRun(_ context.Context, assetUUID string) (*entity.PipelineRunEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.AssetUUID() == assetUUID && r.IsActive() {
			return r, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRuns) ListStalledRuns(context.Context, time.Time, int) ([]*entity.PipelineRunEntity, error) {
	return nil, nil
}

func (m *memRuns) DeleteRunsByAsset(context.Context, string) error { return nil }

// fakeRunner 默认把最后一个参数视为输出文件并写入内容
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	handler func(args []string) *port.ProcessResult
}

func (f *fakeRunner) Run(_ context.Context, req port.ProcessRequest) *port.ProcessResult {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), req.Args...))
	f.mu.Unlock()
	if f.handler != nil {
		if res := f.handler(req.Args); res != nil {
			return res
		}
	}
	out := req.Args[len(req.Args)-1]
	content := []byte("media")
	if strings.HasSuffix(out, ".mpd") {
		content = []byte(sampleMPD(1280, 720))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return &port.ProcessResult{Err: err}
	}
	if err := os.WriteFile(out, content, 0o644); err != nil {
		return &port.ProcessResult{Err: err}
	}
	return &port.ProcessResult{Success: true}
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func failResult(stderr string) *port.ProcessResult {
	return &port.ProcessResult{Success: false, Stderr: stderr, ExitCode: 1, Err: os.ErrInvalid}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Storage.BasePath = t.TempDir()
	cfg.Storage.TempDir = t.TempDir()
	return cfg
}

func newTestStorage(cfg *config.Config) *storage.LocalStorage {
	return storage.NewLocalStorage(cfg.Storage)
}

func sampleMPD(width, height int) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<MPD xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
	xmlns="urn:mpeg:dash:schema:mpd:2011"
	profiles="urn:mpeg:dash:profile:isoff-live:2011"
	type="static"
	mediaPresentationDuration="PT30.0S"
	maxSegmentDuration="PT10.0S"
	minBufferTime="PT20.0S">
	<Period id="0" start="PT0.0S">
		<AdaptationSet id="0" contentType="video" startWithSAP="1" segmentAlignment="true" bitstreamSwitching="true" frameRate="30/1" lang="und">
			<Representation id="0" mimeType="video/mp4" codecs="avc1.4d401f" bandwidth="2500000" width="` + itoa(width) + `" height="` + itoa(height) + `" sar="1:1">
				<SegmentTemplate timescale="15360" initialization="init-stream$RepresentationID$.m4s" media="chunk-stream$RepresentationID$-$Number%05d$.m4s" startNumber="1">
					<SegmentTimeline>
						<S t="0" d="153600" r="2" />
					</SegmentTimeline>
				</SegmentTemplate>
			</Representation>
		</AdaptationSet>
		<AdaptationSet id="1" contentType="audio" startWithSAP="1" segmentAlignment="true" bitstreamSwitching="true" lang="und">
			<Representation id="1" mimeType="audio/mp4" codecs="mp4a.40.2" bandwidth="128000" audioSamplingRate="48000">
				<AudioChannelConfiguration schemeIdUri="urn:mpeg:dash:23003:3:audio_channel_configuration:2011" value="2" />
				<SegmentTemplate timescale="48000" initialization="init-stream$RepresentationID$.m4s" media="chunk-stream$RepresentationID$-$Number%05d$.m4s" startNumber="1">
					<SegmentTimeline>
						<S t="0" d="480000" r="2" />
					</SegmentTimeline>
				</SegmentTemplate>
			</Representation>
		</AdaptationSet>
	</Period>
</MPD>
`
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

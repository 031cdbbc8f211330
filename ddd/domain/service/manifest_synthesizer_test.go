package service

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/storage"
	"encoding-service/pkg/config"
)

type manifestFixture struct {
	cfg     *config.Config
	storage *storage.LocalStorage
	synth   *ManifestSynthesizer
	catalog vo.ProfileCatalog
	asset   *entity.AssetEntity
}

func newManifestFixture(t *testing.T) *manifestFixture {
	cfg := testConfig(t)
	st := newTestStorage(cfg)
	catalog := CatalogFromConfig(cfg.Encoding.Profiles)
	asset := entity.NewAssetEntity("clip", "assets/a/original/source.mp4")
	asset.SetMetadata(vo.MediaMetadata{Duration: 30.5, Width: 1920, Height: 1080, Framerate: 30})
	return &manifestFixture{cfg: cfg, storage: st, synth: NewManifestSynthesizer(st, catalog, nil), catalog: catalog, asset: asset}
}

// completed 构造已完成 rendition，并写入其单码率 MPD
func (f *manifestFixture) completed(t *testing.T, name string, exports vo.ExportFlags) *entity.RenditionEntity {
	p, ok := f.catalog.Lookup(name)
	require.True(t, ok)
	id := f.asset.AssetUUID()
	paths := map[vo.OutputFormat]string{}
	if exports.Progressive {
		paths[vo.FormatProgressive] = f.storage.ProgressiveFile(id, name)
	}
	if exports.HLS {
		paths[vo.FormatHLS] = filepath.Join(f.storage.HLSDir(id, name), HLSPlaylistName)
	}
	if exports.DASH {
		mpd := filepath.Join(f.storage.DASHDir(id, name), DASHManifestName)
		require.NoError(t, f.storage.WriteAtomic(mpd, []byte(sampleMPD(p.Width, p.Height))))
		paths[vo.FormatDASH] = mpd
	}
	r := entity.NewRenditionEntity(id, p, exports)
	r.Complete(paths, 1024)
	return r
}

func TestSynthesizeHLSOrdersByWidthDescending(t *testing.T) {
	f := newManifestFixture(t)
	all := vo.ExportFlags{Progressive: true, HLS: true, DASH: true}
	renditions := []*entity.RenditionEntity{
		f.completed(t, "480p", all),
		f.completed(t, "720p", all),
	}
	failed := entity.NewRenditionEntity(f.asset.AssetUUID(), vo.EncodingProfile{Name: "1080p", Width: 1920, Height: 1080}, all)
	failed.Fail("boom")
	renditions = append(renditions, failed)

	path, err := f.synth.SynthesizeHLS(f.asset.AssetUUID(), renditions)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.storage.HLSRoot(f.asset.AssetUUID()), HLSMasterName), path)

	data, err := f.storage.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "#EXTM3U", lines[0])
	assert.Equal(t, "#EXT-X-VERSION:3", lines[1])
	assert.Equal(t, "#EXT-X-STREAM-INF:BANDWIDTH=2800000,RESOLUTION=1280x720", lines[2])
	assert.Equal(t, "720p/playlist.m3u8", lines[3])
	assert.Equal(t, "#EXT-X-STREAM-INF:BANDWIDTH=1400000,RESOLUTION=854x480", lines[4])
	assert.Equal(t, "480p/playlist.m3u8", lines[5])
}

func TestSynthesizeHLSWithoutVariants(t *testing.T) {
	f := newManifestFixture(t)
	r := f.completed(t, "720p", vo.ExportFlags{Progressive: true})

	path, err := f.synth.SynthesizeHLS(f.asset.AssetUUID(), []*entity.RenditionEntity{r})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestSynthesizeDASHMergesRepresentations(t *testing.T) {
	f := newManifestFixture(t)
	dash := vo.ExportFlags{DASH: true}
	renditions := []*entity.RenditionEntity{
		f.completed(t, "480p", dash),
		f.completed(t, "720p", dash),
	}

	path, err := f.synth.SynthesizeDASH(f.asset.AssetUUID(), f.asset.Metadata().Duration, renditions)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.storage.ManifestDir(f.asset.AssetUUID()), DASHABRManifestName), path)

	data, err := f.storage.ReadFile(path)
	require.NoError(t, err)
	mpd, err := ParseMPD(data)
	require.NoError(t, err)

	assert.Equal(t, "PT30.5S", mpd.MediaPresentationDuration)
	require.Len(t, mpd.Periods, 1)
	sets := mpd.Periods[0].AdaptationSets
	require.Len(t, sets, 2)

	video := sets[0]
	assert.Equal(t, "video", video.ContentType)
	require.Len(t, video.Representations, 2)
	assert.Equal(t, 1280, video.Representations[0].Width)
	assert.Equal(t, "dash/720p/init-stream0.m4s", video.Representations[0].SegmentTemplate.Initialization)
	assert.Equal(t, "dash/720p/chunk-stream0-$Number%05d$.m4s", video.Representations[0].SegmentTemplate.Media)
	assert.Equal(t, 854, video.Representations[1].Width)
	assert.Equal(t, "dash/480p/init-stream0.m4s", video.Representations[1].SegmentTemplate.Initialization)
	assert.Equal(t, 1280, video.MaxWidth)

	audio := sets[1]
	assert.Equal(t, "audio", audio.ContentType)
	require.Len(t, audio.Representations, 1)
	assert.Equal(t, "dash/720p/init-stream1.m4s", audio.Representations[0].SegmentTemplate.Initialization)
	assert.Equal(t, "dash/720p/chunk-stream1-$Number%05d$.m4s", audio.Representations[0].SegmentTemplate.Media)
}

func TestSynthesizeDASHFallsBackToSourceDuration(t *testing.T) {
	f := newManifestFixture(t)
	r := f.completed(t, "720p", vo.ExportFlags{DASH: true})

	path, err := f.synth.SynthesizeDASH(f.asset.AssetUUID(), 0, []*entity.RenditionEntity{r})
	require.NoError(t, err)
	data, err := f.storage.ReadFile(path)
	require.NoError(t, err)
	mpd, err := ParseMPD(data)
	require.NoError(t, err)
	assert.Equal(t, "PT30.0S", mpd.MediaPresentationDuration)
}

func TestSynthesizeDASHMissingFirstManifest(t *testing.T) {
	f := newManifestFixture(t)
	p, _ := f.catalog.Lookup("720p")
	r := entity.NewRenditionEntity(f.asset.AssetUUID(), p, vo.ExportFlags{DASH: true})
	r.Complete(map[vo.OutputFormat]string{vo.FormatDASH: "assets/missing/dash/720p/manifest.mpd"}, 0)

	res, err := f.synth.Synthesize(f.asset, []*entity.RenditionEntity{r})
	require.Error(t, err)
	assert.Empty(t, res.DASHManifest)
	assert.Empty(t, res.HLSMaster)
}

func TestBuildABRProfileMap(t *testing.T) {
	f := newManifestFixture(t)
	prog := vo.ExportFlags{Progressive: true}

	t.Run("own and nearest lower", func(t *testing.T) {
		renditions := []*entity.RenditionEntity{
			f.completed(t, "360p", prog),
			f.completed(t, "720p", prog),
		}
		m := BuildABRProfileMap(f.catalog, renditions)
		require.Len(t, m, len(f.catalog))
		id := f.asset.AssetUUID()
		assert.Equal(t, f.storage.ProgressiveFile(id, "360p"), m["360p"])
		assert.Equal(t, f.storage.ProgressiveFile(id, "360p"), m["480p"])
		assert.Equal(t, f.storage.ProgressiveFile(id, "720p"), m["720p"])
		assert.Equal(t, f.storage.ProgressiveFile(id, "720p"), m["1080p"])
		assert.Equal(t, f.storage.ProgressiveFile(id, "720p"), m["2160p"])
	})

	t.Run("lowest when nothing fits", func(t *testing.T) {
		renditions := []*entity.RenditionEntity{f.completed(t, "720p", prog)}
		m := BuildABRProfileMap(f.catalog, renditions)
		want := f.storage.ProgressiveFile(f.asset.AssetUUID(), "720p")
		assert.Equal(t, want, m["360p"])
		assert.Equal(t, want, m["480p"])
	})

	t.Run("empty without completed renditions", func(t *testing.T) {
		assert.Empty(t, BuildABRProfileMap(f.catalog, nil))
	})
}

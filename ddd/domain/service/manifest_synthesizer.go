package service

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
)

const (
	HLSMasterName       = "master.m3u8"
	DASHABRManifestName = "manifest.mpd"
	dashProfileDefault  = "urn:mpeg:dash:profile:isoff-live:2011"
)

// ManifestResult 合成出的清单路径，未生成的为空
type ManifestResult struct {
	HLSMaster    string
	DASHManifest string
}

// ManifestSynthesizer 将各档位独立产出的 HLS/DASH 清单合并为自适应码率清单
type ManifestSynthesizer struct {
	storage port.LocalStorage
	catalog vo.ProfileCatalog
	logger  *logger.Logger
}

func NewManifestSynthesizer(storage port.LocalStorage, catalog vo.ProfileCatalog, log *logger.Logger) *ManifestSynthesizer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ManifestSynthesizer{storage: storage, catalog: catalog, logger: log}
}

// Synthesize HLS 与 DASH 互不影响，错误合并返回
func (m *ManifestSynthesizer) Synthesize(asset *entity.AssetEntity, renditions []*entity.RenditionEntity) (*ManifestResult, error) {
	res := &ManifestResult{}
	var errs []error

	hls, err := m.SynthesizeHLS(asset.AssetUUID(), renditions)
	if err != nil {
		m.logger.Errorf("HLS master synthesis failed asset_uuid=%s error=%v", asset.AssetUUID(), err)
		errs = append(errs, err)
	}
	res.HLSMaster = hls

	dash, err := m.SynthesizeDASH(asset.AssetUUID(), asset.Metadata().Duration, renditions)
	if err != nil {
		m.logger.Errorf("DASH manifest synthesis failed asset_uuid=%s error=%v", asset.AssetUUID(), err)
		errs = append(errs, err)
	}
	res.DASHManifest = dash
	return res, errors.Join(errs...)
}

// orderedByWidth 过滤出已完成且具备指定格式的 rendition，按宽度降序
func orderedByWidth(renditions []*entity.RenditionEntity, format vo.OutputFormat) []*entity.RenditionEntity {
	out := make([]*entity.RenditionEntity, 0, len(renditions))
	for _, r := range renditions {
		if r.IsCompleted() && r.PathFor(format) != "" {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Width() > out[j].Width() })
	return out
}

// Bandwidth 优先使用目录中声明的码率，否则按分辨率估算
func (m *ManifestSynthesizer) Bandwidth(r *entity.RenditionEntity) int {
	if p, ok := m.catalog.Lookup(r.ProfileName()); ok {
		if bps := p.BandwidthBps(); bps > 0 {
			return bps
		}
	}
	if bps := r.Profile().BandwidthBps(); bps > 0 {
		return bps
	}
	return vo.TierBandwidthBps(r.Height())
}

// SynthesizeHLS 生成 master.m3u8，没有 HLS 产物时返回空路径
func (m *ManifestSynthesizer) SynthesizeHLS(assetUUID string, renditions []*entity.RenditionEntity) (string, error) {
	ordered := orderedByWidth(renditions, vo.FormatHLS)
	if len(ordered) == 0 {
		return "", nil
	}
	root := m.storage.HLSRoot(assetUUID)
	masterPath := filepath.Join(root, HLSMasterName)

	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n")
	for _, r := range ordered {
		rel, err := filepath.Rel(root, r.HLSPath())
		if err != nil {
			return "", &errno.ManifestSynthesisError{Kind: "hls", Err: err}
		}
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n%s\n",
			m.Bandwidth(r), r.Width(), r.Height(), filepath.ToSlash(rel))
	}
	if err := m.storage.WriteAtomic(masterPath, []byte(b.String())); err != nil {
		return "", &errno.ManifestSynthesisError{Kind: "hls", Err: err}
	}
	m.logger.Infof("HLS master written asset_uuid=%s path=%s variants=%d", assetUUID, masterPath, len(ordered))
	return masterPath, nil
}

// SynthesizeDASH 以最宽 rendition 的 MPD 为骨架，合成多码率 MPD
func (m *ManifestSynthesizer) SynthesizeDASH(assetUUID string, duration float64, renditions []*entity.RenditionEntity) (string, error) {
	ordered := orderedByWidth(renditions, vo.FormatDASH)
	if len(ordered) == 0 {
		return "", nil
	}
	root := m.storage.ManifestDir(assetUUID)

	first, err := m.loadMPD(ordered[0])
	if err != nil {
		return "", &errno.ManifestSynthesisError{Kind: "dash", Err: fmt.Errorf("first rendition %s: %w", ordered[0].ProfileName(), err)}
	}
	if len(first.Periods) == 0 {
		return "", &errno.ManifestSynthesisError{Kind: "dash", Err: fmt.Errorf("first rendition %s: no period", ordered[0].ProfileName())}
	}

	out := &MPD{
		Xmlns:                     DASHNamespace,
		Profiles:                  first.Profiles,
		Type:                      "static",
		MediaPresentationDuration: presentationDuration(duration, first.MediaPresentationDuration),
		MaxSegmentDuration:        first.MaxSegmentDuration,
		MinBufferTime:             first.MinBufferTime,
	}
	if out.Profiles == "" {
		out.Profiles = dashProfileDefault
	}
	srcPeriod := first.Periods[0]
	period := &Period{ID: "0", Start: srcPeriod.Start, Duration: srcPeriod.Duration}
	if period.Start == "" {
		period.Start = "PT0.0S"
	}

	video := &AdaptationSet{
		ID:               "0",
		ContentType:      "video",
		MimeType:         "video/mp4",
		StartWithSAP:     "1",
		SegmentAlignment: "true",
	}
	for i, r := range ordered {
		mpd := first
		if i > 0 {
			if mpd, err = m.loadMPD(r); err != nil {
				m.logger.Warnf("Skip rendition in DASH manifest asset_uuid=%s profile=%s error=%v", assetUUID, r.ProfileName(), err)
				continue
			}
		}
		set, rep, tmpl := mpd.findStream("video")
		if rep == nil || tmpl == nil {
			m.logger.Warnf("Rendition MPD has no video stream asset_uuid=%s profile=%s", assetUUID, r.ProfileName())
			continue
		}
		dir, err := m.segmentDir(root, r)
		if err != nil {
			return "", &errno.ManifestSynthesisError{Kind: "dash", Err: err}
		}
		bandwidth := rep.Bandwidth
		if bandwidth <= 0 {
			bandwidth = m.Bandwidth(r)
		}
		width, height := rep.Width, rep.Height
		if width == 0 || height == 0 {
			width, height = r.Width(), r.Height()
		}
		frameRate := rep.FrameRate
		if frameRate == "" {
			frameRate = set.FrameRate
		}
		video.Representations = append(video.Representations, &Representation{
			ID:              strconv.Itoa(len(video.Representations)),
			MimeType:        firstNonEmpty(rep.MimeType, set.MimeType, "video/mp4"),
			Codecs:          rep.Codecs,
			Bandwidth:       bandwidth,
			Width:           width,
			Height:          height,
			Sar:             rep.Sar,
			FrameRate:       frameRate,
			SegmentTemplate: rewriteTemplate(tmpl, dir, rep.ID),
		})
		if width > video.MaxWidth {
			video.MaxWidth = width
		}
		if height > video.MaxHeight {
			video.MaxHeight = height
		}
	}
	if len(video.Representations) == 0 {
		return "", &errno.ManifestSynthesisError{Kind: "dash", Err: errors.New("no usable video representation")}
	}
	period.AdaptationSets = append(period.AdaptationSets, video)

	// 音频只取第一个 rendition
	if aset, arep, atmpl := first.findStream("audio"); arep != nil && atmpl != nil {
		dir, err := m.segmentDir(root, ordered[0])
		if err != nil {
			return "", &errno.ManifestSynthesisError{Kind: "dash", Err: err}
		}
		period.AdaptationSets = append(period.AdaptationSets, &AdaptationSet{
			ID:               "1",
			ContentType:      "audio",
			MimeType:         firstNonEmpty(arep.MimeType, aset.MimeType, "audio/mp4"),
			StartWithSAP:     "1",
			SegmentAlignment: "true",
			Lang:             aset.Lang,
			Representations: []*Representation{{
				ID:                        strconv.Itoa(len(video.Representations)),
				MimeType:                  firstNonEmpty(arep.MimeType, aset.MimeType, "audio/mp4"),
				Codecs:                    arep.Codecs,
				Bandwidth:                 arep.Bandwidth,
				AudioSamplingRate:         arep.AudioSamplingRate,
				AudioChannelConfiguration: arep.AudioChannelConfiguration,
				SegmentTemplate:           rewriteTemplate(atmpl, dir, arep.ID),
			}},
		})
	} else {
		m.logger.Warnf("First rendition MPD has no audio stream asset_uuid=%s profile=%s", assetUUID, ordered[0].ProfileName())
	}
	out.Periods = []*Period{period}

	data, err := out.Marshal()
	if err != nil {
		return "", &errno.ManifestSynthesisError{Kind: "dash", Err: err}
	}
	target := filepath.Join(root, DASHABRManifestName)
	if err := m.storage.WriteAtomic(target, data); err != nil {
		return "", &errno.ManifestSynthesisError{Kind: "dash", Err: err}
	}
	m.logger.Infof("DASH manifest written asset_uuid=%s path=%s representations=%d", assetUUID, target, len(video.Representations))
	return target, nil
}

func (m *ManifestSynthesizer) loadMPD(r *entity.RenditionEntity) (*MPD, error) {
	data, err := m.storage.ReadFile(r.DASHPath())
	if err != nil {
		return nil, err
	}
	return ParseMPD(data)
}

// segmentDir rendition 分片目录相对 ABR 清单的路径，如 dash/720p
func (m *ManifestSynthesizer) segmentDir(root string, r *entity.RenditionEntity) (string, error) {
	rel, err := filepath.Rel(root, filepath.Dir(r.DASHPath()))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// rewriteTemplate 将 $RepresentationID$ 固定为源 id，并加上分片目录前缀
func rewriteTemplate(src *SegmentTemplate, dir, repID string) *SegmentTemplate {
	t := src.clone()
	fix := func(s string) string {
		if s == "" {
			return s
		}
		return path.Join(dir, strings.ReplaceAll(s, "$RepresentationID$", repID))
	}
	t.Initialization = fix(t.Initialization)
	t.Media = fix(t.Media)
	return t
}

// presentationDuration 输出 PT<seconds>S，源时长未知时沿用单码率 MPD 的值
func presentationDuration(duration float64, fallback string) string {
	if duration > 0 {
		return "PT" + strconv.FormatFloat(duration, 'f', -1, 64) + "S"
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package service

import (
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
)

// FramerateTolerance 档位帧率允许超过源帧率的幅度
const FramerateTolerance = 5.0

// CatalogFromConfig 将配置中的档位列表转换为有序目录
func CatalogFromConfig(profiles []config.ProfileConfig) vo.ProfileCatalog {
	catalog := make(vo.ProfileCatalog, 0, len(profiles))
	for _, p := range profiles {
		catalog = append(catalog, vo.EncodingProfile{
			Name:      p.Name,
			Width:     p.Width,
			Height:    p.Height,
			Framerate: p.Framerate,
			Bitrate:   p.Bitrate,
			Codec:     p.Codec,
			Profile:   p.Profile,
			Level:     p.Level,
		})
	}
	return catalog
}

// ProfileSelector 根据源文件元数据挑选需要产出的档位
type ProfileSelector struct {
	logger *logger.Logger
}

func NewProfileSelector(log *logger.Logger) *ProfileSelector {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ProfileSelector{logger: log}
}

// Select 返回按目录顺序排列的档位。
// requested 非空时只考虑其中的档位，并且只校验分辨率，不校验帧率。
func (s *ProfileSelector) Select(meta vo.MediaMetadata, catalog vo.ProfileCatalog, requested []string) []vo.EncodingProfile {
	if len(requested) == 0 {
		selected := make([]vo.EncodingProfile, 0, len(catalog))
		for _, p := range catalog {
			if IsSuitable(meta, p) {
				selected = append(selected, p)
			}
		}
		return selected
	}

	want := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		if _, ok := catalog.Lookup(name); !ok {
			s.logger.Warnf("Unknown encoding profile requested, skip profile=%s", name)
			continue
		}
		want[name] = struct{}{}
	}

	selected := make([]vo.EncodingProfile, 0, len(want))
	for _, p := range catalog {
		if _, ok := want[p.Name]; !ok {
			continue
		}
		if !fitsResolution(meta, p) {
			s.logger.Infof("Requested profile exceeds source resolution, skip profile=%s source=%dx%d", p.Name, meta.Width, meta.Height)
			continue
		}
		selected = append(selected, p)
	}
	return selected
}

// IsSuitable 分辨率不超过源且帧率不超过源帧率加容差
func IsSuitable(meta vo.MediaMetadata, p vo.EncodingProfile) bool {
	return fitsResolution(meta, p) && p.Framerate <= meta.Framerate+FramerateTolerance
}

func fitsResolution(meta vo.MediaMetadata, p vo.EncodingProfile) bool {
	return p.Width <= meta.Width && p.Height <= meta.Height
}

package service

import (
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
)

// BuildABRProfileMap 为目录中每个档位解析可用的 rendition 路径：
// 自身已完成则用自身；否则取不超过该档位宽高帧率中质量最高的；
// 都不满足时取质量最低的已完成 rendition。
func BuildABRProfileMap(catalog vo.ProfileCatalog, renditions []*entity.RenditionEntity) map[string]string {
	completed := make(map[string]*entity.RenditionEntity, len(renditions))
	var lowest *entity.RenditionEntity
	for _, r := range renditions {
		if !r.IsCompleted() || r.BestPath() == "" {
			continue
		}
		completed[r.ProfileName()] = r
		if lowest == nil || quality(r) < quality(lowest) {
			lowest = r
		}
	}

	out := make(map[string]string, len(catalog))
	if lowest == nil {
		return out
	}
	for _, p := range catalog {
		if own, ok := completed[p.Name]; ok {
			out[p.Name] = own.BestPath()
			continue
		}
		var best *entity.RenditionEntity
		for _, r := range completed {
			if r.Width() > p.Width || r.Height() > p.Height || r.Framerate() > p.Framerate {
				continue
			}
			if best == nil || quality(r) > quality(best) || (quality(r) == quality(best) && r.ProfileName() < best.ProfileName()) {
				best = r
			}
		}
		if best == nil {
			best = lowest
		}
		out[p.Name] = best.BestPath()
	}
	return out
}

func quality(r *entity.RenditionEntity) float64 {
	return float64(r.Width()*r.Height()) * r.Framerate()
}

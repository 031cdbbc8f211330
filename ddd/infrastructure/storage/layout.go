package storage

import (
	"path/filepath"
	"strings"

	"encoding-service/pkg/config"
)

// Layout 按配置模板解析资产的各类产物目录，返回相对 BasePath 的路径
type Layout struct {
	basePath string
	tpl      config.LayoutConfig
}

func NewLayout(cfg config.StorageConfig) *Layout {
	return &Layout{basePath: cfg.BasePath, tpl: cfg.Layout}
}

func (l *Layout) expand(tpl, assetUUID string) string {
	return filepath.Clean(strings.ReplaceAll(tpl, config.AssetIDPlaceholder, assetUUID))
}

// Root 资产独占的公共前缀目录
func (l *Layout) Root(assetUUID string) string {
	dirs := l.Subtrees(assetUUID)
	root := dirs[0]
	for _, d := range dirs[1:] {
		root = commonDir(root, d)
	}
	// 公共前缀不含资产 id 时退回到清单目录，避免误删其他资产
	if !strings.Contains(root, assetUUID) {
		return l.ManifestDir(assetUUID)
	}
	return root
}

func (l *Layout) ProgressiveFile(assetUUID, profile string) string {
	return filepath.Join(l.expand(l.tpl.Progressive, assetUUID), profile+".mp4")
}

func (l *Layout) HLSRoot(assetUUID string) string { return l.expand(l.tpl.HLS, assetUUID) }

func (l *Layout) HLSDir(assetUUID, profile string) string {
	return filepath.Join(l.HLSRoot(assetUUID), profile)
}

func (l *Layout) DASHRoot(assetUUID string) string { return l.expand(l.tpl.DASH, assetUUID) }

func (l *Layout) DASHDir(assetUUID, profile string) string {
	return filepath.Join(l.DASHRoot(assetUUID), profile)
}

func (l *Layout) ThumbnailFile(assetUUID, ext string) string {
	return filepath.Join(l.expand(l.tpl.Thumbnails, assetUUID), "poster."+ext)
}

func (l *Layout) SpriteFile(assetUUID, ext string) string {
	return filepath.Join(l.expand(l.tpl.Sprites, assetUUID), "sprite."+ext)
}

func (l *Layout) ManifestDir(assetUUID string) string { return l.expand(l.tpl.Manifests, assetUUID) }

func (l *Layout) OriginalsDir(assetUUID string) string { return l.expand(l.tpl.Originals, assetUUID) }

// Preserved 清理与发布时必须跳过的路径：原始文件目录与登记的源文件
func (l *Layout) Preserved(assetUUID, sourcePath string) []string {
	keep := []string{l.OriginalsDir(assetUUID)}
	if sourcePath != "" {
		keep = append(keep, l.clean(sourcePath))
	}
	return keep
}

// clean 统一为相对 BasePath 的干净路径
func (l *Layout) clean(p string) string {
	if filepath.IsAbs(p) {
		p = l.Rel(p)
	}
	return filepath.Clean(p)
}

// Subtrees 资产的全部产物目录；默认布局下清单目录是原始文件目录的父目录，删除时需配合 Preserved
func (l *Layout) Subtrees(assetUUID string) []string {
	return []string{
		l.expand(l.tpl.Progressive, assetUUID),
		l.HLSRoot(assetUUID),
		l.DASHRoot(assetUUID),
		l.expand(l.tpl.Thumbnails, assetUUID),
		l.expand(l.tpl.Sprites, assetUUID),
		l.ManifestDir(assetUUID),
	}
}

func (l *Layout) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.basePath, rel)
}

func (l *Layout) Rel(abs string) string {
	rel, err := filepath.Rel(l.basePath, abs)
	if err != nil {
		return abs
	}
	return rel
}

// within p 等于 dir 或位于 dir 之下
func within(p, dir string) bool {
	if p == dir {
		return true
	}
	return strings.HasPrefix(p, dir+string(filepath.Separator))
}

func commonDir(a, b string) string {
	as := strings.Split(filepath.ToSlash(a), "/")
	bs := strings.Split(filepath.ToSlash(b), "/")
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	return filepath.FromSlash(strings.Join(as[:n], "/"))
}

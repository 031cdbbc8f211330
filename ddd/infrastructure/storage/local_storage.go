package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/config"
)

// LocalStorage 基于本地文件系统的产物存储
type LocalStorage struct {
	*Layout
}

var _ port.LocalStorage = (*LocalStorage)(nil)

func NewLocalStorage(cfg config.StorageConfig) *LocalStorage {
	return &LocalStorage{Layout: NewLayout(cfg)}
}

// Exists 文件存在且非空；目录存在即可
func (s *LocalStorage) Exists(rel string) bool {
	if rel == "" {
		return false
	}
	info, err := os.Stat(s.Abs(rel))
	if err != nil {
		return false
	}
	return info.IsDir() || info.Size() > 0
}

// Size 文件大小，目录则递归求和
func (s *LocalStorage) Size(rel string) int64 {
	abs := s.Abs(rel)
	info, err := os.Stat(abs)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}
	var total int64
	_ = filepath.WalkDir(abs, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += fi.Size()
		}
		return nil
	})
	return total
}

func (s *LocalStorage) EnsureDir(rel string) error {
	return os.MkdirAll(s.Abs(rel), 0o755)
}

// WriteAtomic 先写临时文件再 rename，读者不会看到半个清单
func (s *LocalStorage) WriteAtomic(rel string, data []byte) error {
	abs := s.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(abs, data, 0o644)
}

func (s *LocalStorage) ReadFile(rel string) ([]byte, error) {
	return os.ReadFile(s.Abs(rel))
}

func (s *LocalStorage) RemoveAll(rel string) error {
	if rel == "" || rel == "." {
		return nil
	}
	return os.RemoveAll(s.Abs(rel))
}

// RemoveAllExcept 删除 rel 下除 keep 子树以外的全部内容
func (s *LocalStorage) RemoveAllExcept(rel string, keep ...string) error {
	if rel == "" || rel == "." {
		return nil
	}
	dir := s.clean(rel)
	var inside []string
	for _, k := range keep {
		if k == "" {
			continue
		}
		k = s.clean(k)
		if within(dir, k) {
			return nil
		}
		if within(k, dir) {
			inside = append(inside, k)
		}
	}
	if len(inside) == 0 {
		return s.RemoveAll(dir)
	}
	return s.prune(dir, inside)
}

func (s *LocalStorage) prune(dir string, keep []string) error {
	entries, err := os.ReadDir(s.Abs(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		child := filepath.Join(dir, e.Name())
		kept, holds := false, false
		for _, k := range keep {
			kept = kept || k == child
			holds = holds || within(k, child)
		}
		switch {
		case kept:
		case holds && e.IsDir():
			if err := s.prune(child, keep); err != nil {
				return err
			}
		default:
			if err := os.RemoveAll(s.Abs(child)); err != nil {
				return err
			}
		}
	}
	return nil
}

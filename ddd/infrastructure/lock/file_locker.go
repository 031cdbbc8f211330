package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/logger"
)

// FileLocker 单机部署时使用文件锁代替 Redis 租约
type FileLocker struct {
	dir string
}

var _ port.AssetLocker = (*FileLocker)(nil)

func NewFileLocker(dir string) (*FileLocker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	return &FileLocker{dir: dir}, nil
}

func (l *FileLocker) Acquire(_ context.Context, assetUUID string) (func(), error) {
	fl := flock.New(filepath.Join(l.dir, assetUUID+".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, port.ErrLockHeld
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			logger.Warnf("Release asset file lock failed asset_uuid=%s error=%v", assetUUID, err)
		}
	}, nil
}

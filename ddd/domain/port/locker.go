package port

import (
	"context"
	"errors"
)

// ErrLockHeld 资产正在被其他 worker 处理
var ErrLockHeld = errors.New("asset lease held by another worker")

// AssetLocker 保证同一资产同时只有一个阶段在执行
type AssetLocker interface {
	// Acquire 获取租约，返回释放函数；已被占用时返回 ErrLockHeld
	Acquire(ctx context.Context, assetUUID string) (release func(), err error)
}

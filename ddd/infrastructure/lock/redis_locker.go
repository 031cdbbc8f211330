package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/redisclient"
)

const leaseKeyPrefix = "encoding:asset-lease:"

// RedisLocker 基于 SET NX PX 的资产租约，持有期间定期续期
type RedisLocker struct {
	client *redisclient.Client
	ttl    time.Duration
}

var _ port.AssetLocker = (*RedisLocker)(nil)

func NewRedisLocker(client *redisclient.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, assetUUID string) (func(), error) {
	key := leaseKeyPrefix + assetUUID
	token := uuid.NewString()
	ok, err := l.client.AcquireLease(ctx, key, token, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, port.ErrLockHeld
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.keepAlive(key, token, stop)
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.client.ReleaseLease(rctx, key, token); err != nil && !errors.Is(err, redisclient.ErrLeaseNotHeld) {
				logger.Warnf("Release asset lease failed asset_uuid=%s error=%v", assetUUID, err)
			}
		})
	}
	return release, nil
}

// keepAlive 每 ttl/3 续期一次，长时间编码不会丢失租约
func (l *RedisLocker) keepAlive(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := l.client.ExtendLease(ctx, key, token, l.ttl)
			cancel()
			if err != nil {
				logger.Warnf("Extend asset lease failed key=%s error=%v", key, err)
				if errors.Is(err, redisclient.ErrLeaseNotHeld) {
					return
				}
			}
		}
	}
}

package progress

import (
	"context"
	"sync"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/repo"
)

const (
	minStep     = 5
	minInterval = 2 * time.Second
)

type mark struct {
	progress int
	at       time.Time
}

// DBSink 将编码进度写回编码日志；ffmpeg 每秒会回调多次，这里按步长和间隔节流
type DBSink struct {
	repo repo.EncodingLogRepository
	now  func() time.Time

	mu   sync.Mutex
	last map[uint64]mark
}

func NewDBSink(r repo.EncodingLogRepository) port.ProgressSink {
	return &DBSink{repo: r, now: time.Now, last: make(map[uint64]mark)}
}

func (s *DBSink) SaveProgress(ctx context.Context, log *entity.EncodingLogEntity, progress int) error {
	if s.repo == nil || log == nil || log.ID() == 0 {
		return nil
	}
	if !s.shouldWrite(log.ID(), progress) {
		return nil
	}
	return s.repo.UpdateLogProgress(ctx, log.ID(), progress)
}

func (s *DBSink) shouldWrite(id uint64, progress int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	prev, ok := s.last[id]
	if ok && progress < 100 {
		if progress <= prev.progress {
			return false
		}
		if progress-prev.progress < minStep && now.Sub(prev.at) < minInterval {
			return false
		}
	}
	if progress >= 100 {
		delete(s.last, id)
		return true
	}
	s.last[id] = mark{progress: progress, at: now}
	return true
}

package status

import (
	"context"
	"sync"

	"inventory/internal/logger"
	rds "inventory/internal/platform/redis"
)

// Sink receives job progress lines. Both job services write through an
// injected Sink rather than a process-wide variable, so tests can capture
// progress and alternative surfaces can be swapped in.
type Sink interface {
	Set(line string)
}

const (
	redisKey = "status:last"
	// Terminal and in-progress lines are both kept for a day; only the
	// latest write survives either way.
	ttlSeconds = 86400

	// Empty returned by Current when nothing has been reported yet.
	Empty = "No status yet."
)

// Service is the single-slot, last-write-wins status line. The slot lives in
// memory; each write also lands in redis best-effort so the line survives a
// process restart. No history is kept.
type Service struct {
	mu    sync.RWMutex
	line  string
	redis *rds.Service
	log   *logger.Logger
}

func New(redis *rds.Service) *Service {
	return &Service{redis: redis, log: logger.New("Status")}
}

// Set overwrites the slot. Lines are short human-readable strings prefixed
// with a progress or outcome marker, e.g. "✅ All stores done".
func (s *Service) Set(line string) {
	s.mu.Lock()
	s.line = line
	s.mu.Unlock()

	s.log.LogInfof("status: %s", line)
	if s.redis != nil {
		if err := s.redis.CacheSet(context.Background(), redisKey, line, ttlSeconds); err != nil {
			s.log.LogDebugf("status write-through failed: %v", err)
		}
	}
}

// Current returns the latest line, falling back to the redis copy after a
// restart and to Empty when nothing was ever written.
func (s *Service) Current(ctx context.Context) string {
	s.mu.RLock()
	line := s.line
	s.mu.RUnlock()
	if line != "" {
		return line
	}

	if s.redis != nil {
		var stored string
		if err := s.redis.CacheGet(ctx, redisKey, &stored); err == nil && stored != "" {
			return stored
		}
	}
	return Empty
}

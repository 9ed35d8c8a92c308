// Package ratelimit implements fixed-window request counters keyed by an
// arbitrary string such as "ip:203.0.113.9:search".
//
// A window starts on the first hit for a key and lasts window. Hits 1..limit
// inside it are allowed; later hits are denied until it expires. When the
// counting store is unreachable the limiter allows the request.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more hit on key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// ---- Redis -----------------------------------------------------------------

// fixedWindow increments the counter and sets its expiry on the first hit,
// atomically, and returns the new count.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// RedisLimiter keeps counters in Redis so limits hold across API instances.
type RedisLimiter struct {
	rdb    redis.Scripter
	prefix string
	log    *slog.Logger
}

// NewRedisLimiter constructs a RedisLimiter. Keys are stored as prefix+key.
func NewRedisLimiter(rdb redis.Scripter, prefix string, log *slog.Logger) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, log: log}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	count, err := fixedWindow.Run(ctx, l.rdb, []string{l.prefix + key}, window.Milliseconds()).Int64()
	if err != nil {
		l.log.WarnContext(ctx, "ratelimit: store unavailable, allowing request", "key", key, "error", err)
		return true
	}
	return count <= int64(limit)
}

// ---- in-memory -------------------------------------------------------------

type window struct {
	count   int
	expires time.Time
}

// MemoryLimiter keeps counters in process memory. Limits are per instance.
// Expired windows are replaced on the next hit for their key and swept
// occasionally, so there is no background goroutine.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
	hits    int
}

// NewMemoryLimiter constructs a MemoryLimiter using the wall clock.
func NewMemoryLimiter() *MemoryLimiter {
	return NewMemoryLimiterWithClock(time.Now)
}

// NewMemoryLimiterWithClock constructs a MemoryLimiter that reads time from now.
func NewMemoryLimiterWithClock(now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: now}
}

const sweepEvery = 1024

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.hits++
	if l.hits%sweepEvery == 0 {
		for k, w := range l.windows {
			if !now.Before(w.expires) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.expires) {
		l.windows[key] = &window{count: 1, expires: now.Add(win)}
		return 1 <= limit
	}
	w.count++
	return w.count <= limit
}

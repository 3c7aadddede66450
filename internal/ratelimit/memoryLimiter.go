package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the single-process counterpart of RedisLimiter, used when
// no REDIS_URL is configured.
type MemoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]*limiterEntry
	cooldown    time.Duration
	window      time.Duration
	maxInWindow int
	now         func() time.Time
}

type limiterEntry struct {
	last        time.Time
	windowStart time.Time
	count       int
}

func NewMemoryLimiter(cooldown, window time.Duration, maxInWindow int) *MemoryLimiter {
	return newMemoryLimiter(cooldown, window, maxInWindow, time.Now)
}

func newMemoryLimiter(cooldown, window time.Duration, maxInWindow int, now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		entries:     make(map[string]*limiterEntry),
		cooldown:    cooldown,
		window:      window,
		maxInWindow: maxInWindow,
		now:         now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{windowStart: now}
		l.entries[key] = e
	}

	if l.cooldown > 0 && !e.last.IsZero() && now.Sub(e.last) < l.cooldown {
		return ErrThrottled
	}
	e.last = now

	if l.maxInWindow <= 0 {
		return nil
	}
	if now.Sub(e.windowStart) >= l.window {
		e.windowStart = now
		e.count = 0
	}
	e.count++
	if e.count > l.maxInWindow {
		return ErrThrottled
	}
	return nil
}

// Sweep drops entries whose cooldown and window have both passed.
func (l *MemoryLimiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if now.Sub(e.last) >= l.cooldown && now.Sub(e.windowStart) >= l.window {
			delete(l.entries, key)
		}
	}
}

// Run sweeps every interval until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

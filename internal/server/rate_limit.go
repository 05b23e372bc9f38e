package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-capacity sliding window limiter keyed by caller
// supplied strings. It is in-memory, so limits apply per process.
type rateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		max:     max,
		window:  window,
		entries: make(map[string][]time.Time),
	}
}

func (l *rateLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.entries[key][:0]
	for _, t := range l.entries[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.max {
		l.entries[key] = recent
		return false
	}

	l.entries[key] = append(recent, now)
	return true
}

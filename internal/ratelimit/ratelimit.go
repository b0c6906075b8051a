package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 10
)

// Limiter is a per-key sliding-window admission controller. Each key tracks
// the timestamps of its admitted requests; a request is admitted iff fewer
// than maxRequests timestamps fall within the trailing window. Keys never
// interfere with each other. State is in-memory only and resets on restart.
type Limiter struct {
	window      time.Duration
	maxRequests int

	mu       sync.Mutex
	requests map[string][]time.Time

	now func() time.Time
}

func NewLimiter(window time.Duration, maxRequests int) *Limiter {
	return &Limiter{
		window:      window,
		maxRequests: maxRequests,
		requests:    map[string][]time.Time{},
		now:         time.Now,
	}
}

func NewDefaultLimiter() *Limiter {
	return NewLimiter(DefaultWindow, DefaultMaxRequests)
}

// CanMakeRequest filters out timestamps older than the window, then admits
// the request iff the key is under its limit. Admission records the current
// timestamp. Filter and admit happen under one lock so concurrent callers
// cannot double-spend the last slot.
func (l *Limiter) CanMakeRequest(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := l.trimLocked(key, now)

	if len(valid) >= l.maxRequests {
		zap.S().Debugw("rate limit exceeded", "key", key, "requests", len(valid), "max", l.maxRequests)
		return false
	}

	l.requests[key] = append(valid, now)
	return true
}

// TimeUntilReset reports how long until the oldest in-window request falls
// out of the window. A key with no in-window history resets immediately.
func (l *Limiter) TimeUntilReset(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := l.trimLocked(key, now)
	if len(valid) == 0 {
		return 0
	}

	remaining := l.window - now.Sub(valid[0])
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot returns the current in-window request count for a key.
func (l *Limiter) Snapshot(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trimLocked(key, l.now()))
}

// trimLocked drops expired timestamps for key and writes the trimmed list
// back. Caller must hold l.mu.
func (l *Limiter) trimLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	timestamps := l.requests[key]

	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) == 0 {
		delete(l.requests, key)
		return nil
	}
	l.requests[key] = valid
	return valid
}

// Package ratelimit implements a simple in-memory windowed rate limiter,
// used to throttle outbound metadata document fetches per host.
package ratelimit

import (
	"sync"
	"time"
)

type keyLimit struct {
	requests  int
	resetTime time.Time
}

// Limiter allows at most maxRequests per key within a rolling window.
type Limiter struct {
	limits map[string]*keyLimit
	mu     sync.Mutex

	maxRequests int
	window      time.Duration
}

func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		limits:      make(map[string]*keyLimit),
		maxRequests: maxRequests,
		window:      window,
	}
}

// Allow reports whether key may proceed, counting the request when it may.
// Expired windows are pruned lazily; a library must not leak a cleanup
// goroutine.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.prune(now)

	limit, exists := l.limits[key]
	if !exists || now.After(limit.resetTime) {
		l.limits[key] = &keyLimit{
			requests:  1,
			resetTime: now.Add(l.window),
		}
		return true
	}

	if limit.requests >= l.maxRequests {
		return false
	}

	limit.requests++
	return true
}

// Remaining reports requests left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, exists := l.limits[key]
	if !exists || time.Now().After(limit.resetTime) {
		return l.maxRequests
	}

	remaining := l.maxRequests - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *Limiter) prune(now time.Time) {
	for key, limit := range l.limits {
		if now.After(limit.resetTime) {
			delete(l.limits, key)
		}
	}
}

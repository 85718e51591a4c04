// Package ratelimit provides a per-identity sliding-window admission check
// shared by all mutating endpoints.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks recent request timestamps per user id. A request is
// admitted while fewer than ceiling requests fall inside the trailing
// window; admitted requests are recorded, rejected ones are not.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	ceiling int
	hits    map[string][]time.Time
	now     func() time.Time
}

func New(window time.Duration, ceiling int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if ceiling <= 0 {
		ceiling = 20
	}
	return &Limiter{
		window:  window,
		ceiling: ceiling,
		hits:    make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether a request from userID is admitted right now.
func (l *Limiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[userID][:0]
	for _, ts := range l.hits[userID] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.ceiling {
		l.hits[userID] = recent
		return false
	}

	l.hits[userID] = append(recent, now)
	return true
}

// Prune drops identities whose every recorded request has left the window.
// Call periodically to keep the map from growing with one-off users.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for id, stamps := range l.hits {
		live := false
		for _, ts := range stamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.hits, id)
		}
	}
}

// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Store holds per-key limiters. A key gets Requests tokens that refill evenly
// over Window; keys unused for IdleTTL are dropped by Sweep.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	limit   rate.Limit
	burst   int
	window  time.Duration
	idleTTL time.Duration
	now     func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store allowing requests per window for each key. idleTTL is
// raised to window when shorter, so a drained key cannot be reset by a sweep.
func New(requests int, window, idleTTL time.Duration, opts ...Option) *Store {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if idleTTL < window {
		idleTTL = window
	}

	s := &Store{
		entries: make(map[string]*entry),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		window:  window,
		idleTTL: idleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow consumes a token for key. When the key is exhausted it returns false
// and how long until the next token is available.
func (s *Store) Allow(key string) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, s.window
	}

	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Sweep removes keys idle for longer than the idle TTL and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	removed := 0
	for key, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

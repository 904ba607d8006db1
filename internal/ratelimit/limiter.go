package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/panic-alert/internal/clock"
)

const (
	// DefaultWindow is the default length of the sliding window.
	DefaultWindow = time.Minute
	// DefaultLimit is the default number of admissions per source per window.
	DefaultLimit = 30
	// DefaultMaxSources is the default number of tracked source keys.
	DefaultMaxSources = 100000
)

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request was admitted.
	Allowed bool
	// Remaining is how many admissions are left in the current window.
	Remaining int
	// RetryAfter is how long a rejected source should wait before retrying.
	RetryAfter time.Duration
}

// Limiter is a per-source sliding-window admission controller.
type Limiter struct {
	// clock provides the current time.
	clock clock.Clock
	// window is the length of the sliding window.
	window time.Duration
	// limit is the maximum number of admissions per window.
	limit int
	// maxSources caps the number of tracked source keys.
	maxSources int
	// sources maps a source key to its admission timestamps, oldest first.
	sources map[string][]time.Time
	// mu protects sources.
	mu sync.Mutex
}

// Option configures the limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithMaxSources caps the number of tracked source keys.
func WithMaxSources(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxSources = n
		}
	}
}

// New creates a limiter admitting at most limit requests per source within window.
// Non-positive values fall back to the defaults.
func New(window time.Duration, limit int, opts ...Option) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	l := &Limiter{
		clock:      clock.Real{},
		window:     window,
		limit:      limit,
		maxSources: DefaultMaxSources,
		sources:    make(map[string][]time.Time),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Admit reports whether a request from key is admitted.
func (l *Limiter) Admit(key string) bool {
	return l.Allow(key).Allowed
}

// Allow checks and, when admitted, records a request from key.
// Rejected requests are not recorded and do not extend the wait.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	stamps, tracked := l.sources[key]
	if !tracked && len(l.sources) >= l.maxSources {
		l.sweepLocked(now)

		if len(l.sources) >= l.maxSources {
			return Decision{
				Allowed:    false,
				RetryAfter: l.window,
			}
		}
	}

	stamps = prune(stamps, now.Add(-l.window))

	if len(stamps) >= l.limit {
		l.sources[key] = stamps

		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: stamps[0].Add(l.window).Sub(now),
		}
	}

	stamps = append(stamps, now)
	l.sources[key] = stamps

	return Decision{
		Allowed:   true,
		Remaining: l.limit - len(stamps),
	}
}

// Sweep forgets sources with no admission inside the window and returns how many were dropped.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sweepLocked(l.clock.Now())
}

// StartCleanup runs Sweep every interval until ctx is done.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}

	go func() {
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
	}()
}

// Len returns the number of tracked source keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.sources)
}

// Limit returns the admission ceiling per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the sliding window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// sweepLocked drops stale sources. Callers must hold mu.
func (l *Limiter) sweepLocked(now time.Time) int {
	cutoff := now.Add(-l.window)

	var dropped int

	for key, stamps := range l.sources {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(l.sources, key)
			dropped++
		}
	}

	return dropped
}

// prune removes timestamps at or before cutoff. stamps is ordered oldest first.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}

	if idx == 0 {
		return stamps
	}

	return append(stamps[:0], stamps[idx:]...)
}

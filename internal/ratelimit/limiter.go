// Package ratelimit counts requests per key in fixed windows and decides
// whether a request is still within its quota.
//
// The counters live behind the Store interface: MemoryStore for a single
// instance, RedisStore when several instances must share one budget.
// Call sites only ever see Limiter.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Quota is "Max requests per Window".
type Quota struct {
	Max    int
	Window time.Duration
}

// String renders the quota for logs, e.g. "10/15m0s".
func (q Quota) String() string {
	return fmt.Sprintf("%d/%s", q.Max, q.Window)
}

// Bucket is the state of one key after a hit.
type Bucket struct {
	Count       int
	WindowStart time.Time
}

// ResetAt is when the bucket's window elapses.
func (b Bucket) ResetAt(window time.Duration) time.Time {
	return b.WindowStart.Add(window)
}

// Store keeps per-key counters.
type Store interface {
	// Hit increments the counter for key, starting a new window when the
	// previous one elapsed, and returns the bucket after the increment.
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Bucket, error)
	// Close releases background resources.
	Close() error
}

// Result is the decision for one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the wait until the window resets, rounded up to seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}

// Limiter applies quotas on top of a Store.
type Limiter struct {
	store Store
	now   func() time.Time
}

// NewLimiter creates a limiter over store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// WithClock replaces the time source; used in tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Now returns the limiter's current time.
func (l *Limiter) Now() time.Time {
	return l.now()
}

// Allow records one request for key and reports whether it fits q.
// The (Max+1)-th request inside a window is the first one rejected.
func (l *Limiter) Allow(ctx context.Context, key string, q Quota) (Result, error) {
	now := l.now()
	b, err := l.store.Hit(ctx, key, q.Window, now)
	if err != nil {
		return Result{Allowed: true, Limit: q.Max, Remaining: q.Max, ResetAt: now.Add(q.Window)},
			fmt.Errorf("rate limit store: %w", err)
	}

	remaining := q.Max - b.Count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   b.Count <= q.Max,
		Limit:     q.Max,
		Remaining: remaining,
		ResetAt:   b.ResetAt(q.Window),
	}, nil
}

// Close closes the underlying store.
func (l *Limiter) Close() error {
	return l.store.Close()
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryBucket struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// MemoryStore keeps buckets in process memory. State is lost on restart,
// which is acceptable for a single instance.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemoryStore starts a store whose expired buckets are swept every
// cleanupInterval. A zero interval disables the sweeper.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*memoryBucket),
		stopCh:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanup(cleanupInterval)
	}
	return s
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration, now time.Time) (Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.windowStart.Add(b.window)) {
		b = &memoryBucket{windowStart: now, window: window}
		s.buckets[key] = b
	}
	b.count++

	return Bucket{Count: b.count, WindowStart: b.windowStart}, nil
}

// Len returns the number of live buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Close stops the sweeper; must be called on shutdown.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep drops buckets whose window has elapsed.
func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.buckets {
		if !now.Before(b.windowStart.Add(b.window)) {
			delete(s.buckets, key)
		}
	}
}

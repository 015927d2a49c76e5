package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// gcProbability is the share of Hit calls that also sweep expired windows.
const gcProbability = 0.01

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process memory. It is safe for concurrent use
// but not shared between instances; use RedisStore for that.
//
// Expired entries are swept on a random ~1% of calls, which bounds memory
// growth without a background goroutine.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	// Rand returns a float in [0,1); nil means math/rand.
	Rand func() float64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, length time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.windows == nil {
		s.windows = make(map[string]*window)
	}

	// Sweep before touching key so a stale entry for it is dropped too.
	if s.roll() < gcProbability {
		s.sweep(now)
	}

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(length)}
		s.windows[key] = w
		return w.count, w.resetAt, nil
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Sweep removes every window that ended before now.
func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, k)
		}
	}
}

func (s *MemoryStore) roll() float64 {
	if s.Rand != nil {
		return s.Rand()
	}
	return rand.Float64()
}

package cache

import "time"

// Option applies a configuration option to the in-memory store.
type Option func(*memoryStore)

// WithMaxEntries bounds the number of terminal results kept in memory.
// If maxEntries > 0 the oldest result is evicted first.
// If maxEntries <= 0 the store is unbounded.
func WithMaxEntries(maxEntries int) Option {
	return func(s *memoryStore) {
		s.maxEntries = maxEntries
	}
}

// WithInProgressTTL sets how long a sentinel blocks other callers. An older
// sentinel is treated as abandoned and may be taken over. Zero disables takeover.
func WithInProgressTTL(ttl time.Duration) Option {
	return func(s *memoryStore) {
		if ttl >= 0 {
			s.inProgressTTL = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *memoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

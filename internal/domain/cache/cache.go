// Package cache memoizes comparison results by request fingerprint and guards
// against duplicate in-flight computations.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/pkg/metrics"
)

const defaultInProgressTTL = 5 * time.Minute

// State distinguishes the three kinds of lookup outcome.
type State int

// Lookup states.
const (
	Absent State = iota
	InProgress
	Ready
)

// String returns the state name used in logs and metrics.
func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Ready:
		return "hit"
	default:
		return "miss"
	}
}

// Token identifies the owner of an in-progress sentinel. The zero Token owns
// nothing and is used for direct writes.
type Token uint64

// Lookup is the outcome of Get.
type Lookup struct {
	State  State
	Since  time.Time // when the sentinel was written, for InProgress
	Result model.ComparisonResult
}

// Stats reports store counters.
type Stats struct {
	Entries    int   `json:"entries"`
	InProgress int   `json:"in_progress"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Pending    int64 `json:"pending"`
	Evictions  int64 `json:"evictions"`
}

// Store keeps comparison results keyed by fingerprint.
type Store interface {
	// Get reports whether key is absent, being computed, or holds a result.
	Get(ctx context.Context, key string) Lookup

	// MarkInProgress atomically writes a sentinel for key if no live entry
	// exists. Returns true and the sentinel's token if the caller now owns
	// the computation.
	MarkInProgress(ctx context.Context, key string) (Token, bool)

	// Store writes a terminal result. A sentinel is replaced only when token
	// owns it; a sentinel held by another caller is left alone and Store
	// returns false.
	Store(ctx context.Context, key string, token Token, result model.ComparisonResult) bool

	// Release drops the sentinel owned by token after a failed computation.
	// Results and sentinels taken over by other callers are kept.
	Release(ctx context.Context, key string, token Token)

	// Evict removes any entry for key. Returns true if something was removed.
	Evict(ctx context.Context, key string) bool

	Len() int
	Stats() Stats
}

type entry struct {
	since  time.Time
	token  Token
	ready  bool
	result model.ComparisonResult
	elem   *list.Element // position in the result order, nil for sentinels
}

// memoryStore implements Store with a mutex-guarded map. Terminal results are
// tracked in insertion order so a bounded store evicts the oldest first.
type memoryStore struct {
	mu            sync.Mutex
	entries       map[string]*entry
	order         *list.List
	maxEntries    int
	inProgressTTL time.Duration
	now           func() time.Time
	generation    uint64

	hits      atomic.Int64
	misses    atomic.Int64
	pending   atomic.Int64
	evictions atomic.Int64
}

// NewMemoryStore creates an in-memory Store. It is unbounded by default.
func NewMemoryStore(opts ...Option) Store {
	s := &memoryStore{
		entries:       make(map[string]*entry),
		order:         list.New(),
		inProgressTTL: defaultInProgressTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memoryStore) Get(ctx context.Context, key string) Lookup {
	s.mu.Lock()
	e, ok := s.entries[key]
	var l Lookup
	switch {
	case !ok || (!e.ready && s.stale(e)):
		l = Lookup{State: Absent}
		s.misses.Add(1)
	case !e.ready:
		l = Lookup{State: InProgress, Since: e.since}
		s.pending.Add(1)
	default:
		l = Lookup{State: Ready, Since: e.since, Result: e.result}
		s.hits.Add(1)
	}
	s.mu.Unlock()

	metrics.RecordCacheLookup(l.State.String())
	return l
}

func (s *memoryStore) MarkInProgress(ctx context.Context, key string) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		if e.ready || !s.stale(e) {
			return 0, false
		}
	}
	s.generation++
	token := Token(s.generation)
	s.entries[key] = &entry{since: s.now(), token: token}
	return token, true
}

func (s *memoryStore) Store(ctx context.Context, key string, token Token, result model.ComparisonResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		if !e.ready && e.token != token {
			return false
		}
		if e.elem != nil {
			s.order.Remove(e.elem)
		}
	}
	e := &entry{since: s.now(), ready: true, result: result}
	e.elem = s.order.PushBack(key)
	s.entries[key] = e

	if s.maxEntries > 0 {
		for s.order.Len() > s.maxEntries {
			s.evictOldest()
		}
	}
	metrics.UpdateCacheEntries(len(s.entries))
	return true
}

func (s *memoryStore) Release(ctx context.Context, key string, token Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !e.ready && e.token == token {
		delete(s.entries, key)
	}
}

func (s *memoryStore) Evict(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if e.elem != nil {
		s.order.Remove(e.elem)
	}
	delete(s.entries, key)
	s.evictions.Add(1)
	metrics.RecordCacheEviction()
	metrics.UpdateCacheEntries(len(s.entries))
	return true
}

// evictOldest removes the oldest terminal result.
// Must be called with s.mu held.
func (s *memoryStore) evictOldest() {
	front := s.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(string) //nolint:forcetypeassert // order only holds keys
	s.order.Remove(front)
	delete(s.entries, key)
	s.evictions.Add(1)
	metrics.RecordCacheEviction()
}

// stale reports whether a sentinel outlived the takeover TTL.
// Must be called with s.mu held.
func (s *memoryStore) stale(e *entry) bool {
	return s.inProgressTTL > 0 && s.now().Sub(e.since) > s.inProgressTTL
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memoryStore) Stats() Stats {
	s.mu.Lock()
	st := Stats{Entries: len(s.entries)}
	for _, e := range s.entries {
		if !e.ready {
			st.InProgress++
		}
	}
	s.mu.Unlock()

	st.Hits = s.hits.Load()
	st.Misses = s.misses.Load()
	st.Pending = s.pending.Load()
	st.Evictions = s.evictions.Load()
	return st
}

package cache

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// LocalConfig holds in-process store configuration.
type LocalConfig struct {
	// TTL is how long an entry is served (defaults to 5s)
	TTL time.Duration

	// MaxEntries bounds the number of stored images (defaults to 1000)
	MaxEntries int

	// Now overrides the clock, for tests
	Now func() time.Time
}

// LocalStore implements Store in process memory.
// This is suitable for single-instance deployments.
//
// A single mutex guards the map and the age heap so read-or-miss and
// evict-then-insert happen atomically.
type LocalStore struct {
	mu         sync.Mutex
	entries    map[string]*localEntry
	byAge      ageHeap
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type localEntry struct {
	Entry
	index int
}

// NewLocalStore creates an empty in-process store.
func NewLocalStore(cfg LocalConfig) *LocalStore {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &LocalStore{
		entries:    make(map[string]*localEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

// TTL returns the configured time-to-live.
func (s *LocalStore) TTL() time.Duration {
	return s.ttl
}

// Get returns the buffer for key if it is younger than the TTL. Stale entries
// are left for the sweeper.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.CreatedAt) >= s.ttl {
		return nil, false, nil
	}
	return e.Buffer, true, nil
}

// Set inserts or overwrites key. When a new key arrives at capacity the entry
// with the oldest creation time is evicted first.
func (s *LocalStore) Set(_ context.Context, key string, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok {
		e.Buffer = buf
		e.CreatedAt = now
		heap.Fix(&s.byAge, e.index)
		return nil
	}

	if len(s.entries) >= s.maxEntries {
		oldest := heap.Pop(&s.byAge).(*localEntry)
		delete(s.entries, oldest.Key)
	}

	e := &localEntry{Entry: Entry{Key: key, Buffer: buf, CreatedAt: now}}
	heap.Push(&s.byAge, e)
	s.entries[key] = e
	return nil
}

// Sweep removes every entry older than the TTL and returns how many were removed.
func (s *LocalStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for s.byAge.Len() > 0 {
		oldest := s.byAge[0]
		if now.Sub(oldest.CreatedAt) <= s.ttl {
			break
		}
		heap.Pop(&s.byAge)
		delete(s.entries, oldest.Key)
		removed++
	}
	return removed
}

// Len returns the number of stored entries, fresh or stale.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats reports size and limits.
func (s *LocalStore) Stats(_ context.Context) Stats {
	return Stats{
		Backend: BackendLocal,
		Size:    s.Len(),
		MaxSize: s.maxEntries,
		TTL:     s.ttl,
	}
}

// Close is a no-op for the local store.
func (s *LocalStore) Close() error {
	return nil
}

// ageHeap is a min-heap of entries ordered by creation time.
type ageHeap []*localEntry

func (h ageHeap) Len() int           { return len(h) }
func (h ageHeap) Less(i, j int) bool { return h[i].CreatedAt.Before(h[j].CreatedAt) }

func (h ageHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *ageHeap) Push(x any) {
	e := x.(*localEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *ageHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

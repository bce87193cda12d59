package dedup

import (
	"context"
	"strings"
	"sync"
	"time"
)

type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
	index    map[string]struct{}
	now      func() time.Time
}

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{
		capacity: normalizeCapacity(capacity),
		index:    map[string]struct{}{},
		now:      time.Now,
	}
}

func (s *MemoryStore) Has(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[strings.TrimSpace(id)]
	return ok, nil
}

func (s *MemoryStore) MarkDone(_ context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries, _ = appendBounded(s.entries, s.index, Entry{ID: id, ProcessedAt: s.now().UTC()}, s.capacity)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.index = map[string]struct{}{}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.entries, limit), nil
}

func (s *MemoryStore) Close() error { return nil }

// appendBounded adds e unless its id is already indexed and evicts from the
// front until len(entries) <= capacity. It reports whether e was added.
func appendBounded(entries []Entry, index map[string]struct{}, e Entry, capacity int) ([]Entry, bool) {
	if _, ok := index[e.ID]; ok {
		return entries, false
	}
	entries = append(entries, e)
	index[e.ID] = struct{}{}
	for len(entries) > capacity {
		delete(index, entries[0].ID)
		entries = entries[1:]
	}
	return entries, true
}

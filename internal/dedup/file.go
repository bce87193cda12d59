package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
)

type fileSnapshot struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// FileStore keeps the set in a JSON file, rewritten atomically through a
// temporary file on every change.
type FileStore struct {
	path     string
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	loaded  bool
	entries []Entry
	index   map[string]struct{}
}

func NewFileStore(path string, capacity int) *FileStore {
	return &FileStore{
		path:     strings.TrimSpace(path),
		capacity: normalizeCapacity(capacity),
		now:      time.Now,
	}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Has(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false, err
	}
	_, ok := s.index[strings.TrimSpace(id)]
	return ok, nil
}

func (s *FileStore) MarkDone(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return err
		}
		if qerr := s.quarantine(ctx); qerr != nil {
			return errors.Join(err, qerr)
		}
	}

	entries, added := appendBounded(s.entries, s.index, Entry{ID: id, ProcessedAt: s.now().UTC()}, s.capacity)
	if !added {
		return nil
	}
	if err := s.save(entries); err != nil {
		// keep memory consistent with disk
		delete(s.index, id)
		s.loaded = false
		return err
	}
	s.entries = entries
	return nil
}

func (s *FileStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(nil); err != nil {
		return err
	}
	s.entries = nil
	s.index = map[string]struct{}{}
	s.loaded = true
	return nil
}

func (s *FileStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return newestFirst(s.entries, limit), nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	if s.path == "" {
		return ErrInvalidInput
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.entries, s.index, s.loaded = nil, map[string]struct{}{}, true
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := decodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}

	// trim to capacity keeping the newest
	if len(raw) > s.capacity {
		raw = raw[len(raw)-s.capacity:]
	}
	index := make(map[string]struct{}, len(raw))
	var entries []Entry
	for _, e := range raw {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			continue
		}
		entries, _ = appendBounded(entries, index, e, s.capacity)
	}
	s.entries, s.index, s.loaded = entries, index, true
	return nil
}

// decodeSnapshot accepts the versioned format and a bare JSON array of ids.
func decodeSnapshot(data []byte) ([]Entry, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return nil, err
		}
		entries := make([]Entry, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, Entry{ID: id})
		}
		return entries, nil
	}
	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap.Entries, nil
}

func (s *FileStore) quarantine(ctx context.Context) error {
	log := config.WithContext(ctx)
	target := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.Rename(s.path, target); err != nil {
		return err
	}
	log.Warnf("Moved unreadable dedup file to %s and started a new one", target)
	s.entries, s.index, s.loaded = nil, map[string]struct{}{}, true
	return nil
}

func (s *FileStore) save(entries []Entry) error {
	data, err := json.MarshalIndent(fileSnapshot{Version: 1, Entries: entries}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Package dedup records which calendar events and notes documents have
// already been processed. Event ids and document ids share one namespace.
package dedup

import (
	"context"
	"errors"
	"time"
)

const DefaultCapacity = 500

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrCorrupt      = errors.New("dedup store is corrupt")
)

type Entry struct {
	ID          string    `json:"id" yaml:"id"`
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

// Store is a bounded, durable set of processed ids. Once more than its
// capacity ids are recorded the oldest are evicted first. MarkDone is
// idempotent and never changes the position of an id already present.
type Store interface {
	Has(ctx context.Context, id string) (bool, error)
	MarkDone(ctx context.Context, id string) error
	Reset(ctx context.Context) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

func normalizeCapacity(capacity int) int {
	if capacity <= 0 {
		return DefaultCapacity
	}
	return capacity
}

// newestFirst returns up to limit entries from an oldest-first slice.
func newestFirst(entries []Entry, limit int) []Entry {
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out
}

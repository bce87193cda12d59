package dedup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/saulo-duarte/chronos-autopilot/internal/dedup"
)

type brokenStore struct {
	marks int
}

var errBroken = errors.New("disk on fire")

func (b *brokenStore) Has(context.Context, string) (bool, error) { return false, errBroken }
func (b *brokenStore) MarkDone(context.Context, string) error {
	b.marks++
	return errBroken
}
func (b *brokenStore) Reset(context.Context) error                        { return errBroken }
func (b *brokenStore) Recent(context.Context, int) ([]dedup.Entry, error) { return nil, errBroken }
func (b *brokenStore) Close() error                                       { return nil }

func TestGuardFailsOpen(t *testing.T) {
	store := &brokenStore{}
	guard := dedup.NewGuard(store)
	ctx := context.Background()

	if guard.Has(ctx, "evt-1") {
		t.Errorf("Has must report false when the store errors")
	}

	guard.MarkDone(ctx, "evt-1", "", "doc-1")
	if store.marks != 2 {
		t.Errorf("expected two MarkDone attempts, got %d", store.marks)
	}

	if err := guard.Reset(ctx); !errors.Is(err, errBroken) {
		t.Errorf("Reset errors should surface, got %v", err)
	}
}

func TestGuardMarksBothIDs(t *testing.T) {
	guard := dedup.NewGuard(dedup.NewMemoryStore(10))
	ctx := context.Background()
	guard.MarkDone(ctx, "evt-1", "doc-1")
	if !guard.Has(ctx, "evt-1") || !guard.Has(ctx, "doc-1") {
		t.Errorf("both ids should be processed")
	}
	if guard.Has(ctx, "") {
		t.Errorf("empty id is never processed")
	}
}

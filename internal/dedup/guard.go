package dedup

import (
	"context"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/sirupsen/logrus"
)

// Guard is the view of a Store that the scheduler relies on. Read failures
// count as "not processed" and write failures are logged, never returned.
type Guard struct {
	store Store
}

func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

func (g *Guard) Store() Store { return g.store }

func (g *Guard) Has(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	ok, err := g.store.Has(ctx, id)
	if err != nil {
		config.WithContext(ctx).WithError(err).WithFields(logrus.Fields{"id": id}).
			Warn("Dedup store unreadable, treating id as not processed")
		return false
	}
	return ok
}

func (g *Guard) MarkDone(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := g.store.MarkDone(ctx, id); err != nil {
			config.WithContext(ctx).WithError(err).WithFields(logrus.Fields{"id": id}).
				Warn("Failed to record processed id")
		}
	}
}

func (g *Guard) Reset(ctx context.Context) error {
	return g.store.Reset(ctx)
}

func (g *Guard) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return g.store.Recent(ctx, limit)
}

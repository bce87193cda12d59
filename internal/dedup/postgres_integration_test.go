package dedup_test

import (
	"context"
	"os"
	"testing"

	"github.com/saulo-duarte/chronos-autopilot/internal/dedup"
)

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("AUTOPILOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AUTOPILOT_TEST_POSTGRES_DSN not set")
	}
	newStore := func(capacity int) dedup.Store {
		s, err := dedup.NewPostgresStore(dsn, capacity)
		if err != nil {
			t.Fatalf("NewPostgresStore failed: %v", err)
		}
		if err := s.Reset(context.Background()); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		return s
	}
	exerciseStore(t, newStore)
}

package dedup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saulo-duarte/chronos-autopilot/internal/dedup"
)

func TestFileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.json")

	first := dedup.NewFileStore(path, 10)
	if err := first.MarkDone(ctx, "evt-1"); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}

	second := dedup.NewFileStore(path, 10)
	if ok, err := second.Has(ctx, "evt-1"); err != nil || !ok {
		t.Errorf("expected evt-1 after reopen (ok=%v err=%v)", ok, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file should be renamed away")
	}
}

func TestFileStoreTrimsOnLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.json")
	if err := os.WriteFile(path, []byte(`["a","b","c","d"]`), 0o600); err != nil {
		t.Fatal(err)
	}

	s := dedup.NewFileStore(path, 2)
	for id, want := range map[string]bool{"a": false, "b": false, "c": true, "d": true} {
		if ok, err := s.Has(ctx, id); err != nil || ok != want {
			t.Errorf("Has(%s) = %v (%v), want %v", id, ok, err, want)
		}
	}
}

func TestFileStoreCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "processed.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o600); err != nil {
		t.Fatal(err)
	}
	s := dedup.NewFileStore(path, 10)

	if _, err := s.Has(ctx, "x"); !errors.Is(err, dedup.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	guard := dedup.NewGuard(s)
	if guard.Has(ctx, "x") {
		t.Errorf("guard must fail open on corruption")
	}

	guard.MarkDone(ctx, "x")
	if !guard.Has(ctx, "x") {
		t.Errorf("MarkDone should recover by starting a new file")
	}

	entries, _ := os.ReadDir(dir)
	quarantined := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "processed.json.corrupt-") {
			quarantined = true
		}
	}
	if !quarantined {
		t.Errorf("corrupt file should be kept aside for inspection")
	}
}

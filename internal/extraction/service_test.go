package extraction_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/extraction"
)

type fakeProvider struct {
	system, user string
	out          *extraction.Extraction
	err          error
}

func (f *fakeProvider) SendPrompt(_ context.Context, system, user string) (*extraction.Extraction, error) {
	f.system, f.user = system, user
	return f.out, f.err
}

func TestServiceExtract(t *testing.T) {
	t.Run("BuildsPrompt", func(t *testing.T) {
		provider := &fakeProvider{out: &extraction.Extraction{Summary: "ok"}}
		svc := extraction.NewService(provider)

		out, err := svc.Extract(context.Background(), extraction.Request{
			Title:     "Sprint Planning",
			StartedAt: time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC),
			Text:      "We will ship on Friday.",
		})
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if out.Summary != "ok" {
			t.Errorf("unexpected output %+v", out)
		}
		if !strings.Contains(provider.user, `"Sprint Planning"`) || !strings.Contains(provider.user, "ship on Friday") {
			t.Errorf("user prompt missing meeting data: %q", provider.user)
		}
		if !strings.Contains(provider.system, "pure JSON") {
			t.Errorf("system prompt should demand JSON")
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		svc := extraction.NewService(&fakeProvider{})
		if _, err := svc.Extract(context.Background(), extraction.Request{Text: "  "}); !errors.Is(err, extraction.ErrNothingToExtract) {
			t.Errorf("expected ErrNothingToExtract, got %v", err)
		}
	})

	t.Run("ProviderError", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		svc := extraction.NewService(&fakeProvider{err: boom})
		if _, err := svc.Extract(context.Background(), extraction.Request{Text: "x"}); !errors.Is(err, boom) {
			t.Errorf("expected provider error, got %v", err)
		}
	})
}

func TestBuildUserPrompt(t *testing.T) {
	long := strings.Repeat("a", 70000)
	prompt := extraction.BuildUserPrompt(extraction.Request{Text: long})
	if !strings.Contains(prompt, "Untitled meeting") || !strings.Contains(prompt, "unknown time") {
		t.Errorf("defaults missing from prompt")
	}
	if len(prompt) > 60200 {
		t.Errorf("meeting text should be truncated, prompt is %d chars", len(prompt))
	}
}

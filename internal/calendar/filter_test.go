package calendar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
)

func TestFilter(t *testing.T) {
	from, to := calendar.DayWindow(today, time.UTC)
	at := func(h int) time.Time { return from.Add(time.Duration(h) * time.Hour) }

	events := []calendar.Event{
		{ID: "late", Title: "Late", Start: at(15), End: at(16), Calendar: "Work"},
		{ID: "early", Title: "Early", Start: at(9), End: at(10), Calendar: "work"},
		{ID: "early", Title: "Duplicate", Start: at(9), End: at(10), Calendar: "Work"},
		{ID: "zero", Title: "Marker", Start: at(11), End: at(11), Calendar: "Work"},
		{ID: "allday", Title: "Holiday", AllDay: true},
		{ID: "cancelled", Start: at(12), End: at(13), Cancelled: true, Calendar: "Work"},
		{ID: "personal", Start: at(12), End: at(13), Calendar: "Personal"},
		{ID: "yesterday", Start: at(-2), End: at(-1), Calendar: "Work"},
		{ID: "", Start: at(12), End: at(13), Calendar: "Work"},
	}

	got := calendar.Filter(events, []string{" WORK "}, from, to)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(got), got)
	}
	if got[0].ID != "early" || got[1].ID != "late" {
		t.Errorf("unexpected order %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Title != "Early" {
		t.Errorf("first occurrence of a duplicate id should win, got %q", got[0].Title)
	}

	if all := calendar.Filter(events, nil, from, to); len(all) != 3 {
		t.Errorf("empty names should keep every calendar, got %d", len(all))
	}
}

type slowSource struct{ delay time.Duration }

func (s slowSource) FetchTodaysEvents(ctx context.Context) ([]calendar.Event, error) {
	select {
	case <-time.After(s.delay):
		return []calendar.Event{{ID: "x"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("Expires", func(t *testing.T) {
		src := calendar.WithTimeout(slowSource{delay: time.Second}, 20*time.Millisecond)
		_, err := src.FetchTodaysEvents(context.Background())
		if !errors.Is(err, calendar.ErrSourceUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline error, got %v", err)
		}
	})

	t.Run("Completes", func(t *testing.T) {
		src := calendar.WithTimeout(slowSource{delay: time.Millisecond}, time.Second)
		events, err := src.FetchTodaysEvents(context.Background())
		if err != nil || len(events) != 1 {
			t.Errorf("unexpected result %v, %v", events, err)
		}
	})
}

package calendar_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
)

var today = time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

func icsBody(lines ...string) string {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//autopilot//test//EN",
		"X-WR-CALNAME:Work",
	}, lines...)
	all = append(all, "END:VCALENDAR")
	return strings.Join(all, "\r\n") + "\r\n"
}

var fixture = icsBody(
	"BEGIN:VEVENT",
	"UID:single-1",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250304T140000Z",
	"DTEND:20250304T150000Z",
	"SUMMARY:Sprint Planning",
	"END:VEVENT",

	"BEGIN:VEVENT",
	"UID:allday-1",
	"DTSTAMP:20250301T000000Z",
	"DTSTART;VALUE=DATE:20250304",
	"DTEND;VALUE=DATE:20250305",
	"SUMMARY:Offsite",
	"END:VEVENT",

	"BEGIN:VEVENT",
	"UID:cancelled-1",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250304T110000Z",
	"DTEND:20250304T113000Z",
	"STATUS:CANCELLED",
	"SUMMARY:Cancelled sync",
	"END:VEVENT",

	"BEGIN:VEVENT",
	"UID:standup",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250301T090000Z",
	"DTEND:20250301T091500Z",
	"RRULE:FREQ=DAILY;COUNT=10",
	"SUMMARY:Standup",
	"END:VEVENT",

	"BEGIN:VEVENT",
	"UID:weekly",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250225T100000Z",
	"DTEND:20250225T110000Z",
	"RRULE:FREQ=WEEKLY",
	"EXDATE:20250304T100000Z",
	"SUMMARY:Weekly skipped today",
	"END:VEVENT",

	"BEGIN:VEVENT",
	"UID:review",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250301T160000Z",
	"DTEND:20250301T170000Z",
	"RRULE:FREQ=DAILY;COUNT=5",
	"SUMMARY:Review",
	"END:VEVENT",

	"BEGIN:VEVENT",
	"UID:review",
	"DTSTAMP:20250301T000000Z",
	"RECURRENCE-ID:20250304T160000Z",
	"DTSTART:20250304T170000Z",
	"DTEND:20250304T180000Z",
	"SUMMARY:Review (moved)",
	"END:VEVENT",

	"BEGIN:VEVENT",
	"UID:tomorrow",
	"DTSTAMP:20250301T000000Z",
	"DTSTART:20250305T090000Z",
	"DTEND:20250305T100000Z",
	"SUMMARY:Tomorrow",
	"END:VEVENT",
)

func byID(events []calendar.Event) map[string]calendar.Event {
	out := make(map[string]calendar.Event, len(events))
	for _, e := range events {
		out[e.ID] = e
	}
	return out
}

func TestParseICS(t *testing.T) {
	from, to := calendar.DayWindow(today, time.UTC)
	events, err := calendar.ParseICS([]byte(fixture), from, to)
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}
	kept := byID(calendar.Filter(events, nil, from, to))

	if len(kept) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(kept), kept)
	}

	single, ok := kept["single-1"]
	if !ok || single.Title != "Sprint Planning" || single.Calendar != "Work" {
		t.Errorf("unexpected single event %+v", single)
	}

	standup, ok := kept["standup@2025-03-04T09:00:00Z"]
	if !ok {
		t.Fatalf("missing expanded standup occurrence, got %v", kept)
	}
	if standup.Duration() != 15*time.Minute {
		t.Errorf("occurrence should keep base duration, got %s", standup.Duration())
	}

	review, ok := kept["review@2025-03-04T16:00:00Z"]
	if !ok {
		t.Fatalf("override should keep the id of its original slot, got %v", kept)
	}
	if review.Title != "Review (moved)" || review.Start.Hour() != 17 {
		t.Errorf("override not applied: %+v", review)
	}

	for _, id := range []string{"allday-1", "cancelled-1", "tomorrow"} {
		if _, ok := kept[id]; ok {
			t.Errorf("%s should have been filtered", id)
		}
	}
	for id := range kept {
		if strings.HasPrefix(id, "weekly") {
			t.Errorf("EXDATE occurrence %s should be excluded", id)
		}
	}
}

func TestParseICSRejectsEmptyBody(t *testing.T) {
	from, to := calendar.DayWindow(today, time.UTC)
	if _, err := calendar.ParseICS([]byte("  "), from, to); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestICSSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.ics")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	now := func() time.Time { return today }

	t.Run("MatchingCalendarName", func(t *testing.T) {
		src := calendar.NewICSSource(calendar.ICSOptions{Location: path, Names: []string{"work"}, TimeZone: time.UTC, Now: now})
		events, err := src.FetchTodaysEvents(context.Background())
		if err != nil {
			t.Fatalf("FetchTodaysEvents failed: %v", err)
		}
		if len(events) != 3 {
			t.Errorf("expected 3 events, got %d", len(events))
		}
		for i := 1; i < len(events); i++ {
			if events[i].Start.Before(events[i-1].Start) {
				t.Errorf("events should be sorted by start")
			}
		}
	})

	t.Run("OtherCalendarName", func(t *testing.T) {
		src := calendar.NewICSSource(calendar.ICSOptions{Location: path, Names: []string{"Personal"}, TimeZone: time.UTC, Now: now})
		events, err := src.FetchTodaysEvents(context.Background())
		if err != nil {
			t.Fatalf("FetchTodaysEvents failed: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected no events, got %d", len(events))
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		src := calendar.NewICSSource(calendar.ICSOptions{Location: filepath.Join(t.TempDir(), "nope.ics"), Now: now})
		_, err := src.FetchTodaysEvents(context.Background())
		if !errors.Is(err, calendar.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})
}

func TestICSSourceFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	src := calendar.NewICSSource(calendar.ICSOptions{
		Location:   srv.URL + "/cal.ics",
		TimeZone:   time.UTC,
		Now:        func() time.Time { return today },
		HTTPClient: srv.Client(),
	})
	events, err := src.FetchTodaysEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchTodaysEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 events, got %d", len(events))
	}
}

func TestIsLocalICS(t *testing.T) {
	cases := map[string]bool{
		"/home/me/cal.ics":           true,
		"cal.ics":                    true,
		"https://example.com/c.ics":  false,
		"HTTP://example.com/c.ics":   false,
		"webcal://example.com/c.ics": false,
		"":                           false,
	}
	for in, want := range cases {
		if got := calendar.IsLocalICS(in); got != want {
			t.Errorf("IsLocalICS(%q) = %v, want %v", in, got, want)
		}
	}
}

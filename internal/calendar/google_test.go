package calendar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
)

func TestGoogleSource(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/calendarList"):
			w.Write([]byte(`{"items":[{"id":"work-id","summary":"Work"},{"id":"home-id","summary":"Home"}]}`))
		case strings.HasSuffix(r.URL.Path, "/calendars/work-id/events"):
			if r.URL.Query().Get("singleEvents") != "true" {
				t.Errorf("recurring events must be expanded server side")
			}
			w.Write([]byte(`{"items":[
				{"id":"e1","summary":" Sprint Planning ","status":"confirmed","start":{"dateTime":"2025-03-04T14:00:00Z"},"end":{"dateTime":"2025-03-04T15:00:00Z"}},
				{"id":"e2","summary":"Holiday","start":{"date":"2025-03-04"},"end":{"date":"2025-03-05"}},
				{"id":"e3","summary":"Gone","status":"cancelled","start":{"dateTime":"2025-03-04T10:00:00Z"},"end":{"dateTime":"2025-03-04T11:00:00Z"}}
			]}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := calendar.NewGoogleSource(calendar.GoogleOptions{
		Names:      []string{"work"},
		TimeZone:   time.UTC,
		Now:        func() time.Time { return today },
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL + "/",
	})

	events, err := src.FetchTodaysEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchTodaysEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	if events[0].ID != "e1" || events[0].Title != "Sprint Planning" || events[0].Calendar != "Work" {
		t.Errorf("unexpected event %+v", events[0])
	}
	for _, path := range requested {
		if strings.Contains(path, "home-id") {
			t.Errorf("calendar Home should not be queried")
		}
	}
}

func TestGoogleSourceWithoutCredentials(t *testing.T) {
	src := calendar.NewGoogleSource(calendar.GoogleOptions{})
	if _, err := src.FetchTodaysEvents(context.Background()); err == nil {
		t.Error("expected error without refresh token")
	}
}

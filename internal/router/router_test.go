package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/auth"
	"github.com/saulo-duarte/chronos-autopilot/internal/dedup"
	"github.com/saulo-duarte/chronos-autopilot/internal/meeting"
	"github.com/saulo-duarte/chronos-autopilot/internal/notes"
	"github.com/saulo-duarte/chronos-autopilot/internal/pipeline"
	"github.com/saulo-duarte/chronos-autopilot/internal/router"
	"github.com/saulo-duarte/chronos-autopilot/internal/scheduler"
	"github.com/saulo-duarte/chronos-autopilot/internal/status"
)

type noTasks struct{}

func (noTasks) Snapshot() []scheduler.TaskInfo { return nil }

type okRefresher struct{}

func (okRefresher) Refresh(context.Context) (scheduler.RefreshResult, error) {
	return scheduler.RefreshResult{}, nil
}
func (okRefresher) Last() scheduler.RefreshResult { return scheduler.RefreshResult{} }

type emptyNotes struct{}

func (emptyNotes) ListDocuments(context.Context, int) ([]notes.Document, error) { return nil, nil }
func (emptyNotes) GetDocument(context.Context, string) (notes.Document, error) {
	return notes.Document{}, notes.ErrNotFound
}
func (emptyNotes) FetchContent(context.Context, notes.Document) (notes.Content, error) {
	return notes.Content{}, nil
}

func TestRoutesRequireToken(t *testing.T) {
	if err := auth.SetSecret("router-test-secret"); err != nil {
		t.Fatal(err)
	}
	token, err := auth.GenerateJWT("ops", auth.RoleOperator, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	svc := meeting.NewService(emptyNotes{}, nil, dedup.NewGuard(dedup.NewMemoryStore(5)), pipeline.NewMemoryRepository(), 0)
	r := router.New(router.RouterConfig{
		StatusHandler:  status.NewHandler(noTasks{}, okRefresher{}, status.NewHub()),
		MeetingHandler: meeting.NewHandler(svc),
	})

	tests := []struct {
		name   string
		method string
		path   string
		token  bool
		want   int
	}{
		{"health is public", http.MethodGet, "/health", false, http.StatusOK},
		{"tasks without token", http.MethodGet, "/tasks", false, http.StatusUnauthorized},
		{"tasks", http.MethodGet, "/tasks", true, http.StatusOK},
		{"documents", http.MethodGet, "/documents", true, http.StatusOK},
		{"runs", http.MethodGet, "/runs", true, http.StatusOK},
		{"refresh", http.MethodPost, "/refresh", true, http.StatusOK},
		{"reset without token", http.MethodDelete, "/processed", false, http.StatusUnauthorized},
		{"reset", http.MethodDelete, "/processed", true, http.StatusOK},
		{"process without pipeline", http.MethodPost, "/documents/latest/process", true, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

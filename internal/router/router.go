package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saulo-duarte/chronos-autopilot/internal/auth"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/meeting"
	"github.com/saulo-duarte/chronos-autopilot/internal/status"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	StatusHandler  *status.Handler
	MeetingHandler *meeting.Handler
}

func New(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", cfg.StatusHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Mount("/tasks", status.Routes(cfg.StatusHandler))
		r.Mount("/documents", meeting.Routes(cfg.MeetingHandler))

		r.Get("/runs", cfg.MeetingHandler.ListRuns)
		r.Post("/refresh", cfg.StatusHandler.Refresh)
		r.Delete("/processed", cfg.MeetingHandler.ResetProcessed)
		r.Get("/ws", cfg.StatusHandler.Stream)
	})
	return r
}

// requestLogger replaces chi's stdlib logger so access lines go through
// logrus with the request id attached.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		config.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("HTTP request")
	})
}

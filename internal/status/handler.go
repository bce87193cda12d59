package status

import (
	"context"
	"net/http"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/scheduler"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

type Snapshotter interface {
	Snapshot() []scheduler.TaskInfo
}

type Refresher interface {
	Refresh(ctx context.Context) (scheduler.RefreshResult, error)
	Last() scheduler.RefreshResult
}

type Handler struct {
	tasks     Snapshotter
	refresher Refresher
	hub       *Hub
	started   time.Time
}

func NewHandler(tasks Snapshotter, refresher Refresher, hub *Hub) *Handler {
	return &Handler{tasks: tasks, refresher: refresher, hub: hub, started: time.Now()}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	config.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	config.JSON(w, http.StatusOK, map[string]interface{}{
		"tasks":        h.tasks.Snapshot(),
		"last_refresh": h.refresher.Last(),
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	result, err := h.refresher.Refresh(r.Context())
	if err != nil {
		log.WithError(err).Warn("Manual refresh failed")
		http.Error(w, "calendar source unavailable", http.StatusBadGateway)
		return
	}

	config.JSON(w, http.StatusOK, result)
}

// Stream upgrades to a websocket and writes one JSON message per transition
// until the client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case t, ok := <-events:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, t)
			cancel()
			if err != nil {
				log.WithError(err).Debug("Websocket subscriber gone")
				return
			}
		}
	}
}

package meeting

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
)

type Handler struct {
	service MeetingService
}

func NewHandler(s MeetingService) *Handler {
	return &Handler{service: s}
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	docs, err := h.service.ListRecent(r.Context(), queryInt(r, "limit"))
	if err != nil {
		log.WithError(err).Error("Error listing documents")
		http.Error(w, "notes provider unavailable", http.StatusBadGateway)
		return
	}

	config.JSON(w, http.StatusOK, docs)
}

func (h *Handler) ProcessLatest(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.ProcessLatest(r.Context(), queryBool(r, "force"))
	h.writeOutcome(w, r, outcome, err)
}

func (h *Handler) ProcessByID(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("Document id not provided")
		http.Error(w, "document id required", http.StatusBadRequest)
		return
	}

	outcome, err := h.service.ProcessByID(r.Context(), id, queryBool(r, "force"))
	h.writeOutcome(w, r, outcome, err)
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, outcome *Outcome, err error) {
	log := config.WithContext(r.Context())

	switch {
	case err == nil:
		config.JSON(w, http.StatusOK, outcome)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyProcessed):
		http.Error(w, "document already processed", http.StatusConflict)
	case errors.Is(err, ErrPipelineDisabled):
		http.Error(w, "processing is not configured", http.StatusServiceUnavailable)
	case errors.Is(err, ErrNotReady):
		http.Error(w, "document has no notes yet", http.StatusUnprocessableEntity)
	default:
		log.WithError(err).Error("Error processing document")
		http.Error(w, "processing failed", http.StatusBadGateway)
	}
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	runs, err := h.service.ListRuns(r.Context(), queryInt(r, "limit"))
	if err != nil {
		log.WithError(err).Error("Error listing runs")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, runs)
}

func (h *Handler) ResetProcessed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, map[string]string{
		"message": "processed ids cleared",
	})
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

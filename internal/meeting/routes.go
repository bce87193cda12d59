package meeting

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDocuments)
	r.Post("/latest/process", h.ProcessLatest)
	r.Post("/{id}/process", h.ProcessByID)
	return r
}

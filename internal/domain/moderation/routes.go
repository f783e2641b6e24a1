package moderation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns moderation routes. Queue review and policy changes go
// through moderatorMiddleware.
func (h *Handler) Routes(moderatorMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Member-facing endpoints
	r.Post("/check", h.CheckContent)
	r.Get("/settings", h.GetSettings)
	r.Post("/reports", h.CreateReport)
	r.Get("/decisions/{postID}", h.GetDecision)
	r.Get("/rejected", h.ListRejected)

	r.Group(func(r chi.Router) {
		r.Use(moderatorMiddleware)
		r.Put("/settings", h.UpdateSettings)
		r.Get("/reports/pending", h.ListPending)
		r.Put("/reports/{postID}/decision", h.SetDecision)
	})

	return r
}

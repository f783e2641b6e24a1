package gamification

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns gamification routes. Badge grants and settings changes
// go through moderatorMiddleware.
func (h *Handler) Routes(moderatorMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/activities", h.RecordActivity)
	r.Get("/members/{userID}/stats", h.GetStats)
	r.Get("/settings", h.GetSettings)

	r.Group(func(r chi.Router) {
		r.Use(moderatorMiddleware)
		r.Post("/members/{userID}/badges", h.GrantBadge)
		r.Put("/settings", h.UpdateSettings)
	})

	return r
}

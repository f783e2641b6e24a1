package member

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns member routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Put("/{userID}/profile", h.UpsertProfile)
	r.Get("/{userID}/profile", h.GetProfile)

	return r
}

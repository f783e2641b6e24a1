package leaderboard

import "github.com/go-chi/chi/v5"

// Routes returns leaderboard routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	return r
}

package leaderboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mwork/community-engine/internal/pkg/logger"
	"github.com/mwork/community-engine/internal/pkg/response"
	"github.com/mwork/community-engine/internal/store"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Handler handles leaderboard HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates leaderboard handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get returns the ranked members
// GET /leaderboard?limit=10
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}

	entries, total, err := h.service.Rank(r.Context(), chi.URLParam(r, "communityID"), limit)
	if err != nil {
		l := logger.FromContext(r.Context())
		if errors.Is(err, store.ErrUnavailable) {
			l.Error().Err(err).Msg("Leaderboard store unavailable")
			response.ServiceUnavailable(w)
			return
		}
		l.Error().Err(err).Msg("Leaderboard request failed")
		response.InternalError(w)
		return
	}

	response.WithMeta(w, entries, response.Meta{Total: total, Limit: limit})
}

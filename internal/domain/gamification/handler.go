package gamification

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwork/community-engine/internal/pkg/logger"
	"github.com/mwork/community-engine/internal/pkg/response"
	"github.com/mwork/community-engine/internal/pkg/validator"
	"github.com/mwork/community-engine/internal/store"
)

// Handler handles gamification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates gamification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RecordActivity awards points for one activity
// POST /gamification/activities
func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req AwardRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	stats, err := h.service.Award(r.Context(), communityID, req.UserID, Action(req.Action))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, NewStatsResponse(stats))
}

// GetStats returns a member's stats and contributor title
// GET /gamification/members/{userID}/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetOrCreate(r.Context(), chi.URLParam(r, "communityID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, NewStatsResponse(stats))
}

// GrantBadge unlocks a manually awarded badge
// POST /gamification/members/{userID}/badges
func (h *Handler) GrantBadge(w http.ResponseWriter, r *http.Request) {
	var req GrantBadgeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	stats, err := h.service.GrantBadge(r.Context(), chi.URLParam(r, "communityID"), chi.URLParam(r, "userID"), BadgeID(req.Badge))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, NewStatsResponse(stats))
}

// GetSettings returns scoring settings
// GET /gamification/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context(), chi.URLParam(r, "communityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, settings)
}

// UpdateSettings changes scoring settings
// PUT /gamification/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req UpdateSettingsRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	settings, err := h.service.PatchSettings(r.Context(), communityID, req.Apply)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, settings)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrInvalidBadge), errors.Is(err, ErrInvalidSettings):
		response.BadRequest(w, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		logger.FromContext(r.Context()).Error().Err(err).Msg("Gamification store unavailable")
		response.ServiceUnavailable(w)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Msg("Gamification request failed")
		response.InternalError(w)
	}
}

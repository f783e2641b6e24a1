package member

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mwork/community-engine/internal/pkg/logger"
	"github.com/mwork/community-engine/internal/pkg/response"
	"github.com/mwork/community-engine/internal/pkg/validator"
	"github.com/mwork/community-engine/internal/store"
)

// Handler handles member profile HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates member handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UpsertProfile sets a member's name and avatar
// PUT /members/{userID}/profile
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req UpsertProfileRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := h.service.UpsertProfile(r.Context(), chi.URLParam(r, "communityID"), chi.URLParam(r, "userID"),
		strings.TrimSpace(req.Name), req.Avatar)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, p)
}

// GetProfile returns a member's profile
// GET /members/{userID}/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "communityID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, p)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		response.NotFound(w, "Profile not found")
	case errors.Is(err, store.ErrUnavailable):
		logger.FromContext(r.Context()).Error().Err(err).Msg("Member store unavailable")
		response.ServiceUnavailable(w)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Msg("Member request failed")
		response.InternalError(w)
	}
}

package moderation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwork/community-engine/internal/pkg/logger"
	"github.com/mwork/community-engine/internal/pkg/response"
	"github.com/mwork/community-engine/internal/pkg/validator"
	"github.com/mwork/community-engine/internal/store"
)

// Handler handles moderation HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates moderation handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// CheckContent evaluates a draft against the community policy
// POST /moderation/check
func (h *Handler) CheckContent(w http.ResponseWriter, r *http.Request) {
	var req CheckContentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	res, err := h.service.CheckContent(r.Context(), chi.URLParam(r, "communityID"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, res)
}

// GetSettings returns the moderation policy
// GET /moderation/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context(), chi.URLParam(r, "communityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, settings)
}

// UpdateSettings changes the moderation policy
// PUT /moderation/settings
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

// CreateReport files a report for a post
// POST /moderation/reports
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req AddReportRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	report, created, err := h.service.AddReport(r.Context(), chi.URLParam(r, "communityID"), req.PostID,
		ReportReason(req.Reason), Snapshot{AuthorName: req.AuthorName, ContentSnippet: req.ContentSnippet})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if created {
		response.Created(w, report)
		return
	}
	response.OK(w, report)
}

// ListPending returns undecided reports
// GET /moderation/reports/pending
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.GetPendingReports(r.Context(), chi.URLParam(r, "communityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.WithMeta(w, reports, response.Meta{Total: len(reports)})
}

// SetDecision approves or rejects a post
// PUT /moderation/reports/{postID}/decision
func (h *Handler) SetDecision(w http.ResponseWriter, r *http.Request) {
	var req SetDecisionRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	entry, err := h.service.SetDecision(r.Context(), chi.URLParam(r, "communityID"), chi.URLParam(r, "postID"), Decision(req.Decision))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, entry)
}

// GetDecision returns the current decision for a post
// GET /moderation/decisions/{postID}
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetDecision(r.Context(), chi.URLParam(r, "communityID"), chi.URLParam(r, "postID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, entry)
}

// ListRejected returns the ids of rejected posts
// GET /moderation/rejected
func (h *Handler) ListRejected(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.GetRejectedPostIds(r.Context(), chi.URLParam(r, "communityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, RejectedResponse{PostIDs: ids})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidPreset), errors.Is(err, ErrInvalidReportReason),
		errors.Is(err, ErrInvalidDecision), errors.Is(err, ErrInvalidPostID):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrDecisionNotFound):
		response.NotFound(w, "No decision recorded for this post")
	case errors.Is(err, store.ErrUnavailable):
		logger.FromContext(r.Context()).Error().Err(err).Msg("Moderation store unavailable")
		response.ServiceUnavailable(w)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Msg("Moderation request failed")
		response.InternalError(w)
	}
}

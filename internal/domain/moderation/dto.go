package moderation

import (
	"github.com/mwork/community-engine/internal/pkg/validator"
)

func init() {
	reasons := make([]string, len(ReportReasons))
	for i, r := range ReportReasons {
		reasons[i] = string(r)
	}
	validator.RegisterEnum("report_reason", reasons...)
	validator.RegisterEnum("decision", string(DecisionApproved), string(DecisionRejected))

	presets := make([]string, len(Presets))
	for i, p := range Presets {
		presets[i] = string(p)
	}
	validator.RegisterEnum("moderation_preset", presets...)
}

// CheckContentRequest is the body of POST /moderation/check
type CheckContentRequest struct {
	Content string `json:"content" validate:"max=20000"`
}

// AddReportRequest is the body of POST /moderation/reports
type AddReportRequest struct {
	PostID         string `json:"postId" validate:"trimmed_required,max=128"`
	Reason         string `json:"reason" validate:"required,report_reason"`
	AuthorName     string `json:"authorName" validate:"max=200"`
	ContentSnippet string `json:"contentSnippet"`
}

// SetDecisionRequest is the body of PUT /moderation/reports/{postID}/decision
type SetDecisionRequest struct {
	Decision string `json:"decision" validate:"required,decision"`
}

// UpdateSettingsRequest replaces only the fields that are present
type UpdateSettingsRequest struct {
	Enabled   *bool   `json:"enabled"`
	Preset    *string `json:"preset" validate:"omitempty,moderation_preset"`
	Blocklist *string `json:"blocklist" validate:"omitempty,max=20000"`
}

// Apply merges the request onto current
func (r *UpdateSettingsRequest) Apply(current Settings) Settings {
	if r.Enabled != nil {
		current.Enabled = *r.Enabled
	}
	if r.Preset != nil {
		current.Preset = Preset(*r.Preset)
	}
	if r.Blocklist != nil {
		current.Blocklist = *r.Blocklist
	}
	return current
}

// RejectedResponse lists hidden posts
type RejectedResponse struct {
	PostIDs []string `json:"postIds"`
}

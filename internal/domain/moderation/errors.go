package moderation

import "errors"

var (
	ErrInvalidPreset       = errors.New("invalid moderation preset")
	ErrInvalidReportReason = errors.New("invalid report reason")
	ErrInvalidDecision     = errors.New("invalid moderation decision")
	ErrInvalidPostID       = errors.New("post id is required")
	ErrDecisionNotFound    = errors.New("decision not found")
)

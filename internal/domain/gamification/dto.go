package gamification

import "github.com/mwork/community-engine/internal/pkg/validator"

func init() {
	actions := make([]string, len(Actions))
	for i, a := range Actions {
		actions[i] = string(a)
	}
	validator.RegisterEnum("gamification_action", actions...)

	badges := make([]string, len(Badges))
	for i, b := range Badges {
		badges[i] = string(b)
	}
	validator.RegisterEnum("badge_id", badges...)
}

// AwardRequest is the body of POST /activities
type AwardRequest struct {
	UserID string `json:"userId" validate:"trimmed_required,max=128"`
	Action string `json:"action" validate:"required,gamification_action"`
}

// GrantBadgeRequest is the body of POST /members/{userID}/badges
type GrantBadgeRequest struct {
	Badge string `json:"badge" validate:"required,badge_id"`
}

// UpdateSettingsRequest replaces only the fields that are present
type UpdateSettingsRequest struct {
	LeaderboardEnabled     *bool `json:"leaderboardEnabled"`
	PointsForPost          *int  `json:"pointsForPost" validate:"omitempty,gte=0"`
	PointsForReaction      *int  `json:"pointsForReaction" validate:"omitempty,gte=0"`
	PointsForEventCreated  *int  `json:"pointsForEventCreated" validate:"omitempty,gte=0"`
	PointsForEventAttended *int  `json:"pointsForEventAttended" validate:"omitempty,gte=0"`
}

// Apply merges the request onto current
func (r *UpdateSettingsRequest) Apply(current Settings) Settings {
	if r.LeaderboardEnabled != nil {
		current.LeaderboardEnabled = *r.LeaderboardEnabled
	}
	if r.PointsForPost != nil {
		current.PointsForPost = *r.PointsForPost
	}
	if r.PointsForReaction != nil {
		current.PointsForReaction = *r.PointsForReaction
	}
	if r.PointsForEventCreated != nil {
		current.PointsForEventCreated = *r.PointsForEventCreated
	}
	if r.PointsForEventAttended != nil {
		current.PointsForEventAttended = *r.PointsForEventAttended
	}
	return current
}

// StatsResponse is a member's stats with the derived title
type StatsResponse struct {
	*Stats
	Title Title `json:"title"`
}

// NewStatsResponse builds the response for s
func NewStatsResponse(s *Stats) StatsResponse {
	return StatsResponse{Stats: s, Title: ContributorTitle(s)}
}

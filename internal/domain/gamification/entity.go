package gamification

import "sort"

// Action is a member activity that earns points
type Action string

const (
	ActionPost          Action = "post"
	ActionReaction      Action = "reaction"
	ActionEventCreated  Action = "event_created"
	ActionEventAttended Action = "event_attended"
)

// Actions lists every valid action in wire order
var Actions = []Action{ActionPost, ActionReaction, ActionEventCreated, ActionEventAttended}

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	switch a {
	case ActionPost, ActionReaction, ActionEventCreated, ActionEventAttended:
		return true
	}
	return false
}

// BadgeID identifies an unlockable badge
type BadgeID string

const (
	BadgeFirstPost      BadgeID = "first_post"
	BadgeTopPoster      BadgeID = "top_poster"
	BadgeEventHost      BadgeID = "event_host"
	BadgeHelpful        BadgeID = "helpful"
	BadgeStreak7        BadgeID = "streak_7"
	BadgeStreak30       BadgeID = "streak_30"
	BadgeEarlyMember    BadgeID = "early_member"
	BadgeReactionMaster BadgeID = "reaction_master"
)

// Badges lists every valid badge id
var Badges = []BadgeID{
	BadgeFirstPost, BadgeTopPoster, BadgeEventHost, BadgeHelpful,
	BadgeStreak7, BadgeStreak30, BadgeEarlyMember, BadgeReactionMaster,
}

// Valid reports whether b is a known badge
func (b BadgeID) Valid() bool {
	for _, known := range Badges {
		if b == known {
			return true
		}
	}
	return false
}

// Title is the contributor label shown next to a member
type Title string

const (
	TitleTopPoster Title = "Top Poster"
	TitleEventHost Title = "Event Host"
	TitleNewMember Title = "New Member"
	TitleChampion  Title = "Champion"
	TitleRegular   Title = "Regular"
)

// Stats is the gamification state of one member in one community
type Stats struct {
	UserID           string    `json:"userId"`
	CommunityID      string    `json:"communityId"`
	Points           int       `json:"points"`
	Streak           int       `json:"streak"`
	LastActivityDate *string   `json:"lastActivityDate"`
	Badges           []BadgeID `json:"badges"`
	PostCount        int       `json:"postCount"`
	ReactionsGiven   int       `json:"reactionsGiven"`
	EventsCreated    int       `json:"eventsCreated"`
}

func newStats(communityID, userID string) *Stats {
	return &Stats{
		UserID:      userID,
		CommunityID: communityID,
		Badges:      []BadgeID{},
	}
}

// HasBadge reports whether the badge is unlocked
func (s *Stats) HasBadge(b BadgeID) bool {
	for _, have := range s.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// addBadge inserts b keeping Badges sorted and unique. It reports whether
// the set changed.
func (s *Stats) addBadge(b BadgeID) bool {
	if s.HasBadge(b) {
		return false
	}
	s.Badges = append(s.Badges, b)
	sort.Slice(s.Badges, func(i, j int) bool { return s.Badges[i] < s.Badges[j] })
	return true
}

func (s *Stats) clone() *Stats {
	out := *s
	out.Badges = append([]BadgeID{}, s.Badges...)
	if s.LastActivityDate != nil {
		d := *s.LastActivityDate
		out.LastActivityDate = &d
	}
	return &out
}

// normalize repairs fields a decoded record may be missing.
func (s *Stats) normalize(communityID, userID string) {
	s.CommunityID = communityID
	s.UserID = userID
	badges := s.Badges
	s.Badges = []BadgeID{}
	for _, b := range badges {
		s.addBadge(b)
	}
}

// Settings is the per-community scoring configuration
type Settings struct {
	LeaderboardEnabled     bool `json:"leaderboardEnabled"`
	PointsForPost          int  `json:"pointsForPost"`
	PointsForReaction      int  `json:"pointsForReaction"`
	PointsForEventCreated  int  `json:"pointsForEventCreated"`
	PointsForEventAttended int  `json:"pointsForEventAttended"`
}

// DefaultSettings applies to communities that never saved settings
func DefaultSettings() Settings {
	return Settings{
		LeaderboardEnabled:     true,
		PointsForPost:          10,
		PointsForReaction:      2,
		PointsForEventCreated:  20,
		PointsForEventAttended: 5,
	}
}

// PointsFor returns the points awarded for a
func (s Settings) PointsFor(a Action) int {
	switch a {
	case ActionPost:
		return s.PointsForPost
	case ActionReaction:
		return s.PointsForReaction
	case ActionEventCreated:
		return s.PointsForEventCreated
	case ActionEventAttended:
		return s.PointsForEventAttended
	}
	return 0
}

// Validate rejects negative point values
func (s Settings) Validate() error {
	if s.PointsForPost < 0 || s.PointsForReaction < 0 ||
		s.PointsForEventCreated < 0 || s.PointsForEventAttended < 0 {
		return ErrInvalidSettings
	}
	return nil
}

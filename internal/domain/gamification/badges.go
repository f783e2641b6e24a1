package gamification

type badgeRule struct {
	badge    BadgeID
	unlocked func(s *Stats) bool
}

// helpful and early_member have no automatic rule; they are granted by moderators.
var badgeRules = []badgeRule{
	{BadgeFirstPost, func(s *Stats) bool { return s.PostCount >= 1 }},
	{BadgeTopPoster, func(s *Stats) bool { return s.PostCount >= 5 }},
	{BadgeEventHost, func(s *Stats) bool { return s.EventsCreated >= 1 }},
	{BadgeStreak7, func(s *Stats) bool { return s.Streak >= 7 }},
	{BadgeStreak30, func(s *Stats) bool { return s.Streak >= 30 }},
	{BadgeReactionMaster, func(s *Stats) bool { return s.ReactionsGiven >= 50 }},
}

// EvaluateBadges unlocks every badge whose threshold s has reached and
// returns the newly unlocked ones. Badges are never removed.
func EvaluateBadges(s *Stats) []BadgeID {
	var unlocked []BadgeID
	for _, rule := range badgeRules {
		if rule.unlocked(s) && s.addBadge(rule.badge) {
			unlocked = append(unlocked, rule.badge)
		}
	}
	return unlocked
}

// ContributorTitle resolves the display title; the first matching rule wins.
func ContributorTitle(s *Stats) Title {
	switch {
	case s.HasBadge(BadgeTopPoster):
		return TitleTopPoster
	case s.HasBadge(BadgeEventHost):
		return TitleEventHost
	case s.PostCount == 0 && s.Points < 20:
		return TitleNewMember
	case s.Points >= 100:
		return TitleChampion
	default:
		return TitleRegular
	}
}

package leaderboard

import (
	"context"
	"sort"

	"github.com/mwork/community-engine/internal/domain/gamification"
	"github.com/mwork/community-engine/internal/domain/member"
)

// StatsSource is the part of the gamification ledger the ranker reads.
type StatsSource interface {
	ListStats(ctx context.Context, communityID string) ([]gamification.Stats, error)
	GetSettings(ctx context.Context, communityID string) (gamification.Settings, error)
}

// ProfileSource resolves display names and avatars.
type ProfileSource interface {
	ListProfiles(ctx context.Context, communityID string) (map[string]member.Profile, error)
}

// Service ranks community members by points
type Service struct {
	stats    StatsSource
	profiles ProfileSource
}

// NewService creates leaderboard service. profiles may be nil, in which case
// entries carry the user id as name and no avatar.
func NewService(stats StatsSource, profiles ProfileSource) *Service {
	return &Service{stats: stats, profiles: profiles}
}

// GetLeaderboard returns members ordered by points descending, ties broken
// by user id ascending. Ranks are 1-based positions in that order. A
// disabled leaderboard yields an empty list. limit <= 0 returns everyone.
func (s *Service) GetLeaderboard(ctx context.Context, communityID string, limit int) ([]Entry, error) {
	entries, _, err := s.Rank(ctx, communityID, limit)
	return entries, err
}

// Rank is GetLeaderboard that also reports how many members were ranked
// before truncation.
func (s *Service) Rank(ctx context.Context, communityID string, limit int) ([]Entry, int, error) {
	settings, err := s.stats.GetSettings(ctx, communityID)
	if err != nil {
		return nil, 0, err
	}
	if !settings.LeaderboardEnabled {
		return []Entry{}, 0, nil
	}

	all, err := s.stats.ListStats(ctx, communityID)
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].UserID < all[j].UserID
	})

	total := len(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	var profiles map[string]member.Profile
	if s.profiles != nil && len(all) > 0 {
		profiles, err = s.profiles.ListProfiles(ctx, communityID)
		if err != nil {
			return nil, 0, err
		}
	}

	entries := make([]Entry, len(all))
	for i, st := range all {
		entry := Entry{
			UserID:   st.UserID,
			UserName: st.UserID,
			Points:   st.Points,
			Streak:   st.Streak,
			Badges:   append([]gamification.BadgeID{}, st.Badges...),
			Rank:     i + 1,
		}
		if p, ok := profiles[st.UserID]; ok {
			entry.UserName = p.DisplayName()
			entry.UserAvatar = p.Avatar
		}
		entries[i] = entry
	}
	return entries, total, nil
}

package gamification

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/domain/notification"
	"github.com/mwork/community-engine/internal/store"
)

// Service is the gamification ledger: it owns member stats and applies the
// scoring, streak and badge rules.
type Service struct {
	repo     *Repository
	locks    *store.KeyLocker
	notifier notification.ChangeNotifier
	loc      *time.Location
	now      func() time.Time
}

// NewService creates the ledger. Calendar days are computed in loc (UTC if nil).
func NewService(repo *Repository, locks *store.KeyLocker, notifier notification.ChangeNotifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		repo:     repo,
		locks:    locks,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
	}
}

// GetOrCreate returns the member's stats, or a zero record if the member
// has no activity yet. Nothing is persisted.
func (s *Service) GetOrCreate(ctx context.Context, communityID, userID string) (*Stats, error) {
	all, err := s.repo.LoadStats(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if stats, ok := all[userID]; ok {
		return stats, nil
	}
	return newStats(communityID, userID), nil
}

// ListStats returns every member record of the community ordered by user id
func (s *Service) ListStats(ctx context.Context, communityID string) ([]Stats, error) {
	all, err := s.repo.LoadStats(ctx, communityID)
	if err != nil {
		return nil, err
	}
	out := make([]Stats, 0, len(all))
	for _, stats := range all {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Award records one activity: streak update, counter, points, badge
// evaluation, persist, notify.
func (s *Service) Award(ctx context.Context, communityID, userID string, action Action) (*Stats, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	settings, err := s.repo.GetSettings(ctx, communityID)
	if err != nil {
		return nil, err
	}

	var unlocked []BadgeID
	stats, err := s.mutateStats(ctx, communityID, userID, func(stats *Stats) error {
		applyStreak(stats, calendarDay(s.now(), s.loc))

		switch action {
		case ActionPost:
			stats.PostCount++
		case ActionReaction:
			stats.ReactionsGiven++
		case ActionEventCreated:
			stats.EventsCreated++
		}

		stats.Points += settings.PointsFor(action)
		unlocked = EvaluateBadges(stats)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.OnChange(ctx, communityID)

	event := log.Debug().
		Str("community_id", communityID).
		Str("user_id", userID).
		Str("action", string(action)).
		Int("points", stats.Points).
		Int("streak", stats.Streak)
	if len(unlocked) > 0 {
		event = event.Interface("unlocked", unlocked)
	}
	event.Msg("Activity awarded")

	return stats, nil
}

// GrantBadge unlocks badge for the member regardless of counters. Granting
// an already unlocked badge is a no-op and does not notify.
func (s *Service) GrantBadge(ctx context.Context, communityID, userID string, badge BadgeID) (*Stats, error) {
	if !badge.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBadge, badge)
	}

	changed := false
	stats, err := s.mutateStats(ctx, communityID, userID, func(stats *Stats) error {
		changed = stats.addBadge(badge)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifier.OnChange(ctx, communityID)
		log.Info().
			Str("community_id", communityID).
			Str("user_id", userID).
			Str("badge", string(badge)).
			Msg("Badge granted")
	}
	return stats, nil
}

// ResolveContributorTitle returns the member's display title
func (s *Service) ResolveContributorTitle(ctx context.Context, communityID, userID string) (Title, error) {
	stats, err := s.GetOrCreate(ctx, communityID, userID)
	if err != nil {
		return "", err
	}
	return ContributorTitle(stats), nil
}

// GetSettings returns the community settings (defaults when never saved)
func (s *Service) GetSettings(ctx context.Context, communityID string) (Settings, error) {
	return s.repo.GetSettings(ctx, communityID)
}

// UpdateSettings replaces the community settings
func (s *Service) UpdateSettings(ctx context.Context, communityID string, settings Settings) (Settings, error) {
	return s.PatchSettings(ctx, communityID, func(Settings) Settings { return settings })
}

// PatchSettings applies fn to the current settings and saves the result.
// Load, merge and save run under the settings lock.
func (s *Service) PatchSettings(ctx context.Context, communityID string, fn func(Settings) Settings) (Settings, error) {
	unlock := s.locks.Lock(settingsKey(communityID))
	defer unlock()

	current, err := s.repo.GetSettings(ctx, communityID)
	if err != nil {
		return Settings{}, err
	}

	settings := fn(current)
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	if err := s.repo.SaveSettings(ctx, communityID, settings); err != nil {
		return Settings{}, err
	}

	s.notifier.OnChange(ctx, communityID)
	return settings, nil
}

// mutateStats runs fn on the member's record under the community stats lock
// and persists the result. The returned copy is safe to hand to callers.
func (s *Service) mutateStats(ctx context.Context, communityID, userID string, fn func(*Stats) error) (*Stats, error) {
	unlock := s.locks.Lock(statsKey(communityID))
	defer unlock()

	all, err := s.repo.LoadStats(ctx, communityID)
	if err != nil {
		return nil, err
	}

	stats, ok := all[userID]
	if !ok {
		stats = newStats(communityID, userID)
		all[userID] = stats
	}

	if err := fn(stats); err != nil {
		return nil, err
	}

	if err := s.repo.SaveStats(ctx, communityID, all); err != nil {
		return nil, err
	}
	return stats.clone(), nil
}

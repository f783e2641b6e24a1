package member

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/domain/notification"
	"github.com/mwork/community-engine/internal/store"
)

// Service is the community member directory
type Service struct {
	repo     *Repository
	locks    *store.KeyLocker
	notifier notification.ChangeNotifier
	now      func() time.Time
}

// NewService creates member service
func NewService(repo *Repository, locks *store.KeyLocker, notifier notification.ChangeNotifier) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{repo: repo, locks: locks, notifier: notifier, now: time.Now}
}

// UpsertProfile creates or replaces the member's display profile
func (s *Service) UpsertProfile(ctx context.Context, communityID, userID, name, avatar string) (*Profile, error) {
	unlock := s.locks.Lock(profilesKey(communityID))
	profiles, err := s.repo.List(ctx, communityID)
	if err != nil {
		unlock()
		return nil, err
	}

	p := Profile{
		UserID:      userID,
		CommunityID: communityID,
		Name:        name,
		Avatar:      avatar,
		UpdatedAt:   s.now().UTC(),
	}
	profiles[userID] = p
	err = s.repo.Save(ctx, communityID, profiles)
	unlock()
	if err != nil {
		return nil, err
	}

	s.notifier.OnChange(ctx, communityID)
	log.Debug().Str("community_id", communityID).Str("user_id", userID).Msg("Member profile updated")
	return &p, nil
}

// GetProfile returns the member's profile
func (s *Service) GetProfile(ctx context.Context, communityID, userID string) (*Profile, error) {
	profiles, err := s.repo.List(ctx, communityID)
	if err != nil {
		return nil, err
	}
	p, ok := profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

// ListProfiles returns every profile of the community keyed by user id
func (s *Service) ListProfiles(ctx context.Context, communityID string) (map[string]Profile, error) {
	return s.repo.List(ctx, communityID)
}

package member

import (
	"context"

	"github.com/mwork/community-engine/internal/store"
)

func profilesKey(communityID string) string { return "members:profiles:" + communityID }

// Repository stores every profile of a community in one document keyed by user id
type Repository struct {
	store store.Store
}

// NewRepository creates member repository
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns the profile document of the community. A malformed document
// reads as empty.
func (r *Repository) List(ctx context.Context, communityID string) (map[string]Profile, error) {
	profiles, _, err := store.LoadJSONOrZero[map[string]Profile](ctx, r.store, profilesKey(communityID))
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = map[string]Profile{}
	}
	return profiles, nil
}

// Save replaces the profile document of the community
func (r *Repository) Save(ctx context.Context, communityID string, profiles map[string]Profile) error {
	return store.SaveJSON(ctx, r.store, profilesKey(communityID), profiles)
}

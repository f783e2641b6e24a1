package gamification

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/store"
)

func statsKey(communityID string) string    { return "gamification:stats:" + communityID }
func settingsKey(communityID string) string { return "gamification:settings:" + communityID }

// Repository reads and writes gamification documents through the store port.
// Stats of one community live in a single document keyed by user id.
type Repository struct {
	store store.Store
}

// NewRepository creates gamification repository
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// LoadStats returns every member record of the community. A corrupt member
// record is dropped with a warning so it is recreated on the next award.
func (r *Repository) LoadStats(ctx context.Context, communityID string) (map[string]*Stats, error) {
	key := statsKey(communityID)
	raw, _, err := store.LoadJSONOrZero[map[string]json.RawMessage](ctx, r.store, key)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Stats, len(raw))
	for userID, row := range raw {
		var s Stats
		if err := json.Unmarshal(row, &s); err != nil {
			log.Warn().
				Err(err).
				Str("key", key).
				Str("user_id", userID).
				Msg("Discarding malformed member stats")
			continue
		}
		s.normalize(communityID, userID)
		out[userID] = &s
	}
	return out, nil
}

// SaveStats replaces the stats document of the community
func (r *Repository) SaveStats(ctx context.Context, communityID string, stats map[string]*Stats) error {
	return store.SaveJSON(ctx, r.store, statsKey(communityID), stats)
}

// GetSettings returns the community settings, falling back to defaults for
// missing or corrupt documents. Fields absent from a stored document keep
// their default value.
func (r *Repository) GetSettings(ctx context.Context, communityID string) (Settings, error) {
	key := settingsKey(communityID)
	settings := DefaultSettings()
	if _, err := store.LoadJSON(ctx, r.store, key, &settings); err != nil {
		if errors.Is(err, store.ErrMalformedRecord) {
			log.Warn().Err(err).Str("key", key).Msg("Using default gamification settings")
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}
	return settings, nil
}

// SaveSettings stores the community settings
func (r *Repository) SaveSettings(ctx context.Context, communityID string, settings Settings) error {
	return store.SaveJSON(ctx, r.store, settingsKey(communityID), settings)
}

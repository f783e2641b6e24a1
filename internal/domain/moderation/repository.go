package moderation

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/store"
)

const communitiesKey = "moderation:communities"

func settingsKey(communityID string) string  { return "moderation:settings:" + communityID }
func reportsKey(communityID string) string   { return "moderation:reports:" + communityID }
func decisionsKey(communityID string) string { return "moderation:decisions:" + communityID }

// Repository reads and writes moderation documents through the store port
type Repository struct {
	store store.Store
}

// NewRepository creates moderation repository
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// GetSettings returns the community settings. Missing, corrupt or invalid
// documents read as defaults.
func (r *Repository) GetSettings(ctx context.Context, communityID string) (Settings, error) {
	key := settingsKey(communityID)
	settings := DefaultSettings()
	if _, err := store.LoadJSON(ctx, r.store, key, &settings); err != nil {
		if errors.Is(err, store.ErrMalformedRecord) {
			log.Warn().Err(err).Str("key", key).Msg("Using default moderation settings")
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		log.Warn().Str("key", key).Str("preset", string(settings.Preset)).Msg("Unknown preset, using default moderation settings")
		return DefaultSettings(), nil
	}
	return settings, nil
}

func (r *Repository) SaveSettings(ctx context.Context, communityID string, settings Settings) error {
	return store.SaveJSON(ctx, r.store, settingsKey(communityID), settings)
}

func (r *Repository) ListReports(ctx context.Context, communityID string) ([]ReportedPost, error) {
	reports, _, err := store.LoadJSONOrZero[[]ReportedPost](ctx, r.store, reportsKey(communityID))
	return reports, err
}

func (r *Repository) SaveReports(ctx context.Context, communityID string, reports []ReportedPost) error {
	if reports == nil {
		reports = []ReportedPost{}
	}
	return store.SaveJSON(ctx, r.store, reportsKey(communityID), reports)
}

// Decisions returns the decision document keyed by post id
func (r *Repository) Decisions(ctx context.Context, communityID string) (map[string]DecisionEntry, error) {
	decisions, _, err := store.LoadJSONOrZero[map[string]DecisionEntry](ctx, r.store, decisionsKey(communityID))
	if err != nil {
		return nil, err
	}
	if decisions == nil {
		decisions = map[string]DecisionEntry{}
	}
	return decisions, nil
}

func (r *Repository) SaveDecisions(ctx context.Context, communityID string, decisions map[string]DecisionEntry) error {
	return store.SaveJSON(ctx, r.store, decisionsKey(communityID), decisions)
}

// Communities returns the ids of communities that have ever received a report
func (r *Repository) Communities(ctx context.Context) ([]string, error) {
	ids, _, err := store.LoadJSONOrZero[[]string](ctx, r.store, communitiesKey)
	return ids, err
}

func (r *Repository) SaveCommunities(ctx context.Context, ids []string) error {
	return store.SaveJSON(ctx, r.store, communitiesKey, ids)
}

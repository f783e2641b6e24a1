package moderation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/domain/notification"
	"github.com/mwork/community-engine/internal/store"
)

// Service owns moderation settings and the report/decision queue
type Service struct {
	repo     *Repository
	locks    *store.KeyLocker
	notifier notification.ChangeNotifier
	now      func() time.Time
	newID    func() string
}

// NewService creates moderation service
func NewService(repo *Repository, locks *store.KeyLocker, notifier notification.ChangeNotifier) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		repo:     repo,
		locks:    locks,
		notifier: notifier,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// GetSettings returns the community policy (defaults when never saved)
func (s *Service) GetSettings(ctx context.Context, communityID string) (Settings, error) {
	return s.repo.GetSettings(ctx, communityID)
}

// UpdateSettings replaces the community policy
func (s *Service) UpdateSettings(ctx context.Context, communityID string, settings Settings) (Settings, error) {
	return s.PatchSettings(ctx, communityID, func(Settings) Settings { return settings })
}

// PatchSettings applies fn to the current policy and saves the result under
// the settings lock.
func (s *Service) PatchSettings(ctx context.Context, communityID string, fn func(Settings) Settings) (Settings, error) {
	unlock := s.locks.Lock(settingsKey(communityID))
	defer unlock()

	current, err := s.repo.GetSettings(ctx, communityID)
	if err != nil {
		return Settings{}, err
	}

	settings := fn(current)
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: %q", err, settings.Preset)
	}
	if err := s.repo.SaveSettings(ctx, communityID, settings); err != nil {
		return Settings{}, err
	}

	s.notifier.OnChange(ctx, communityID)
	log.Info().
		Str("community_id", communityID).
		Bool("enabled", settings.Enabled).
		Str("preset", string(settings.Preset)).
		Int("blocked_phrases", len(BlockedPhrases(settings.Blocklist))).
		Msg("Moderation settings updated")
	return settings, nil
}

// CheckContent evaluates content against the community's saved policy
func (s *Service) CheckContent(ctx context.Context, communityID, content string) (Result, error) {
	settings, err := s.repo.GetSettings(ctx, communityID)
	if err != nil {
		return Result{}, err
	}
	res := Check(content, settings)
	if !res.Allowed {
		log.Debug().Str("community_id", communityID).Str("rule", string(res.Rule)).Msg("Content rejected by policy")
	}
	return res, nil
}

// AddReport files a report for a post. Only the first report of a post is
// kept; later calls return it with created=false and change nothing.
func (s *Service) AddReport(ctx context.Context, communityID, postID string, reason ReportReason, snap Snapshot) (*ReportedPost, bool, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, false, ErrInvalidPostID
	}
	if !reason.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidReportReason, reason)
	}

	unlock := s.locks.Lock(reportsKey(communityID))
	defer unlock()

	reports, err := s.repo.ListReports(ctx, communityID)
	if err != nil {
		return nil, false, err
	}
	for i := range reports {
		if reports[i].PostID == postID {
			existing := reports[i]
			return &existing, false, nil
		}
	}

	if err := s.indexCommunity(ctx, communityID); err != nil {
		return nil, false, err
	}

	report := ReportedPost{
		ID:             s.newID(),
		CommunityID:    communityID,
		PostID:         postID,
		ReportReason:   reason,
		ReportedAt:     s.now().UTC(),
		AuthorName:     snap.AuthorName,
		ContentSnippet: truncate(snap.ContentSnippet, snippetLimit),
	}
	if err := s.repo.SaveReports(ctx, communityID, append(reports, report)); err != nil {
		return nil, false, err
	}

	s.notifier.OnChange(ctx, communityID)
	log.Info().
		Str("community_id", communityID).
		Str("post_id", postID).
		Str("reason", string(reason)).
		Msg("Post reported")
	return &report, true, nil
}

// GetPendingReports returns undecided reports, newest first
func (s *Service) GetPendingReports(ctx context.Context, communityID string) ([]ReportedPost, error) {
	reports, err := s.repo.ListReports(ctx, communityID)
	if err != nil {
		return nil, err
	}
	decisions, err := s.repo.Decisions(ctx, communityID)
	if err != nil {
		return nil, err
	}

	pending := make([]ReportedPost, 0, len(reports))
	for _, r := range reports {
		if _, decided := decisions[r.PostID]; !decided {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].ReportedAt.Equal(pending[j].ReportedAt) {
			return pending[i].ReportedAt.After(pending[j].ReportedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending, nil
}

// SetDecision records the current decision for a post, replacing any
// earlier one. The post does not need to have been reported.
func (s *Service) SetDecision(ctx context.Context, communityID, postID string, decision Decision) (*DecisionEntry, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, ErrInvalidPostID
	}
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	unlock := s.locks.Lock(decisionsKey(communityID))
	decisions, err := s.repo.Decisions(ctx, communityID)
	if err != nil {
		unlock()
		return nil, err
	}

	entry := DecisionEntry{
		CommunityID: communityID,
		PostID:      postID,
		Decision:    decision,
		DecidedAt:   s.now().UTC(),
	}
	previous, hadPrevious := decisions[postID]
	decisions[postID] = entry
	err = s.repo.SaveDecisions(ctx, communityID, decisions)
	unlock()
	if err != nil {
		return nil, err
	}

	s.notifier.OnChange(ctx, communityID)
	event := log.Info().
		Str("community_id", communityID).
		Str("post_id", postID).
		Str("decision", string(decision))
	if hadPrevious {
		event = event.Str("previous", string(previous.Decision))
	}
	event.Msg("Moderation decision recorded")
	return &entry, nil
}

// GetDecision returns the current decision for a post
func (s *Service) GetDecision(ctx context.Context, communityID, postID string) (*DecisionEntry, error) {
	decisions, err := s.repo.Decisions(ctx, communityID)
	if err != nil {
		return nil, err
	}
	entry, ok := decisions[postID]
	if !ok {
		return nil, ErrDecisionNotFound
	}
	return &entry, nil
}

// GetRejectedPostIds returns the ids of posts whose current decision is
// rejected, sorted ascending
func (s *Service) GetRejectedPostIds(ctx context.Context, communityID string) ([]string, error) {
	decisions, err := s.repo.Decisions(ctx, communityID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(decisions))
	for postID, entry := range decisions {
		if entry.Decision == DecisionRejected {
			ids = append(ids, postID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// PruneDecided drops decided reports filed before olderThan. Decisions are
// kept so rejected posts stay hidden. It returns the number of reports removed.
func (s *Service) PruneDecided(ctx context.Context, communityID string, olderThan time.Time) (int, error) {
	unlock := s.locks.Lock(reportsKey(communityID))
	defer unlock()

	reports, err := s.repo.ListReports(ctx, communityID)
	if err != nil {
		return 0, err
	}
	decisions, err := s.repo.Decisions(ctx, communityID)
	if err != nil {
		return 0, err
	}

	kept := reports[:0:0]
	for _, r := range reports {
		if _, decided := decisions[r.PostID]; decided && r.ReportedAt.Before(olderThan) {
			continue
		}
		kept = append(kept, r)
	}

	removed := len(reports) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.repo.SaveReports(ctx, communityID, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// ListCommunities returns every community that has received a report
func (s *Service) ListCommunities(ctx context.Context) ([]string, error) {
	return s.repo.Communities(ctx)
}

func (s *Service) indexCommunity(ctx context.Context, communityID string) error {
	unlock := s.locks.Lock(communitiesKey)
	defer unlock()

	ids, err := s.repo.Communities(ctx)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(ids, communityID)
	if i < len(ids) && ids[i] == communityID {
		return nil
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = communityID
	return s.repo.SaveCommunities(ctx, ids)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

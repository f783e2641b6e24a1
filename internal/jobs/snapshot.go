package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/domain/leaderboard"
	"github.com/mwork/community-engine/internal/store"
)

// LeaderboardReader computes a community leaderboard
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, communityID string, limit int) ([]leaderboard.Entry, error)
}

// Snapshot is the precomputed leaderboard stored for read-heavy consumers
type Snapshot struct {
	CommunityID string              `json:"communityId"`
	Entries     []leaderboard.Entry `json:"entries"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// SnapshotKey is the store key of a community's leaderboard snapshot
func SnapshotKey(communityID string) string { return "leaderboard:snapshot:" + communityID }

// Snapshotter refreshes leaderboard snapshots of communities reported as
// changed. Changes are coalesced and flushed on an interval.
type Snapshotter struct {
	board LeaderboardReader
	store store.Store
	limit int
	now   func() time.Time

	mu    sync.Mutex
	dirty map[string]struct{}
}

// NewSnapshotter creates a snapshotter keeping the top limit entries
func NewSnapshotter(board LeaderboardReader, s store.Store, limit int) *Snapshotter {
	return &Snapshotter{
		board: board,
		store: s,
		limit: limit,
		now:   time.Now,
		dirty: map[string]struct{}{},
	}
}

// MarkDirty queues communityID for the next flush
func (s *Snapshotter) MarkDirty(communityID string) {
	if communityID == "" {
		return
	}
	s.mu.Lock()
	s.dirty[communityID] = struct{}{}
	s.mu.Unlock()
}

// Flush rewrites the snapshot of every queued community. Communities that
// fail are queued again.
func (s *Snapshotter) Flush(ctx context.Context) (int, error) {
	s.mu.Lock()
	batch := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		batch = append(batch, id)
	}
	s.dirty = map[string]struct{}{}
	s.mu.Unlock()
	sort.Strings(batch)

	written := 0
	var errs []error
	for _, communityID := range batch {
		if err := s.refresh(ctx, communityID); err != nil {
			log.Error().Err(err).Str("community_id", communityID).Msg("Failed to refresh leaderboard snapshot")
			errs = append(errs, fmt.Errorf("%s: %w", communityID, err))
			s.MarkDirty(communityID)
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}

// Run consumes changes until ctx is done or changes is closed, flushing
// every interval and once more on exit.
func (s *Snapshotter) Run(ctx context.Context, changes <-chan string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finalFlush(context.WithoutCancel(ctx))
			return
		case communityID, ok := <-changes:
			if !ok {
				s.finalFlush(ctx)
				return
			}
			s.MarkDirty(communityID)
		case <-ticker.C:
			if n, err := s.Flush(ctx); n > 0 || err != nil {
				log.Debug().Int("written", n).Err(err).Msg("Leaderboard snapshots flushed")
			}
		}
	}
}

func (s *Snapshotter) finalFlush(ctx context.Context) {
	n, err := s.Flush(ctx)
	if err != nil {
		log.Error().Err(err).Int("written", n).Msg("Final leaderboard flush incomplete")
		return
	}
	log.Debug().Int("written", n).Msg("Final leaderboard flush done")
}

func (s *Snapshotter) refresh(ctx context.Context, communityID string) error {
	entries, err := s.board.GetLeaderboard(ctx, communityID, s.limit)
	if err != nil {
		return err
	}
	return store.SaveJSON(ctx, s.store, SnapshotKey(communityID), Snapshot{
		CommunityID: communityID,
		Entries:     entries,
		GeneratedAt: s.now().UTC(),
	})
}

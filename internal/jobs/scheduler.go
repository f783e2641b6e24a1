// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ReportPruner is the part of the report queue the maintenance job drives.
type ReportPruner interface {
	ListCommunities(ctx context.Context) ([]string, error)
	PruneDecided(ctx context.Context, communityID string, olderThan time.Time) (int, error)
}

// Scheduler owns the cron runner
type Scheduler struct {
	cron      *cron.Cron
	pruner    ReportPruner
	retention time.Duration
	now       func() time.Time
}

// NewScheduler registers the report pruning job on spec (standard 5-field
// cron syntax) evaluated in loc.
func NewScheduler(ctx context.Context, pruner ReportPruner, spec string, retention time.Duration, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
	}

	if _, err := s.cron.AddFunc(spec, func() {
		log.Info().Msg("[CRON] Pruning decided reports")
		if _, err := s.PruneReports(ctx); err != nil {
			log.Error().Err(err).Msg("[CRON] Report pruning failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// PruneReports drops decided reports older than the retention window in
// every indexed community. A failing community does not stop the others;
// their errors are joined.
func (s *Scheduler) PruneReports(ctx context.Context) (int, error) {
	communities, err := s.pruner.ListCommunities(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.retention)
	total := 0
	var errs []error
	for _, communityID := range communities {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		removed, err := s.pruner.PruneDecided(ctx, communityID, cutoff)
		if err != nil {
			log.Error().Err(err).Str("community_id", communityID).Msg("Failed to prune reports")
			errs = append(errs, fmt.Errorf("%s: %w", communityID, err))
			continue
		}
		total += removed
	}

	log.Info().
		Int("communities", len(communities)).
		Int("removed", total).
		Time("cutoff", cutoff).
		Msg("Report pruning finished")
	return total, errors.Join(errs...)
}

package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mwork/community-engine/internal/domain/moderation"
	"github.com/mwork/community-engine/internal/store"
)

type stubPruner struct {
	communities []string
	cutoffs     map[string]time.Time
	failFor     string
}

func (p *stubPruner) ListCommunities(context.Context) ([]string, error) {
	return p.communities, nil
}

func (p *stubPruner) PruneDecided(_ context.Context, communityID string, olderThan time.Time) (int, error) {
	if communityID == p.failFor {
		return 0, store.ErrUnavailable
	}
	p.cutoffs[communityID] = olderThan
	return 2, nil
}

var now = time.Date(2025, 6, 30, 3, 0, 0, 0, time.UTC)

func TestPruneReportsVisitsEveryCommunity(t *testing.T) {
	p := &stubPruner{communities: []string{"c1", "c2", "c3"}, cutoffs: map[string]time.Time{}, failFor: "c2"}
	s, err := NewScheduler(context.Background(), p, "0 3 * * *", 24*time.Hour, nil)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	s.now = func() time.Time { return now }

	removed, err := s.PruneReports(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected joined store error, got %v", err)
	}
	if removed != 4 {
		t.Fatalf("expected 4 removed, got %d", removed)
	}
	if len(p.cutoffs) != 2 || !p.cutoffs["c3"].Equal(now.Add(-24*time.Hour)) {
		t.Fatalf("unexpected cutoffs %v", p.cutoffs)
	}
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewScheduler(context.Background(), &stubPruner{}, "every day", time.Hour, nil); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestPruneReportsWithModerationService(t *testing.T) {
	ctx := context.Background()
	svc := moderation.NewService(moderation.NewRepository(store.NewMemory()), store.NewKeyLocker(), nil)

	if _, _, err := svc.AddReport(ctx, "c1", "p1", moderation.ReportReasonSpam, moderation.Snapshot{}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := svc.SetDecision(ctx, "c1", "p1", moderation.DecisionRejected); err != nil {
		t.Fatalf("decision: %v", err)
	}

	s, err := NewScheduler(ctx, svc, "@daily", time.Hour, time.UTC)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	removed, err := s.PruneReports(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	ids, _ := svc.GetRejectedPostIds(ctx, "c1")
	if len(ids) != 1 {
		t.Fatalf("decisions must survive pruning, got %v", ids)
	}
}

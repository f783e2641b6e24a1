package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mwork/community-engine/internal/domain/notification"
	"github.com/mwork/community-engine/internal/store"
)

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (json.RawMessage, bool, error) {
	return nil, false, store.ErrUnavailable
}

func (brokenStore) Save(context.Context, string, json.RawMessage) error {
	return store.ErrUnavailable
}

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	mem      *store.Memory
	notified []string
	clock    time.Time
}

func newFixture() *fixture {
	f := &fixture{mem: store.NewMemory(), clock: t0}
	f.svc = NewService(NewRepository(f.mem), store.NewKeyLocker(), notification.NotifierFunc(func(_ context.Context, c string) {
		f.notified = append(f.notified, c)
	}))
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) tick() { f.clock = f.clock.Add(time.Minute) }

func TestAddReportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	first, created, err := f.svc.AddReport(ctx, "c1", "p1", ReportReasonSpam, Snapshot{AuthorName: "Ann", ContentSnippet: "buy now"})
	if err != nil || !created {
		t.Fatalf("first report: created=%v err=%v", created, err)
	}

	f.tick()
	second, created, err := f.svc.AddReport(ctx, "c1", "p1", ReportReasonHarassment, Snapshot{AuthorName: "Other"})
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if created {
		t.Fatal("second report must not create a record")
	}
	if second.ID != first.ID || second.ReportReason != ReportReasonSpam || second.AuthorName != "Ann" {
		t.Fatalf("first report must win, got %+v", second)
	}

	pending, err := f.svc.GetPendingReports(ctx, "c1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending report, got %d", len(pending))
	}
	if len(f.notified) != 1 {
		t.Fatalf("expected a single notification, got %v", f.notified)
	}
}

func TestAddReportValidation(t *testing.T) {
	f := newFixture()

	if _, _, err := f.svc.AddReport(context.Background(), "c1", "p1", ReportReason("spam"), Snapshot{}); !errors.Is(err, ErrInvalidReportReason) {
		t.Fatalf("expected ErrInvalidReportReason, got %v", err)
	}
	if _, _, err := f.svc.AddReport(context.Background(), "c1", " ", ReportReasonSpam, Snapshot{}); !errors.Is(err, ErrInvalidPostID) {
		t.Fatalf("expected ErrInvalidPostID, got %v", err)
	}
	if len(f.notified) != 0 {
		t.Fatal("rejected reports must not notify")
	}
}

func TestAddReportTruncatesSnippet(t *testing.T) {
	f := newFixture()

	report, _, err := f.svc.AddReport(context.Background(), "c1", "p1", ReportReasonOther, Snapshot{ContentSnippet: strings.Repeat("ж", 500)})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if n := len([]rune(report.ContentSnippet)); n != snippetLimit {
		t.Fatalf("expected %d characters, got %d", snippetLimit, n)
	}
}

func TestPendingReportsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, post := range []string{"p1", "p2", "p3"} {
		if _, _, err := f.svc.AddReport(ctx, "c1", post, ReportReasonSpam, Snapshot{}); err != nil {
			t.Fatalf("report: %v", err)
		}
		f.tick()
	}
	if _, _, err := f.svc.AddReport(ctx, "c2", "p9", ReportReasonSpam, Snapshot{}); err != nil {
		t.Fatalf("report: %v", err)
	}

	pending, err := f.svc.GetPendingReports(ctx, "c1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 || pending[0].PostID != "p3" || pending[2].PostID != "p1" {
		t.Fatalf("unexpected order %+v", pending)
	}
}

func TestDecisionFinalityAndReplacement(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, _, err := f.svc.AddReport(ctx, "c1", "p1", ReportReasonSpam, Snapshot{}); err != nil {
		t.Fatalf("report: %v", err)
	}

	if _, err := f.svc.SetDecision(ctx, "c1", "p1", DecisionRejected); err != nil {
		t.Fatalf("decision: %v", err)
	}
	pending, _ := f.svc.GetPendingReports(ctx, "c1")
	if len(pending) != 0 {
		t.Fatalf("decided report must leave the pending view, got %+v", pending)
	}
	rejected, _ := f.svc.GetRejectedPostIds(ctx, "c1")
	if len(rejected) != 1 || rejected[0] != "p1" {
		t.Fatalf("expected [p1] rejected, got %v", rejected)
	}

	f.tick()
	if _, err := f.svc.SetDecision(ctx, "c1", "p1", DecisionApproved); err != nil {
		t.Fatalf("decision: %v", err)
	}
	rejected, _ = f.svc.GetRejectedPostIds(ctx, "c1")
	if len(rejected) != 0 {
		t.Fatalf("approval must replace rejection, got %v", rejected)
	}
	entry, err := f.svc.GetDecision(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("get decision: %v", err)
	}
	if entry.Decision != DecisionApproved || !entry.DecidedAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	// reporting a decided post again is still a no-op
	if _, created, _ := f.svc.AddReport(ctx, "c1", "p1", ReportReasonSpam, Snapshot{}); created {
		t.Fatal("a decided post keeps its single report")
	}
	pending, _ = f.svc.GetPendingReports(ctx, "c1")
	if len(pending) != 0 {
		t.Fatal("decided post must stay out of the pending view")
	}
}

func TestSetDecisionWithoutReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.svc.SetDecision(ctx, "c1", "p7", DecisionRejected); err != nil {
		t.Fatalf("decision: %v", err)
	}
	rejected, _ := f.svc.GetRejectedPostIds(ctx, "c1")
	if len(rejected) != 1 || rejected[0] != "p7" {
		t.Fatalf("expected [p7], got %v", rejected)
	}

	if _, err := f.svc.SetDecision(ctx, "c1", "p7", Decision("maybe")); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
	if _, err := f.svc.GetDecision(ctx, "c1", "nope"); !errors.Is(err, ErrDecisionNotFound) {
		t.Fatalf("expected ErrDecisionNotFound, got %v", err)
	}
}

func TestRejectedPostIdsSorted(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, p := range []string{"p3", "p1", "p2"} {
		if _, err := f.svc.SetDecision(ctx, "c1", p, DecisionRejected); err != nil {
			t.Fatalf("decision: %v", err)
		}
	}
	if _, err := f.svc.SetDecision(ctx, "c1", "p0", DecisionApproved); err != nil {
		t.Fatalf("decision: %v", err)
	}

	ids, err := f.svc.GetRejectedPostIds(ctx, "c1")
	if err != nil {
		t.Fatalf("rejected: %v", err)
	}
	if strings.Join(ids, ",") != "p1,p2,p3" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestConcurrentReportsKeepOneEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.svc.notifier = notification.Nop{}

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			post := fmt.Sprintf("p%d", i%3)
			_, created, err := f.svc.AddReport(ctx, "c1", post, ReportReasonSpam, Snapshot{})
			if err != nil {
				t.Errorf("report: %v", err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if createdCount != 3 {
		t.Fatalf("expected 3 creations, got %d", createdCount)
	}
	pending, _ := f.svc.GetPendingReports(ctx, "c1")
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending reports, got %d", len(pending))
	}
}

func TestPruneDecided(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, p := range []string{"old-decided", "old-open"} {
		if _, _, err := f.svc.AddReport(ctx, "c1", p, ReportReasonSpam, Snapshot{}); err != nil {
			t.Fatalf("report: %v", err)
		}
	}
	f.clock = t0.Add(48 * time.Hour)
	if _, _, err := f.svc.AddReport(ctx, "c1", "new-decided", ReportReasonSpam, Snapshot{}); err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, p := range []string{"old-decided", "new-decided"} {
		if _, err := f.svc.SetDecision(ctx, "c1", p, DecisionRejected); err != nil {
			t.Fatalf("decision: %v", err)
		}
	}

	removed, err := f.svc.PruneDecided(ctx, "c1", t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	reports, _ := f.svc.repo.ListReports(ctx, "c1")
	if len(reports) != 2 {
		t.Fatalf("expected 2 remaining reports, got %d", len(reports))
	}
	pending, _ := f.svc.GetPendingReports(ctx, "c1")
	if len(pending) != 1 || pending[0].PostID != "old-open" {
		t.Fatalf("open reports are never pruned, got %+v", pending)
	}
	rejected, _ := f.svc.GetRejectedPostIds(ctx, "c1")
	if len(rejected) != 2 {
		t.Fatalf("decisions survive pruning, got %v", rejected)
	}

	// re-reporting a pruned post stays hidden while its decision stands
	if _, created, _ := f.svc.AddReport(ctx, "c1", "old-decided", ReportReasonSpam, Snapshot{}); !created {
		t.Fatal("expected a fresh report record after pruning")
	}
	pending, _ = f.svc.GetPendingReports(ctx, "c1")
	if len(pending) != 1 {
		t.Fatalf("decided post must stay hidden from pending, got %+v", pending)
	}
}

func TestCommunityIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, c := range []string{"c2", "c1", "c2"} {
		if _, _, err := f.svc.AddReport(ctx, c, "p-"+c, ReportReasonSpam, Snapshot{}); err != nil {
			t.Fatalf("report: %v", err)
		}
	}

	ids, err := f.svc.ListCommunities(ctx)
	if err != nil {
		t.Fatalf("communities: %v", err)
	}
	if strings.Join(ids, ",") != "c1,c2" {
		t.Fatalf("unexpected index %v", ids)
	}
}

func TestSettingsDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	settings, err := f.svc.GetSettings(ctx, "c1")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", settings)
	}

	if _, err := f.svc.UpdateSettings(ctx, "c1", Settings{Enabled: true, Preset: "extreme"}); !errors.Is(err, ErrInvalidPreset) {
		t.Fatalf("expected ErrInvalidPreset, got %v", err)
	}

	if _, err := f.svc.UpdateSettings(ctx, "c1", Settings{Enabled: true, Preset: PresetLow, Blocklist: "spam"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, err := f.svc.CheckContent(ctx, "c1", "SPAM!")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Fatal("saved blocklist must apply")
	}

	// a stored unknown preset reads as defaults
	if err := f.mem.Save(ctx, settingsKey("c1"), json.RawMessage(`{"enabled":true,"preset":"extreme"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	settings, err = f.svc.GetSettings(ctx, "c1")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings != DefaultSettings() {
		t.Fatalf("expected defaults for invalid record, got %+v", settings)
	}
}

func TestMalformedQueueReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.mem.Save(ctx, reportsKey("c1"), json.RawMessage(`{"not":"a list"}`))
	f.mem.Save(ctx, decisionsKey("c1"), json.RawMessage(`oops`))

	pending, err := f.svc.GetPendingReports(ctx, "c1")
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected empty queue, got %v, %v", pending, err)
	}
	if _, created, err := f.svc.AddReport(ctx, "c1", "p1", ReportReasonSpam, Snapshot{}); err != nil || !created {
		t.Fatalf("queue must recover after corruption: created=%v err=%v", created, err)
	}
}

func TestModerationStoreUnavailable(t *testing.T) {
	svc := NewService(NewRepository(brokenStore{}), store.NewKeyLocker(), nil)

	if _, _, err := svc.AddReport(context.Background(), "c1", "p1", ReportReasonSpam, Snapshot{}); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := svc.GetRejectedPostIds(context.Background(), "c1"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

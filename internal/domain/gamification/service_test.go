package gamification

import (
	"context"
	"encoding/json"
	"errors"
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

type countingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *countingNotifier) OnChange(_ context.Context, communityID string) {
	n.mu.Lock()
	n.calls = append(n.calls, communityID)
	n.mu.Unlock()
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

var day1 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(s store.Store, n notification.ChangeNotifier) *Service {
	svc := NewService(NewRepository(s), store.NewKeyLocker(), n, time.UTC)
	svc.now = func() time.Time { return day1 }
	return svc
}

func (s *Service) setDay(offset int) {
	s.now = func() time.Time { return day1.AddDate(0, 0, offset) }
}

func TestAwardScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(store.NewMemory(), nil)

	stats, err := svc.Award(ctx, "c1", "u1", ActionPost)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if stats.Points != 10 || stats.PostCount != 1 || stats.Streak != 1 {
		t.Fatalf("day 1: unexpected stats %+v", stats)
	}
	if len(stats.Badges) != 1 || stats.Badges[0] != BadgeFirstPost {
		t.Fatalf("day 1: expected [first_post], got %v", stats.Badges)
	}

	svc.setDay(1)
	stats, err = svc.Award(ctx, "c1", "u1", ActionPost)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if stats.Points != 20 || stats.PostCount != 2 || stats.Streak != 2 {
		t.Fatalf("day 2: unexpected stats %+v", stats)
	}

	svc.setDay(3)
	stats, err = svc.Award(ctx, "c1", "u1", ActionPost)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if stats.Points != 30 || stats.PostCount != 3 || stats.Streak != 1 {
		t.Fatalf("day 4: unexpected stats %+v", stats)
	}
	if *stats.LastActivityDate != "2025-03-13" {
		t.Fatalf("expected last activity 2025-03-13, got %s", *stats.LastActivityDate)
	}
}

func TestStreakConsecutiveDays(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(store.NewMemory(), nil)

	var stats *Stats
	var err error
	for i := 0; i < 30; i++ {
		svc.setDay(i)
		stats, err = svc.Award(ctx, "c1", "u1", ActionReaction)
		if err != nil {
			t.Fatalf("award day %d: %v", i, err)
		}
		if stats.Streak != i+1 {
			t.Fatalf("day %d: expected streak %d, got %d", i, i+1, stats.Streak)
		}
	}
	if !stats.HasBadge(BadgeStreak7) || !stats.HasBadge(BadgeStreak30) {
		t.Fatalf("expected streak badges, got %v", stats.Badges)
	}
}

func TestStreakSameDayCountsOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(store.NewMemory(), nil)

	var stats *Stats
	for i := 0; i < 5; i++ {
		var err error
		stats, err = svc.Award(ctx, "c1", "u1", ActionPost)
		if err != nil {
			t.Fatalf("award: %v", err)
		}
	}
	if stats.Streak != 1 {
		t.Fatalf("expected streak 1, got %d", stats.Streak)
	}
	if stats.Points != 50 || stats.PostCount != 5 {
		t.Fatalf("points and counters must still accrue: %+v", stats)
	}
	if !stats.HasBadge(BadgeTopPoster) {
		t.Fatalf("expected top_poster after 5 posts, got %v", stats.Badges)
	}
}

func TestStreakResetKeepsBadges(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(store.NewMemory(), nil)

	for i := 0; i < 7; i++ {
		svc.setDay(i)
		if _, err := svc.Award(ctx, "c1", "u1", ActionEventAttended); err != nil {
			t.Fatalf("award: %v", err)
		}
	}

	svc.setDay(20)
	stats, err := svc.Award(ctx, "c1", "u1", ActionEventAttended)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if stats.Streak != 1 {
		t.Fatalf("expected reset streak, got %d", stats.Streak)
	}
	if !stats.HasBadge(BadgeStreak7) {
		t.Fatalf("badges must never be removed, got %v", stats.Badges)
	}
	if stats.Points != 8*5 {
		t.Fatalf("expected 40 points, got %d", stats.Points)
	}
}

func TestStreakUsesConfiguredLocation(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("UTC+5", 5*60*60)
	svc := NewService(NewRepository(store.NewMemory()), store.NewKeyLocker(), nil, loc)

	// 20:00 UTC on the 10th is already the 11th in UTC+5
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC) }
	stats, err := svc.Award(ctx, "c1", "u1", ActionPost)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if *stats.LastActivityDate != "2025-03-11" {
		t.Fatalf("expected local date 2025-03-11, got %s", *stats.LastActivityDate)
	}
}

func TestAwardRejectsUnknownAction(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	n := &countingNotifier{}
	svc := newTestService(mem, n)

	if _, err := svc.Award(ctx, "c1", "u1", Action("like")); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if _, found, _ := mem.Load(ctx, statsKey("c1")); found {
		t.Fatal("invalid action must not persist anything")
	}
	if n.count() != 0 {
		t.Fatal("invalid action must not notify")
	}
}

func TestAwardUsesCommunitySettings(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(store.NewMemory(), nil)

	settings := DefaultSettings()
	settings.PointsForEventCreated = 50
	if _, err := svc.UpdateSettings(ctx, "c1", settings); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	stats, err := svc.Award(ctx, "c1", "u1", ActionEventCreated)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if stats.Points != 50 || stats.EventsCreated != 1 || !stats.HasBadge(BadgeEventHost) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	// other communities keep defaults
	other, err := svc.Award(ctx, "c2", "u1", ActionEventCreated)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if other.Points != 20 {
		t.Fatalf("expected default 20 points, got %d", other.Points)
	}
}

func TestUpdateSettingsRejectsNegativePoints(t *testing.T) {
	svc := newTestService(store.NewMemory(), nil)

	settings := DefaultSettings()
	settings.PointsForReaction = -1
	if _, err := svc.UpdateSettings(context.Background(), "c1", settings); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestAwardNotifies(t *testing.T) {
	n := &countingNotifier{}
	svc := newTestService(store.NewMemory(), n)

	if _, err := svc.Award(context.Background(), "c1", "u1", ActionPost); err != nil {
		t.Fatalf("award: %v", err)
	}
	if n.count() != 1 || n.calls[0] != "c1" {
		t.Fatalf("expected one notification for c1, got %v", n.calls)
	}
}

func TestConcurrentAwardsLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(store.NewMemory(), nil)

	const workers = 20
	const perWorker = 10
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			userID := "u1"
			if w%2 == 1 {
				userID = "u2"
			}
			for i := 0; i < perWorker; i++ {
				if _, err := svc.Award(ctx, "c1", userID, ActionReaction); err != nil {
					t.Errorf("award: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	all, err := svc.ListStats(ctx, "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 members, got %d", len(all))
	}
	for _, s := range all {
		if s.ReactionsGiven != workers/2*perWorker {
			t.Fatalf("%s: expected %d reactions, got %d", s.UserID, workers/2*perWorker, s.ReactionsGiven)
		}
		if s.Points != s.ReactionsGiven*2 {
			t.Fatalf("%s: points out of sync with counter: %+v", s.UserID, s)
		}
		if !s.HasBadge(BadgeReactionMaster) {
			t.Fatalf("%s: expected reaction_master", s.UserID)
		}
	}
}

func TestGetOrCreateDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestService(mem, nil)

	stats, err := svc.GetOrCreate(ctx, "c1", "ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stats.Points != 0 || stats.LastActivityDate != nil || len(stats.Badges) != 0 {
		t.Fatalf("expected zero record, got %+v", stats)
	}
	if _, found, _ := mem.Load(ctx, statsKey("c1")); found {
		t.Fatal("reads must not create documents")
	}
}

func TestMalformedRecordsFallBack(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestService(mem, nil)

	if _, err := svc.Award(ctx, "c1", "u1", ActionPost); err != nil {
		t.Fatalf("award: %v", err)
	}

	// corrupt a single member record
	raw, _, _ := mem.Load(ctx, statsKey("c1"))
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	doc["u2"] = json.RawMessage(`"not an object"`)
	patched, _ := json.Marshal(doc)
	if err := mem.Save(ctx, statsKey("c1"), patched); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := svc.ListStats(ctx, "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].UserID != "u1" {
		t.Fatalf("expected only u1 to survive, got %+v", all)
	}

	// corrupt settings fall back to defaults
	if err := mem.Save(ctx, settingsKey("c1"), json.RawMessage(`{broken`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	settings, err := svc.GetSettings(ctx, "c1")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", settings)
	}
}

func TestStoreUnavailable(t *testing.T) {
	svc := newTestService(brokenStore{}, nil)

	if _, err := svc.Award(context.Background(), "c1", "u1", ActionPost); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGrantBadge(t *testing.T) {
	ctx := context.Background()
	n := &countingNotifier{}
	svc := newTestService(store.NewMemory(), n)

	stats, err := svc.GrantBadge(ctx, "c1", "u1", BadgeHelpful)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !stats.HasBadge(BadgeHelpful) {
		t.Fatalf("expected helpful badge, got %v", stats.Badges)
	}

	if _, err := svc.GrantBadge(ctx, "c1", "u1", BadgeHelpful); err != nil {
		t.Fatalf("grant again: %v", err)
	}
	if n.count() != 1 {
		t.Fatalf("repeat grant must not notify, got %d notifications", n.count())
	}

	if _, err := svc.GrantBadge(ctx, "c1", "u1", BadgeID("gold")); !errors.Is(err, ErrInvalidBadge) {
		t.Fatalf("expected ErrInvalidBadge, got %v", err)
	}
}

func TestResolveContributorTitle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(store.NewMemory(), nil)

	title, err := svc.ResolveContributorTitle(ctx, "c1", "nobody")
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != TitleNewMember {
		t.Fatalf("expected New Member, got %s", title)
	}

	if _, err := svc.Award(ctx, "c1", "u1", ActionPost); err != nil {
		t.Fatalf("award: %v", err)
	}
	title, err = svc.ResolveContributorTitle(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != TitleRegular {
		t.Fatalf("expected Regular, got %s", title)
	}
}

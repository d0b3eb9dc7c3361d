package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/cadence/internal/config"
	"github.com/example/cadence/internal/ports/primary"
	"github.com/example/cadence/internal/ports/secondary"
)

type cycleFixture struct {
	svc      *CycleServiceImpl
	streaks  *mockStreakRepository
	drops    *mockDropRepository
	drafts   *mockDraftRepository
	events   *mockEventWriter
	notifier *mockNotifier
	fallback *FallbackServiceImpl
}

func newCycleFixture(t *testing.T, gen *mockGenerator) *cycleFixture {
	t.Helper()
	reg := newTestRegistry(t)
	f := &cycleFixture{
		streaks:  newMockStreakRepository(),
		drops:    newMockDropRepository(),
		drafts:   &mockDraftRepository{},
		events:   &mockEventWriter{},
		notifier: newMockNotifier(),
	}
	streakSvc := NewStreakService(f.streaks, reg, f.events)
	f.fallback = NewFallbackService(gen, f.drafts)
	f.svc = NewCycleService(reg, streakSvc, f.fallback, f.drops, f.events, f.notifier, testLogger())
	f.streaks.seed(&secondary.StreakRecord{AgentID: "abraham", CurrentStreak: 41, LongestStreak: 41, LastDropDate: "2025-03-09", TotalDrops: 41, PracticeStartDate: "2025-01-01"})
	f.streaks.seed(&secondary.StreakRecord{AgentID: "solienne", CurrentStreak: 12, LongestStreak: 20, LastDropDate: "2025-03-09", TotalDrops: 30, PracticeStartDate: "2025-01-01"})
	return f
}

func generatorReturning(dropID string) *mockGenerator {
	return &mockGenerator{byStrategy: map[string]func(string) (string, error){
		primary.StrategyAlternatePrompt: func(string) (string, error) { return dropID, nil },
	}}
}

func TestRunCycleHappyPath(t *testing.T) {
	f := newCycleFixture(t, generatorReturning("DROP-1"))

	result, err := f.svc.RunCycle(context.Background(), "abraham", testNow)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if result.DropID != "DROP-1" || result.Strategy != primary.StrategyAlternatePrompt {
		t.Errorf("result = %+v", result)
	}
	if result.IsEmergency || result.Protected || result.AlreadyDropped {
		t.Errorf("result flags = %+v", result)
	}

	drop, _ := f.drops.GetByAgentDay(context.Background(), "abraham", "2025-03-10")
	if drop == nil || drop.ID != "DROP-1" {
		t.Fatalf("drop row = %+v", drop)
	}
	rec, _ := f.streaks.Get(context.Background(), "abraham")
	if rec.CurrentStreak != 42 {
		t.Errorf("streak = %d, want 42", rec.CurrentStreak)
	}

	// Notification is async; wait for delivery.
	select {
	case <-f.notifier.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}
	if len(f.notifier.delivered) != 1 || f.notifier.delivered[0] != "abraham/DROP-1" {
		t.Errorf("delivered = %v", f.notifier.delivered)
	}
}

func TestRunCycleAlreadyDropped(t *testing.T) {
	f := newCycleFixture(t, generatorReturning("DROP-1"))
	_ = f.drops.Create(context.Background(), &secondary.DropRecord{ID: "DROP-0", AgentID: "abraham", LocalDay: "2025-03-10"})

	result, err := f.svc.RunCycle(context.Background(), "abraham", testNow)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !result.AlreadyDropped {
		t.Errorf("result = %+v", result)
	}
	rec, _ := f.streaks.Get(context.Background(), "abraham")
	if rec.CurrentStreak != 41 {
		t.Errorf("streak mutated on short-circuit: %d", rec.CurrentStreak)
	}
	if len(f.notifier.delivered) != 0 {
		t.Error("no notification expected")
	}
}

func TestRunCycleSkipsFuturePractice(t *testing.T) {
	reg, invalid := NewScheduleRegistry(&config.Config{
		Agents: []config.AgentConfig{
			{ID: "newcomer", Timezone: "UTC", DropTime: "09:00", Cadence: "daily", PracticeStartDate: "2025-04-01"},
		},
	})
	if len(invalid) != 0 {
		t.Fatalf("invalid agents: %v", invalid)
	}
	streaks := newMockStreakRepository()
	events := &mockEventWriter{}
	svc := NewCycleService(reg, NewStreakService(streaks, reg, events),
		NewFallbackService(&mockGenerator{}, &mockDraftRepository{}),
		newMockDropRepository(), events, nil, testLogger())

	result, err := svc.RunCycle(context.Background(), "newcomer", testNow)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !result.Skipped {
		t.Errorf("result = %+v", result)
	}
}

func TestRunCycleEmergencyPlaceholder(t *testing.T) {
	// Generators fail, draft pool empty: the placeholder carries the day.
	f := newCycleFixture(t, &mockGenerator{})

	result, err := f.svc.RunCycle(context.Background(), "abraham", testNow)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !result.IsEmergency || result.Strategy != primary.StrategyPlaceholder {
		t.Errorf("result = %+v", result)
	}
	rec, _ := f.streaks.Get(context.Background(), "abraham")
	if rec.CurrentStreak != 42 {
		t.Errorf("streak = %d, placeholder drops count like any other", rec.CurrentStreak)
	}
	kinds := f.events.kinds("abraham")
	if len(kinds) != 1 || kinds[0] != secondary.EventEmergencyDrop {
		t.Errorf("events = %v", kinds)
	}
}

func TestRunCycleProtectsOnTotalFailure(t *testing.T) {
	f := newCycleFixture(t, &mockGenerator{})
	boom := errors.New("disk full")
	f.fallback.placeholder = func(ctx context.Context, agentID string) (string, error) {
		return "", boom
	}

	result, err := f.svc.RunCycle(context.Background(), "abraham", testNow)
	if err != nil {
		t.Fatalf("protection path must not error the cycle: %v", err)
	}
	if !result.Protected {
		t.Fatalf("result = %+v", result)
	}
	if !errors.Is(result.Err, boom) {
		t.Errorf("result.Err = %v", result.Err)
	}

	rec, _ := f.streaks.Get(context.Background(), "abraham")
	if !rec.ProtectionActive {
		t.Error("protection window not opened")
	}
	if rec.CurrentStreak != 41 || rec.LastDropDate != "2025-03-09" {
		t.Errorf("streak mutated on failure: %+v", rec)
	}
	if drop, _ := f.drops.GetByAgentDay(context.Background(), "abraham", "2025-03-10"); drop != nil {
		t.Error("no drop row expected on total failure")
	}

	kinds := f.events.kinds("abraham")
	if len(kinds) != 2 || kinds[0] != secondary.EventGenerationExhausted || kinds[1] != secondary.EventProtectionActivated {
		t.Errorf("events = %v", kinds)
	}
}

func TestRunCycleNotifyFailureDoesNotFailCycle(t *testing.T) {
	f := newCycleFixture(t, generatorReturning("DROP-1"))
	f.notifier.err = errors.New("webhook 503")

	result, err := f.svc.RunCycle(context.Background(), "abraham", testNow)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if result.DropID != "DROP-1" {
		t.Errorf("result = %+v", result)
	}

	select {
	case <-f.notifier.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never attempted")
	}
	f.svc.WaitNotifications()

	found := false
	for _, kind := range f.events.kinds("abraham") {
		if kind == secondary.EventNotifyFailed {
			found = true
		}
	}
	if !found {
		t.Errorf("notify failure not audited: %v", f.events.kinds("abraham"))
	}
}

func TestRunCycleUnknownAgent(t *testing.T) {
	f := newCycleFixture(t, generatorReturning("DROP-1"))
	if _, err := f.svc.RunCycle(context.Background(), "ghost", testNow); err == nil {
		t.Error("expected error for unregistered agent")
	}
}

func TestRunSweep(t *testing.T) {
	f := newCycleFixture(t, generatorReturning("DROP-S"))
	// abraham already dropped today; only solienne needs generating.
	_ = f.drops.Create(context.Background(), &secondary.DropRecord{ID: "DROP-A", AgentID: "abraham", LocalDay: "2025-03-10"})

	results, err := f.svc.RunSweep(context.Background(), testNow)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	byAgent := map[string]*primary.CycleResult{}
	for _, r := range results {
		byAgent[r.AgentID] = r
	}
	if !byAgent["abraham"].AlreadyDropped {
		t.Errorf("abraham = %+v", byAgent["abraham"])
	}
	if byAgent["solienne"].DropID == "" || byAgent["solienne"].AlreadyDropped {
		t.Errorf("solienne = %+v", byAgent["solienne"])
	}
	f.svc.WaitNotifications()
}

func TestRunCycleSerializesPerAgent(t *testing.T) {
	f := newCycleFixture(t, generatorReturning("DROP-R"))

	done := make(chan *primary.CycleResult, 2)
	for i := 0; i < 2; i++ {
		go func() {
			res, err := f.svc.RunCycle(context.Background(), "abraham", testNow)
			if err != nil {
				t.Errorf("cycle: %v", err)
				res = &primary.CycleResult{}
			}
			done <- res
		}()
	}
	first, second := <-done, <-done

	// Exactly one of the two racing cycles commits the drop.
	committed := 0
	for _, r := range []*primary.CycleResult{first, second} {
		if r.DropID != "" {
			committed++
		}
	}
	if committed != 1 {
		t.Errorf("committed = %d, want 1", committed)
	}
	rec, _ := f.streaks.Get(context.Background(), "abraham")
	if rec.CurrentStreak != 42 || rec.TotalDrops != 42 {
		t.Errorf("record double-counted: %+v", rec)
	}
	f.svc.WaitNotifications()
}

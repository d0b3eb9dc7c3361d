package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/cadence/internal/adapters/sqlite"
	"github.com/example/cadence/internal/ports/secondary"
)

func TestDropCreateAndGet(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewDropRepository(database)
	ctx := context.Background()

	drop := &secondary.DropRecord{
		ID:        "DROP-001",
		AgentID:   "abraham",
		LocalDay:  "2025-03-10",
		CreatedAt: "2025-03-10T09:00:00Z",
		Strategy:  "alternate_prompt",
	}
	if err := repo.Create(ctx, drop); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByAgentDay(ctx, "abraham", "2025-03-10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("drop not found")
	}
	if got.ID != "DROP-001" || got.Strategy != "alternate_prompt" || got.IsEmergency {
		t.Errorf("unexpected drop: %+v", got)
	}
}

func TestDropGetAbsentDayIsNil(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewDropRepository(database)

	got, err := repo.GetByAgentDay(context.Background(), "abraham", "2025-03-10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing day, got %+v", got)
	}
}

func TestDropSameDayDuplicateRejected(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewDropRepository(database)
	ctx := context.Background()

	first := &secondary.DropRecord{ID: "DROP-001", AgentID: "abraham", LocalDay: "2025-03-10", CreatedAt: "2025-03-10T09:00:00Z"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &secondary.DropRecord{ID: "DROP-002", AgentID: "abraham", LocalDay: "2025-03-10", CreatedAt: "2025-03-10T17:00:00Z"}
	err := repo.Create(ctx, dup)
	if !errors.Is(err, secondary.ErrDuplicateDrop) {
		t.Errorf("expected ErrDuplicateDrop, got %v", err)
	}

	// Different agents share days freely.
	other := &secondary.DropRecord{ID: "DROP-003", AgentID: "solienne", LocalDay: "2025-03-10", CreatedAt: "2025-03-10T09:00:00Z"}
	if err := repo.Create(ctx, other); err != nil {
		t.Errorf("other agent same day: %v", err)
	}
}

func TestDropListByAgent(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewDropRepository(database)
	ctx := context.Background()

	days := []string{"2025-03-08", "2025-03-09", "2025-03-10"}
	for i, day := range days {
		drop := &secondary.DropRecord{
			ID:          "DROP-00" + string(rune('1'+i)),
			AgentID:     "abraham",
			LocalDay:    day,
			CreatedAt:   day + "T09:00:00Z",
			IsEmergency: day == "2025-03-09",
		}
		if err := repo.Create(ctx, drop); err != nil {
			t.Fatalf("create %s: %v", day, err)
		}
	}

	drops, err := repo.ListByAgent(ctx, "abraham", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drops) != 2 {
		t.Fatalf("len = %d, want 2", len(drops))
	}
	if drops[0].LocalDay != "2025-03-10" || drops[1].LocalDay != "2025-03-09" {
		t.Errorf("not newest first: %s, %s", drops[0].LocalDay, drops[1].LocalDay)
	}
	if !drops[1].IsEmergency {
		t.Error("emergency flag lost")
	}
}

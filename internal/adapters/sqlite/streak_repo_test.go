package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/cadence/internal/adapters/sqlite"
	"github.com/example/cadence/internal/ports/secondary"
)

func TestStreakInitializeAndGet(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)
	ctx := context.Background()

	if err := repo.Initialize(ctx, "abraham", "2025-01-01", "daily"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	rec, err := repo.Get(ctx, "abraham")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.AgentID != "abraham" {
		t.Errorf("AgentID = %s", rec.AgentID)
	}
	if rec.CurrentStreak != 0 || rec.LongestStreak != 0 || rec.TotalDrops != 0 {
		t.Errorf("fresh record has nonzero counters: %+v", rec)
	}
	if rec.Version != 1 {
		t.Errorf("fresh record version = %d, want 1", rec.Version)
	}
	if rec.PracticeStartDate != "2025-01-01" {
		t.Errorf("PracticeStartDate = %s", rec.PracticeStartDate)
	}
	if rec.Cadence != "daily" {
		t.Errorf("Cadence = %s", rec.Cadence)
	}
}

func TestStreakInitializeDuplicate(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)
	ctx := context.Background()

	if err := repo.Initialize(ctx, "abraham", "2025-01-01", "daily"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := repo.Initialize(ctx, "abraham", "2025-01-01", "daily"); err == nil {
		t.Error("expected error initializing the same agent twice")
	}
}

func TestStreakGetNotFound(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)

	_, err := repo.Get(context.Background(), "nobody")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStreakPutBumpsVersion(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)
	ctx := context.Background()
	seedStreak(t, database, "abraham")

	rec, err := repo.Get(ctx, "abraham")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	rec.CurrentStreak = 1
	rec.LongestStreak = 1
	rec.LastDropDate = "2025-03-10"
	rec.TotalDrops = 1
	if err := repo.Put(ctx, rec, rec.Version); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, "abraham")
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}
	if got.CurrentStreak != 1 || got.LastDropDate != "2025-03-10" {
		t.Errorf("record not persisted: %+v", got)
	}
}

func TestStreakPutConflict(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)
	ctx := context.Background()
	seedStreak(t, database, "abraham")

	rec, err := repo.Get(ctx, "abraham")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	// First writer wins.
	first := *rec
	first.CurrentStreak = 1
	first.LongestStreak = 1
	if err := repo.Put(ctx, &first, rec.Version); err != nil {
		t.Fatalf("first put: %v", err)
	}

	// Second writer holds the stale version.
	stale := *rec
	stale.CurrentStreak = 9
	stale.LongestStreak = 9
	err = repo.Put(ctx, &stale, rec.Version)
	if !errors.Is(err, secondary.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestStreakPutUnknownAgent(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)

	err := repo.Put(context.Background(), &secondary.StreakRecord{
		AgentID:           "ghost",
		PracticeStartDate: "2025-01-01",
		Cadence:           "daily",
	}, 1)
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStreakProtectionRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)
	ctx := context.Background()
	seedStreak(t, database, "solienne")

	rec, err := repo.Get(ctx, "solienne")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	rec.ProtectionActive = true
	rec.ProtectionExpiresAt = "2025-03-11T09:00:00Z"
	if err := repo.Put(ctx, rec, rec.Version); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, "solienne")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.ProtectionActive || got.ProtectionExpiresAt != "2025-03-11T09:00:00Z" {
		t.Errorf("protection not persisted: %+v", got)
	}

	// Clearing protection nulls the expiry.
	got.ProtectionActive = false
	got.ProtectionExpiresAt = ""
	if err := repo.Put(ctx, got, got.Version); err != nil {
		t.Fatalf("clear put: %v", err)
	}
	cleared, err := repo.Get(ctx, "solienne")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cleared.ProtectionActive || cleared.ProtectionExpiresAt != "" {
		t.Errorf("protection not cleared: %+v", cleared)
	}
}

func TestStreakList(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewStreakRepository(database)
	seedStreak(t, database, "solienne")
	seedStreak(t, database, "abraham")

	records, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].AgentID != "abraham" || records[1].AgentID != "solienne" {
		t.Errorf("list not ordered by agent ID: %s, %s", records[0].AgentID, records[1].AgentID)
	}
}

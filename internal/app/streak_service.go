package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/cadence/internal/core/streak"
	"github.com/example/cadence/internal/ports/primary"
	"github.com/example/cadence/internal/ports/secondary"
)

// StreakServiceImpl implements the StreakService interface.
// It owns every mutation of streak records: the engine math lives in
// core/streak, this service binds it to persistence with optimistic
// concurrency (one retry on version conflict).
type StreakServiceImpl struct {
	streakRepo secondary.StreakRepository
	registry   *ScheduleRegistry
	events     secondary.EventWriter
}

// NewStreakService creates a new StreakService with injected dependencies.
func NewStreakService(streakRepo secondary.StreakRepository, registry *ScheduleRegistry, events secondary.EventWriter) *StreakServiceImpl {
	return &StreakServiceImpl{
		streakRepo: streakRepo,
		registry:   registry,
		events:     events,
	}
}

// InitializePractice creates the streak record for a new agent.
func (s *StreakServiceImpl) InitializePractice(ctx context.Context, agentID, practiceStartDate, cadence string) error {
	if _, err := time.Parse(streak.DayFormat, practiceStartDate); err != nil {
		return fmt.Errorf("invalid practice start date %q", practiceStartDate)
	}
	if err := s.streakRepo.Initialize(ctx, agentID, practiceStartDate, cadence); err != nil {
		return fmt.Errorf("failed to initialize practice: %w", err)
	}
	s.writeEvent(ctx, agentID, secondary.EventPracticeInitialized, "start="+practiceStartDate)
	return nil
}

// GetStreak retrieves the streak record for an agent.
func (s *StreakServiceImpl) GetStreak(ctx context.Context, agentID string) (*primary.AgentStreak, error) {
	rec, err := s.streakRepo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return recordToAgentStreak(rec), nil
}

// Evaluate computes the streak status for an agent at now.
func (s *StreakServiceImpl) Evaluate(ctx context.Context, agentID string, now time.Time) (*primary.StreakStatus, error) {
	sched, err := s.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	rec, err := s.streakRepo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	core, err := recordToCore(rec)
	if err != nil {
		return nil, err
	}
	if err := streak.Validate(core); err != nil {
		return nil, fmt.Errorf("corrupt streak record: %w", err)
	}
	st, err := streak.Evaluate(core, now, sched.Location)
	if err != nil {
		return nil, err
	}
	return &primary.StreakStatus{
		CurrentStreak:   st.CurrentStreak,
		LongestStreak:   st.LongestStreak,
		Intact:          st.Intact,
		NeedsProtection: st.NeedsProtection,
		DaysUntilBreak:  st.DaysUntilBreak,
	}, nil
}

// CheckAll evaluates every agent that has a streak record. A bad
// record or missing schedule marks that agent's check, not the report.
func (s *StreakServiceImpl) CheckAll(ctx context.Context, now time.Time) ([]*primary.AgentCheck, error) {
	records, err := s.streakRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}

	checks := make([]*primary.AgentCheck, 0, len(records))
	for _, rec := range records {
		check := &primary.AgentCheck{AgentID: rec.AgentID}
		check.Status, check.Err = s.Evaluate(ctx, rec.AgentID, now)
		checks = append(checks, check)
	}
	return checks, nil
}

// Commit records a successful drop for an agent at now.
func (s *StreakServiceImpl) Commit(ctx context.Context, req primary.CommitRequest) (*primary.AgentStreak, bool, error) {
	sched, err := s.registry.Get(req.AgentID)
	if err != nil {
		return nil, false, err
	}

	var changed bool
	rec, err := s.updateStreak(ctx, req.AgentID, func(core streak.Record) (streak.Record, error) {
		out, didChange, err := streak.Commit(core, req.Now, sched.Location)
		changed = didChange
		return out, err
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		kind := secondary.EventDropCommitted
		if req.IsEmergency {
			kind = secondary.EventEmergencyDrop
		}
		detail := fmt.Sprintf("drop=%s strategy=%s streak=%d", req.DropID, req.Strategy, rec.CurrentStreak)
		s.writeEvent(ctx, req.AgentID, kind, detail)
	}

	return recordToAgentStreak(rec), changed, nil
}

// ActivateProtection opens a protection window for an agent.
func (s *StreakServiceImpl) ActivateProtection(ctx context.Context, agentID string, now time.Time, duration time.Duration) error {
	rec, err := s.updateStreak(ctx, agentID, func(core streak.Record) (streak.Record, error) {
		return streak.ActivateProtection(core, now, duration, -1), nil
	})
	if err != nil {
		return err
	}
	s.writeEvent(ctx, agentID, secondary.EventProtectionActivated, "expires="+rec.ProtectionExpiresAt)
	return nil
}

// EmergencyRestore opens a protection window and forcibly sets the
// current streak. Operator-only; always audited.
func (s *StreakServiceImpl) EmergencyRestore(ctx context.Context, agentID string, now time.Time, streakValue int) error {
	if streakValue < 0 {
		return fmt.Errorf("streak value must be >= 0, got %d", streakValue)
	}
	rec, err := s.updateStreak(ctx, agentID, func(core streak.Record) (streak.Record, error) {
		return streak.ActivateProtection(core, now, streak.DefaultProtectionWindow, streakValue), nil
	})
	if err != nil {
		return err
	}
	detail := fmt.Sprintf("streak set to %d, expires=%s", streakValue, rec.ProtectionExpiresAt)
	s.writeEvent(ctx, agentID, secondary.EventEmergencyRestore, detail)
	return nil
}

// updateStreak runs a read/compute/write cycle against the streak
// store, retrying exactly once on a version conflict. A second
// conflict fails the cycle; it is not fatal to the process.
func (s *StreakServiceImpl) updateStreak(ctx context.Context, agentID string, mutate func(streak.Record) (streak.Record, error)) (*secondary.StreakRecord, error) {
	rec, err := s.applyMutation(ctx, agentID, mutate)
	if errors.Is(err, secondary.ErrConflict) {
		rec, err = s.applyMutation(ctx, agentID, mutate)
	}
	return rec, err
}

func (s *StreakServiceImpl) applyMutation(ctx context.Context, agentID string, mutate func(streak.Record) (streak.Record, error)) (*secondary.StreakRecord, error) {
	stored, err := s.streakRepo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	core, err := recordToCore(stored)
	if err != nil {
		return nil, err
	}
	if err := streak.Validate(core); err != nil {
		return nil, fmt.Errorf("corrupt streak record: %w", err)
	}

	next, err := mutate(core)
	if err != nil {
		return nil, err
	}
	if next == core {
		// Nothing changed; skip the write entirely.
		return stored, nil
	}

	out := coreToRecord(next, stored)
	if err := s.streakRepo.Put(ctx, out, stored.Version); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StreakServiceImpl) writeEvent(ctx context.Context, agentID, kind, detail string) {
	// Audit writes are best-effort on these paths.
	_ = s.events.Write(ctx, agentID, kind, detail)
}

// recordToCore converts a stored record into the engine's value type.
func recordToCore(rec *secondary.StreakRecord) (streak.Record, error) {
	core := streak.Record{
		AgentID:           rec.AgentID,
		CurrentStreak:     rec.CurrentStreak,
		LongestStreak:     rec.LongestStreak,
		LastDropDate:      rec.LastDropDate,
		TotalDrops:        rec.TotalDrops,
		ProtectionActive:  rec.ProtectionActive,
		PracticeStartDate: rec.PracticeStartDate,
	}
	if rec.ProtectionExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, rec.ProtectionExpiresAt)
		if err != nil {
			return streak.Record{}, fmt.Errorf("agent %s: bad protection expiry %q", rec.AgentID, rec.ProtectionExpiresAt)
		}
		core.ProtectionExpiresAt = t
	}
	return core, nil
}

// coreToRecord merges engine output back over the stored record,
// preserving fields the engine does not own.
func coreToRecord(core streak.Record, stored *secondary.StreakRecord) *secondary.StreakRecord {
	out := *stored
	out.CurrentStreak = core.CurrentStreak
	out.LongestStreak = core.LongestStreak
	out.LastDropDate = core.LastDropDate
	out.TotalDrops = core.TotalDrops
	out.ProtectionActive = core.ProtectionActive
	if core.ProtectionExpiresAt.IsZero() {
		out.ProtectionExpiresAt = ""
	} else {
		out.ProtectionExpiresAt = core.ProtectionExpiresAt.UTC().Format(time.RFC3339)
	}
	return &out
}

func recordToAgentStreak(rec *secondary.StreakRecord) *primary.AgentStreak {
	return &primary.AgentStreak{
		AgentID:             rec.AgentID,
		CurrentStreak:       rec.CurrentStreak,
		LongestStreak:       rec.LongestStreak,
		LastDropDate:        rec.LastDropDate,
		TotalDrops:          rec.TotalDrops,
		ProtectionActive:    rec.ProtectionActive,
		ProtectionExpiresAt: rec.ProtectionExpiresAt,
		PracticeStartDate:   rec.PracticeStartDate,
		Cadence:             rec.Cadence,
	}
}

// Ensure StreakServiceImpl implements the interface
var _ primary.StreakService = (*StreakServiceImpl)(nil)

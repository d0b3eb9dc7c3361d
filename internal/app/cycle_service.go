package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/cadence/internal/core/streak"
	"github.com/example/cadence/internal/ports/primary"
	"github.com/example/cadence/internal/ports/secondary"
)

// DefaultCycleTimeout bounds one whole evaluate/generate/commit
// sequence so a hung strategy chain cannot block the next day's
// schedule.
const DefaultCycleTimeout = 10 * time.Minute

// notifyTimeout bounds the fire-and-forget subscriber fan-out.
const notifyTimeout = 30 * time.Second

// CycleServiceImpl implements the CycleService interface. It is the
// single entry point for all triggers: local-fire timers, the hourly
// sweep, the end-of-day sweep, and the manual generate command.
type CycleServiceImpl struct {
	registry *ScheduleRegistry
	streaks  primary.StreakService
	fallback primary.FallbackService
	dropRepo secondary.DropRepository
	events   secondary.EventWriter
	notifier secondary.Notifier
	logger   *log.Logger

	cycleTimeout time.Duration

	// locks serializes cycles per agent. Cross-agent cycles run in
	// parallel; the same agent's local fire and sweep never commit
	// concurrently.
	locks sync.Map // agentID -> *sync.Mutex

	// notifyWG tracks in-flight notifications for graceful shutdown.
	notifyWG sync.WaitGroup
}

// NewCycleService creates a new CycleService with injected dependencies.
// notifier may be nil when no webhook is configured.
func NewCycleService(
	registry *ScheduleRegistry,
	streaks primary.StreakService,
	fallback primary.FallbackService,
	dropRepo secondary.DropRepository,
	events secondary.EventWriter,
	notifier secondary.Notifier,
	logger *log.Logger,
) *CycleServiceImpl {
	return &CycleServiceImpl{
		registry:     registry,
		streaks:      streaks,
		fallback:     fallback,
		dropRepo:     dropRepo,
		events:       events,
		notifier:     notifier,
		logger:       logger,
		cycleTimeout: DefaultCycleTimeout,
	}
}

// RunCycle executes the evaluate/generate/commit sequence for one agent.
func (s *CycleServiceImpl) RunCycle(ctx context.Context, agentID string, now time.Time) (*primary.CycleResult, error) {
	sched, err := s.registry.Get(agentID)
	if err != nil {
		return nil, err
	}

	result := &primary.CycleResult{AgentID: agentID}
	today := streak.LocalDay(now, sched.Location)

	// Nothing is expected before the practice starts.
	if sched.PracticeStartDate != "" && sched.PracticeStartDate > today {
		result.Skipped = true
		return result, nil
	}

	mu := s.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	// Short-circuit: a drop for today already exists. This is what
	// makes the local fire and the sweeps idempotent with each other.
	existing, err := s.dropRepo.GetByAgentDay(ctx, agentID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check today's drop: %w", err)
	}
	if existing != nil {
		result.AlreadyDropped = true
		return result, nil
	}

	outcome := s.fallback.Run(ctx, agentID)
	if !outcome.Success {
		return s.protect(ctx, result, now, outcome)
	}

	drop := &secondary.DropRecord{
		ID:          outcome.DropID,
		AgentID:     agentID,
		LocalDay:    today,
		CreatedAt:   now.UTC().Format(time.RFC3339),
		IsEmergency: outcome.IsEmergency,
		Strategy:    outcome.Strategy,
	}
	if err := s.dropRepo.Create(ctx, drop); err != nil {
		if errors.Is(err, secondary.ErrDuplicateDrop) {
			// The per-agent lock was bypassed (another process?); the
			// other writer's drop stands and this cycle is a no-op.
			result.AlreadyDropped = true
			return result, nil
		}
		return nil, fmt.Errorf("failed to record drop: %w", err)
	}

	if _, _, err := s.streaks.Commit(ctx, primary.CommitRequest{
		AgentID:     agentID,
		Now:         now,
		DropID:      drop.ID,
		Strategy:    outcome.Strategy,
		IsEmergency: outcome.IsEmergency,
	}); err != nil {
		// The drop row exists so the day is safe, but the streak is
		// now stale and sweeps will short-circuit on the drop.
		// Surface the error for the operator.
		return nil, fmt.Errorf("drop %s recorded but streak commit failed: %w", drop.ID, err)
	}

	result.DropID = drop.ID
	result.Strategy = outcome.Strategy
	result.IsEmergency = outcome.IsEmergency

	s.notify(agentID, drop.ID)
	return result, nil
}

// protect handles total generation failure: activate the protection
// window and raise the emergency signal. The cycle does not retry
// synchronously; the next sweep picks the agent up again.
func (s *CycleServiceImpl) protect(ctx context.Context, result *primary.CycleResult, now time.Time, outcome *primary.Outcome) (*primary.CycleResult, error) {
	detail := "strategies=" + strings.Join(outcome.ExhaustedStrategies, ",")
	if outcome.Err != nil {
		detail += " err=" + outcome.Err.Error()
	}
	if err := s.events.Write(ctx, result.AgentID, secondary.EventGenerationExhausted, detail); err != nil {
		s.logger.Printf("agent %s: failed to write exhaustion event: %v", result.AgentID, err)
	}

	if err := s.streaks.ActivateProtection(ctx, result.AgentID, now, 0); err != nil {
		return nil, fmt.Errorf("generation exhausted and protection failed: %w", err)
	}

	s.logger.Printf("EMERGENCY agent %s: all generation strategies failed, protection active", result.AgentID)
	result.Protected = true
	result.Err = outcome.Err
	return result, nil
}

// RunSweep runs a cycle for every agent missing today's drop.
func (s *CycleServiceImpl) RunSweep(ctx context.Context, now time.Time) ([]*primary.CycleResult, error) {
	scheds := s.registry.All()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*primary.CycleResult
	)

	for _, sched := range scheds {
		wg.Add(1)
		go func(agentID string) {
			defer wg.Done()
			res, err := s.RunCycle(ctx, agentID, now)
			if err != nil {
				res = &primary.CycleResult{AgentID: agentID, Err: err}
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(sched.ID)
	}
	wg.Wait()

	return results, nil
}

// notify fans out to subscribers without blocking the scheduling path.
func (s *CycleServiceImpl) notify(agentID, dropID string) {
	if s.notifier == nil {
		return
	}
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, agentID, dropID); err != nil {
			s.logger.Printf("agent %s: notify failed for drop %s: %v", agentID, dropID, err)
			_ = s.events.Write(ctx, agentID, secondary.EventNotifyFailed, "drop="+dropID+" err="+err.Error())
		}
	}()
}

// WaitNotifications blocks until in-flight notifications settle.
// Called on graceful shutdown.
func (s *CycleServiceImpl) WaitNotifications() {
	s.notifyWG.Wait()
}

func (s *CycleServiceImpl) agentLock(agentID string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(agentID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Ensure CycleServiceImpl implements the interface
var _ primary.CycleService = (*CycleServiceImpl)(nil)

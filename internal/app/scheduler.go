package app

import (
	"context"
	"log"
	"time"

	"github.com/example/cadence/internal/core/schedule"
	"github.com/example/cadence/internal/ctxutil"
	"github.com/example/cadence/internal/ports/primary"
)

// DefaultSweepInterval is how often the reconciliation sweep runs.
const DefaultSweepInterval = time.Hour

// Scheduler drives the three triggers: one local-fire timer goroutine
// per agent, the hourly reconciliation sweep, and the end-of-day UTC
// sweep. Each agent runner is supervised independently: a panic in one
// cycle is recovered and that runner keeps its timer, so a single
// agent cannot deregister the rest of the fleet.
type Scheduler struct {
	registry      *ScheduleRegistry
	cycles        primary.CycleService
	logger        *log.Logger
	sweepInterval time.Duration
	eodHourUTC    int

	// nowFunc is the clock, injectable for tests.
	nowFunc func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(registry *ScheduleRegistry, cycles primary.CycleService, logger *log.Logger, eodHourUTC int) *Scheduler {
	return &Scheduler{
		registry:      registry,
		cycles:        cycles,
		logger:        logger,
		sweepInterval: DefaultSweepInterval,
		eodHourUTC:    eodHourUTC,
		nowFunc:       time.Now,
	}
}

// Run starts all timers and blocks until ctx is cancelled. Pending
// timers stop immediately on shutdown; in-flight cycles run to
// completion or hit their own timeout. Shutdown never rewrites streak
// records.
func (s *Scheduler) Run(ctx context.Context) error {
	agents := s.registry.All()
	s.logger.Printf("scheduler starting: %d agents, sweep every %s, end-of-day sweep at %02d:00 UTC",
		len(agents), s.sweepInterval, s.eodHourUTC)

	done := make(chan struct{})
	running := 0

	for _, sched := range agents {
		running++
		go func(sched *AgentSchedule) {
			defer func() { done <- struct{}{} }()
			s.runAgent(ctx, sched)
		}(sched)
	}

	running += 2
	go func() {
		defer func() { done <- struct{}{} }()
		s.runHourlySweep(ctx)
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		s.runEndOfDaySweep(ctx)
	}()

	<-ctx.Done()
	for i := 0; i < running; i++ {
		<-done
	}

	if waiter, ok := s.cycles.(*CycleServiceImpl); ok {
		waiter.WaitNotifications()
	}
	s.logger.Println("scheduler stopped")
	return ctx.Err()
}

// runAgent is the per-agent local-fire loop.
func (s *Scheduler) runAgent(ctx context.Context, sched *AgentSchedule) {
	for {
		now := s.nowFunc()
		fireAt := schedule.NextFire(now, sched.Location, sched.DropTime)
		timer := time.NewTimer(fireAt.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire(ctx, sched.ID, ctxutil.OriginLocalFire)
		}
	}
}

// runHourlySweep reconciles agents whose local-fire timer was missed
// (process restart, suspended host). Idempotent with the local fire.
func (s *Scheduler) runHourlySweep(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, ctxutil.OriginHourlySweep)
		}
	}
}

// runEndOfDaySweep forces the fallback chain for stragglers once a day
// at a fixed UTC hour.
func (s *Scheduler) runEndOfDaySweep(ctx context.Context) {
	for {
		now := s.nowFunc()
		fireAt := schedule.NextUTCHour(now, s.eodHourUTC)
		timer := time.NewTimer(fireAt.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.sweep(ctx, ctxutil.OriginEODSweep)
		}
	}
}

// fire runs one agent's cycle, recovering panics so the runner's timer
// survives.
func (s *Scheduler) fire(ctx context.Context, agentID, origin string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("agent %s: cycle panicked (%s): %v", agentID, origin, r)
		}
	}()

	cycleCtx := ctxutil.WithOrigin(ctx, origin)
	result, err := s.cycles.RunCycle(cycleCtx, agentID, s.nowFunc())
	if err != nil {
		s.logger.Printf("agent %s: cycle failed (%s): %v", agentID, origin, err)
		return
	}
	s.logCycle(result, origin)
}

// sweep runs cycles for the whole fleet.
func (s *Scheduler) sweep(ctx context.Context, origin string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("sweep panicked (%s): %v", origin, r)
		}
	}()

	sweepCtx := ctxutil.WithOrigin(ctx, origin)
	results, err := s.cycles.RunSweep(sweepCtx, s.nowFunc())
	if err != nil {
		s.logger.Printf("sweep failed (%s): %v", origin, err)
		return
	}
	for _, result := range results {
		s.logCycle(result, origin)
	}
}

func (s *Scheduler) logCycle(result *primary.CycleResult, origin string) {
	switch {
	case result.Err != nil && !result.Protected:
		s.logger.Printf("agent %s: cycle error (%s): %v", result.AgentID, origin, result.Err)
	case result.Protected:
		s.logger.Printf("agent %s: protection activated (%s)", result.AgentID, origin)
	case result.Skipped || result.AlreadyDropped:
		// Quiet paths; sweeps hit these constantly.
	case result.IsEmergency:
		s.logger.Printf("agent %s: EMERGENCY drop %s via %s (%s)", result.AgentID, result.DropID, result.Strategy, origin)
	default:
		s.logger.Printf("agent %s: drop %s via %s (%s)", result.AgentID, result.DropID, result.Strategy, origin)
	}
}

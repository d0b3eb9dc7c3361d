package primary

import (
	"context"
	"time"
)

// CycleService defines the primary port for one scheduling cycle:
// evaluate, generate through the fallback chain if a drop is due, and
// commit. The local-fire timer, both sweeps, and the manual generate
// command all drive this single entry point.
type CycleService interface {
	// RunCycle executes the evaluate/generate/commit sequence for one
	// agent. The sequence is a critical section per agent; concurrent
	// calls for the same agent serialize, and the loser observes the
	// winner's drop and becomes a no-op.
	RunCycle(ctx context.Context, agentID string, now time.Time) (*CycleResult, error)

	// RunSweep runs a cycle for every registered agent whose drop for
	// the current local day is missing. Agents run independently; one
	// failure does not stop the sweep.
	RunSweep(ctx context.Context, now time.Time) ([]*CycleResult, error)
}

// CycleResult reports what one scheduling cycle did for an agent.
type CycleResult struct {
	AgentID     string
	DropID      string
	Strategy    string
	IsEmergency bool

	// AlreadyDropped is set when a drop for today existed before the
	// cycle ran and nothing was generated.
	AlreadyDropped bool

	// Skipped is set when the agent's practice has not started yet and
	// no drop is expected.
	Skipped bool

	// Protected is set when generation failed completely and a
	// protection window was activated instead.
	Protected bool

	Err error
}

// FallbackService defines the primary port for the ordered generation
// strategy chain.
type FallbackService interface {
	// Run tries each strategy in priority order until one yields an
	// artifact. The terminal placeholder strategy has no external
	// dependency and always succeeds; an error from it is a hard
	// failure surfaced in the outcome.
	Run(ctx context.Context, agentID string) *Outcome
}

// Outcome is the result of one fallback chain invocation.
type Outcome struct {
	Success             bool
	DropID              string
	Strategy            string
	IsEmergency         bool
	ExhaustedStrategies []string
	Err                 error
}

// Generation strategy identifiers, in priority order.
const (
	StrategyAlternatePrompt = "alternate_prompt"
	StrategyDraftPool       = "draft_pool"
	StrategyBackupModel     = "backup_model"
	StrategyPlaceholder     = "placeholder"
)

// StrategyOrder is the fixed priority order of the fallback chain.
var StrategyOrder = []string{
	StrategyAlternatePrompt,
	StrategyDraftPool,
	StrategyBackupModel,
	StrategyPlaceholder,
}

// Package primary defines the primary ports (driving interfaces) for the application.
package primary

import (
	"context"
	"time"
)

// StreakService defines the primary port for streak operations.
// All streak mutations flow through this service so the record
// invariants hold regardless of which trigger drove the change.
type StreakService interface {
	// InitializePractice creates the streak record for a new agent.
	InitializePractice(ctx context.Context, agentID, practiceStartDate, cadence string) error

	// GetStreak retrieves the streak record for an agent.
	GetStreak(ctx context.Context, agentID string) (*AgentStreak, error)

	// Evaluate computes the streak status for an agent at now without
	// mutating anything.
	Evaluate(ctx context.Context, agentID string, now time.Time) (*StreakStatus, error)

	// CheckAll evaluates every registered agent at now.
	CheckAll(ctx context.Context, now time.Time) ([]*AgentCheck, error)

	// Commit records a successful drop for an agent at now. Committing
	// twice on the same local day is idempotent. Returns the updated
	// streak and whether the record changed.
	Commit(ctx context.Context, req CommitRequest) (*AgentStreak, bool, error)

	// ActivateProtection opens a protection window for an agent,
	// defaulting the duration when zero.
	ActivateProtection(ctx context.Context, agentID string, now time.Time, duration time.Duration) error

	// EmergencyRestore is the privileged operator path: it opens a
	// protection window and forcibly sets the current streak. Writes an
	// audit event with the supplied value.
	EmergencyRestore(ctx context.Context, agentID string, now time.Time, streakValue int) error
}

// CommitRequest carries one successful drop into the streak engine.
type CommitRequest struct {
	AgentID     string
	Now         time.Time
	DropID      string
	Strategy    string
	IsEmergency bool
}

// AgentStreak represents a streak record at the port boundary.
type AgentStreak struct {
	AgentID             string
	CurrentStreak       int
	LongestStreak       int
	LastDropDate        string
	TotalDrops          int
	ProtectionActive    bool
	ProtectionExpiresAt string
	PracticeStartDate   string
	Cadence             string
}

// StreakStatus is the non-mutating evaluation result for one agent.
type StreakStatus struct {
	CurrentStreak   int
	LongestStreak   int
	Intact          bool
	NeedsProtection bool
	DaysUntilBreak  int
}

// AgentCheck pairs an agent with its evaluated status for reports.
// Err is set when the agent could not be evaluated (bad config or
// corrupt record); the rest of the fleet is still checked.
type AgentCheck struct {
	AgentID string
	Status  *StreakStatus
	Err     error
}

// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// StreakRepository defines the secondary port for streak persistence.
// It is the only shared mutable resource in the system; all mutations
// flow through the streak engine's commit and protection operations.
type StreakRepository interface {
	// Initialize creates the streak record for a newly registered
	// practice. Initializing an agent that already has a record is an
	// error.
	Initialize(ctx context.Context, agentID, practiceStartDate, cadence string) error

	// Get retrieves the streak record for an agent.
	Get(ctx context.Context, agentID string) (*StreakRecord, error)

	// Put writes the record if its stored version still equals
	// expectedVersion, bumping the version. Returns ErrConflict on a
	// version mismatch.
	Put(ctx context.Context, record *StreakRecord, expectedVersion int) error

	// List retrieves all streak records ordered by agent ID.
	List(ctx context.Context) ([]*StreakRecord, error)
}

// StreakRecord represents an agent's streak state as stored in persistence.
// Dates are local calendar days ("2006-01-02"); timestamps are RFC3339.
type StreakRecord struct {
	AgentID             string
	CurrentStreak       int
	LongestStreak       int
	LastDropDate        string
	TotalDrops          int
	ProtectionActive    bool
	ProtectionExpiresAt string
	PracticeStartDate   string
	Cadence             string
	Version             int
	CreatedAt           string
	UpdatedAt           string
}

// DropRepository defines the secondary port for drop persistence.
// Drops are append-only; rows are never updated or deleted.
type DropRepository interface {
	// Create persists a new drop. Returns ErrDuplicateDrop when a drop
	// for the same agent and local day already exists.
	Create(ctx context.Context, drop *DropRecord) error

	// GetByAgentDay retrieves the drop for an agent on a local day.
	// Returns (nil, nil) when no drop exists; absence is not an error.
	GetByAgentDay(ctx context.Context, agentID, localDay string) (*DropRecord, error)

	// ListByAgent retrieves the most recent drops for an agent, newest
	// first, up to limit (0 means no limit).
	ListByAgent(ctx context.Context, agentID string, limit int) ([]*DropRecord, error)
}

// DropRecord represents one recorded unit of daily output.
type DropRecord struct {
	ID          string
	AgentID     string
	LocalDay    string
	CreatedAt   string
	IsEmergency bool
	Strategy    string
}

// DraftRepository defines the secondary port for the pre-generated
// draft pool consumed by the draft-pool fallback strategy.
type DraftRepository interface {
	// Add persists a new unused draft.
	Add(ctx context.Context, draft *DraftRecord) error

	// ClaimNext atomically marks the oldest unused draft for the agent
	// as used and returns it. Returns (nil, nil) when the pool is empty.
	ClaimNext(ctx context.Context, agentID string) (*DraftRecord, error)

	// List retrieves drafts for an agent, oldest first.
	List(ctx context.Context, agentID string, includeUsed bool) ([]*DraftRecord, error)
}

// DraftRecord represents a pre-generated draft in the pool.
type DraftRecord struct {
	ID        string
	AgentID   string
	Content   string
	Used      bool
	UsedAt    string
	CreatedAt string
}

// EventWriter defines the secondary port for the durable audit trail.
// Implementations extract the trigger origin from the context.
type EventWriter interface {
	// Write records an audit event for an agent. Event writing is
	// best-effort for callers on hot paths; they log and continue on
	// error rather than failing the cycle.
	Write(ctx context.Context, agentID, kind, detail string) error
}

// Audit event kinds.
const (
	EventDropCommitted       = "drop_committed"
	EventEmergencyDrop       = "emergency_drop"
	EventProtectionActivated = "protection_activated"
	EventEmergencyRestore    = "emergency_restore"
	EventGenerationExhausted = "generation_exhausted"
	EventNotifyFailed        = "notify_failed"
	EventPracticeInitialized = "practice_initialized"
)

// EventRecord represents one audit event as stored in persistence.
type EventRecord struct {
	ID        string
	AgentID   string
	Kind      string
	Origin    string
	Detail    string
	CreatedAt string
}

// EventRepository defines the read side of the audit trail.
type EventRepository interface {
	EventWriter

	// List retrieves the most recent events, newest first, up to limit.
	// agentID filters when non-empty.
	List(ctx context.Context, agentID string, limit int) ([]*EventRecord, error)
}

// Generator defines the secondary port for the external generation
// pipeline. Strategy names the generation approach to attempt.
type Generator interface {
	// Generate attempts to produce an artifact for the agent using the
	// given strategy. Returns the artifact ID on success, or
	// ErrNotAvailable when the strategy yields nothing.
	Generate(ctx context.Context, agentID, strategy string) (string, error)
}

// Notifier defines the secondary port for subscriber fan-out.
// Delivery is at-least-once best-effort; failures are logged by the
// caller and never block or fail the scheduling path.
type Notifier interface {
	Notify(ctx context.Context, agentID, dropID string) error
}

package primary

import "context"

// AuditService defines the primary port for the read-only audit
// surfaces: drop history and the event log.
type AuditService interface {
	// ListDrops retrieves the most recent drops for an agent, newest
	// first, up to limit (0 means no limit).
	ListDrops(ctx context.Context, agentID string, limit int) ([]*Drop, error)

	// ListEvents retrieves the most recent audit events, newest first.
	// agentID filters when non-empty.
	ListEvents(ctx context.Context, agentID string, limit int) ([]*Event, error)
}

// Drop represents a drop record at the port boundary.
type Drop struct {
	ID          string
	AgentID     string
	LocalDay    string
	CreatedAt   string
	IsEmergency bool
	Strategy    string
}

// Event represents an audit event at the port boundary.
type Event struct {
	ID        string
	AgentID   string
	Kind      string
	Origin    string
	Detail    string
	CreatedAt string
}

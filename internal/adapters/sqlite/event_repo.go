package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/example/cadence/internal/ctxutil"
	"github.com/example/cadence/internal/ports/secondary"
)

// EventRepository implements secondary.EventRepository using SQLite.
// It extracts the trigger origin from the context so every audit row
// records which path (timer, sweep, operator) drove the change.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Write records an audit event for an agent.
func (r *EventRepository) Write(ctx context.Context, agentID, kind, detail string) error {
	origin := ctxutil.OriginFromContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339)

	query := `INSERT INTO events (id, agent_id, kind, origin, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), agentID, kind, origin, detail, now)
	return err
}

// List retrieves the most recent events, newest first.
func (r *EventRepository) List(ctx context.Context, agentID string, limit int) ([]*secondary.EventRecord, error) {
	query := `SELECT id, agent_id, kind, origin, detail, created_at FROM events`
	args := []interface{}{}

	if agentID != "" {
		query += " WHERE agent_id = ?"
		args = append(args, agentID)
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		var ev secondary.EventRecord
		if err := rows.Scan(&ev.ID, &ev.AgentID, &ev.Kind, &ev.Origin, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// Ensure EventRepository implements the interface.
var _ secondary.EventRepository = (*EventRepository)(nil)

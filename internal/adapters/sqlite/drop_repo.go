package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/cadence/internal/ports/secondary"
)

// DropRepository implements secondary.DropRepository using SQLite.
// The UNIQUE(agent_id, local_day) index makes same-day duplication
// structurally impossible regardless of caller behavior.
type DropRepository struct {
	db *sql.DB
}

// NewDropRepository creates a new DropRepository.
func NewDropRepository(db *sql.DB) *DropRepository {
	return &DropRepository{db: db}
}

// Create persists a new drop.
func (r *DropRepository) Create(ctx context.Context, drop *secondary.DropRecord) error {
	query := `INSERT INTO drops (id, agent_id, local_day, created_at, is_emergency, strategy)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		drop.ID,
		drop.AgentID,
		drop.LocalDay,
		drop.CreatedAt,
		drop.IsEmergency,
		drop.Strategy,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("drop for %s on %s: %w", drop.AgentID, drop.LocalDay, secondary.ErrDuplicateDrop)
		}
		return err
	}
	return nil
}

// GetByAgentDay retrieves the drop for an agent on a local day.
// No drop is not an error.
func (r *DropRepository) GetByAgentDay(ctx context.Context, agentID, localDay string) (*secondary.DropRecord, error) {
	query := `SELECT id, agent_id, local_day, created_at, is_emergency, strategy
		FROM drops WHERE agent_id = ? AND local_day = ?`

	var drop secondary.DropRecord
	err := r.db.QueryRowContext(ctx, query, agentID, localDay).Scan(
		&drop.ID,
		&drop.AgentID,
		&drop.LocalDay,
		&drop.CreatedAt,
		&drop.IsEmergency,
		&drop.Strategy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &drop, nil
}

// ListByAgent retrieves the most recent drops for an agent, newest first.
func (r *DropRepository) ListByAgent(ctx context.Context, agentID string, limit int) ([]*secondary.DropRecord, error) {
	query := `SELECT id, agent_id, local_day, created_at, is_emergency, strategy
		FROM drops WHERE agent_id = ? ORDER BY local_day DESC`
	args := []interface{}{agentID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drops []*secondary.DropRecord
	for rows.Next() {
		var drop secondary.DropRecord
		if err := rows.Scan(
			&drop.ID,
			&drop.AgentID,
			&drop.LocalDay,
			&drop.CreatedAt,
			&drop.IsEmergency,
			&drop.Strategy,
		); err != nil {
			return nil, err
		}
		drops = append(drops, &drop)
	}
	return drops, rows.Err()
}

// Ensure DropRepository implements the interface.
var _ secondary.DropRepository = (*DropRepository)(nil)

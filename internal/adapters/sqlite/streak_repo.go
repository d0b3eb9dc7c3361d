// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/cadence/internal/ports/secondary"
)

// StreakRepository implements secondary.StreakRepository using SQLite.
type StreakRepository struct {
	db *sql.DB
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(db *sql.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

const streakColumns = `agent_id, current_streak, longest_streak, last_drop_date, total_drops,
	protection_active, protection_expires_at, practice_start_date, cadence, version, created_at, updated_at`

// Initialize creates the streak record for a newly registered practice.
func (r *StreakRepository) Initialize(ctx context.Context, agentID, practiceStartDate, cadence string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	query := `INSERT INTO streaks (agent_id, practice_start_date, cadence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, agentID, practiceStartDate, cadence, now, now)
	if err != nil {
		return fmt.Errorf("failed to initialize streak for %s: %w", agentID, err)
	}
	return nil
}

// Get retrieves the streak record for an agent.
func (r *StreakRepository) Get(ctx context.Context, agentID string) (*secondary.StreakRecord, error) {
	query := `SELECT ` + streakColumns + ` FROM streaks WHERE agent_id = ?`

	rec, err := r.scanStreak(r.db.QueryRowContext(ctx, query, agentID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("streak for %s: %w", agentID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Put writes the record if its stored version still equals expectedVersion.
func (r *StreakRepository) Put(ctx context.Context, record *secondary.StreakRecord, expectedVersion int) error {
	now := time.Now().UTC().Format(time.RFC3339)

	query := `UPDATE streaks SET current_streak = ?, longest_streak = ?, last_drop_date = ?,
		total_drops = ?, protection_active = ?, protection_expires_at = ?,
		practice_start_date = ?, cadence = ?, version = version + 1, updated_at = ?
		WHERE agent_id = ? AND version = ?`

	var lastDrop, expiresAt interface{}
	if record.LastDropDate != "" {
		lastDrop = record.LastDropDate
	}
	if record.ProtectionExpiresAt != "" {
		expiresAt = record.ProtectionExpiresAt
	}

	result, err := r.db.ExecContext(ctx, query,
		record.CurrentStreak,
		record.LongestStreak,
		lastDrop,
		record.TotalDrops,
		record.ProtectionActive,
		expiresAt,
		record.PracticeStartDate,
		record.Cadence,
		now,
		record.AgentID,
		expectedVersion,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either the agent is unknown or the version moved underneath us.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM streaks WHERE agent_id = ?)`, record.AgentID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("streak for %s: %w", record.AgentID, secondary.ErrNotFound)
		}
		return fmt.Errorf("streak for %s at version %d: %w", record.AgentID, expectedVersion, secondary.ErrConflict)
	}

	record.Version = expectedVersion + 1
	record.UpdatedAt = now
	return nil
}

// List retrieves all streak records ordered by agent ID.
func (r *StreakRepository) List(ctx context.Context) ([]*secondary.StreakRecord, error) {
	query := `SELECT ` + streakColumns + ` FROM streaks ORDER BY agent_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*secondary.StreakRecord
	for rows.Next() {
		rec, err := r.scanStreak(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *StreakRepository) scanStreak(row scanner) (*secondary.StreakRecord, error) {
	var rec secondary.StreakRecord
	var lastDrop, expiresAt sql.NullString

	err := row.Scan(
		&rec.AgentID,
		&rec.CurrentStreak,
		&rec.LongestStreak,
		&lastDrop,
		&rec.TotalDrops,
		&rec.ProtectionActive,
		&expiresAt,
		&rec.PracticeStartDate,
		&rec.Cadence,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.LastDropDate = lastDrop.String
	rec.ProtectionExpiresAt = expiresAt.String

	return &rec, nil
}

// Ensure StreakRepository implements the interface.
var _ secondary.StreakRepository = (*StreakRepository)(nil)

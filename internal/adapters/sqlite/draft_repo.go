package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/cadence/internal/ports/secondary"
)

// DraftRepository implements secondary.DraftRepository using SQLite.
type DraftRepository struct {
	db *sql.DB
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Add persists a new unused draft.
func (r *DraftRepository) Add(ctx context.Context, draft *secondary.DraftRecord) error {
	if draft.CreatedAt == "" {
		draft.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	query := `INSERT INTO drafts (id, agent_id, content, used, created_at) VALUES (?, ?, ?, 0, ?)`
	_, err := r.db.ExecContext(ctx, query, draft.ID, draft.AgentID, draft.Content, draft.CreatedAt)
	return err
}

// ClaimNext atomically marks the oldest unused draft for the agent as
// used and returns it. The conditional UPDATE guards against two
// claimants selecting the same draft; the loser just retries the
// selection until the pool is empty.
func (r *DraftRepository) ClaimNext(ctx context.Context, agentID string) (*secondary.DraftRecord, error) {
	for {
		var draft secondary.DraftRecord
		query := `SELECT id, agent_id, content, created_at FROM drafts
			WHERE agent_id = ? AND used = 0 ORDER BY created_at, id LIMIT 1`

		err := r.db.QueryRowContext(ctx, query, agentID).Scan(
			&draft.ID,
			&draft.AgentID,
			&draft.Content,
			&draft.CreatedAt,
		)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		usedAt := time.Now().UTC().Format(time.RFC3339)
		result, err := r.db.ExecContext(ctx,
			`UPDATE drafts SET used = 1, used_at = ? WHERE id = ? AND used = 0`, usedAt, draft.ID)
		if err != nil {
			return nil, err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			// Lost the race for this draft; try the next one.
			continue
		}

		draft.Used = true
		draft.UsedAt = usedAt
		return &draft, nil
	}
}

// List retrieves drafts for an agent, oldest first.
func (r *DraftRepository) List(ctx context.Context, agentID string, includeUsed bool) ([]*secondary.DraftRecord, error) {
	query := `SELECT id, agent_id, content, used, used_at, created_at FROM drafts WHERE agent_id = ?`
	if !includeUsed {
		query += " AND used = 0"
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []*secondary.DraftRecord
	for rows.Next() {
		var draft secondary.DraftRecord
		var usedAt sql.NullString
		if err := rows.Scan(
			&draft.ID,
			&draft.AgentID,
			&draft.Content,
			&draft.Used,
			&usedAt,
			&draft.CreatedAt,
		); err != nil {
			return nil, err
		}
		draft.UsedAt = usedAt.String
		drafts = append(drafts, &draft)
	}
	return drafts, rows.Err()
}

// Ensure DraftRepository implements the interface.
var _ secondary.DraftRepository = (*DraftRepository)(nil)

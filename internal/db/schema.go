package db

// SchemaSQL is the complete schema for fresh cadence installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All
// repository tests load it via GetSchemaSQL() so test schemas cannot
// drift from production: a repository referencing a missing column
// fails immediately with "no such column".
//
// When adding columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Streaks (one row per agent, mutated only through the streak engine)
CREATE TABLE IF NOT EXISTS streaks (
	agent_id TEXT PRIMARY KEY,
	current_streak INTEGER NOT NULL DEFAULT 0 CHECK(current_streak >= 0),
	longest_streak INTEGER NOT NULL DEFAULT 0 CHECK(longest_streak >= current_streak),
	last_drop_date TEXT,
	total_drops INTEGER NOT NULL DEFAULT 0 CHECK(total_drops >= 0),
	protection_active INTEGER NOT NULL DEFAULT 0,
	protection_expires_at TEXT,
	practice_start_date TEXT NOT NULL,
	cadence TEXT NOT NULL CHECK(cadence IN ('daily')) DEFAULT 'daily',
	version INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Drops (append-only; one per agent per local day)
CREATE TABLE IF NOT EXISTS drops (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	local_day TEXT NOT NULL,
	created_at TEXT NOT NULL,
	is_emergency INTEGER NOT NULL DEFAULT 0,
	strategy TEXT NOT NULL DEFAULT '',
	UNIQUE(agent_id, local_day)
);

CREATE INDEX IF NOT EXISTS idx_drops_agent ON drops(agent_id, created_at);

-- Drafts (pre-generated pool for the draft-pool fallback strategy)
CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	content TEXT NOT NULL,
	used INTEGER NOT NULL DEFAULT 0,
	used_at TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_drafts_agent_unused ON drafts(agent_id, used, created_at);

-- Events (durable audit trail)
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	origin TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent_id, created_at);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`

// maxMigrationVersion must match the highest version in migrations.go.
const maxMigrationVersion = 2

// InitSchema creates the database schema
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Completely fresh install - create modern schema directly and
		// mark all migrations as applied so they never run.
		if _, err = db.Exec(SchemaSQL); err != nil {
			return err
		}
		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}
		for i := 1; i <= maxMigrationVersion; i++ {
			if _, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", i); err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}

package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_streaks_drops_events_schema",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_strategy_column_to_drops",
		Up:      migrationV2,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations() error {
	db, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	// Create schema_version table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Get current schema version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Run pending migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Name)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(db); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 creates the initial streaks/drops/drafts/events tables.
func migrationV1(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS streaks (
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
		)`,
		`CREATE TABLE IF NOT EXISTS drops (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			local_day TEXT NOT NULL,
			created_at TEXT NOT NULL,
			is_emergency INTEGER NOT NULL DEFAULT 0,
			UNIQUE(agent_id, local_day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drops_agent ON drops(agent_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			content TEXT NOT NULL,
			used INTEGER NOT NULL DEFAULT 0,
			used_at TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_agent_unused ON drafts(agent_id, used, created_at)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrationV2 records which strategy produced each drop.
func migrationV2(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE drops ADD COLUMN strategy TEXT NOT NULL DEFAULT ''`)
	return err
}

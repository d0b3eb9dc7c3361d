// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema, preventing drift between test and production.
// Do not hardcode CREATE TABLE statements in test files.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/cadence/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedStreak inserts a streak row for an agent and returns the agent ID.
func seedStreak(t *testing.T, db *sql.DB, agentID string) string {
	t.Helper()
	if agentID == "" {
		agentID = "abraham"
	}
	_, err := db.Exec(
		"INSERT INTO streaks (agent_id, practice_start_date, cadence) VALUES (?, '2025-01-01', 'daily')",
		agentID,
	)
	if err != nil {
		t.Fatalf("failed to seed streak: %v", err)
	}
	return agentID
}

// seedDraft inserts an unused draft for an agent and returns its ID.
func seedDraft(t *testing.T, db *sql.DB, id, agentID, content string) string {
	t.Helper()
	if id == "" {
		id = "DRAFT-001"
	}
	if agentID == "" {
		agentID = "abraham"
	}
	if content == "" {
		content = "draft content"
	}
	_, err := db.Exec(
		"INSERT INTO drafts (id, agent_id, content, used) VALUES (?, ?, ?, 0)",
		id, agentID, content,
	)
	if err != nil {
		t.Fatalf("failed to seed draft: %v", err)
	}
	return id
}

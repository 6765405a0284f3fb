// Package db provides SQLite database access for Roost.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/roostchat/roost/internal/logging"
)

// DB wraps the SQL connection pool together with a component logger.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

const defaultBusyTimeoutMs = 5000

// Open opens (or creates) the SQLite database at path and applies migrations.
// busyTimeoutMs falls back to 5000 when zero or negative.
func Open(ctx context.Context, path string, busyTimeoutMs int) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if busyTimeoutMs <= 0 {
		busyTimeoutMs = defaultBusyTimeoutMs
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path, busyTimeoutMs)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent use.
	conn.SetMaxOpenConns(1)

	database := &DB{
		DB:     conn,
		logger: logging.Component("db"),
	}

	if err := database.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return database, nil
}

// OpenInMemory opens an in-memory database. Used by tests.
func OpenInMemory(ctx context.Context) (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	database := &DB{
		DB:     conn,
		logger: logging.Component("db"),
	}

	if err := database.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return database, nil
}

// schema is applied on open. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		guid          TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		is_pinned     INTEGER NOT NULL DEFAULT 0,
		pin_index     INTEGER NOT NULL DEFAULT 0,
		is_group      INTEGER NOT NULL DEFAULT 0,
		is_favorite   INTEGER NOT NULL DEFAULT 0,
		is_archived   INTEGER NOT NULL DEFAULT 0,
		is_blocked    INTEGER NOT NULL DEFAULT 0,
		is_muted      INTEGER NOT NULL DEFAULT 0,
		unread_count  INTEGER NOT NULL DEFAULT 0,
		snoozed_until TEXT,
		last_activity TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_pinned
		ON conversations (is_pinned, pin_index)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_activity
		ON conversations (last_activity DESC, guid)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_category
		ON conversations (category)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Transaction runs fn inside a transaction, rolling back on error.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) an embedded SQLite database and applies its schema.
//
// Writers use BEGIN IMMEDIATE so that at most one read-check-write transaction
// runs at a time. The special path ":memory:" is limited to a single connection,
// since each connection would otherwise see its own empty database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "?") {
		return nil, fmt.Errorf("sqlite path must be a plain file path, got %q", path)
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := migrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// Timestamps are stored as INTEGER microseconds since the Unix epoch so that
// ordering and range comparisons are plain integer comparisons.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	role           TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
	api_key_prefix TEXT NOT NULL UNIQUE,
	api_key_hash   TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS resources (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reservations (
	id          TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL REFERENCES resources(id),
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	start_time  INTEGER NOT NULL,
	end_time    INTEGER NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_reservations_resource_window ON reservations(resource_id, start_time, end_time);
CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id);
CREATE INDEX IF NOT EXISTS idx_reservations_created ON reservations(created_at DESC, id DESC);
`

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, sqliteSchema)
	return err
}

// Package sqlite implements repository.CandidateRepository on an embedded
// SQLite database.
//
// DOCUMENTS IN A RELATIONAL FILE:
// Each candidate is stored as one JSON document in the `document` column,
// remarks included. A few fields (domain, branch, priority) are copied into
// real columns so that filtering and ordering can happen in SQL, but the
// document is the source of truth for every read.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without CGo and
// tests can run against ":memory:" databases anywhere Go runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/tracker.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
//
// SINGLE WRITER:
// The pool is capped at one open connection. SQLite allows only one writer at
// a time anyway, and with one connection every read-modify-write transaction
// on a candidate document runs to completion before the next one starts. It
// also keeps ":memory:" databases from splitting across connections, since
// each new connection to ":memory:" would otherwise see an empty database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping forces a real connection so a bad path fails at startup,
	// not on the first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Ping verifies the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the candidates table.
//
// seq is an AUTOINCREMENT key so it never reuses a value: it records
// insertion order and breaks ties in List.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS candidates (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			domain     TEXT NOT NULL DEFAULT '',
			branch     TEXT NOT NULL DEFAULT '',
			priority   REAL,
			document   TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_candidates_domain ON candidates(domain);
		CREATE INDEX IF NOT EXISTS idx_candidates_order ON candidates(priority, branch);
	`)
	if err != nil {
		return fmt.Errorf("creating candidates table: %w", err)
	}
	return nil
}

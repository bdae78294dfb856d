// Package store implements chronicle's persistence engine: a SQLite
// content store for posts and resources paired with an append-only,
// hash-chained commit log. Every mutation runs in one transaction that
// changes the content rows and appends exactly one commit, so the two
// can never observably diverge.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Store is a SQLite-backed Storage implementation.
//
// A Store owns its database handle exclusively. All transactions are
// serialized through an internal mutex so that reading the chain tail
// and appending the next commit are atomic with respect to every other
// writer on the same store.
type Store struct {
	db *sql.DB

	// mu serializes transactions. SQLite allows a single writer anyway;
	// holding the lock across read-tail-then-append keeps the commit
	// chain strictly linear.
	mu sync.Mutex

	// now supplies commit and post timestamps. Replaced in tests for
	// deterministic chains.
	now func() int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the store's time source. The function must return
// Unix seconds in UTC and be monotonic non-decreasing.
func WithClock(now func() int64) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates or opens a SQLite database at the given path and applies
// the required pragmas and schema. It is idempotent: opening an existing
// database leaves its contents untouched.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement (drives cascade delete)
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Single connection: avoids SQLITE_BUSY and makes the mutex above
	// the only ordering authority.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{
		db:  db,
		now: func() int64 { return time.Now().UTC().Unix() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// dbtx is the common query surface of *sql.DB and *sql.Tx. Row-level
// helpers take it so the facade can run them inside a transaction and
// read paths can run them directly on the connection.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Package sqlitedb implements the link queries on SQLite. Local files and
// :memory: go through modernc.org/sqlite; libsql:// and wss:// URLs go to a
// remote libSQL server.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		token            TEXT NOT NULL CONSTRAINT links_token_unique UNIQUE,
		target_url       TEXT NOT NULL CHECK (target_url <> ''),
		click_count      INTEGER NOT NULL DEFAULT 0 CHECK (click_count >= 0),
		created_at       INTEGER NOT NULL,
		updated_at       INTEGER NOT NULL,
		last_accessed_at INTEGER,
		CHECK (token <> '')
	)`,
	`CREATE INDEX IF NOT EXISTS links_owner_created_idx ON links (owner_id, created_at DESC, id DESC)`,
}

type Queries struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to dsn, applies the schema and returns ready queries.
func Open(ctx context.Context, dsn string) (*Queries, error) {
	driver, source := driverFor(dsn)

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// One connection keeps :memory: databases shared and serialises writers.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return New(conn), nil
}

// New wraps an already migrated database handle.
func New(conn *sql.DB) *Queries {
	return &Queries{db: conn, now: time.Now}
}

// Close releases the underlying database handle.
func (q *Queries) Close() error { return q.db.Close() }

// Ping checks the database is reachable.
func (q *Queries) Ping(ctx context.Context) error { return q.db.PingContext(ctx) }

func driverFor(dsn string) (driver, source string) {
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") ||
		strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "http://") {
		return "libsql", dsn
	}
	if dsn == "" || dsn == ":memory:" {
		return "sqlite", ":memory:"
	}
	if strings.Contains(dsn, "_pragma=") {
		return "sqlite", dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return "sqlite", dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

package db

import (
	"fmt"

	"buckety-go/pkg/logger"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS local_cache (
	profile TEXT NOT NULL,
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (profile, key)
);

CREATE TABLE IF NOT EXISTS outbox_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	operation_id TEXT NOT NULL,
	operation_type TEXT NOT NULL,
	payload BLOB NOT NULL,
	state TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	next_attempt_at INTEGER NOT NULL,
	last_error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outbox_entries_state ON outbox_entries (state, id);
`

// NewSQLite opens the process-local cache database and creates its tables.
// The pure-Go driver serialises writers, so the pool holds one connection.
func NewSQLite(path string, log logger.Logger) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			log.Warn("sqlite pragma failed", "pragma", pragma, "error", err)
		}
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	log.Info("sqlite cache opened", "path", path)
	return conn, nil
}

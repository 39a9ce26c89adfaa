package localstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLiteStore persists profiles in the local_cache table so the projection
// survives restarts.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, profile, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM local_cache WHERE profile = ? AND key = ?`, profile, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, profile, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_cache (profile, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (profile, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, profile, key, value, time.Now().UTC())
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, profile, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_cache WHERE profile = ? AND key = ?`, profile, key)
	return err
}

func (s *SQLiteStore) Keys(ctx context.Context, profile string) ([]string, error) {
	keys := make([]string, 0)
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM local_cache WHERE profile = ? ORDER BY key`, profile); err != nil {
		return nil, err
	}
	return keys, nil
}

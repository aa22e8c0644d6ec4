package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var _ KV = (*SQLiteStore)(nil)

// SQLiteStore keeps the namespace in a single-table SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSQLiteStore] open")
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS console_kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[NewSQLiteStore] create table")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM console_kv WHERE key = ?
	`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "[SQLiteStore.Get] %s", key)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO console_kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "[SQLiteStore.Set] %s", key)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM console_kv WHERE key = ?`, key)
	if err != nil {
		return errors.Wrapf(err, "[SQLiteStore.Delete] %s", key)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

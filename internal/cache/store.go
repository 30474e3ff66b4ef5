package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps raw backend payloads in SQLite, keyed by request.
type Store struct {
	sql *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS payloads (
  key        TEXT PRIMARY KEY,
  body       BLOB NOT NULL,
  fetched_at INTEGER NOT NULL
);`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{sql: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Get returns the payload stored under key and when it was fetched. ok is
// false when there is no entry.
func (s *Store) Get(ctx context.Context, key string) (body []byte, fetchedAt time.Time, ok bool, err error) {
	var nanos int64
	err = s.sql.QueryRowContext(ctx, "SELECT body, fetched_at FROM payloads WHERE key = ?", key).Scan(&body, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return body, time.Unix(0, nanos).UTC(), true, nil
}

// Put stores or replaces the payload under key.
func (s *Store) Put(ctx context.Context, key string, body []byte, fetchedAt time.Time) error {
	_, err := s.sql.ExecContext(ctx, `INSERT INTO payloads(key, body, fetched_at) VALUES(?,?,?)
ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, body, fetchedAt.UnixNano())
	return err
}

// Invalidate drops every entry and reports how many were removed.
func (s *Store) Invalidate(ctx context.Context) (int64, error) {
	res, err := s.sql.ExecContext(ctx, "DELETE FROM payloads")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Len returns the number of stored payloads.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM payloads").Scan(&n)
	return n, err
}

package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/brieflet/newsbrief-go/internal/errs"
)

// SQLiteStore is a Store backed by a local SQLite database. Each blob is one
// row keyed by name; Put is an upsert so writes are atomic per key.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the blob database.
// It resolves to ~/.newsbrief/blobs.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("blob: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".newsbrief")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("blob: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "blobs.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("blob: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS blobs (
    key         TEXT    PRIMARY KEY,
    data        BLOB    NOT NULL,
    updated_at  INTEGER NOT NULL  -- Unix timestamp (milliseconds)
);
CREATE INDEX IF NOT EXISTS idx_blobs_updated ON blobs (updated_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("blob: migrate: %w", err)
	}
	return nil
}

// Put stores data under key, replacing any existing blob.
func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	const q = `INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, ?)
               ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, key, data, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("blob: put %s: %w", key, err)
	}
	return nil
}

// Get returns the blob stored under key, or errs.ErrNotFound if absent.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT data FROM blobs WHERE key = ?`
	var data []byte
	err := s.db.QueryRowContext(ctx, q, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob: get %s: %w", key, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("blob: get %s: %w", key, err)
	}
	return data, nil
}

// List returns all keys with the given prefix, ordered oldest-first.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	const q = `SELECT key FROM blobs WHERE key LIKE ? ESCAPE '\' ORDER BY updated_at ASC, key ASC`
	rows, err := s.db.QueryContext(ctx, q, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("blob: list %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("blob: list scan: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blob: list rows: %w", err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("blob: close: %w", err)
	}
	return nil
}

// escapeLike escapes SQL LIKE metacharacters in a literal prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

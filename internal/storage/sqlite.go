package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite is a Backend backed by the kv table of a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at dbPath and applies pending migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps the CAS update and its
	// follow-up read on the same connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// DB exposes the connection pool so the attachment store can share the file.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

func (s *SQLite) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT value, revision FROM kv WHERE key = ?`, key,
	).Scan(&e.Value, &e.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %q: %w", key, err)
	}
	return e, nil
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte, expected uint64) (uint64, error) {
	if expected == NoRevision {
		return s.create(ctx, key, value)
	}

	next := expected + 1
	res, err := s.db.ExecContext(ctx,
		`UPDATE kv SET value = ?, revision = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE key = ? AND revision = ?`,
		value, next, key, expected)
	if err != nil {
		return 0, fmt.Errorf("put %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("put %q: %w", key, err)
	}
	if n == 0 {
		current, err := revision(ctx, s.db, key)
		if err != nil {
			return 0, err
		}
		return current, ErrConflict
	}
	return next, nil
}

// create inserts a key that must not exist. A key that was deleted resumes
// counting from its tombstone so old revisions never become valid again.
func (s *SQLite) create(ctx context.Context, key string, value []byte) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("put %q: begin: %w", key, err)
	}
	defer tx.Rollback()

	var floor uint64
	err = tx.QueryRowContext(ctx, `SELECT revision FROM kv_tombstones WHERE key = ?`, key).Scan(&floor)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("put %q: tombstone: %w", key, err)
	}

	next := floor + 1
	res, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, revision) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING`,
		key, value, next)
	if err != nil {
		return 0, fmt.Errorf("put %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("put %q: %w", key, err)
	}
	if n == 0 {
		current, err := revision(ctx, tx, key)
		if err != nil {
			return 0, err
		}
		return current, ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM kv_tombstones WHERE key = ?`, key); err != nil {
		return 0, fmt.Errorf("put %q: clear tombstone: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("put %q: commit: %w", key, err)
	}
	return next, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func revision(ctx context.Context, q queryer, key string) (uint64, error) {
	var rev uint64
	err := q.QueryRowContext(ctx, `SELECT revision FROM kv WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return NoRevision, nil
	}
	if err != nil {
		return 0, fmt.Errorf("revision %q: %w", key, err)
	}
	return rev, nil
}

// Delete removes key and records its last revision as a tombstone.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete %q: begin: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv_tombstones (key, revision)
		 SELECT key, revision FROM kv WHERE key = ?
		 ON CONFLICT(key) DO UPDATE SET revision = excluded.revision`, key); err != nil {
		return fmt.Errorf("delete %q: tombstone: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete %q: commit: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

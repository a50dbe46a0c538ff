package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLite stores objects in the blobs table created by the storage migrations.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Put(ctx context.Context, id string, content []byte, contentType string) (Object, error) {
	if err := validateID(id); err != nil {
		return Object{}, err
	}
	obj := Object{ID: id, ContentType: DetectContentType(content, contentType), Data: content}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (id, name, mime_type, size, data) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET mime_type = excluded.mime_type, size = excluded.size, data = excluded.data`,
		id, id, obj.ContentType, obj.Size(), content)
	if err != nil {
		return Object{}, fmt.Errorf("write blob %s: %w", id, err)
	}
	return obj, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Object, error) {
	obj := Object{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT mime_type, data FROM blobs WHERE id = ?`, id,
	).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("read blob %s: %w", id, err)
	}
	return obj, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

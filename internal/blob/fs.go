package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FS keeps one file per object in a directory, plus a "<id>.meta" JSON
// sidecar holding the content type.
type FS struct {
	dir string
}

type fsMeta struct {
	ContentType string `json:"contentType"`
}

func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &FS{dir: dir}, nil
}

func (s *FS) Put(ctx context.Context, id string, content []byte, contentType string) (Object, error) {
	if err := validateID(id); err != nil {
		return Object{}, err
	}
	obj := Object{ID: id, ContentType: DetectContentType(content, contentType), Data: content}

	meta, err := json.Marshal(fsMeta{ContentType: obj.ContentType})
	if err != nil {
		return Object{}, fmt.Errorf("encode meta: %w", err)
	}
	if err := writeAtomic(s.path(id), content); err != nil {
		return Object{}, fmt.Errorf("write blob %s: %w", id, err)
	}
	if err := writeAtomic(s.path(id)+".meta", meta); err != nil {
		return Object{}, fmt.Errorf("write blob meta %s: %w", id, err)
	}
	return obj, nil
}

func (s *FS) Get(ctx context.Context, id string) (Object, error) {
	if err := validateID(id); err != nil {
		return Object{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("read blob %s: %w", id, err)
	}

	obj := Object{ID: id, Data: data}
	var meta fsMeta
	if raw, err := os.ReadFile(s.path(id) + ".meta"); err == nil && json.Unmarshal(raw, &meta) == nil {
		obj.ContentType = meta.ContentType
	}
	if obj.ContentType == "" {
		obj.ContentType = DetectContentType(data, "")
	}
	return obj, nil
}

func (s *FS) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	for _, p := range []string{s.path(id), s.path(id) + ".meta"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete blob %s: %w", id, err)
		}
	}
	return nil
}

func (s *FS) path(id string) string {
	return filepath.Join(s.dir, id)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

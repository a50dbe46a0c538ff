// Package store keeps the three bill collections (bills, bill types and
// settings) as JSON documents in a storage.Backend.
//
// Writes are read-modify-write cycles. A mutex serialises writers inside one
// process; across processes the backend revision acts as a compare-and-swap,
// and a conflicting write is retried from a fresh read up to maxAttempts
// times. Two writers can therefore no longer lose each other's updates on
// backends that track revisions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bills/internal/core"
	"bills/internal/storage"
)

// Keys under which the collections are persisted. Backups restore to the same keys.
const (
	KeyBills     = "bills"
	KeyBillTypes = "billTypes"
	KeySettings  = "appSettings"
)

const maxAttempts = 3

var (
	// ErrCorrupt wraps decode failures of a stored collection.
	ErrCorrupt = errors.New("stored data is corrupt")
	// ErrNotFound is returned when a single bill or type is looked up by an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when concurrent writers kept winning every retry.
	ErrConflict = errors.New("concurrent modification")
)

// ValidationError reports a rejected entity. It unwraps to the core sentinel.
type ValidationError struct {
	Entity string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Entity, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Store is safe for concurrent use.
type Store struct {
	backend storage.Backend
	mu      sync.Mutex
}

func New(backend storage.Backend) *Store {
	return &Store{backend: backend}
}

// load decodes key into out. It reports false when the key is absent.
func (s *Store) load(ctx context.Context, key string, out any) (uint64, bool, error) {
	entry, err := s.backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.NoRevision, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(entry.Value, out); err != nil {
		return 0, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return entry.Revision, true, nil
}

// mutate runs a read-modify-write cycle on key. read fills the current value
// and returns its revision; apply returns the value to persist, or nil to skip
// the write.
func (s *Store) mutate(ctx context.Context, key string, read func() (uint64, error), apply func() (any, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rev, err := read()
		if err != nil {
			return err
		}
		next, err := apply()
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		raw, err := marshal(key, next)
		if err != nil {
			return err
		}
		_, err = s.backend.Put(ctx, key, raw, rev)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("write %s: %w", key, err)
		}
		slog.WarnContext(ctx, "Concurrent write detected, retrying",
			"key", key,
			"attempt", attempt)
	}
	return fmt.Errorf("write %s: %w", key, ErrConflict)
}

// overwrite stores value regardless of the current revision.
func (s *Store) overwrite(ctx context.Context, key string, value any) error {
	return s.mutate(ctx, key,
		func() (uint64, error) { return s.revision(ctx, key) },
		func() (any, error) { return value, nil },
	)
}

func (s *Store) revision(ctx context.Context, key string) (uint64, error) {
	entry, err := s.backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.NoRevision, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return entry.Revision, nil
}

// ClearAll deletes every collection. The next read falls back to seed data.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range []string{KeyBills, KeyBillTypes, KeySettings} {
		if err := s.backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Restore replaces all three collections. Callers validate the data first.
func (s *Store) Restore(ctx context.Context, bills []core.Bill, types []core.BillType, settings core.AppSettings) error {
	if err := s.SaveBills(ctx, bills); err != nil {
		return err
	}
	if err := s.SaveBillTypes(ctx, types); err != nil {
		return err
	}
	return s.SaveSettings(ctx, settings)
}

func marshal(key string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return raw, nil
}

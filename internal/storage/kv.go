// Package storage provides revisioned key-value backends for the bill collections.
//
// Every key carries a monotonically increasing revision. Put takes the
// revision the caller last observed and fails with ErrConflict when another
// writer got there first, so read-modify-write cycles can be retried instead
// of silently overwriting each other. Deleting a key leaves a tombstone with
// its last revision, and a re-created key continues from there, so a revision
// read before the delete can never match again.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key has never been written or was deleted.
	ErrNotFound = errors.New("storage: key not found")
	// ErrConflict is returned by Put when the stored revision differs from the expected one.
	ErrConflict = errors.New("storage: revision conflict")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage: backend closed")
)

// NoRevision is the expected revision for a key that must not exist yet.
const NoRevision uint64 = 0

// Entry is a stored value together with its revision.
type Entry struct {
	Value    []byte
	Revision uint64
}

// Backend is a durable string-keyed store of opaque values.
type Backend interface {
	// Get returns the current entry for key or ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)
	// Put stores value if the current revision equals expected and returns the new revision.
	Put(ctx context.Context, key string, value []byte, expected uint64) (uint64, error)
	// Delete removes key, keeping its revision as a tombstone. Deleting a
	// missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

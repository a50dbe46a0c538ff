package backend

import (
	"context"

	"bills/internal/blob"
	"bills/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the opened backends and the function that closes them
type BackendResult struct {
	Storage storage.Backend
	Blobs   blob.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the storage and blob backends named by config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Storage StorageType
	Blobs   BlobType

	BoltDBPath   string
	SQLiteDBPath string
	BlobDir      string
	S3           blob.S3Config
}

// StorageType selects where the bill collections live
type StorageType string

const (
	MemoryStorage StorageType = "memory"
	BoltStorage   StorageType = "bolt"
	SQLiteStorage StorageType = "sqlite"
)

// String implements fmt.Stringer
func (t StorageType) String() string {
	return string(t)
}

// IsValid returns true if the storage type is valid
func (t StorageType) IsValid() bool {
	switch t {
	case MemoryStorage, BoltStorage, SQLiteStorage:
		return true
	default:
		return false
	}
}

// BlobType selects where attachment bytes live
type BlobType string

const (
	FSBlobs     BlobType = "fs"
	BoltBlobs   BlobType = "bolt"
	SQLiteBlobs BlobType = "sqlite"
	S3Blobs     BlobType = "s3"
)

func (t BlobType) String() string {
	return string(t)
}

func (t BlobType) IsValid() bool {
	switch t {
	case FSBlobs, BoltBlobs, SQLiteBlobs, S3Blobs:
		return true
	default:
		return false
	}
}

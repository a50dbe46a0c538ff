package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bills/internal/blob"
	"bills/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	kv, err := f.createStorage(ctx, config)
	if err != nil {
		return nil, err
	}

	blobs, err := f.createBlobs(config, kv)
	if err != nil {
		kv.Close()
		return nil, err
	}

	f.logger.Info("Initialized backends",
		"storage", config.Storage,
		"blobs", config.Blobs)

	return &BackendResult{
		Storage: kv,
		Blobs:   blobs,
		Cleanup: kv.Close,
	}, nil
}

func (f *DefaultFactory) createStorage(ctx context.Context, config Config) (storage.Backend, error) {
	switch config.Storage {
	case MemoryStorage:
		f.logger.Warn("Using in-memory storage, data is lost on exit")
		return storage.NewMemory(), nil
	case BoltStorage:
		db, err := storage.NewBolt(ctx, config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt storage: %w", err)
		}
		f.logger.Info("Opened bolt storage", "db_path", config.BoltDBPath)
		return db, nil
	case SQLiteStorage:
		db, err := storage.NewSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		f.logger.Info("Opened SQLite storage", "db_path", config.SQLiteDBPath)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Storage)
	}
}

// createBlobs opens the blob store. The bolt and sqlite variants reuse the
// database handle of kv, since bbolt allows one open handle per file.
func (f *DefaultFactory) createBlobs(config Config, kv storage.Backend) (blob.Store, error) {
	switch config.Blobs {
	case FSBlobs:
		s, err := blob.NewFS(config.BlobDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize fs blobs: %w", err)
		}
		return s, nil
	case BoltBlobs:
		b, ok := kv.(*storage.Bolt)
		if !ok {
			return nil, fmt.Errorf("bolt blobs need bolt storage")
		}
		s, err := blob.NewBolt(b.DB())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt blobs: %w", err)
		}
		return s, nil
	case SQLiteBlobs:
		db, ok := kv.(*storage.SQLite)
		if !ok {
			return nil, fmt.Errorf("sqlite blobs need sqlite storage")
		}
		return blob.NewSQLite(db.DB()), nil
	case S3Blobs:
		s, err := blob.NewS3(config.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 blobs: %w", err)
		}
		f.logger.Info("Using S3 blobs", "bucket", config.S3.Bucket, "endpoint", config.S3.Endpoint)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported blob type: %s", config.Blobs)
	}
}

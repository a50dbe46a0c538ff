package backend

import (
	"fmt"

	"bills/internal/blob"
	"bills/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Storage:      StorageType(appConfig.StorageBackend),
		Blobs:        BlobType(appConfig.BlobBackend),
		BoltDBPath:   appConfig.BoltDBPath,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		BlobDir:      appConfig.BlobDir,
		S3: blob.S3Config{
			Endpoint:        appConfig.S3Endpoint,
			Region:          appConfig.S3Region,
			Bucket:          appConfig.S3Bucket,
			Prefix:          appConfig.S3Prefix,
			AccessKeyID:     appConfig.S3AccessKeyID,
			AccessKeySecret: appConfig.S3SecretAccessKey,
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Storage.IsValid() {
		return fmt.Errorf("invalid storage type %q: must be one of %v", c.Storage, GetStorageTypes())
	}
	if !c.Blobs.IsValid() {
		return fmt.Errorf("invalid blob type %q: must be one of %v", c.Blobs, GetBlobTypes())
	}

	switch c.Storage {
	case BoltStorage:
		if c.BoltDBPath == "" {
			return fmt.Errorf("bolt database path is required for bolt storage")
		}
	case SQLiteStorage:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite storage")
		}
	}

	switch c.Blobs {
	case FSBlobs:
		if c.BlobDir == "" {
			return fmt.Errorf("blob directory is required for fs blobs")
		}
	case BoltBlobs:
		if c.Storage != BoltStorage {
			return fmt.Errorf("bolt blobs share the bolt database and need bolt storage, got %s", c.Storage)
		}
	case SQLiteBlobs:
		if c.Storage != SQLiteStorage {
			return fmt.Errorf("sqlite blobs share the SQLite database and need sqlite storage, got %s", c.Storage)
		}
	case S3Blobs:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 blobs")
		}
	}

	return nil
}

// GetStorageTypes returns all valid storage types
func GetStorageTypes() []StorageType {
	return []StorageType{MemoryStorage, BoltStorage, SQLiteStorage}
}

// GetBlobTypes returns all valid blob types
func GetBlobTypes() []BlobType {
	return []BlobType{FSBlobs, BoltBlobs, SQLiteBlobs, S3Blobs}
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type Config struct {
	// HTTP Server
	Port string

	// Key-value storage for the bill collections
	StorageBackend string
	BoltDBPath     string
	SQLiteDBPath   string

	// Attachment bytes
	BlobBackend       string
	BlobDir           string
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3Prefix          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// AMQP (optional; empty URL disables remote backup requests)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Drive
	GoogleDriveEnabled     bool
	GoogleOAuthClientFile  string
	GoogleOAuthClientJSON  string
	GoogleOAuthTokenFile   string
	GoogleOAuthRedirectURL string

	// Worker
	BackupInterval time.Duration

	// HTTP
	RateLimitPerMinute int
	FileCacheSize      int
	FileCacheTTL       time.Duration

	// Views
	CollationLocale string

	// Logging
	LogLevel string
}

var (
	storageBackends = []string{"memory", "bolt", "sqlite"}
	blobBackends    = []string{"fs", "bolt", "sqlite", "s3"}
	logLevels       = []string{"debug", "info", "warn", "warning", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		StorageBackend: getEnv("STORAGE_BACKEND", "bolt"),
		BoltDBPath:     getEnv("BOLT_DB_PATH", "./data/bills.db"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/bills.sqlite"),

		BlobBackend:       getEnv("BLOB_BACKEND", "fs"),
		BlobDir:           getEnv("BLOB_DIR", "./data/files"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", "bills/"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bills"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "backup_requests"),

		GoogleDriveEnabled:     getEnvBool("GOOGLE_DRIVE_ENABLED", false),
		GoogleOAuthClientFile:  getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthClientJSON:  getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenFile:   getEnv("GOOGLE_OAUTH_TOKEN_FILE", "./data/drive-token.json"),
		GoogleOAuthRedirectURL: getEnv("GOOGLE_OAUTH_REDIRECT_URL", "http://localhost:8081/api/drive/callback"),

		BackupInterval: getEnvDuration("BACKUP_INTERVAL", 0),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		FileCacheSize:      getEnvInt("FILE_CACHE_SIZE", 100),
		FileCacheTTL:       getEnvDuration("FILE_CACHE_TTL", 5*time.Minute),

		CollationLocale: getEnv("COLLATION_LOCALE", "und"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate storage backend
	if !slices.Contains(storageBackends, c.StorageBackend) {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, storageBackends))
	}
	switch c.StorageBackend {
	case "bolt":
		errors = append(errors, checkFilePath("bolt database", c.BoltDBPath)...)
	case "sqlite":
		errors = append(errors, checkFilePath("SQLite database", c.SQLiteDBPath)...)
	}

	// Validate blob backend
	if !slices.Contains(blobBackends, c.BlobBackend) {
		errors = append(errors, fmt.Sprintf("invalid blob backend '%s': must be one of %v", c.BlobBackend, blobBackends))
	}
	switch c.BlobBackend {
	case "fs":
		if c.BlobDir == "" {
			errors = append(errors, "blob directory cannot be empty when using fs blob backend")
		}
	case "bolt", "sqlite":
		// These share the storage database file.
		if c.StorageBackend != c.BlobBackend {
			errors = append(errors, fmt.Sprintf("%s blob backend requires the %s storage backend, got '%s'", c.BlobBackend, c.BlobBackend, c.StorageBackend))
		}
	case "s3":
		if c.S3Bucket == "" {
			errors = append(errors, "S3 bucket is required when using s3 blob backend")
		}
		if c.S3Endpoint != "" {
			if u, err := url.Parse(c.S3Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				errors = append(errors, fmt.Sprintf("invalid S3 endpoint '%s': must be an http(s) URL", c.S3Endpoint))
			}
		}
		if c.S3AccessKeyID == "" || c.S3SecretAccessKey == "" {
			errors = append(errors, "S3 access key id and secret are required when using s3 blob backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Drive configuration if enabled
	if c.GoogleDriveEnabled {
		hasClientFile := c.GoogleOAuthClientFile != ""
		hasClientJSON := c.GoogleOAuthClientJSON != ""
		if !hasClientFile && !hasClientJSON {
			errors = append(errors, "either GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON must be provided when Google Drive is enabled")
		}
		if hasClientFile {
			if _, err := os.Stat(c.GoogleOAuthClientFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
			}
		}
		if c.GoogleOAuthTokenFile == "" {
			errors = append(errors, "GOOGLE_OAUTH_TOKEN_FILE cannot be empty when Google Drive is enabled")
		}
		if u, err := url.Parse(c.GoogleOAuthRedirectURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid Google OAuth redirect URL '%s'", c.GoogleOAuthRedirectURL))
		}
	}

	// Validate worker configuration
	if c.BackupInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must not be negative", c.BackupInterval))
	} else if c.BackupInterval > 0 && c.BackupInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be 0 (disabled) or at least 1 minute", c.BackupInterval))
	}

	// Validate HTTP limits
	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be between 1 and 10000 requests per minute", c.RateLimitPerMinute))
	}
	if c.FileCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid file cache size %d: must be at least 1", c.FileCacheSize))
	}
	if c.FileCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid file cache TTL %v: must be at least 1 second", c.FileCacheTTL))
	}

	if _, err := language.Parse(c.CollationLocale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid collation locale '%s': %v", c.CollationLocale, err))
	}

	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// checkFilePath requires path and makes sure its directory exists.
func checkFilePath(what, path string) []string {
	if path == "" {
		return []string{fmt.Sprintf("%s path cannot be empty", what)}
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return []string{fmt.Sprintf("cannot create %s directory '%s': %v", what, dir, err)}
		}
	}
	return nil
}

// DriveConfigured reports whether Drive is enabled and has client credentials.
func (c *Config) DriveConfigured() bool {
	return c.GoogleDriveEnabled && (c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != "")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

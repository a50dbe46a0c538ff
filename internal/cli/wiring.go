package cli

import (
	"context"
	"fmt"

	"bills/internal/backend"
	"bills/internal/config"
	"bills/internal/drive"
	applog "bills/internal/log"
)

// OpenBackend creates the key-value storage and blob store selected by cfg.
// Callers must run the returned Cleanup.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	logger.Info("Backend ready",
		"storage", bcfg.Storage.String(),
		"blobs", bcfg.Blobs.String())
	return res, nil
}

// NewDriveAdapter returns nil when Drive is disabled. Otherwise the adapter is
// initialized and any saved token is restored.
func NewDriveAdapter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*drive.Adapter, error) {
	if !cfg.GoogleDriveEnabled {
		logger.Info("Google Drive disabled")
		return nil, nil
	}
	adapter := drive.New(drive.Config{
		ClientJSON:  cfg.GoogleOAuthClientJSON,
		ClientFile:  cfg.GoogleOAuthClientFile,
		RedirectURL: cfg.GoogleOAuthRedirectURL,
		Tokens:      drive.FileTokenStore{Path: cfg.GoogleOAuthTokenFile},
	})
	if err := adapter.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize drive: %w", err)
	}
	return adapter, nil
}

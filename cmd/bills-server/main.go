package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bills/internal/amqp"
	"bills/internal/cache"
	"bills/internal/cli"
	apphttp "bills/internal/http"
	applog "bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/services"
	"bills/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("bills-server")
	cfg := cli.LoadAndValidateConfig(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	be, err := cli.OpenBackend(startCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err)
		os.Exit(1)
	}

	files := cache.NewBlobStore(be.Blobs, cfg.FileCacheSize, cfg.FileCacheTTL)
	caches := cache.NewManager()
	caches.Register(files.Cache())
	caches.StartCleanup(time.Minute)

	// The queue is optional; without it remote backup requests answer 503.
	var queue services.BackupPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, remote backups disabled", applog.FieldError, err)
		} else {
			queue = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	m := metrics.New()
	bills := services.NewBillService(store.New(be.Storage), files, queue, m)

	var driveService *services.DriveService
	adapter, err := cli.NewDriveAdapter(startCtx, cfg, logger)
	switch {
	case err != nil:
		logger.Warn("Google Drive unavailable", applog.FieldError, err)
	case adapter != nil:
		driveService = services.NewDriveService(bills, adapter)
		if err := bills.SetDriveConnected(startCtx, adapter.IsConnected()); err != nil {
			logger.Warn("Failed to record Drive state", applog.FieldError, err)
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Bills:              bills,
		Drive:              driveService,
		FileCache:          files,
		Metrics:            m,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CollationLocale:    cfg.CollationLocale,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	})

	logger.Info("Starting bills server",
		"port", cfg.Port,
		"storage", cfg.StorageBackend,
		"blobs", cfg.BlobBackend,
		"drive", driveService != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

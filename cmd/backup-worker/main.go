package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bills/internal/amqp"
	"bills/internal/cli"
	applog "bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/store"
	"bills/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting backup-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.GoogleDriveEnabled {
		logger.Error("backup-worker needs GOOGLE_DRIVE_ENABLED=true")
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// bbolt holds an exclusive file lock, so this only succeeds when the
	// server uses SQLite or is not running.
	be, err := cli.OpenBackend(startCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err, "storage", cfg.StorageBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()

	adapter, err := cli.NewDriveAdapter(startCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Drive", applog.FieldError, err)
		os.Exit(1)
	}
	if !adapter.IsConnected() {
		logger.Warn("Drive is not signed in; run drive-auth first. Backups will fail until then")
	}

	backupWorker := worker.NewBackupWorker(store.New(be.Storage), adapter, metrics.New())

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - only periodic backups will run")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if adapter.IsConnected() {
		logger.Info("Performing startup backup check...")
		if err := backupWorker.StartupBackupCheck(ctx); err != nil {
			logger.Error("Failed startup backup check", applog.FieldError, err)
		}
	}

	go backupWorker.RunPeriodic(ctx, cfg.BackupInterval)

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeBackupRequests(ctx, backupWorker.HandleBackupRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Backup worker stopped")
}

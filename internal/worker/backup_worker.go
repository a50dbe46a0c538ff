package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bills/internal/amqp"
	"bills/internal/backup"
	"bills/internal/core"
	"bills/internal/drive"
	"bills/internal/metrics"
)

// Uploader is the part of the Drive adapter the worker needs.
type Uploader interface {
	BackupData(ctx context.Context, data core.BackupData) (drive.File, error)
	ListBackups(ctx context.Context) ([]drive.File, error)
}

// BackupWorker snapshots the store and uploads it to Drive
type BackupWorker struct {
	source  backup.Source
	drive   Uploader
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewBackupWorker(source backup.Source, uploader Uploader, m *metrics.Metrics) *BackupWorker {
	return &BackupWorker{
		source:  source,
		drive:   uploader,
		metrics: m,
		now:     time.Now,
	}
}

// HandleBackupRequest processes a backup request from AMQP. Transient Drive
// failures are returned as-is so the message is requeued; everything else is
// marked permanent and dropped.
func (w *BackupWorker) HandleBackupRequest(ctx context.Context, msg *amqp.BackupRequestMessage) error {
	slog.InfoContext(ctx, "Processing backup request",
		"reason", msg.Reason,
		"requested_at", msg.RequestedAt)

	_, err := w.RunBackup(ctx, msg.Reason)
	if err == nil {
		return nil
	}
	if drive.IsTransient(err) {
		return err
	}
	return amqp.Permanent(err)
}

// RunBackup exports the current snapshot and uploads it.
func (w *BackupWorker) RunBackup(ctx context.Context, reason string) (drive.File, error) {
	data, err := backup.Export(ctx, w.source, w.now())
	if err != nil {
		w.metrics.Backup(metrics.TargetDrive, err)
		return drive.File{}, fmt.Errorf("export snapshot: %w", err)
	}

	file, err := w.drive.BackupData(ctx, data)
	w.metrics.Backup(metrics.TargetDrive, err)
	if err != nil {
		slog.ErrorContext(ctx, "Backup upload failed",
			"reason", reason,
			"transient", drive.IsTransient(err),
			"error", err)
		return drive.File{}, fmt.Errorf("upload backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup uploaded",
		"reason", reason,
		"drive_file_id", file.ID,
		"name", file.Name,
		"bills", len(data.Bills),
		"bill_types", len(data.BillTypes))
	return file, nil
}

// StartupBackupCheck uploads a backup when none exists for today. It covers
// scheduled runs missed while the worker was down.
func (w *BackupWorker) StartupBackupCheck(ctx context.Context) error {
	files, err := w.drive.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}

	today := drive.BackupName(w.now())
	for _, f := range files {
		if f.Name == today {
			slog.InfoContext(ctx, "Backup for today already present", "name", today, "drive_file_id", f.ID)
			return nil
		}
	}

	slog.InfoContext(ctx, "No backup for today, uploading one", "existing", len(files))
	_, err = w.RunBackup(ctx, amqp.ReasonScheduled)
	return err
}

// RunPeriodic uploads a backup every interval until ctx is done. A
// non-positive interval disables it.
func (w *BackupWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.InfoContext(ctx, "Periodic backups disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Periodic backups enabled", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunBackup(ctx, amqp.ReasonScheduled); err != nil {
				slog.ErrorContext(ctx, "Periodic backup failed", "error", err)
			}
		}
	}
}

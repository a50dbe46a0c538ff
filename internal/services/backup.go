package services

import (
	"context"
	"io"
	"log/slog"

	"bills/internal/backup"
	"bills/internal/core"
	"bills/internal/metrics"
)

// ExportBackup snapshots every collection for a local download.
func (s *BillService) ExportBackup(ctx context.Context) (core.BackupData, error) {
	data, err := backup.Export(ctx, s.store, s.now())
	s.metrics.Backup(metrics.TargetLocal, err)
	return data, err
}

// ImportBackup replaces every collection with the backup read from r. A
// document that fails validation leaves the store unchanged.
func (s *BillService) ImportBackup(ctx context.Context, r io.Reader) (core.BackupData, error) {
	data, err := backup.Import(ctx, s.store, r)
	s.metrics.Restore(metrics.TargetLocal, err)
	if err != nil {
		return core.BackupData{}, err
	}
	slog.InfoContext(ctx, "Backup imported",
		"bills", len(data.Bills),
		"bill_types", len(data.BillTypes),
		"exported_at", data.ExportedAt)
	return data, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"bills/internal/backup"
	"bills/internal/core"
	"bills/internal/drive"
	applog "bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/store"
)

// DriveClient is the subset of *drive.Adapter used by DriveService.
type DriveClient interface {
	AuthURL(state string) (string, error)
	SignIn(ctx context.Context, code string) error
	SignOut(ctx context.Context) error
	IsConnected() bool
	BackupData(ctx context.Context, data core.BackupData) (drive.File, error)
	RestoreData(ctx context.Context, id string) (core.BackupData, error)
	ListBackups(ctx context.Context) ([]drive.File, error)
	DeleteFile(ctx context.Context, id string) error
	UploadReceipt(ctx context.Context, billID string, file core.BillFile, content []byte) (drive.File, error)
}

// DriveStatus is what the UI needs to render the Drive panel.
type DriveStatus struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DriveService keeps the settings flag in step with the adapter's connection
// and moves snapshots between the store and Drive.
type DriveService struct {
	bills *BillService
	drive DriveClient
}

func NewDriveService(bills *BillService, client DriveClient) *DriveService {
	return &DriveService{bills: bills, drive: client}
}

func (s *DriveService) Status() DriveStatus {
	return DriveStatus{Enabled: true, Connected: s.drive.IsConnected()}
}

func (s *DriveService) AuthURL(state string) (string, error) {
	return s.drive.AuthURL(state)
}

// Connect finishes the OAuth flow with code and marks Drive as connected.
func (s *DriveService) Connect(ctx context.Context, code string) error {
	if err := s.drive.SignIn(ctx, code); err != nil {
		return err
	}
	if err := s.bills.SetDriveConnected(ctx, true); err != nil {
		return fmt.Errorf("record drive connection: %w", err)
	}
	slog.InfoContext(ctx, "Google Drive connected", applog.FieldComponent, applog.ComponentDrive)
	return nil
}

// Disconnect signs out and clears the connected flag.
func (s *DriveService) Disconnect(ctx context.Context) error {
	if err := s.drive.SignOut(ctx); err != nil {
		return err
	}
	if err := s.bills.SetDriveConnected(ctx, false); err != nil {
		return fmt.Errorf("record drive disconnection: %w", err)
	}
	slog.InfoContext(ctx, "Google Drive disconnected", applog.FieldComponent, applog.ComponentDrive)
	return nil
}

// BackupNow uploads the current snapshot synchronously.
func (s *DriveService) BackupNow(ctx context.Context) (drive.File, error) {
	data, err := backup.Export(ctx, s.bills.store, s.bills.now())
	if err != nil {
		return drive.File{}, fmt.Errorf("export snapshot: %w", err)
	}
	file, err := s.drive.BackupData(ctx, data)
	s.bills.metrics.Backup(metrics.TargetDrive, err)
	if err != nil {
		return drive.File{}, err
	}
	slog.InfoContext(ctx, "Backup uploaded to Drive",
		applog.FieldDriveFileID, file.ID,
		applog.FieldFileName, file.Name)
	return file, nil
}

// Restore downloads backup id and replaces every collection with it.
func (s *DriveService) Restore(ctx context.Context, id string) (core.BackupData, error) {
	data, err := s.drive.RestoreData(ctx, id)
	if err == nil {
		settings := core.DefaultSettings()
		if data.Settings != nil {
			settings = *data.Settings
		}
		err = s.bills.store.Restore(ctx, data.Bills, data.BillTypes, settings)
	}
	s.bills.metrics.Restore(metrics.TargetDrive, err)
	if err != nil {
		return core.BackupData{}, err
	}
	slog.InfoContext(ctx, "Backup restored from Drive",
		applog.FieldDriveFileID, id,
		"bills", len(data.Bills))
	return data, nil
}

func (s *DriveService) ListBackups(ctx context.Context) ([]drive.File, error) {
	return s.drive.ListBackups(ctx)
}

func (s *DriveService) DeleteBackup(ctx context.Context, id string) error {
	return s.drive.DeleteFile(ctx, id)
}

// UploadReceipt copies one attachment of bill billID to Drive.
func (s *DriveService) UploadReceipt(ctx context.Context, billID, fileID string) (drive.File, error) {
	bill, err := s.bills.Bill(ctx, billID)
	if err != nil {
		return drive.File{}, err
	}
	var meta *core.BillFile
	for i := range bill.Files {
		if bill.Files[i].ID == fileID {
			meta = &bill.Files[i]
			break
		}
	}
	if meta == nil {
		return drive.File{}, fmt.Errorf("file %s: %w", fileID, store.ErrNotFound)
	}
	obj, err := s.bills.File(ctx, fileID)
	if err != nil {
		return drive.File{}, fmt.Errorf("read file: %w", err)
	}
	return s.drive.UploadReceipt(ctx, billID, *meta, obj.Data)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bills/internal/core"
	"bills/internal/drive"
	"bills/internal/metrics"
	"bills/internal/store"
)

type fakeDrive struct {
	connected bool
	signInErr error
	uploaded  []core.BackupData
	receipts  map[string][]byte
	backups   map[string]core.BackupData
	deleted   []string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{receipts: map[string][]byte{}, backups: map[string]core.BackupData{}}
}

func (d *fakeDrive) AuthURL(state string) (string, error) {
	return "https://accounts.example/auth?state=" + state, nil
}

func (d *fakeDrive) SignIn(_ context.Context, code string) error {
	if d.signInErr != nil {
		return d.signInErr
	}
	d.connected = true
	return nil
}

func (d *fakeDrive) SignOut(context.Context) error {
	d.connected = false
	return nil
}

func (d *fakeDrive) IsConnected() bool { return d.connected }

func (d *fakeDrive) BackupData(_ context.Context, data core.BackupData) (drive.File, error) {
	if !d.connected {
		return drive.File{}, &drive.Error{Kind: drive.NotConnected, Op: "upload", Err: drive.ErrNotConnected}
	}
	d.uploaded = append(d.uploaded, data)
	return drive.File{ID: "backup-1", Name: drive.BackupName(data.ExportedAt)}, nil
}

func (d *fakeDrive) RestoreData(_ context.Context, id string) (core.BackupData, error) {
	data, ok := d.backups[id]
	if !ok {
		return core.BackupData{}, &drive.Error{Kind: drive.Rejected, Op: "download", Err: errors.New("404")}
	}
	return data, nil
}

func (d *fakeDrive) ListBackups(context.Context) ([]drive.File, error) {
	var files []drive.File
	for id := range d.backups {
		files = append(files, drive.File{ID: id})
	}
	return files, nil
}

func (d *fakeDrive) DeleteFile(_ context.Context, id string) error {
	d.deleted = append(d.deleted, id)
	return nil
}

func (d *fakeDrive) UploadReceipt(_ context.Context, billID string, file core.BillFile, content []byte) (drive.File, error) {
	name := "receipt_" + billID + "_" + file.Name
	d.receipts[name] = content
	return drive.File{ID: "r1", Name: name}, nil
}

func TestDriveService_ConnectAndDisconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	client := newFakeDrive()
	svc := NewDriveService(f.svc, client)

	url, err := svc.AuthURL("xyz")
	require.NoError(t, err)
	assert.Contains(t, url, "state=xyz")
	assert.False(t, svc.Status().Connected)

	require.NoError(t, svc.Connect(ctx, "code"))
	assert.True(t, svc.Status().Connected)
	settings, err := f.svc.Settings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings.GoogleDriveConnected)
	assert.True(t, *settings.GoogleDriveConnected)

	require.NoError(t, svc.Disconnect(ctx))
	settings, err = f.svc.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, *settings.GoogleDriveConnected)
}

func TestDriveService_FailedSignInLeavesFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	client := newFakeDrive()
	client.signInErr = &drive.Error{Kind: drive.NotConnected, Op: "sign in", Err: errors.New("invalid_grant")}
	svc := NewDriveService(f.svc, client)

	err := svc.Connect(ctx, "bad")
	assert.True(t, drive.IsNotConnected(err))

	settings, err := f.svc.Settings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings.GoogleDriveConnected)
}

func TestDriveService_BackupAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	client := newFakeDrive()
	svc := NewDriveService(f.svc, client)

	_, err := svc.BackupNow(ctx)
	assert.True(t, drive.IsNotConnected(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Backups.WithLabelValues(metrics.TargetDrive, metrics.ResultError)))

	require.NoError(t, svc.Connect(ctx, "code"))
	file, err := svc.BackupNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backup_2024-01-15.json", file.Name)
	require.Len(t, client.uploaded, 1)
	assert.Len(t, client.uploaded[0].Bills, 6)

	settings := core.DefaultSettings()
	settings.DefaultCurrency = "EUR"
	client.backups["b1"] = core.BackupData{
		Bills:     []core.Bill{core.SampleBills()[0]},
		BillTypes: core.DefaultBillTypes()[:1],
		Settings:  &settings,
	}

	data, err := svc.Restore(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, data.Bills, 1)

	bills, err := f.svc.Bills(ctx)
	require.NoError(t, err)
	assert.Len(t, bills, 1)
	stored, err := f.svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", stored.DefaultCurrency)

	_, err = svc.Restore(ctx, "missing")
	kind, ok := drive.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, drive.Rejected, kind)

	require.NoError(t, svc.DeleteBackup(ctx, "b1"))
	assert.Equal(t, []string{"b1"}, client.deleted)
}

func TestDriveService_UploadReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	client := newFakeDrive()
	svc := NewDriveService(f.svc, client)

	file, err := f.svc.AttachFile(ctx, "3", core.RoleReceipt, "paid.pdf", pdf, 0)
	require.NoError(t, err)

	uploaded, err := svc.UploadReceipt(ctx, "3", file.ID)
	require.NoError(t, err)
	assert.Equal(t, "receipt_3_"+file.Name, uploaded.Name)
	assert.Equal(t, pdf, client.receipts[uploaded.Name])

	_, err = svc.UploadReceipt(ctx, "3", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

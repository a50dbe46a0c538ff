package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bills/internal/blob"
	"bills/internal/cli"
	"bills/internal/core"
	"bills/internal/drive"
	"bills/internal/services"
	"bills/internal/storage"
	"bills/internal/store"
	"bills/internal/views"
)

type stubDrive struct {
	backups map[string]core.BackupData
}

func (d *stubDrive) AuthURL(string) (string, error) { return "", nil }
func (d *stubDrive) SignIn(context.Context, string) error { return nil }
func (d *stubDrive) SignOut(context.Context) error { return nil }
func (d *stubDrive) IsConnected() bool { return true }
func (d *stubDrive) DeleteFile(context.Context, string) error { return nil }

func (d *stubDrive) BackupData(_ context.Context, data core.BackupData) (drive.File, error) {
	name := drive.BackupName(data.ExportedAt)
	d.backups[name] = data
	return drive.File{ID: name, Name: name, Size: 2048}, nil
}

func (d *stubDrive) RestoreData(_ context.Context, id string) (core.BackupData, error) {
	return d.backups[id], nil
}

func (d *stubDrive) ListBackups(context.Context) ([]drive.File, error) {
	var files []drive.File
	for id := range d.backups {
		files = append(files, drive.File{ID: id, Name: id, Size: 2048})
	}
	return files, nil
}

func (d *stubDrive) UploadReceipt(context.Context, string, core.BillFile, []byte) (drive.File, error) {
	return drive.File{}, nil
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	a := &app{
		bills:   services.NewBillService(store.New(storage.NewMemory()), fs, nil, nil),
		grouper: views.NewGrouper("en"),
		out:     out,
		confirm: func(_, _ string) bool { return false },
		now:     func() time.Time { return time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC) },
	}
	return a, out
}

func TestParseArgs(t *testing.T) {
	a, _ := newTestApp(t)
	fs := a.flagSet("attach")
	receipt := fs.Bool("receipt", false, "")

	positional, err := parseArgs(fs, []string{"1", "--receipt", "scan.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "scan.pdf"}, positional)
	assert.True(t, *receipt)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	require.NoError(t, a.dispatch(ctx, "list", nil))
	text := out.String()
	assert.Contains(t, text, "Utilities (1)")
	assert.Contains(t, text, "Monthly Rent")
	assert.Contains(t, text, "pending (past due)")
	assert.Contains(t, text, "6 of 6 bills")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "list", []string{"--type", "4", "--limit", "1"}))
	assert.Contains(t, out.String(), "... 1 more (use --more 4)")
	assert.Contains(t, out.String(), "2 of 6 bills")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "list", []string{"--type", "4", "--limit", "1", "--more", "4"}))
	assert.Contains(t, out.String(), "Netflix Subscription")
	assert.Contains(t, out.String(), "Annual Software License")
	assert.NotContains(t, out.String(), "more (use")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "list", []string{"--search", "nothing-matches"}))
	assert.Contains(t, out.String(), "No bills found.")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "list", []string{"--status", "PAID", "--periodicity", "Monthly"}))
	assert.Contains(t, out.String(), "Electricity Bill")
	assert.Contains(t, out.String(), "1 of 6 bills")

	assert.Error(t, a.dispatch(ctx, "list", []string{"--status", "lost"}))
	assert.Error(t, a.dispatch(ctx, "list", []string{"--from", "yesterday"}))
}

func TestAddPayDuplicateDelete(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	err := a.dispatch(ctx, "add", []string{"--title", "Water", "--amount", "42,50", "--type", "1", "--due", "2024-03-10"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "(Water, 2024-03)")

	bills, err := a.bills.Bills(ctx)
	require.NoError(t, err)
	var id string
	for _, b := range bills {
		if b.Title == "Water" {
			id = b.ID
		}
	}
	require.NotEmpty(t, id)

	require.NoError(t, a.dispatch(ctx, "pay", []string{id}))
	bill, err := a.bills.Bill(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, bill.Status)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "duplicate", []string{id}))
	assert.Contains(t, out.String(), "Water - Copie")

	require.NoError(t, a.dispatch(ctx, "delete", []string{id}))
	_, err = a.bills.Bill(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Error(t, a.dispatch(ctx, "add", []string{"--title", "x", "--amount", "-1", "--type", "1"}))
	assert.Error(t, a.dispatch(ctx, "add", []string{"--title", "x", "--amount", "1", "--type", "99"}))
	assert.ErrorIs(t, a.dispatch(ctx, "pay", []string{"missing"}), store.ErrNotFound)
	assert.Error(t, a.dispatch(ctx, "pay", nil))
}

func TestTypesAndStats(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	require.NoError(t, a.dispatch(ctx, "types", nil))
	assert.Contains(t, out.String(), "Insurance")
	assert.Contains(t, out.String(), "quarterly")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "stats", nil))
	assert.Contains(t, out.String(), "Bills")
	assert.Contains(t, out.String(), "Subscriptions")
}

func TestAttach(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0600))

	require.NoError(t, a.dispatch(ctx, "attach", []string{"4", path, "--receipt"}))
	assert.Contains(t, out.String(), "Subscriptions_2024-01_receipt_Netflix Subscription_")

	bill, err := a.bills.Bill(ctx, "4")
	require.NoError(t, err)
	require.Len(t, bill.Files, 1)
	assert.Equal(t, core.RoleReceipt, bill.Files[0].Role)

	assert.Error(t, a.dispatch(ctx, "attach", []string{"4"}))
	assert.Error(t, a.dispatch(ctx, "attach", []string{"4", filepath.Join(t.TempDir(), "missing.pdf")}))
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, a.dispatch(ctx, "export", []string{path}))
	assert.Contains(t, out.String(), "Exported 6 bills and 5 types")

	require.NoError(t, a.dispatch(ctx, "delete", []string{"1"}))
	require.NoError(t, a.dispatch(ctx, "import", []string{path}))
	_, err := a.bills.Bill(ctx, "1")
	assert.NoError(t, err)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "export", []string{"-"}))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out.String()), "{"))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"bills":[]}`), 0600))
	assert.Error(t, a.dispatch(ctx, "import", []string{bad}))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t)

	require.NoError(t, a.dispatch(ctx, "add", []string{"--title", "Gas", "--amount", "10", "--type", "1"}))

	for _, answers := range []string{"", "no\n", "yes\n", "yes\nno\n", "y\nyes\n"} {
		a.confirm = func(first, second string) bool {
			return cli.ConfirmTwiceFrom(strings.NewReader(answers), io.Discard, first, second)
		}
		assert.ErrorIs(t, a.dispatch(ctx, "clear", nil), errAborted, "answers %q", answers)
	}
	bills, err := a.bills.Bills(ctx)
	require.NoError(t, err)
	assert.Len(t, bills, 7)

	assert.Error(t, a.dispatch(ctx, "clear", []string{"--force"}), "no flag skips the confirmations")

	var asked []string
	a.confirm = func(first, second string) bool {
		asked = append(asked, first, second)
		return cli.ConfirmTwiceFrom(strings.NewReader("yes\nYES\n"), io.Discard, first, second)
	}
	require.NoError(t, a.dispatch(ctx, "clear", nil))
	assert.Len(t, asked, 2)
	bills, err = a.bills.Bills(ctx)
	require.NoError(t, err)
	// A cleared store starts over from the sample data.
	assert.Len(t, bills, 6)
}

func TestDriveCommands(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	require.NoError(t, a.dispatch(ctx, "drive-status", nil))
	assert.Contains(t, out.String(), "disabled")
	assert.ErrorIs(t, a.dispatch(ctx, "drive-backup", nil), errDriveDisabled)

	a.drive = services.NewDriveService(a.bills, &stubDrive{backups: map[string]core.BackupData{}})

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "drive-status", nil))
	assert.Contains(t, out.String(), "connected")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "drive-backup", nil))
	assert.Contains(t, out.String(), "Uploaded ")
	assert.Contains(t, out.String(), "2.0 kB")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "drive-list", nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[1])[0]

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "drive-restore", []string{id}))
	assert.Contains(t, out.String(), "Restored 6 bills and 5 types")
}

func TestUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t)
	assert.ErrorIs(t, a.dispatch(context.Background(), "frobnicate", nil), errUnknownCommand)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"bills/internal/backup"
	"bills/internal/core"
	"bills/internal/services"
	"bills/internal/views"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errAborted        = errors.New("aborted")
	errDriveDisabled  = errors.New("Google Drive is disabled; set GOOGLE_DRIVE_ENABLED=true")
)

// app holds what the commands share. drive is nil when Drive is disabled.
type app struct {
	bills   *services.BillService
	drive   *services.DriveService
	grouper views.Grouper
	out     io.Writer
	confirm func(first, second string) bool
	now     func() time.Time
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: bills [--version] <command> [args]

Bills:
  list [--search s] [--status s] [--type id] [--periodicity p] [--from date --to date] [--limit n] [--more typeId]...
  stats
  add --title t --amount n --type id [--due date] [--currency c] [--status s] [--periodicity p]
  pay <id>
  duplicate <id>
  delete <id>
  types
  attach <id> <path> [--receipt]

Data:
  export [file|-]
  import <file>
  clear  (asks for confirmation twice)

Google Drive:
  drive-status
  drive-backup
  drive-list
  drive-restore <id>
`)
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "list":
		return a.runList(ctx, args)
	case "stats":
		return a.runStats(ctx)
	case "add":
		return a.runAdd(ctx, args)
	case "pay":
		return a.runPay(ctx, args)
	case "duplicate":
		return a.runDuplicate(ctx, args)
	case "delete":
		return a.runDelete(ctx, args)
	case "types":
		return a.runTypes(ctx)
	case "attach":
		return a.runAttach(ctx, args)
	case "export":
		return a.runExport(ctx, args)
	case "import":
		return a.runImport(ctx, args)
	case "clear":
		return a.runClear(ctx, args)
	case "drive-status":
		return a.runDriveStatus()
	case "drive-backup":
		return a.runDriveBackup(ctx)
	case "drive-list":
		return a.runDriveList(ctx)
	case "drive-restore":
		return a.runDriveRestore(ctx, args)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

// parseArgs parses flags that may appear before, between or after
// positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func oneID(command string, positional []string) (string, error) {
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		return "", fmt.Errorf("usage: bills %s <id>", command)
	}
	return positional[0], nil
}

func (a *app) runList(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	var f views.Filter
	var from, to string
	fs.StringVar(&f.Search, "search", "", "match titles containing text")
	fs.StringVar(&f.Status, "status", "", "pending, paid, overdue or cancelled")
	fs.StringVar(&f.BillTypeID, "type", "", "bill type id")
	fs.StringVar(&f.Periodicity, "periodicity", "", "periodicity")
	fs.StringVar(&from, "from", "", "earliest due date (YYYY-MM-DD)")
	fs.StringVar(&to, "to", "", "latest due date (YYYY-MM-DD)")
	limit := fs.Int("limit", views.PageSize, "bills shown per type")
	var more []string
	fs.Func("more", "show another page of a bill type (repeatable)", func(id string) error {
		if id = strings.TrimSpace(id); id == "" {
			return errors.New("needs a bill type id")
		}
		more = append(more, id)
		return nil
	})
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	f, err := f.Normalize()
	if err != nil {
		return err
	}
	if f.StartDate, err = core.ParseDate(from); err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	if f.EndDate, err = core.ParseDate(to); err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if *limit < 1 {
		return errors.New("--limit must be positive")
	}

	bills, err := a.bills.Bills(ctx)
	if err != nil {
		return err
	}
	types, err := a.bills.BillTypes(ctx)
	if err != nil {
		return err
	}

	matched := f.Apply(bills)
	if len(matched) == 0 {
		fmt.Fprintln(a.out, "No bills found.")
		return nil
	}

	now := a.now()
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())
	pager := views.NewPager(*limit)
	for _, id := range more {
		pager.LoadMore(id)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, g := range a.grouper.Group(matched, types) {
		page, hidden := pager.Visible(g)
		fmt.Fprintf(tw, "%s (%d)\n", g.Type.Name, len(g.Bills))
		for _, b := range page.Bills {
			status := string(b.Status)
			if b.IsPastDue(today) {
				status += " (past due)"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s %s\t%s\t%s\t%s\t%d file(s)\n",
				b.ID, b.Title, b.Amount, b.Currency, b.DueDate, status, b.Period, len(b.Files))
		}
		if hidden > 0 {
			fmt.Fprintf(tw, "  ... %d more (use --more %s)\n", hidden, g.Type.ID)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%d of %d bills\n", len(matched), len(bills))
	return nil
}

func (a *app) runStats(ctx context.Context) error {
	bills, err := a.bills.Bills(ctx)
	if err != nil {
		return err
	}
	types, err := a.bills.BillTypes(ctx)
	if err != nil {
		return err
	}
	st := views.ComputeStats(bills, types)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Bills\t%d\n", st.TotalBills)
	fmt.Fprintf(tw, "Paid\t%d\t%s\n", st.PaidBills, st.PaidAmount)
	fmt.Fprintf(tw, "Pending\t%d\t%s\n", st.PendingBills, st.PendingAmount)
	fmt.Fprintf(tw, "Overdue\t%d\n", st.OverdueBills)
	fmt.Fprintf(tw, "Total\t\t%s\n", st.TotalAmount)
	fmt.Fprintln(tw)
	for _, t := range st.ByType {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Type.Name, t.Count, t.TotalAmount)
	}
	return tw.Flush()
}

func (a *app) runAdd(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	title := fs.String("title", "", "bill title")
	amount := fs.String("amount", "", "amount, dot or comma decimals")
	typeID := fs.String("type", "", "bill type id (see: bills types)")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	currency := fs.String("currency", "", "currency code, defaults to the settings")
	status := fs.String("status", "", "initial status, defaults to pending")
	periodicity := fs.String("periodicity", "", "periodicity, defaults to the type's")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	in := services.BillInput{
		Title:      *title,
		Currency:   strings.ToUpper(strings.TrimSpace(*currency)),
		BillTypeID: *typeID,
	}
	var err error
	if in.Amount, err = core.ParseAmount(*amount); err != nil {
		return fmt.Errorf("--amount: %w", err)
	}
	if in.DueDate, err = core.ParseDate(*due); err != nil {
		return fmt.Errorf("--due: %w", err)
	}
	if *status != "" {
		if in.Status, err = core.ParseStatus(*status); err != nil {
			return err
		}
	}
	if *periodicity != "" {
		if in.Periodicity, err = core.ParsePeriodicity(*periodicity); err != nil {
			return err
		}
	}

	bill, err := a.bills.CreateBill(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created bill %s (%s, %s)\n", bill.ID, bill.Title, bill.Period)
	return nil
}

func (a *app) runPay(ctx context.Context, args []string) error {
	id, err := oneID("pay", args)
	if err != nil {
		return err
	}
	bill, err := a.bills.SetStatus(ctx, id, core.StatusPaid)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Marked %q as paid\n", bill.Title)
	return nil
}

func (a *app) runDuplicate(ctx context.Context, args []string) error {
	id, err := oneID("duplicate", args)
	if err != nil {
		return err
	}
	bill, err := a.bills.DuplicateBill(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created bill %s (%s)\n", bill.ID, bill.Title)
	return nil
}

func (a *app) runDelete(ctx context.Context, args []string) error {
	id, err := oneID("delete", args)
	if err != nil {
		return err
	}
	if err := a.bills.DeleteBill(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted bill %s\n", id)
	return nil
}

func (a *app) runTypes(ctx context.Context) error {
	types, err := a.bills.BillTypes(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tPERIODICITY")
	for _, t := range types {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Color, t.PeriodicityOrDefault())
	}
	return tw.Flush()
}

func (a *app) runAttach(ctx context.Context, args []string) error {
	fs := a.flagSet("attach")
	receipt := fs.Bool("receipt", false, "attach as a payment receipt")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return errors.New("usage: bills attach <id> <path> [--receipt]")
	}
	id, path := positional[0], positional[1]

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	role := core.RoleBill
	if *receipt {
		role = core.RoleReceipt
	}
	file, err := a.bills.AttachFile(ctx, id, role, filepath.Base(path), content, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Attached %s (%s, %s)\n", file.Name, core.FormatByteSize(file.Size), file.Type)
	return nil
}

func (a *app) runExport(ctx context.Context, args []string) error {
	data, err := a.bills.ExportBackup(ctx)
	if err != nil {
		return err
	}

	path := backup.FileName(a.now())
	if len(args) > 0 {
		path = args[0]
	}
	if path == "-" {
		return backup.Encode(a.out, data)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := backup.Encode(f, data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	fmt.Fprintf(a.out, "Exported %d bills and %d types to %s\n", len(data.Bills), len(data.BillTypes), path)
	return nil
}

func (a *app) runImport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: bills import <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	data, err := a.bills.ImportBackup(ctx, f)
	if err != nil {
		return err
	}
	a.printRestored(data)
	return nil
}

func (a *app) printRestored(data core.BackupData) {
	fmt.Fprintf(a.out, "Restored %d bills and %d types", len(data.Bills), len(data.BillTypes))
	if !data.ExportedAt.IsZero() {
		fmt.Fprintf(a.out, " exported %s", humanize.Time(data.ExportedAt))
	}
	fmt.Fprintln(a.out)
}

func (a *app) runClear(ctx context.Context, args []string) error {
	if _, err := parseArgs(a.flagSet("clear"), args); err != nil {
		return err
	}

	if !a.confirm(
		"This deletes every bill, type, setting and attachment. Continue?",
		"Are you absolutely sure? This cannot be undone.") {
		return errAborted
	}
	if err := a.bills.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All data deleted")
	return nil
}

func (a *app) requireDrive() error {
	if a.drive == nil {
		return errDriveDisabled
	}
	return nil
}

func (a *app) runDriveStatus() error {
	if a.drive == nil {
		fmt.Fprintln(a.out, "Google Drive: disabled")
		return nil
	}
	if a.drive.Status().Connected {
		fmt.Fprintln(a.out, "Google Drive: connected")
	} else {
		fmt.Fprintln(a.out, "Google Drive: not signed in (run drive-auth)")
	}
	return nil
}

func (a *app) runDriveBackup(ctx context.Context) error {
	if err := a.requireDrive(); err != nil {
		return err
	}
	file, err := a.drive.BackupNow(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s (%s)\n", file.Name, humanize.Bytes(uint64(max(file.Size, 0))))
	return nil
}

func (a *app) runDriveList(ctx context.Context) error {
	if err := a.requireDrive(); err != nil {
		return err
	}
	files, err := a.drive.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No backups on Drive.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tMODIFIED")
	for _, f := range files {
		modified := "-"
		if !f.ModifiedTime.IsZero() {
			modified = humanize.Time(f.ModifiedTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Name, humanize.Bytes(uint64(max(f.Size, 0))), modified)
	}
	return tw.Flush()
}

func (a *app) runDriveRestore(ctx context.Context, args []string) error {
	if err := a.requireDrive(); err != nil {
		return err
	}
	id, err := oneID("drive-restore", args)
	if err != nil {
		return err
	}
	data, err := a.drive.Restore(ctx, id)
	if err != nil {
		return err
	}
	a.printRestored(data)
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"bills/internal/blob"
	"bills/internal/core"
	applog "bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/store"
)

var (
	// ErrQueueUnavailable is returned by RequestRemoteBackup when no AMQP client is configured.
	ErrQueueUnavailable = errors.New("backup queue is not configured")
	// ErrUnsupportedCurrency rejects a default currency outside the available list.
	ErrUnsupportedCurrency = errors.New("currency is not in the available list")
	// ErrEmptyFile rejects zero-byte attachments.
	ErrEmptyFile = errors.New("empty file")
)

// duplicateSuffix is appended to the title of a duplicated bill.
const duplicateSuffix = " - Copie"

// unknownTypeName names attachments of bills whose type was deleted.
const unknownTypeName = "Unknown"

// BackupPublisher enqueues remote backup requests.
type BackupPublisher interface {
	PublishBackupRequest(ctx context.Context, reason string) error
}

// BillInput carries the user-editable fields of a bill. Empty Currency,
// Status and Periodicity fall back to defaults on create and to the stored
// values on update.
type BillInput struct {
	Title       string
	Amount      core.Amount
	Currency    string
	DueDate     core.Date
	BillTypeID  string
	Status      core.Status
	Periodicity core.Periodicity
}

// BillService owns the bill workflows: creation defaults, duplication and
// attachments, on top of the store and the blob store.
type BillService struct {
	store   *store.Store
	blobs   blob.Store
	queue   BackupPublisher
	metrics *metrics.Metrics
	log     *applog.StructuredLogger
	now     func() time.Time
}

// NewBillService wires the service. queue may be nil; pass an untyped nil,
// not a nil *amqp.Client.
func NewBillService(st *store.Store, blobs blob.Store, queue BackupPublisher, m *metrics.Metrics) *BillService {
	return &BillService{
		store:   st,
		blobs:   blobs,
		queue:   queue,
		metrics: m,
		log:     applog.NewStructuredLogger(applog.New(applog.Config{Component: applog.ComponentBills, Handler: slog.Default().Handler()})),
		now:     time.Now,
	}
}

// Store exposes the underlying store for read-only views.
func (s *BillService) Store() *store.Store {
	return s.store
}

func (s *BillService) Bills(ctx context.Context) ([]core.Bill, error) {
	return s.store.Bills(ctx)
}

func (s *BillService) Bill(ctx context.Context, id string) (core.Bill, error) {
	return s.store.Bill(ctx, id)
}

// CreateBill validates in, fills the defaults and stores a new bill.
func (s *BillService) CreateBill(ctx context.Context, in BillInput) (core.Bill, error) {
	typ, err := s.billType(ctx, in.BillTypeID)
	if err != nil {
		return core.Bill{}, err
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return core.Bill{}, fmt.Errorf("load settings: %w", err)
	}

	now := s.now().UTC()
	bill := core.Bill{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Amount:      in.Amount,
		Currency:    orDefault(in.Currency, settings.DefaultCurrency),
		DueDate:     in.DueDate,
		BillTypeID:  typ.ID,
		Status:      orDefault(in.Status, core.StatusPending),
		Periodicity: orDefault(in.Periodicity, typ.PeriodicityOrDefault()),
		Files:       []core.BillFile{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	bill.RecomputePeriod()

	if err := s.store.AddBill(ctx, bill); err != nil {
		return core.Bill{}, fmt.Errorf("add bill: %w", err)
	}
	s.metrics.BillCreated()
	s.logSaved(ctx, applog.OpCreate, bill)
	return bill, nil
}

// UpdateBill replaces the editable fields of bill id. Files and createdAt are kept.
func (s *BillService) UpdateBill(ctx context.Context, id string, in BillInput) (core.Bill, error) {
	if in.BillTypeID != "" {
		if _, err := s.billType(ctx, in.BillTypeID); err != nil {
			return core.Bill{}, err
		}
	}
	now := s.now().UTC()
	bill, err := s.store.ModifyBill(ctx, id, func(b *core.Bill) error {
		b.Title = strings.TrimSpace(in.Title)
		b.Amount = in.Amount
		b.Currency = orDefault(in.Currency, b.Currency)
		b.DueDate = in.DueDate
		b.BillTypeID = orDefault(in.BillTypeID, b.BillTypeID)
		b.Status = orDefault(in.Status, b.Status)
		b.Periodicity = orDefault(in.Periodicity, b.Periodicity)
		b.RecomputePeriod()
		b.UpdatedAt = now
		return nil
	})
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	s.logSaved(ctx, applog.OpUpdate, bill)
	return bill, nil
}

// SetStatus changes only the status of bill id.
func (s *BillService) SetStatus(ctx context.Context, id string, status core.Status) (core.Bill, error) {
	if !status.IsValid() {
		return core.Bill{}, &store.ValidationError{Entity: "bill", Err: fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)}
	}
	now := s.now().UTC()
	bill, err := s.store.ModifyBill(ctx, id, func(b *core.Bill) error {
		b.Status = status
		b.UpdatedAt = now
		return nil
	})
	if err != nil {
		return core.Bill{}, fmt.Errorf("set status: %w", err)
	}
	s.logSaved(ctx, applog.OpUpdate, bill)
	return bill, nil
}

// DeleteBill removes bill id and its attachment blobs. Blob failures are
// logged; the bill is gone either way.
func (s *BillService) DeleteBill(ctx context.Context, id string) error {
	bill, err := s.store.Bill(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	s.deleteBlobs(ctx, bill.Files)
	s.metrics.BillDeleted()

	slog.InfoContext(ctx, "Bill deleted",
		applog.FieldBillID, id,
		applog.FieldBillTitle, bill.Title,
		"files", len(bill.Files))
	return nil
}

// DuplicateBill stores a copy of bill id with a suffixed title, no amount, no
// due date and no files, in the default currency and pending.
func (s *BillService) DuplicateBill(ctx context.Context, id string) (core.Bill, error) {
	src, err := s.store.Bill(ctx, id)
	if err != nil {
		return core.Bill{}, err
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return core.Bill{}, fmt.Errorf("load settings: %w", err)
	}

	now := s.now().UTC()
	dup := core.Bill{
		ID:          uuid.NewString(),
		Title:       src.Title + duplicateSuffix,
		Amount:      core.Amount{},
		Currency:    settings.DefaultCurrency,
		BillTypeID:  src.BillTypeID,
		Status:      core.StatusPending,
		Periodicity: src.Periodicity,
		Files:       []core.BillFile{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddBill(ctx, dup); err != nil {
		return core.Bill{}, fmt.Errorf("add duplicate: %w", err)
	}
	s.metrics.BillCreated()
	s.logSaved(ctx, applog.OpDuplicate, dup)
	return dup, nil
}

// AttachFile stores content as a new attachment of bill id. index is the
// position of the file within one upload batch and only affects its name.
func (s *BillService) AttachFile(ctx context.Context, billID string, role core.FileRole, originalName string, content []byte, index int) (core.BillFile, error) {
	if role == "" {
		role = core.RoleBill
	}
	if !role.IsValid() {
		return core.BillFile{}, &store.ValidationError{Entity: "file", Err: fmt.Errorf("%w: %q", core.ErrInvalidFileRole, role)}
	}
	if len(content) == 0 {
		return core.BillFile{}, &store.ValidationError{Entity: "file", Err: ErrEmptyFile}
	}

	bill, err := s.store.Bill(ctx, billID)
	if err != nil {
		return core.BillFile{}, err
	}
	typeName := unknownTypeName
	if typ, err := s.store.BillType(ctx, bill.BillTypeID); err == nil {
		typeName = typ.Name
	} else if !errors.Is(err, store.ErrNotFound) {
		return core.BillFile{}, err
	}

	now := s.now()
	name := core.LogicalFileName(typeName, bill.Period, role, bill.Title, originalName, index, now)
	file := core.NewBillFile(name, originalName, int64(len(content)), blob.DetectContentType(content, ""), role, now)

	obj, err := s.blobs.Put(ctx, file.ID, content, file.Type)
	if err != nil {
		return core.BillFile{}, fmt.Errorf("store file: %w", err)
	}
	file.Type = obj.ContentType

	_, err = s.store.ModifyBill(ctx, billID, func(b *core.Bill) error {
		b.Files = append(b.Files, file)
		b.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		s.deleteBlobs(ctx, []core.BillFile{file})
		return core.BillFile{}, fmt.Errorf("attach file: %w", err)
	}

	s.metrics.FileStored()
	s.log.LogFileAttached(ctx, billID, file.ID, file.Name, file.Size)
	return file, nil
}

// DetachFile removes an attachment from bill id and deletes its bytes.
func (s *BillService) DetachFile(ctx context.Context, billID, fileID string) error {
	var removed core.BillFile
	_, err := s.store.ModifyBill(ctx, billID, func(b *core.Bill) error {
		i := slices.IndexFunc(b.Files, func(f core.BillFile) bool { return f.ID == fileID })
		if i < 0 {
			return fmt.Errorf("file %s: %w", fileID, store.ErrNotFound)
		}
		removed = b.Files[i]
		b.Files = slices.Delete(b.Files, i, i+1)
		b.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return fmt.Errorf("detach file: %w", err)
	}
	s.deleteBlobs(ctx, []core.BillFile{removed})

	slog.InfoContext(ctx, "File detached",
		applog.FieldBillID, billID,
		applog.FieldFileID, fileID)
	return nil
}

// File returns the bytes of an attachment.
func (s *BillService) File(ctx context.Context, fileID string) (blob.Object, error) {
	return s.blobs.Get(ctx, fileID)
}

// ClearAll removes every bill, type and setting together with all attachments.
func (s *BillService) ClearAll(ctx context.Context) error {
	bills, err := s.store.Bills(ctx)
	if err != nil {
		return fmt.Errorf("list bills: %w", err)
	}
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	for _, b := range bills {
		s.deleteBlobs(ctx, b.Files)
	}

	slog.WarnContext(ctx, "All data cleared", "bills", len(bills))
	return nil
}

// RequestRemoteBackup asks the backup worker for a Drive backup.
func (s *BillService) RequestRemoteBackup(ctx context.Context, reason string) error {
	if s.queue == nil {
		return ErrQueueUnavailable
	}
	err := s.queue.PublishBackupRequest(ctx, reason)
	s.metrics.Backup(metrics.TargetQueue, err)
	if err != nil {
		return fmt.Errorf("request backup: %w", err)
	}
	return nil
}

func (s *BillService) billType(ctx context.Context, id string) (core.BillType, error) {
	if strings.TrimSpace(id) == "" {
		return core.BillType{}, &store.ValidationError{Entity: "bill", Err: core.ErrMissingBillType}
	}
	typ, err := s.store.BillType(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return core.BillType{}, &store.ValidationError{Entity: "bill", Err: fmt.Errorf("%w: %q", core.ErrMissingBillType, id)}
	}
	return typ, err
}

func (s *BillService) deleteBlobs(ctx context.Context, files []core.BillFile) {
	for _, f := range files {
		if err := s.blobs.Delete(ctx, f.ID); err != nil && !errors.Is(err, blob.ErrNotFound) {
			slog.WarnContext(ctx, "Failed to delete attachment",
				applog.FieldFileID, f.ID,
				applog.FieldError, err)
		}
	}
}

func (s *BillService) logSaved(ctx context.Context, op string, b core.Bill) {
	s.log.LogBillSaved(ctx, op, b.ID, b.Title, b.BillTypeID, b.Amount.String(), b.Currency, b.Period)
}

// orDefault returns fallback when v is blank.
func orDefault[T ~string](v, fallback T) T {
	if strings.TrimSpace(string(v)) == "" {
		return fallback
	}
	return v
}

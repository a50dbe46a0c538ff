package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"bills/internal/core"
	applog "bills/internal/log"
	"bills/internal/store"
)

func (s *BillService) BillTypes(ctx context.Context) ([]core.BillType, error) {
	return s.store.BillTypes(ctx)
}

// CreateBillType stores t under a fresh id.
func (s *BillService) CreateBillType(ctx context.Context, t core.BillType) (core.BillType, error) {
	t.ID = uuid.NewString()
	t.Name = strings.TrimSpace(t.Name)
	if err := s.store.AddBillType(ctx, t); err != nil {
		return core.BillType{}, fmt.Errorf("add bill type: %w", err)
	}
	slog.InfoContext(ctx, "Bill type created", applog.FieldBillTypeID, t.ID, "name", t.Name)
	return t, nil
}

// UpdateBillType replaces type id. Unlike the store, an unknown id is an error here.
func (s *BillService) UpdateBillType(ctx context.Context, id string, t core.BillType) (core.BillType, error) {
	t.ID = id
	t.Name = strings.TrimSpace(t.Name)
	found, err := s.store.UpdateBillType(ctx, t)
	if err != nil {
		return core.BillType{}, fmt.Errorf("update bill type: %w", err)
	}
	if !found {
		return core.BillType{}, fmt.Errorf("bill type %s: %w", id, store.ErrNotFound)
	}
	return t, nil
}

// DeleteBillType removes type id. Its bills stay and drop out of grouped views.
func (s *BillService) DeleteBillType(ctx context.Context, id string) error {
	if _, err := s.store.BillType(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteBillType(ctx, id); err != nil {
		return fmt.Errorf("delete bill type: %w", err)
	}
	slog.InfoContext(ctx, "Bill type deleted", applog.FieldBillTypeID, id)
	return nil
}

func (s *BillService) Settings(ctx context.Context) (core.AppSettings, error) {
	return s.store.Settings(ctx)
}

// SaveSettings replaces the settings. The default currency must be one of
// the available currencies.
func (s *BillService) SaveSettings(ctx context.Context, settings core.AppSettings) (core.AppSettings, error) {
	if !settings.Supports(settings.DefaultCurrency) {
		return core.AppSettings{}, &store.ValidationError{Entity: "settings", Err: fmt.Errorf("%w: %q", ErrUnsupportedCurrency, settings.DefaultCurrency)}
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.AppSettings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

// SetDefaultCurrency changes the currency applied to new bills.
func (s *BillService) SetDefaultCurrency(ctx context.Context, currency string) (core.AppSettings, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	var out core.AppSettings
	err := s.store.UpdateSettings(ctx, func(st *core.AppSettings) error {
		if !st.Supports(currency) {
			return &store.ValidationError{Entity: "settings", Err: fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)}
		}
		st.DefaultCurrency = currency
		out = *st
		return nil
	})
	if err != nil {
		return core.AppSettings{}, err
	}
	return out, nil
}

// SetDriveConnected records whether a Drive account is linked.
func (s *BillService) SetDriveConnected(ctx context.Context, connected bool) error {
	return s.store.UpdateSettings(ctx, func(st *core.AppSettings) error {
		enabled := true
		st.GoogleDriveEnabled = &enabled
		st.GoogleDriveConnected = &connected
		return nil
	})
}

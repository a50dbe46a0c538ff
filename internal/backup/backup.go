// Package backup exports and imports the whole bill dataset as one JSON document.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bills/internal/core"
)

// Version is written into every export.
const Version = "1.0.0"

// ErrInvalidBackup is returned for documents that are not a usable backup.
var ErrInvalidBackup = errors.New("invalid backup")

// Source is the read side of the store that Export needs.
type Source interface {
	Bills(ctx context.Context) ([]core.Bill, error)
	BillTypes(ctx context.Context) ([]core.BillType, error)
	Settings(ctx context.Context) (core.AppSettings, error)
}

// Target is the write side of the store that Import needs.
type Target interface {
	Restore(ctx context.Context, bills []core.Bill, types []core.BillType, settings core.AppSettings) error
}

// FileName is the download name of a local export made at now.
func FileName(now time.Time) string {
	return "factures_backup_" + now.Format("2006-01-02") + ".json"
}

// Export snapshots the store.
func Export(ctx context.Context, src Source, now time.Time) (core.BackupData, error) {
	bills, err := src.Bills(ctx)
	if err != nil {
		return core.BackupData{}, fmt.Errorf("export bills: %w", err)
	}
	types, err := src.BillTypes(ctx)
	if err != nil {
		return core.BackupData{}, fmt.Errorf("export bill types: %w", err)
	}
	settings, err := src.Settings(ctx)
	if err != nil {
		return core.BackupData{}, fmt.Errorf("export settings: %w", err)
	}
	return core.BackupData{
		Bills:      bills,
		BillTypes:  types,
		Settings:   &settings,
		ExportedAt: now.UTC(),
		Version:    Version,
	}, nil
}

// Encode writes data as indented JSON.
func Encode(w io.Writer, data core.BackupData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Marshal is Encode into a byte slice.
func Marshal(data core.BackupData) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a backup and checks that bills, billTypes and settings are
// all present and not null.
func Decode(r io.Reader) (core.BackupData, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return core.BackupData{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	var missing []string
	for _, field := range []string{"bills", "billTypes", "settings"} {
		v, ok := raw[field]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return core.BackupData{}, fmt.Errorf("%w: missing %s", ErrInvalidBackup, strings.Join(missing, ", "))
	}

	// Settings fields absent from the document keep their defaults, as they
	// would when read back from the store.
	defaults := core.DefaultSettings()
	data := core.BackupData{Settings: &defaults}
	fields := []struct {
		name string
		dst  any
	}{
		{"bills", &data.Bills},
		{"billTypes", &data.BillTypes},
		{"settings", data.Settings},
	}
	for _, f := range fields {
		if err := json.Unmarshal(raw[f.name], f.dst); err != nil {
			return core.BackupData{}, fmt.Errorf("%w: %s: %v", ErrInvalidBackup, f.name, err)
		}
	}
	// Metadata is informative only; older exports may lack it.
	if v, ok := raw["exportedAt"]; ok {
		_ = json.Unmarshal(v, &data.ExportedAt)
	}
	if v, ok := raw["version"]; ok {
		_ = json.Unmarshal(v, &data.Version)
	}
	return data, nil
}

// Import validates r and, only if it is a complete backup, replaces every
// collection in dst. A rejected document leaves dst untouched.
func Import(ctx context.Context, dst Target, r io.Reader) (core.BackupData, error) {
	data, err := Decode(r)
	if err != nil {
		return core.BackupData{}, err
	}
	if err := dst.Restore(ctx, data.Bills, data.BillTypes, *data.Settings); err != nil {
		return core.BackupData{}, fmt.Errorf("restore backup: %w", err)
	}
	return data, nil
}

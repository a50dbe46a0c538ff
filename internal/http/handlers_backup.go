package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"bills/internal/amqp"
	"bills/internal/backup"
	applog "bills/internal/log"
	"bills/internal/services"
)

// confirmHeader must carry confirmClearAll for DELETE /api/data.
const (
	confirmHeader   = "X-Confirm"
	confirmClearAll = "delete-all-data"
)

type importSummary struct {
	Bills      int    `json:"bills"`
	BillTypes  int    `json:"billTypes"`
	ExportedAt string `json:"exportedAt"`
	Version    string `json:"version"`
}

// handleExport downloads a snapshot as factures_backup_YYYY-MM-DD.json.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.bills.ExportBackup(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := backup.Encode(&buf, data); err != nil {
		WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName(data.ExportedAt)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport replaces every collection with the uploaded backup. When a
// backup queue is configured a Drive backup of the current data is requested
// first; failing to enqueue it does not block the import.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.RequestRemoteBackup(r.Context(), amqp.ReasonImport); err != nil && !errors.Is(err, services.ErrQueueUnavailable) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Pre-import backup request failed", applog.FieldError, err)
	}

	data, err := s.bills.ImportBackup(r.Context(), http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	NewJSONResponse().Body(importSummary{
		Bills:      len(data.Bills),
		BillTypes:  len(data.BillTypes),
		ExportedAt: data.ExportedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Version:    data.Version,
	}).Write(w)
}

// handleRequestRemoteBackup enqueues a Drive backup for the worker.
func (s *Server) handleRequestRemoteBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.RequestRemoteBackup(r.Context(), amqp.ReasonManual); err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(map[string]string{"status": "queued"}).Write(w)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(confirmHeader) != confirmClearAll {
		ErrorResponse(http.StatusPreconditionRequired, "set "+confirmHeader+": "+confirmClearAll+" to delete all data").Write(w)
		return
	}
	if err := s.bills.ClearAll(r.Context()); err != nil {
		WriteError(w, r, err)
		return
	}
	NoContent().Write(w)
}

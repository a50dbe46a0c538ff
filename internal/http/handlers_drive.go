package http

import (
	"fmt"
	"net/http"
	"strings"

	"bills/internal/services"
)

func (s *Server) handleDriveStatus(w http.ResponseWriter, r *http.Request) {
	status := services.DriveStatus{}
	if s.drive != nil {
		status = s.drive.Status()
	}
	NewJSONResponse().Body(status).Write(w)
}

// handleDriveAuthURL starts the OAuth flow. The state value is remembered
// until the callback or until it expires.
func (s *Server) handleDriveAuthURL(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	state, err := newOAuthState()
	if err != nil {
		WriteError(w, r, fmt.Errorf("generate oauth state: %w", err))
		return
	}
	url, err := s.drive.AuthURL(state)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s.oauthStates.Set(state, struct{}{})
	NewJSONResponse().Body(map[string]string{"url": url, "state": state}).Write(w)
}

func (s *Server) handleDriveCallback(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	q := r.URL.Query()
	if msg := q.Get("error"); msg != "" {
		BadRequestError("authorization denied: " + sanitizeInput(msg)).Write(w)
		return
	}

	state := q.Get("state")
	if _, ok := s.oauthStates.Get(state); !ok || state == "" {
		BadRequestError("unknown or expired oauth state").Write(w)
		return
	}
	s.oauthStates.Delete(state)

	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		BadRequestError("missing authorization code").Write(w)
		return
	}
	if err := s.drive.Connect(r.Context(), code); err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(s.drive.Status()).Write(w)
}

func (s *Server) handleDriveDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	if err := s.drive.Disconnect(r.Context()); err != nil {
		WriteError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleListDriveBackups(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	files, err := s.drive.ListBackups(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(files).Write(w)
}

func (s *Server) handleDriveBackup(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	file, err := s.drive.BackupNow(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(file).Write(w)
}

func (s *Server) handleDriveRestore(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	data, err := s.drive.Restore(r.Context(), r.PathValue("id"))
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

func (s *Server) handleDeleteDriveBackup(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	if err := s.drive.DeleteBackup(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, r, err)
		return
	}
	NoContent().Write(w)
}

package http

import (
	"net/http"

	"bills/internal/core"
	"bills/internal/views"
)

func (s *Server) handleListBillTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.bills.BillTypes(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(types).Write(w)
}

func (s *Server) handleCreateBillType(w http.ResponseWriter, r *http.Request) {
	var t core.BillType
	if err := DecodeJSON(w, r, &t); err != nil {
		WriteError(w, r, err)
		return
	}
	t.Name = sanitizeInput(t.Name)
	created, err := s.bills.CreateBillType(r.Context(), t)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(created).Write(w)
}

func (s *Server) handleUpdateBillType(w http.ResponseWriter, r *http.Request) {
	var t core.BillType
	if err := DecodeJSON(w, r, &t); err != nil {
		WriteError(w, r, err)
		return
	}
	t.Name = sanitizeInput(t.Name)
	updated, err := s.bills.UpdateBillType(r.Context(), r.PathValue("id"), t)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

// handleDeleteBillType removes a type. Bills of that type are kept.
func (s *Server) handleDeleteBillType(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.DeleteBillType(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.bills.Settings(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(settings).Write(w)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.AppSettings
	if err := DecodeJSON(w, r, &settings); err != nil {
		WriteError(w, r, err)
		return
	}
	saved, err := s.bills.SaveSettings(r.Context(), settings)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(saved).Write(w)
}

// handleStats aggregates the bills that pass the filter query, all by default.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	bills, err := s.bills.Bills(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	types, err := s.bills.BillTypes(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(views.ComputeStats(filter.Apply(bills), types)).Write(w)
}

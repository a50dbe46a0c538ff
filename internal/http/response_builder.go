// Package http provides the JSON API server and its handlers.
//
// This file implements the builder used by every handler to write JSON
// responses, and the mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bills/internal/backup"
	"bills/internal/blob"
	"bills/internal/core"
	"bills/internal/drive"
	applog "bills/internal/log"
	"bills/internal/services"
	"bills/internal/store"
)

// errBadRequest marks malformed requests: unreadable bodies, bad query values.
var errBadRequest = errors.New("bad request")

// errDriveDisabled is returned by Drive routes when no OAuth client is configured.
var errDriveDisabled = errors.New("google drive is not configured")

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter. A nil body with
// a 204 status writes no payload.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.body == nil && b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// Created writes a 201 with v as body.
func Created(v any) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusCreated).Body(v)
}

// NoContent writes an empty 204.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}

// StatusFor maps an error returned by the service layer to an HTTP status.
func StatusFor(err error) int {
	var validation *store.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &validation),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidPeriodicity),
		errors.Is(err, core.ErrInvalidFileRole),
		errors.Is(err, services.ErrUnsupportedCurrency),
		errors.Is(err, services.ErrEmptyFile),
		errors.Is(err, backup.ErrInvalidBackup):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errDriveDisabled), errors.Is(err, services.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	}

	if kind, ok := drive.KindOf(err); ok {
		switch kind {
		case drive.NotConnected:
			return http.StatusUnauthorized
		case drive.Transient:
			return http.StatusServiceUnavailable
		case drive.Rejected:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// WriteError maps err to a status and writes it as JSON. Server errors are
// logged and their details hidden from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := errorBody{Error: err.Error()}
	if kind, ok := drive.KindOf(err); ok {
		body.Kind = kind.String()
	}

	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			applog.ComponentHTTP, r.Pattern, applog.LogFields{
				applog.FieldMethod: r.Method,
				applog.FieldPath:   r.URL.Path,
			})
		if status == http.StatusInternalServerError {
			body.Error = "internal server error"
		}
	}

	NewJSONResponse().Status(status).Body(body).Write(w)
}

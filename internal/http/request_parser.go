// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating HTTP request
// data: JSON bodies, filter query strings and paging parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bills/internal/core"
	"bills/internal/services"
	"bills/internal/views"
)

const (
	// maxJSONBody caps JSON request bodies, backups included.
	maxJSONBody = 16 << 20
	// maxUploadBody caps a multipart attachment request.
	maxUploadBody = 32 << 20
	// maxGroupLimit caps the per-group page size a client may ask for.
	maxGroupLimit = 500
)

// DecodeJSON reads a single JSON value from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntax *json.SyntaxError
		var maxBytes *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxBytes):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxBytes.Limit)
		case errors.As(err, &syntax):
			return fmt.Errorf("%w: malformed JSON at offset %d", errBadRequest, syntax.Offset)
		case errors.Is(err, core.ErrInvalidAmount):
			return err
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON value", errBadRequest)
	}
	return nil
}

// billRequest is the JSON body of create and update requests.
type billRequest struct {
	Title       string      `json:"title"`
	Amount      core.Amount `json:"amount"`
	Currency    string      `json:"currency"`
	DueDate     core.Date   `json:"dueDate"`
	BillTypeID  string      `json:"billTypeId"`
	Status      string      `json:"status"`
	Periodicity string      `json:"periodicity"`
}

// toInput validates the enumerations and converts to the service input.
func (req billRequest) toInput() (services.BillInput, error) {
	in := services.BillInput{
		Title:      sanitizeInput(req.Title),
		Amount:     req.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
		DueDate:    req.DueDate,
		BillTypeID: strings.TrimSpace(req.BillTypeID),
	}
	if req.Status != "" {
		st, err := core.ParseStatus(req.Status)
		if err != nil {
			return services.BillInput{}, err
		}
		in.Status = st
	}
	if req.Periodicity != "" {
		p, err := core.ParsePeriodicity(req.Periodicity)
		if err != nil {
			return services.BillInput{}, err
		}
		in.Periodicity = p
	}
	return in, nil
}

// ParseFilter builds a views.Filter from query parameters:
// search, status, type, periodicity, from and to (YYYY-MM-DD).
func ParseFilter(query url.Values) (views.Filter, error) {
	f, err := views.Filter{
		Search:      sanitizeInput(query.Get("search")),
		Status:      query.Get("status"),
		BillTypeID:  query.Get("type"),
		Periodicity: query.Get("periodicity"),
	}.Normalize()
	if err != nil {
		return views.Filter{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	if f.StartDate, err = core.ParseDate(query.Get("from")); err != nil {
		return views.Filter{}, fmt.Errorf("%w: from: %v", errBadRequest, err)
	}
	if f.EndDate, err = core.ParseDate(query.Get("to")); err != nil {
		return views.Filter{}, fmt.Errorf("%w: to: %v", errBadRequest, err)
	}
	return f, nil
}

// ParsePager builds the per-group pager. limit sets the page size and each
// more=<typeId> reveals one further page of that group. A request without
// more parameters shows one page of every group.
func ParsePager(query url.Values) (*views.Pager, error) {
	limit, err := ParseLimit(query)
	if err != nil {
		return nil, err
	}
	p := views.NewPager(limit)
	for _, id := range query["more"] {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: more needs a bill type id", errBadRequest)
		}
		p.LoadMore(id)
	}
	return p, nil
}

// ParseLimit reads the per-group page size. Missing means views.PageSize.
func ParseLimit(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return views.PageSize, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", errBadRequest)
	}
	return min(n, maxGroupLimit), nil
}

// Package views derives read-only projections from bill snapshots: filtered
// lists, per-type groups, aggregate statistics and per-group pagination.
// Nothing here mutates its inputs.
package views

import (
	"strings"

	"bills/internal/core"
)

// All disables a predicate. The empty string does too.
const All = "all"

// Filter is a conjunction of predicates over bills.
type Filter struct {
	Search      string
	Status      string
	BillTypeID  string
	Periodicity string
	// StartDate and EndDate bound the due date inclusively. The range only
	// applies when both are set.
	StartDate core.Date
	EndDate   core.Date
}

// Normalize trims the enum predicates and maps them to their canonical
// spelling, so "PAID" filters like "paid". Unknown values are rejected.
func (f Filter) Normalize() (Filter, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.BillTypeID = strings.TrimSpace(f.BillTypeID)

	f.Status = strings.TrimSpace(f.Status)
	if strings.EqualFold(f.Status, All) {
		f.Status = All
	} else if f.Status != "" {
		st, err := core.ParseStatus(f.Status)
		if err != nil {
			return Filter{}, err
		}
		f.Status = string(st)
	}

	f.Periodicity = strings.TrimSpace(f.Periodicity)
	if strings.EqualFold(f.Periodicity, All) {
		f.Periodicity = All
	} else if f.Periodicity != "" {
		p, err := core.ParsePeriodicity(f.Periodicity)
		if err != nil {
			return Filter{}, err
		}
		f.Periodicity = string(p)
	}
	return f, nil
}

// IsZero reports whether the filter lets every bill through.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" &&
		disabled(f.Status) && disabled(f.BillTypeID) && disabled(f.Periodicity) &&
		!f.hasRange()
}

func (f Filter) hasRange() bool {
	return !f.StartDate.IsEmpty() && !f.EndDate.IsEmpty()
}

// Match reports whether a single bill passes every active predicate.
func (f Filter) Match(b core.Bill) bool {
	if q := strings.ToLower(f.Search); q != "" && !strings.Contains(strings.ToLower(b.Title), q) {
		return false
	}
	if !disabled(f.Status) && string(b.Status) != f.Status {
		return false
	}
	if !disabled(f.BillTypeID) && b.BillTypeID != f.BillTypeID {
		return false
	}
	if !disabled(f.Periodicity) && string(b.Periodicity) != f.Periodicity {
		return false
	}
	if f.hasRange() {
		if b.DueDate.IsEmpty() {
			return false
		}
		if b.DueDate.Before(f.StartDate.Time) || b.DueDate.After(f.EndDate.Time) {
			return false
		}
	}
	return true
}

// Apply returns the bills that match, in input order.
func (f Filter) Apply(bills []core.Bill) []core.Bill {
	out := make([]core.Bill, 0, len(bills))
	for _, b := range bills {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

func disabled(v string) bool {
	return v == "" || v == All
}

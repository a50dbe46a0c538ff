// Package core provides the bill domain: types, validation, seed data and the
// pure helpers that derive period labels and attachment names.
//
// This file contains the Amount type used for bill totals. Amounts are decimal
// so sums over many bills never drift the way float64 would.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative monetary value in the bill's own currency.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from an integer number of currency units.
func NewAmount(units int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(units)}
}

// ParseAmount converts user input to an Amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rejects
// signs, empty input and anything that is not a plain number.
//
// Examples:
//
//	ParseAmount("12550")   -> 12550
//	ParseAmount("79,99")   -> 79.99
//	ParseAmount("-1")      -> ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{Decimal: d}, nil
}

// Validate rejects negative amounts. Zero is allowed: a duplicated bill starts at zero.
func (a Amount) Validate() error {
	if a.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

// Equal compares by value, so 12550 equals 12550.00.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

// MarshalJSON writes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	a.Decimal = d
	return nil
}

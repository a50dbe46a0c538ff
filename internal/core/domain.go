package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

const (
	OneOff       Periodicity = "one-off"
	Monthly      Periodicity = "monthly"
	BiMonthly    Periodicity = "bi-monthly"
	Quarterly    Periodicity = "quarterly"
	SemiAnnually Periodicity = "semi-annually"
	Annually     Periodicity = "annually"
)

const (
	RoleBill    FileRole = "bill"
	RoleReceipt FileRole = "receipt"
)

// dateLayout is the calendar date format used on the wire and in period labels.
const dateLayout = "2006-01-02"

type (
	Status      string
	Periodicity string
	FileRole    string

	// Date is a calendar date without time of day. The zero value means "no date".
	Date struct {
		time.Time
	}

	Bill struct {
		ID          string      `json:"id"`
		Title       string      `json:"title"`
		Amount      Amount      `json:"amount"`
		Currency    string      `json:"currency"`
		DueDate     Date        `json:"dueDate,omitzero"`
		BillTypeID  string      `json:"billTypeId"`
		Status      Status      `json:"status"`
		Periodicity Periodicity `json:"periodicity"`
		Period      string      `json:"period,omitempty"`
		Files       []BillFile  `json:"files"`
		CreatedAt   time.Time   `json:"createdAt"`
		UpdatedAt   time.Time   `json:"updatedAt"`
	}

	BillType struct {
		ID                 string      `json:"id"`
		Name               string      `json:"name"`
		Color              string      `json:"color"`
		Logo               string      `json:"logo,omitempty"`
		DefaultPeriodicity Periodicity `json:"defaultPeriodicity,omitempty"`
	}

	// BillFile describes an attachment. The bytes live in a blob store keyed by ID;
	// URL is only a handle that can be rebuilt from ID.
	BillFile struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		OriginalName string    `json:"originalName"`
		Size         int64     `json:"size"`
		Type         string    `json:"type"`
		Role         FileRole  `json:"fileType,omitempty"`
		URL          string    `json:"url"`
		UploadedAt   time.Time `json:"uploadedAt"`
	}

	AppSettings struct {
		DefaultCurrency      string   `json:"defaultCurrency"`
		AvailableCurrencies  []string `json:"availableCurrencies"`
		GoogleDriveEnabled   *bool    `json:"googleDriveEnabled,omitempty"`
		GoogleDriveConnected *bool    `json:"googleDriveConnected,omitempty"`
	}

	BackupData struct {
		Bills      []Bill       `json:"bills"`
		BillTypes  []BillType   `json:"billTypes"`
		Settings   *AppSettings `json:"settings"`
		ExportedAt time.Time    `json:"exportedAt"`
		Version    string       `json:"version"`
	}
)

var (
	ErrEmptyTitle         = errors.New("empty title")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrMissingBillType    = errors.New("missing bill type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPeriodicity = errors.New("invalid periodicity")
	ErrInvalidFileRole    = errors.New("invalid file role")
	ErrEmptyTypeName      = errors.New("empty bill type name")
	ErrInvalidColor       = errors.New("invalid color")
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusPaid, StatusOverdue, StatusCancelled}
}

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus converts a raw string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Periodicities lists every periodicity from shortest-lived to longest.
func Periodicities() []Periodicity {
	return []Periodicity{OneOff, Monthly, BiMonthly, Quarterly, SemiAnnually, Annually}
}

func (p Periodicity) String() string { return string(p) }

func (p Periodicity) IsValid() bool {
	switch p {
	case OneOff, Monthly, BiMonthly, Quarterly, SemiAnnually, Annually:
		return true
	default:
		return false
	}
}

// ParsePeriodicity converts a raw string into a Periodicity, rejecting unknown values.
func ParsePeriodicity(s string) (Periodicity, error) {
	p := Periodicity(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriodicity, s)
	}
	return p, nil
}

func (r FileRole) String() string { return string(r) }

func (r FileRole) IsValid() bool {
	switch r {
	case RoleBill, RoleReceipt:
		return true
	default:
		return false
	}
}

// ParseFileRole converts a raw string into a FileRole, rejecting unknown values.
func ParseFileRole(s string) (FileRole, error) {
	r := FileRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileRole, s)
	}
	return r, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the fields a user must supply when recording a bill.
func (b Bill) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrEmptyTitle
	}
	if len(b.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !isCurrencyCode(b.Currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, b.Currency)
	}
	if strings.TrimSpace(b.BillTypeID) == "" {
		return ErrMissingBillType
	}
	if !b.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, b.Status)
	}
	if !b.Periodicity.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriodicity, b.Periodicity)
	}
	for _, f := range b.Files {
		if f.Role != "" && !f.Role.IsValid() {
			return fmt.Errorf("file %s: %w", f.ID, ErrInvalidFileRole)
		}
	}
	return nil
}

// RecomputePeriod refreshes the derived period label from periodicity and due date.
func (b *Bill) RecomputePeriod() {
	b.Period = PeriodLabel(b.Periodicity, b.DueDate)
}

// IsPastDue reports whether a pending bill's due date lies before today.
// It never changes the stored status.
func (b Bill) IsPastDue(today Date) bool {
	if b.Status != StatusPending || b.DueDate.IsEmpty() || today.IsEmpty() {
		return false
	}
	return b.DueDate.Before(today.Time)
}

func (t BillType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyTypeName
	}
	if !isHexColor(t.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, t.Color)
	}
	if t.DefaultPeriodicity != "" && !t.DefaultPeriodicity.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriodicity, t.DefaultPeriodicity)
	}
	return nil
}

// PeriodicityOrDefault returns the type's default periodicity, falling back to monthly.
func (t BillType) PeriodicityOrDefault() Periodicity {
	if t.DefaultPeriodicity.IsValid() {
		return t.DefaultPeriodicity
	}
	return Monthly
}

// Supports reports whether the currency is one of the selectable codes.
func (s AppSettings) Supports(currency string) bool {
	for _, c := range s.AvailableCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isHexColor(s string) bool {
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range strings.ToLower(s[1:]) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

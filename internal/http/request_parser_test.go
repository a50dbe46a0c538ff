package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bills/internal/core"
	"bills/internal/views"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"title":"Gas","amount":"79,99"}`, nil},
		{"empty", ``, errBadRequest},
		{"malformed", `{"title":`, errBadRequest},
		{"unknown field", `{"tittle":"Gas"}`, errBadRequest},
		{"trailing data", `{"title":"Gas"} {}`, errBadRequest},
		{"bad amount", `{"amount":"-5"}`, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/bills", strings.NewReader(tt.body))
			var dst billRequest
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Title != "Gas" || dst.Amount.String() != "79.99" {
					t.Errorf("decoded %+v", dst)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBillRequest_ToInput(t *testing.T) {
	req := billRequest{
		Title:       "  Electricity\x00 ",
		Currency:    " eur ",
		BillTypeID:  " utilities ",
		Status:      "paid",
		Periodicity: "quarterly",
	}
	in, err := req.toInput()
	if err != nil {
		t.Fatal(err)
	}
	if in.Title != "Electricity" || in.Currency != "EUR" || in.BillTypeID != "utilities" {
		t.Errorf("unexpected input %+v", in)
	}
	if in.Status != core.StatusPaid || in.Periodicity != core.Quarterly {
		t.Errorf("enums = %s/%s", in.Status, in.Periodicity)
	}

	if _, err := (billRequest{Status: "lost"}).toInput(); !errors.Is(err, core.ErrInvalidStatus) {
		t.Errorf("status error = %v", err)
	}
	if _, err := (billRequest{Periodicity: "weekly"}).toInput(); !errors.Is(err, core.ErrInvalidPeriodicity) {
		t.Errorf("periodicity error = %v", err)
	}
}

func TestParseFilter(t *testing.T) {
	q := url.Values{
		"search":      {" gas "},
		"status":      {"pending"},
		"type":        {"utilities"},
		"periodicity": {"all"},
		"from":        {"2024-01-01"},
		"to":          {"2024-03-31"},
	}
	f, err := ParseFilter(q)
	if err != nil {
		t.Fatal(err)
	}
	want := views.Filter{
		Search:      "gas",
		Status:      "pending",
		BillTypeID:  "utilities",
		Periodicity: views.All,
		StartDate:   core.NewDate(2024, 1, 1),
		EndDate:     core.NewDate(2024, 3, 31),
	}
	if f != want {
		t.Errorf("got %+v, want %+v", f, want)
	}

	empty, err := ParseFilter(url.Values{})
	if err != nil || !empty.IsZero() {
		t.Errorf("empty query: %+v, %v", empty, err)
	}

	for _, bad := range []url.Values{
		{"status": {"lost"}},
		{"periodicity": {"weekly"}},
		{"from": {"01/02/2024"}},
		{"to": {"2024-13-01"}},
	} {
		if _, err := ParseFilter(bad); !errors.Is(err, errBadRequest) {
			t.Errorf("ParseFilter(%v) error = %v", bad, err)
		}
	}
}

func TestParseFilter_CanonicalisesEnums(t *testing.T) {
	f, err := ParseFilter(url.Values{"status": {"PAID"}, "periodicity": {" Monthly "}})
	if err != nil {
		t.Fatal(err)
	}
	if f.Status != "paid" || f.Periodicity != "monthly" {
		t.Fatalf("got status %q periodicity %q", f.Status, f.Periodicity)
	}
	got := f.Apply(core.SampleBills())
	if len(got) != 1 || got[0].Title != "Electricity Bill" {
		t.Errorf("matched %d bills, want only Electricity Bill", len(got))
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", views.PageSize, false},
		{"25", 25, false},
		{"100000", maxGroupLimit, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLimit(url.Values{"limit": {tt.in}})
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLimit(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParsePager(t *testing.T) {
	p, err := ParsePager(url.Values{"limit": {"5"}, "more": {"4", "4", " 2 "}})
	if err != nil {
		t.Fatal(err)
	}
	for id, want := range map[string]int{"4": 15, "2": 10, "1": 5} {
		if got := p.Limit(id); got != want {
			t.Errorf("Limit(%s) = %d, want %d", id, got, want)
		}
	}

	if p, err := ParsePager(url.Values{}); err != nil || p.Limit("4") != views.PageSize {
		t.Errorf("default pager: %v", err)
	}
	if _, err := ParsePager(url.Values{"more": {""}}); !errors.Is(err, errBadRequest) {
		t.Errorf("empty more: %v", err)
	}
	if _, err := ParsePager(url.Values{"limit": {"0"}}); !errors.Is(err, errBadRequest) {
		t.Errorf("bad limit: %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput(" a\x01b\tc\n "); got != "ab\tc" {
		t.Errorf("got %q", got)
	}
}

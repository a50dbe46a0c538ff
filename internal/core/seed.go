package core

import "time"

// DefaultCurrency is used when settings have never been saved.
const DefaultCurrency = "DZD"

// DefaultSettings returns the built-in settings record. Callers get a fresh copy.
func DefaultSettings() AppSettings {
	return AppSettings{
		DefaultCurrency:     DefaultCurrency,
		AvailableCurrencies: []string{"DZD", "USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "INR", "BRL"},
	}
}

// DefaultBillTypes returns the five built-in categories.
func DefaultBillTypes() []BillType {
	return []BillType{
		{
			ID:                 "1",
			Name:               "Utilities",
			Color:              "#3b82f6",
			DefaultPeriodicity: Monthly,
			Logo:               "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMjQiIGhlaWdodD0iMjQiIHZpZXdCb3g9IjAgMCAyNCAyNCIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj4KPHBhdGggZD0iTTEzIDJMMTMgOUwyMC4wOTU3IDlMMTEgMjJMMTEgMTVMNC4zOTM0MiAxNUwxMyAyWiIgZmlsbD0iIzNiODJmNiIvPgo8L3N2Zz4K",
		},
		{
			ID:                 "2",
			Name:               "Rent",
			Color:              "#ef4444",
			DefaultPeriodicity: Monthly,
			Logo:               "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMjQiIGhlaWdodD0iMjQiIHZpZXdCb3g9IjAgMCAyNCAyNCIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj4KPHBhdGggZD0iTTMgMTJMMTIgM0wyMSAxMlYyMEgxNVYxNkg5VjIwSDNWMTJaIiBmaWxsPSIjZWY0NDQ0Ii8+Cjwvc3ZnPgo=",
		},
		{
			ID:                 "3",
			Name:               "Insurance",
			Color:              "#10b981",
			DefaultPeriodicity: Quarterly,
			Logo:               "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMjQiIGhlaWdodD0iMjQiIHZpZXdCb3g9IjAgMCAyNCAyNCIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj4KPHBhdGggZD0iTTEyIDJMMTMuMDkgOC4yNkwyMCA5TDE0IDEyTDE2IDIwTDEyIDEzTDggMjBMMTAgMTJMNCA5TDEwLjkxIDguMjZMMTIgMloiIGZpbGw9IiMxMGI5ODEiLz4KPC9zdmc+Cg==",
		},
		{
			ID:                 "4",
			Name:               "Subscriptions",
			Color:              "#f59e0b",
			DefaultPeriodicity: Monthly,
			Logo:               "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMjQiIGhlaWdodD0iMjQiIHZpZXdCb3g9IjAgMCAyNCAyNCIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj4KPHBhdGggZD0iTTEyIDJDNi40NzcgMiAyIDYuNDc3IDIgMTJTNi40NzcgMjIgMTIgMjJTMjIgMTcuNTIzIDIyIDEyUzE3LjUyMyAyIDEyIDJaTTEwIDdIMTRWOUgxMFY3Wk0xMCAxMUgxNFYxM0gxMFYxMVpNMTAgMTVIMTRWMTdIMTBWMTVaIiBmaWxsPSIjZjU5ZTBiIi8+Cjwvc3ZnPgo=",
		},
		{
			ID:                 "5",
			Name:               "Internet",
			Color:              "#8b5cf6",
			DefaultPeriodicity: Monthly,
			Logo:               "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMjQiIGhlaWdodD0iMjQiIHZpZXdCb3g9IjAgMCAyNCAyNCIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj4KPHBhdGggZD0iTTEyIDJDNi40NzcgMiAyIDYuNDc3IDIgMTJTNi40NzcgMjIgMTIgMjJTMjIgMTcuNTIzIDIyIDEyUzE3LjUyMyAyIDEyIDJaTTEyIDRDMTYuNDExIDQgMjAgNy41ODkgMjAgMTJTMTYuNDExIDIwIDEyIDIwUzQgMTYuNDExIDQgMTJTNy41ODkgNCAxMiA0Wk0xMiA2QzguNjg2IDYgNiA4LjY4NiA2IDEyUzguNjg2IDE4IDEyIDE4UzE4IDE1LjMxNCAxOCAxMlMxNS4zMTQgNiAxMiA2Wk0xMiA4QzE0LjIwOSA4IDE2IDkuNzkxIDE2IDEyUzE0LjIwOSAxNiAxMiAxNlMxMCA5Ljc5MSAxMCAxMlMxMS43OTEgOCAxMiA4WiIgZmlsbD0iIzhiNWNmNiIvPgo8L3N2Zz4K",
		},
	}
}

// SampleBills returns the demonstration data written on first use.
func SampleBills() []Bill {
	return []Bill{
		{
			ID: "1", Title: "Electricity Bill", Amount: NewAmount(12550), Currency: DefaultCurrency,
			DueDate: NewDate(2024, 1, 15), BillTypeID: "1", Status: StatusPaid, Periodicity: Monthly, Period: "2024-01",
			Files: []BillFile{
				sampleFile("f1", "Utilities_2024-01_paid_2024-01-15T10-30-00.pdf", "electricity_jan.pdf", 245760, "application/pdf", "2024-01-15T10:30:00Z"),
			},
			CreatedAt: ts("2024-01-10T10:00:00Z"), UpdatedAt: ts("2024-01-15T10:30:00Z"),
		},
		{
			ID: "2", Title: "Monthly Rent", Amount: NewAmount(120000), Currency: DefaultCurrency,
			DueDate: NewDate(2024, 2, 1), BillTypeID: "2", Status: StatusPending, Periodicity: Monthly, Period: "2024-02",
			Files: []BillFile{
				sampleFile("f2", "Rent_2024-02_pending_2024-01-25T14-20-00.pdf", "lease_agreement.pdf", 512000, "application/pdf", "2024-01-25T14:20:00Z"),
				sampleFile("f3", "Rent_2024-02_pending_2024-01-25T14-21-00_2.jpg", "property_photo.jpg", 1024000, "image/jpeg", "2024-01-25T14:21:00Z"),
			},
			CreatedAt: ts("2024-01-25T14:00:00Z"), UpdatedAt: ts("2024-01-25T14:21:00Z"),
		},
		{
			ID: "3", Title: "Car Insurance Premium", Amount: NewAmount(45000), Currency: DefaultCurrency,
			DueDate: NewDate(2024, 3, 15), BillTypeID: "3", Status: StatusPending, Periodicity: Quarterly, Period: "2024-Q1",
			Files: []BillFile{
				sampleFile("f4", "Insurance_2024-Q1_pending_2024-01-20T09-15-00.pdf", "insurance_policy.pdf", 356000, "application/pdf", "2024-01-20T09:15:00Z"),
			},
			CreatedAt: ts("2024-01-20T09:00:00Z"), UpdatedAt: ts("2024-01-20T09:15:00Z"),
		},
		{
			ID: "4", Title: "Netflix Subscription", Amount: NewAmount(1599), Currency: DefaultCurrency,
			DueDate: NewDate(2024, 1, 28), BillTypeID: "4", Status: StatusOverdue, Periodicity: Monthly, Period: "2024-01",
			Files:     []BillFile{},
			CreatedAt: ts("2024-01-01T12:00:00Z"), UpdatedAt: ts("2024-01-28T12:00:00Z"),
		},
		{
			ID: "5", Title: "Internet Service", Amount: NewAmount(7999), Currency: DefaultCurrency,
			DueDate: NewDate(2024, 2, 10), BillTypeID: "5", Status: StatusPending, Periodicity: Monthly, Period: "2024-02",
			Files: []BillFile{
				sampleFile("f5", "Internet_2024-02_pending_2024-01-30T16-45-00.pdf", "internet_bill.pdf", 189000, "application/pdf", "2024-01-30T16:45:00Z"),
			},
			CreatedAt: ts("2024-01-30T16:30:00Z"), UpdatedAt: ts("2024-01-30T16:45:00Z"),
		},
		{
			ID: "6", Title: "Annual Software License", Amount: NewAmount(29999), Currency: DefaultCurrency,
			DueDate: NewDate(2024, 12, 1), BillTypeID: "4", Status: StatusPending, Periodicity: Annually, Period: "2024",
			Files: []BillFile{
				sampleFile("f6", "Subscriptions_2024_pending_2024-01-15T11-30-00.pdf", "license_agreement.pdf", 445000, "application/pdf", "2024-01-15T11:30:00Z"),
				sampleFile("f7", "Subscriptions_2024_pending_2024-01-15T11-31-00_2.png", "receipt_screenshot.png", 125000, "image/png", "2024-01-15T11:31:00Z"),
				sampleFile("f8", "Subscriptions_2024_pending_2024-01-15T11-32-00_3.txt", "license_key.txt", 1024, "text/plain", "2024-01-15T11:32:00Z"),
			},
			CreatedAt: ts("2024-01-15T11:00:00Z"), UpdatedAt: ts("2024-01-15T11:32:00Z"),
		},
	}
}

// Sample attachments carry metadata only; no bytes exist for them in any blob store.
func sampleFile(id, name, original string, size int64, mimeType, uploaded string) BillFile {
	return BillFile{
		ID:           id,
		Name:         name,
		OriginalName: original,
		Size:         size,
		Type:         mimeType,
		URL:          FileURL(id),
		UploadedAt:   ts(uploaded),
	}
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic("core: bad seed timestamp " + s)
	}
	return t
}

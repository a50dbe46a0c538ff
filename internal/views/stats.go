package views

import "bills/internal/core"

// Stats aggregates a full bill snapshot. Amounts are summed as recorded,
// without currency conversion.
type Stats struct {
	TotalBills    int         `json:"totalBills"`
	PaidBills     int         `json:"paidBills"`
	PendingBills  int         `json:"pendingBills"`
	OverdueBills  int         `json:"overdueBills"`
	TotalAmount   core.Amount `json:"totalAmount"`
	PaidAmount    core.Amount `json:"paidAmount"`
	PendingAmount core.Amount `json:"pendingAmount"`
	ByType        []TypeStats `json:"byType"`
}

// TypeStats summarises the bills of one type.
type TypeStats struct {
	Type        core.BillType `json:"type"`
	Count       int           `json:"count"`
	TotalAmount core.Amount   `json:"totalAmount"`
}

// ComputeStats counts and sums bills by status and by type. Types without
// bills are omitted; the rest keep the order of types.
func ComputeStats(bills []core.Bill, types []core.BillType) Stats {
	st := Stats{
		TotalAmount:   core.NewAmount(0),
		PaidAmount:    core.NewAmount(0),
		PendingAmount: core.NewAmount(0),
		ByType:        []TypeStats{},
	}

	perType := make(map[string]*TypeStats, len(types))
	for _, b := range bills {
		st.TotalBills++
		st.TotalAmount = st.TotalAmount.Add(b.Amount)

		switch b.Status {
		case core.StatusPaid:
			st.PaidBills++
			st.PaidAmount = st.PaidAmount.Add(b.Amount)
		case core.StatusPending:
			st.PendingBills++
			st.PendingAmount = st.PendingAmount.Add(b.Amount)
		case core.StatusOverdue:
			st.OverdueBills++
		}

		ts, ok := perType[b.BillTypeID]
		if !ok {
			ts = &TypeStats{TotalAmount: core.NewAmount(0)}
			perType[b.BillTypeID] = ts
		}
		ts.Count++
		ts.TotalAmount = ts.TotalAmount.Add(b.Amount)
	}

	seen := make(map[string]bool, len(types))
	for _, t := range types {
		ts, ok := perType[t.ID]
		if !ok || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		st.ByType = append(st.ByType, TypeStats{Type: t, Count: ts.Count, TotalAmount: ts.TotalAmount})
	}
	return st
}

package views

import (
	"encoding/json"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"bills/internal/core"
)

func titles(bills []core.Bill) []string {
	out := make([]string, len(bills))
	for i, b := range bills {
		out[i] = b.Title
	}
	return out
}

func TestFilter_StatusPaid(t *testing.T) {
	got := Filter{Status: "paid"}.Apply(core.SampleBills())
	if len(got) != 1 {
		t.Fatalf("got %v", titles(got))
	}
	if got[0].Title != "Electricity Bill" || !got[0].Amount.Equal(core.NewAmount(12550)) {
		t.Errorf("unexpected bill %s %s", got[0].Title, got[0].Amount)
	}
}

func TestFilter_TypeAndPeriodicity(t *testing.T) {
	got := Filter{BillTypeID: "4", Periodicity: "annually"}.Apply(core.SampleBills())
	if len(got) != 1 || got[0].Title != "Annual Software License" {
		t.Fatalf("got %v", titles(got))
	}
}

func TestFilter_Normalize(t *testing.T) {
	f, err := Filter{Search: " rent ", Status: "Pending", Periodicity: "ALL", BillTypeID: " 2 "}.Normalize()
	if err != nil {
		t.Fatal(err)
	}
	want := Filter{Search: "rent", Status: "pending", Periodicity: All, BillTypeID: "2"}
	if f != want {
		t.Errorf("got %+v, want %+v", f, want)
	}
	if got := titles(f.Apply(core.SampleBills())); fmt.Sprint(got) != "[Monthly Rent]" {
		t.Errorf("matched %v", got)
	}

	for _, bad := range []Filter{{Status: "lost"}, {Periodicity: "weekly"}} {
		if _, err := bad.Normalize(); err == nil {
			t.Errorf("Normalize(%+v) accepted an unknown value", bad)
		}
	}
}

func TestFilter_Table(t *testing.T) {
	bills := core.SampleBills()
	undated := bills[0]
	undated.ID, undated.Title, undated.DueDate = "u", "Undated", core.Date{}
	bills = append(bills, undated)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"zero filter", Filter{}, 7},
		{"all sentinels", Filter{Status: All, BillTypeID: All, Periodicity: All}, 7},
		{"search is case-insensitive", Filter{Search: "RENT"}, 1},
		{"search substring", Filter{Search: "in"}, 2},
		{"inclusive range", Filter{StartDate: core.NewDate(2024, 1, 15), EndDate: core.NewDate(2024, 2, 1)}, 3},
		{"range excludes undated", Filter{StartDate: core.NewDate(2000, 1, 1), EndDate: core.NewDate(2100, 1, 1)}, 6},
		{"half range is ignored", Filter{StartDate: core.NewDate(2024, 6, 1)}, 7},
		{"no match", Filter{Status: "cancelled"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(bills)
			if len(got) != tt.want {
				t.Errorf("got %d bills %v, want %d", len(got), titles(got), tt.want)
			}
		})
	}
}

func TestGroup_SampleData(t *testing.T) {
	groups := GroupBills(core.SampleBills(), core.DefaultBillTypes())

	var names []string
	total := 0
	for _, g := range groups {
		names = append(names, g.Type.Name)
		total += len(g.Bills)
	}
	want := []string{"Insurance", "Internet", "Rent", "Subscriptions", "Utilities"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("group order = %v, want %v", names, want)
	}
	if total != 6 {
		t.Errorf("grouped %d bills, want 6", total)
	}

	subs := groups[3]
	if got := titles(subs.Bills); fmt.Sprint(got) != "[Netflix Subscription Annual Software License]" {
		t.Errorf("bills within a group keep input order, got %v", got)
	}
}

func TestGroup_DropsDanglingType(t *testing.T) {
	bills := core.SampleBills()
	bills[0].BillTypeID = "gone"
	groups := GroupBills(bills, core.DefaultBillTypes())
	for _, g := range groups {
		if g.Type.Name == "Utilities" {
			t.Fatal("Utilities has no bills left and should not appear")
		}
	}
}

func TestGrouper_Locale(t *testing.T) {
	types := []core.BillType{
		{ID: "1", Name: "Électricité"},
		{ID: "2", Name: "Eau"},
		{ID: "3", Name: "Fioul"},
	}
	var bills []core.Bill
	for _, ty := range types {
		bills = append(bills, core.Bill{ID: ty.ID, BillTypeID: ty.ID})
	}

	groups := NewGrouper("fr").Group(bills, types)
	var names []string
	for _, g := range groups {
		names = append(names, g.Type.Name)
	}
	if fmt.Sprint(names) != "[Eau Électricité Fioul]" {
		t.Errorf("got %v", names)
	}

	if NewGrouper("not a tag!").tag.String() != "und" {
		t.Error("bad tags fall back to root")
	}
}

func TestComputeStats_SampleData(t *testing.T) {
	st := ComputeStats(core.SampleBills(), core.DefaultBillTypes())

	if st.TotalBills != 6 || st.PaidBills != 1 || st.PendingBills != 4 || st.OverdueBills != 1 {
		t.Errorf("counts = %+v", st)
	}
	checks := []struct {
		name string
		got  core.Amount
		want int64
	}{
		{"total", st.TotalAmount, 12550 + 120000 + 45000 + 1599 + 7999 + 29999},
		{"paid", st.PaidAmount, 12550},
		{"pending", st.PendingAmount, 120000 + 45000 + 7999 + 29999},
	}
	for _, c := range checks {
		if !c.got.Equal(core.NewAmount(c.want)) {
			t.Errorf("%s = %s, want %d", c.name, c.got, c.want)
		}
	}

	if len(st.ByType) != 5 {
		t.Fatalf("byType has %d entries", len(st.ByType))
	}
	subs := st.ByType[3]
	if subs.Type.ID != "4" || subs.Count != 2 || !subs.TotalAmount.Equal(core.NewAmount(1599+29999)) {
		t.Errorf("subscriptions = %+v", subs)
	}
}

func TestComputeStats_OmitsEmptyTypesAndEncodes(t *testing.T) {
	st := ComputeStats(nil, core.DefaultBillTypes())
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"totalBills":0,"paidBills":0,"pendingBills":0,"overdueBills":0,"totalAmount":0,"paidAmount":0,"pendingAmount":0,"byType":[]}`
	if string(raw) != want {
		t.Errorf("got %s", raw)
	}
}

func TestPager(t *testing.T) {
	g := Group{Type: core.BillType{ID: "1"}}
	for i := 0; i < 25; i++ {
		g.Bills = append(g.Bills, core.Bill{ID: fmt.Sprint(i)})
	}

	p := NewPager(0)
	visible, hidden := p.Visible(g)
	if len(visible.Bills) != 10 || hidden != 15 {
		t.Fatalf("visible=%d hidden=%d", len(visible.Bills), hidden)
	}

	if n := p.LoadMore("1"); n != 20 {
		t.Errorf("LoadMore = %d", n)
	}
	p.LoadMore("1")
	visible, hidden = p.Visible(g)
	if len(visible.Bills) != 25 || hidden != 0 {
		t.Errorf("visible=%d hidden=%d", len(visible.Bills), hidden)
	}
	if p.Limit("2") != PageSize {
		t.Error("other groups are unaffected")
	}

	if fresh := NewPager(0); fresh.Limit("1") != PageSize {
		t.Error("a new pager starts at one page")
	}

	small := NewPager(4)
	small.LoadMore("1")
	if visible, hidden := small.Visible(g); len(visible.Bills) != 8 || hidden != 17 {
		t.Errorf("page size 4 after one load more: visible=%d hidden=%d", len(visible.Bills), hidden)
	}
}

// Generators for property tests.

var genTypeID = rapid.SampledFrom([]string{"1", "2", "3", "4", "5", "ghost"})

func genBill() *rapid.Generator[core.Bill] {
	return rapid.Custom(func(t *rapid.T) core.Bill {
		b := core.Bill{
			ID:          rapid.StringMatching(`[a-z0-9]{8}`).Draw(t, "id"),
			Title:       rapid.SampledFrom([]string{"Rent", "rent march", "Water", "Gas", "Phone", "Netflix"}).Draw(t, "title"),
			Amount:      core.NewAmount(rapid.Int64Range(0, 1_000_000).Draw(t, "amount")),
			Currency:    "EUR",
			BillTypeID:  genTypeID.Draw(t, "type"),
			Status:      rapid.SampledFrom(core.Statuses()).Draw(t, "status"),
			Periodicity: rapid.SampledFrom(core.Periodicities()).Draw(t, "periodicity"),
		}
		if rapid.Bool().Draw(t, "dated") {
			b.DueDate = core.NewDate(2024, rapid.IntRange(1, 12).Draw(t, "month"), rapid.IntRange(1, 28).Draw(t, "day"))
		}
		return b
	})
}

func genFilter() *rapid.Generator[Filter] {
	return rapid.Custom(func(t *rapid.T) Filter {
		f := Filter{
			Search:      rapid.SampledFrom([]string{"", "rent", "a", "x"}).Draw(t, "search"),
			Status:      rapid.SampledFrom([]string{"", All, "paid", "pending", "overdue"}).Draw(t, "status"),
			BillTypeID:  rapid.SampledFrom([]string{"", All, "1", "4"}).Draw(t, "type"),
			Periodicity: rapid.SampledFrom([]string{"", All, "monthly", "annually"}).Draw(t, "periodicity"),
		}
		if rapid.Bool().Draw(t, "ranged") {
			f.StartDate = core.NewDate(2024, rapid.IntRange(1, 6).Draw(t, "from"), 1)
			f.EndDate = core.NewDate(2024, rapid.IntRange(6, 12).Draw(t, "to"), 28)
		}
		return f
	})
}

func TestFilter_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bills := rapid.SliceOfN(genBill(), 0, 40).Draw(t, "bills")
		f := genFilter().Draw(t, "filter")

		got := f.Apply(bills)

		// Result is an order-preserving subset.
		j := 0
		for _, b := range got {
			for j < len(bills) && bills[j].ID != b.ID {
				j++
			}
			if j == len(bills) {
				t.Fatalf("filtered bill %s not found in input order", b.ID)
			}
			j++
		}

		// Adding a predicate never grows the result.
		stricter := f
		stricter.Status = "paid"
		if len(stricter.Apply(bills)) > len(Filter{Search: f.Search, BillTypeID: f.BillTypeID, Periodicity: f.Periodicity, StartDate: f.StartDate, EndDate: f.EndDate}.Apply(bills)) {
			t.Fatal("adding a status predicate grew the result")
		}

		// The zero filter is the identity.
		if len(Filter{}.Apply(bills)) != len(bills) {
			t.Fatal("zero filter dropped bills")
		}
	})
}

func TestGroup_Properties(t *testing.T) {
	types := core.DefaultBillTypes()
	known := map[string]bool{}
	for _, ty := range types {
		known[ty.ID] = true
	}

	rapid.Check(t, func(t *rapid.T) {
		bills := rapid.SliceOfN(genBill(), 0, 40).Draw(t, "bills")
		groups := GroupBills(bills, types)

		seen := map[string]int{}
		count := 0
		for _, g := range groups {
			if len(g.Bills) == 0 {
				t.Fatalf("empty group %s", g.Type.ID)
			}
			for _, b := range g.Bills {
				if b.BillTypeID != g.Type.ID {
					t.Fatalf("bill %s (type %s) in group %s", b.ID, b.BillTypeID, g.Type.ID)
				}
				seen[g.Type.ID]++
				count++
			}
		}

		expected := 0
		for _, b := range bills {
			if known[b.BillTypeID] {
				expected++
			}
		}
		if count != expected {
			t.Fatalf("grouped %d bills, want %d (no dangling, no double count)", count, expected)
		}
		if len(seen) != len(groups) {
			t.Fatal("a type appears in more than one group")
		}
	})
}

func TestComputeStats_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bills := rapid.SliceOfN(genBill(), 0, 40).Draw(t, "bills")
		st := ComputeStats(bills, core.DefaultBillTypes())

		if st.PaidBills+st.PendingBills+st.OverdueBills > st.TotalBills {
			t.Fatal("status counts exceed total")
		}
		if st.PaidAmount.Add(st.PendingAmount).GreaterThan(st.TotalAmount.Decimal) {
			t.Fatal("paid + pending exceeds total")
		}
		for _, ts := range st.ByType {
			if ts.Count == 0 {
				t.Fatal("type with no bills reported")
			}
		}
	})
}

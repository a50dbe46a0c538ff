package views

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"bills/internal/core"
)

// Group is one bill type and its bills, in the order they were given.
type Group struct {
	Type  core.BillType `json:"type"`
	Bills []core.Bill   `json:"bills"`
}

// Grouper partitions bills by type and orders groups by type name using the
// collation rules of a locale.
type Grouper struct {
	tag language.Tag
}

// NewGrouper builds a Grouper for a BCP 47 tag such as "fr" or "en-GB". An
// empty or unparsable tag falls back to the root collation.
func NewGrouper(locale string) Grouper {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return Grouper{tag: tag}
}

// GroupBills is Grouper.Group with the root collation.
func GroupBills(bills []core.Bill, types []core.BillType) []Group {
	return Grouper{tag: language.Und}.Group(bills, types)
}

// Group returns one entry per type that has at least one bill. Bills whose
// type id is unknown are left out.
func (g Grouper) Group(bills []core.Bill, types []core.BillType) []Group {
	byID := make(map[string]int, len(types))
	groups := make([]Group, 0, len(types))
	index := make(map[string]int, len(types))

	for i, t := range types {
		if _, dup := byID[t.ID]; !dup {
			byID[t.ID] = i
		}
	}

	for _, b := range bills {
		ti, ok := byID[b.BillTypeID]
		if !ok {
			continue
		}
		gi, ok := index[b.BillTypeID]
		if !ok {
			gi = len(groups)
			index[b.BillTypeID] = gi
			groups = append(groups, Group{Type: types[ti]})
		}
		groups[gi].Bills = append(groups[gi].Bills, b)
	}

	// Collators keep scratch buffers and are not safe to share.
	col := collate.New(g.tag)
	sort.SliceStable(groups, func(i, j int) bool {
		return col.CompareString(groups[i].Type.Name, groups[j].Type.Name) < 0
	})
	return groups
}

package views

// PageSize is how many bills of a group are visible initially and how many
// more each LoadMore reveals.
const PageSize = 10

// Pager tracks how many bills are visible per group. A new Pager shows one
// page of every group, so a refreshed list starts collapsed again.
type Pager struct {
	size    int
	visible map[string]int
}

// NewPager returns a pager whose pages hold size bills. A size below one
// means PageSize.
func NewPager(size int) *Pager {
	if size < 1 {
		size = PageSize
	}
	return &Pager{size: size, visible: make(map[string]int)}
}

// Limit returns the visible count for a group.
func (p *Pager) Limit(groupID string) int {
	if n, ok := p.visible[groupID]; ok {
		return n
	}
	return p.size
}

// LoadMore reveals another page of a group and returns the new limit.
func (p *Pager) LoadMore(groupID string) int {
	n := p.Limit(groupID) + p.size
	p.visible[groupID] = n
	return n
}

// Visible returns the leading slice of g that should be shown and how many
// bills remain hidden.
func (p *Pager) Visible(g Group) (Group, int) {
	return Page(g, p.Limit(g.Type.ID))
}

// Page cuts a group down to limit bills and reports how many were left out.
func Page(g Group, limit int) (Group, int) {
	if limit < 0 {
		limit = 0
	}
	if len(g.Bills) <= limit {
		return g, 0
	}
	return Group{Type: g.Type, Bills: g.Bills[:limit]}, len(g.Bills) - limit
}

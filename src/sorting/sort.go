// Package sorting orders open orders by a column, for standalone rows and
// for the children of each group.
package sorting

import (
	"slices"

	"ordermonitor/src/hierarchy"
	"ordermonitor/src/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator compares keys. A Comparator is not safe for concurrent use
// because the underlying collator keeps scratch buffers.
type Comparator struct {
	state State
	coll  *collate.Collator
}

// NewComparator builds a comparator for the given sort state.
func NewComparator(state State) *Comparator {
	return &Comparator{
		state: state,
		coll:  collate.New(language.English, collate.Numeric, collate.IgnoreCase),
	}
}

// Base is the ascending comparison. Nulls are greater than any value.
func (c *Comparator) Base(a, b Key) int {
	switch {
	case a.null && b.null:
		return 0
	case a.null:
		return 1
	case b.null:
		return -1
	case a.isNum && b.isNum:
		return a.num.Cmp(b.num)
	}
	return c.coll.CompareString(a.String(), b.String())
}

// Compare applies the direction, except to nulls which stay last either way.
func (c *Comparator) Compare(a, b Key) int {
	if a.null || b.null {
		return c.Base(a, b)
	}
	return c.Base(a, b) * c.state.sign()
}

type keyed struct {
	key   Key
	order model.OpenOrder
}

// Sort returns a sorted copy of orders. With no active column the copy keeps
// the input order. The sort is stable.
func Sort(orders []model.OpenOrder, state State) []model.OpenOrder {
	if !state.Active() {
		return cloneAll(orders)
	}
	return sortWith(NewComparator(state), orders, state.Column)
}

func sortWith(c *Comparator, orders []model.OpenOrder, column string) []model.OpenOrder {
	rows := make([]keyed, len(orders))
	for i, o := range orders {
		rows[i] = keyed{key: Extract(o, column), order: o.Clone()}
	}
	slices.SortStableFunc(rows, func(a, b keyed) int { return c.Compare(a.key, b.key) })

	out := make([]model.OpenOrder, len(rows))
	for i, r := range rows {
		out[i] = r.order
	}
	return out
}

// SortHierarchy sorts the standalone orders and each group's children, then
// orders the groups by their first child after that sort.
func SortHierarchy(h hierarchy.Hierarchy, state State) hierarchy.Hierarchy {
	out := hierarchy.Hierarchy{
		Grouped: make([]hierarchy.Group, len(h.Grouped)),
	}
	if !state.Active() {
		for i, g := range h.Grouped {
			out.Grouped[i] = cloneGroup(g, cloneAll(g.Children))
		}
		out.Standalone = cloneAll(h.Standalone)
		return out
	}

	c := NewComparator(state)
	for i, g := range h.Grouped {
		out.Grouped[i] = cloneGroup(g, sortWith(c, g.Children, state.Column))
	}
	slices.SortStableFunc(out.Grouped, func(a, b hierarchy.Group) int {
		return c.Compare(firstChildKey(a, state.Column), firstChildKey(b, state.Column))
	})
	out.Standalone = sortWith(c, h.Standalone, state.Column)
	return out
}

func firstChildKey(g hierarchy.Group, column string) Key {
	if len(g.Children) == 0 {
		return nullKey()
	}
	return Extract(g.Children[0], column)
}

func cloneGroup(g hierarchy.Group, children []model.OpenOrder) hierarchy.Group {
	cp := hierarchy.Group{ParentID: g.ParentID, Children: children}
	if g.Parent != nil {
		p := g.Parent.Clone()
		cp.Parent = &p
	}
	if cp.Children == nil {
		cp.Children = []model.OpenOrder{}
	}
	return cp
}

func cloneAll(orders []model.OpenOrder) []model.OpenOrder {
	out := make([]model.OpenOrder, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}

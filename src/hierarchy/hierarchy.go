// Package hierarchy groups a flat open-order list into parent/child groups.
package hierarchy

import "ordermonitor/src/model"

// Group is a composite order and the children that appeared in the same snapshot.
// Parent is nil when the children arrived before their parent.
type Group struct {
	ParentID model.OrderID     `json:"parent_id"`
	Parent   *model.OpenOrder  `json:"parent"`
	Children []model.OpenOrder `json:"children"`
}

// Hierarchy is the grouped view of one snapshot.
type Hierarchy struct {
	Grouped    []Group           `json:"grouped"`
	Standalone []model.OpenOrder `json:"standalone"`
}

// Build derives the grouping from orders without modifying them.
//
// An order that has a parent is always placed as a child, even if it also
// lists children of its own. A parent whose children are missing from this
// snapshot is left out of both the groups and the standalone list; the
// children usually show up on a later poll.
func Build(orders []model.OpenOrder) Hierarchy {
	byParent := make(map[model.OrderID]*Group)
	var keys []model.OrderID

	groupFor := func(id model.OrderID) *Group {
		g, ok := byParent[id]
		if !ok {
			g = &Group{ParentID: id}
			byParent[id] = g
			keys = append(keys, id)
		}
		return g
	}

	for _, o := range orders {
		if o.HasParent() {
			g := groupFor(*o.ParentOrderID)
			g.Children = append(g.Children, o.Clone())
		}
	}

	for _, o := range orders {
		if o.HasParent() || !o.HasChildren() {
			continue
		}
		g := groupFor(o.ID)
		parent := o.Clone()
		g.Parent = &parent
	}

	h := Hierarchy{
		Grouped:    make([]Group, 0, len(keys)),
		Standalone: make([]model.OpenOrder, 0, len(orders)),
	}
	for _, id := range keys {
		g := byParent[id]
		if len(g.Children) == 0 {
			continue
		}
		h.Grouped = append(h.Grouped, *g)
	}

	for _, o := range orders {
		if o.HasParent() || o.HasChildren() {
			continue
		}
		h.Standalone = append(h.Standalone, o.Clone())
	}

	return h
}

// Flatten lists every order in the hierarchy once: each group's parent (when
// known) followed by its children, then the standalone orders.
func (h Hierarchy) Flatten() []model.OpenOrder {
	var out []model.OpenOrder
	for _, g := range h.Grouped {
		if g.Parent != nil {
			out = append(out, *g.Parent)
		}
		out = append(out, g.Children...)
	}
	return append(out, h.Standalone...)
}

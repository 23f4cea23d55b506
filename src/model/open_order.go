package model

import "strings"

// OrderStatus is the raw lifecycle status reported by the order-management API.
// Values outside the named constants are preserved as-is.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "ACTIVE"
	OrderStatusPaused    OrderStatus = "PAUSED"
	OrderStatusScheduled OrderStatus = "SCHEDULED"
	OrderStatusComplete  OrderStatus = "COMPLETE"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// Known reports whether the status is one of the named constants.
func (s OrderStatus) Known() bool {
	switch s.Normalize() {
	case OrderStatusActive, OrderStatusPaused, OrderStatusScheduled, OrderStatusComplete, OrderStatusCanceled:
		return true
	}
	return false
}

// Normalize upper-cases and trims the status so comparisons tolerate API drift.
func (s OrderStatus) Normalize() OrderStatus {
	return OrderStatus(strings.ToUpper(strings.TrimSpace(string(s))))
}

// Is compares two statuses after normalisation.
func (s OrderStatus) Is(other OrderStatus) bool {
	return s.Normalize() == other.Normalize()
}

// OrderType selects the composite-order family, which in turn selects the
// cancellation endpoint.
type OrderType int

const (
	OrderTypeSingle OrderType = iota
	OrderTypeMulti
	OrderTypeChained
	OrderTypeBatch
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeSingle:
		return "Single"
	case OrderTypeMulti:
		return "Multi"
	case OrderTypeChained:
		return "Chained"
	case OrderTypeBatch:
		return "Batch"
	}
	return "Single"
}

// ParseOrderType maps the API's order_type string onto OrderType. Unknown
// values fall back to Single and report ok=false.
func ParseOrderType(raw string) (OrderType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "single":
		return OrderTypeSingle, raw != ""
	case "multi":
		return OrderTypeMulti, true
	case "chained":
		return OrderTypeChained, true
	case "batch":
		return OrderTypeBatch, true
	}
	return OrderTypeSingle, false
}

// OpenOrder is one trading order visible to operators.
type OpenOrder struct {
	ID            OrderID     `json:"id"`
	ParentOrderID *OrderID    `json:"parent_order_id,omitempty"`
	ChildOrderIDs []OrderID   `json:"child_order_ids,omitempty"`
	Status        OrderStatus `json:"status"`
	OrderType     string      `json:"order_type,omitempty"`
	Exchange      Value       `json:"exchange"`

	Pair                  Value `json:"pair"`
	Side                  Value `json:"side"`
	TargetQty             Value `json:"target_qty"`
	PctFilled             Value `json:"pct_filled"`
	TimeStart             Value `json:"time_start"`
	ResumeConditionNormal Value `json:"resume_condition_normal"`
	OrderConditionNormal  Value `json:"order_condition_normal"`
}

// HasParent reports whether the order is a group child.
func (o OpenOrder) HasParent() bool {
	return o.ParentOrderID != nil && !o.ParentOrderID.IsZero()
}

// HasChildren reports whether the order carries a non-empty child list.
func (o OpenOrder) HasChildren() bool {
	return len(o.ChildOrderIDs) > 0
}

// Type returns the parsed order type.
func (o OpenOrder) Type() OrderType {
	t, _ := ParseOrderType(o.OrderType)
	return t
}

// Clone returns a deep copy so snapshots handed out by the store never alias.
func (o OpenOrder) Clone() OpenOrder {
	c := o
	if o.ParentOrderID != nil {
		p := *o.ParentOrderID
		c.ParentOrderID = &p
	}
	if o.ChildOrderIDs != nil {
		c.ChildOrderIDs = append([]OrderID(nil), o.ChildOrderIDs...)
	}
	return c
}

// OpenOrderFilter narrows ListOpenOrders. Empty fields are not sent.
type OpenOrderFilter struct {
	Pair     string
	Status   string
	Exchange string
}

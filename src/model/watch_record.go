package model

import "time"

// WatchRecord records that an order was on watch during a maintenance event.
type WatchRecord struct {
	WatchID            string      `json:"watch_id"`
	OrderID            OrderID     `json:"order_id"`
	MaintenanceEventID string      `json:"maintenance_event_id"`
	OrderStatusAtWatch OrderStatus `json:"order_status_at_watch"`
	CurrentStatus      OrderStatus `json:"current_status"`
	Resolved           bool        `json:"resolved"`
	ResolvedAt         *time.Time  `json:"resolved_at,omitempty"`
	Exchanges          []string    `json:"exchanges,omitempty"`
	Pair               Value       `json:"pair"`
	Side               Value       `json:"side"`
	TargetOrderQty     Value       `json:"target_order_qty"`
	TargetExecutedQty  Value       `json:"target_executed_qty"`
	TargetToken        Value       `json:"target_token"`
}

// IsPaused reports whether the order behind the record is currently paused.
func (w WatchRecord) IsPaused() bool {
	return w.CurrentStatus.Is(OrderStatusPaused)
}

// Clone returns a deep copy.
func (w WatchRecord) Clone() WatchRecord {
	c := w
	if w.ResolvedAt != nil {
		t := *w.ResolvedAt
		c.ResolvedAt = &t
	}
	if w.Exchanges != nil {
		c.Exchanges = append([]string(nil), w.Exchanges...)
	}
	return c
}

package model

import "time"

// MaintenanceEvent is a bounded window during which maintenance mode was on.
type MaintenanceEvent struct {
	ID                  string     `json:"id"`
	EnabledAt           *time.Time `json:"enabled_at,omitempty"`
	DisabledAt          *time.Time `json:"disabled_at,omitempty"` // nil while active
	IsActive            bool       `json:"is_active"`
	DurationSeconds     *float64   `json:"duration_seconds,omitempty"`
	WatchedOrdersCount  int        `json:"watched_orders_count"`
	ResolvedOrdersCount int        `json:"resolved_orders_count"`
}

// MaintenanceStatus is the global maintenance flag.
type MaintenanceStatus struct {
	Enabled bool `json:"enabled"`
}

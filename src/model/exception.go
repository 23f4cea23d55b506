package model

import "time"

// Exception is a failure worth keeping after the log line scrolls away:
// rejected mutations against the order-management API, mostly.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "order_monitor"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "bulk"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "ResolveSelected"

	// Error information
	Message string `gorm:"type:text" json:"message"` // err.Error()
	Stack   string `gorm:"type:text" json:"stack"`   // stack trace (optional)

	// Severity level
	Level string `gorm:"size:20;index" json:"level"` // debug | info | warn | error | fatal

	// Extra context stored as JSON text (order ids, event id, ...)
	Context string `gorm:"type:text" json:"context,omitempty"`

	// Audit info
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the journal table name stable across drivers.
func (Exception) TableName() string {
	return "exceptions"
}

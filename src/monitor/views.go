package monitor

import (
	"time"

	"ordermonitor/src/hierarchy"
	"ordermonitor/src/maintenance"
	"ordermonitor/src/model"
	"ordermonitor/src/sorting"
)

type OrdersView struct {
	Grouped         []hierarchy.Group `json:"grouped"`
	Standalone      []model.OpenOrder `json:"standalone"`
	Sort            sorting.State     `json:"sort"`
	LastRefreshedAt *time.Time        `json:"last_refreshed_at"`
}

type WatchedView struct {
	Records            []model.WatchRecord `json:"records"`
	Selection          []string            `json:"selection"`
	EventID            *string             `json:"event_id"`
	CanResolveSelected bool                `json:"can_resolve_selected"`
	CanResumeSelected  bool                `json:"can_resume_selected"`
	IsBulkResolving    bool                `json:"is_bulk_resolving"`
	IsBulkResuming     bool                `json:"is_bulk_resuming"`
}

type MaintenanceView struct {
	Enabled           bool                     `json:"enabled"`
	Known             bool                     `json:"known"`
	Pending           bool                     `json:"pending"`
	SelectedExchanges []string                 `json:"selected_exchanges"`
	ActiveEvent       *model.MaintenanceEvent  `json:"active_event"`
	Events            []model.MaintenanceEvent `json:"events"`
	LastTransition    *maintenance.Transition  `json:"last_transition,omitempty"`
}

func (m *Monitor) Orders() OrdersView {
	h := m.sortedHierarchy()
	view := OrdersView{
		Grouped:    h.Grouped,
		Standalone: h.Standalone,
		Sort:       m.SortState(),
	}
	if view.Grouped == nil {
		view.Grouped = []hierarchy.Group{}
	}
	if view.Standalone == nil {
		view.Standalone = []model.OpenOrder{}
	}
	if at := m.store.LastRefreshedAt(); !at.IsZero() {
		view.LastRefreshedAt = &at
	}
	return view
}

func (m *Monitor) Watched() WatchedView {
	m.mu.Lock()
	records := m.store.WatchRecords()
	ids := m.selection.IDs()
	eventID := m.eventID
	m.mu.Unlock()

	view := WatchedView{Records: records, Selection: ids}
	if view.Records == nil {
		view.Records = []model.WatchRecord{}
	}
	if view.Selection == nil {
		view.Selection = []string{}
	}
	if eventID != "" {
		view.EventID = &eventID
	}
	// The bulk coordinator reads the selection itself, so it is asked
	// outside the lock.
	if _, bulk, _ := m.deps(); bulk != nil {
		view.CanResolveSelected = bulk.CanResolveSelected()
		view.CanResumeSelected = bulk.CanResumeSelected()
		view.IsBulkResolving = bulk.IsBulkResolving()
		view.IsBulkResuming = bulk.IsBulkResuming()
	}
	return view
}

func (m *Monitor) Maintenance() MaintenanceView {
	view := MaintenanceView{
		SelectedExchanges: []string{},
		Events:            m.store.Events(),
	}
	if view.Events == nil {
		view.Events = []model.MaintenanceEvent{}
	}
	if ev, ok := m.store.ActiveEvent(); ok {
		view.ActiveEvent = &ev
	}

	if _, _, maint := m.deps(); maint != nil {
		view.Enabled = maint.Enabled()
		view.Known = maint.Known()
		view.Pending = maint.Pending()
		if ex := maint.SelectedExchanges(); ex != nil {
			view.SelectedExchanges = ex
		}
		if t, ok := maint.LastTransition(); ok {
			view.LastTransition = &t
		}
	} else {
		view.Enabled, view.Known = m.store.MaintenanceEnabled()
	}
	return view
}

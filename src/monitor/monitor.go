// Package monitor joins the store, selection and sort state into the views
// the operator works with, and receives poll results from the poller.
package monitor

import (
	"errors"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/hierarchy"
	"ordermonitor/src/maintenance"
	"ordermonitor/src/metrics"
	"ordermonitor/src/model"
	"ordermonitor/src/notify"
	"ordermonitor/src/selection"
	"ordermonitor/src/sorting"
	"ordermonitor/src/store"
)

var (
	// ErrNotSelectable is returned when a watch id is missing or resolved.
	ErrNotSelectable = errors.New("watch record is not selectable")
	// ErrUnknownOrder is returned for ids absent from the open-order snapshot.
	ErrUnknownOrder = errors.New("order is not open")
	// ErrNotSortable is returned for unknown or action-only columns.
	ErrNotSortable = errors.New("column is not sortable")
)

// Scoper is the poller side of the viewed-event scope.
type Scoper interface {
	SetEventScope(eventID string) bool
}

// BulkState reports the bulk-action affordances.
type BulkState interface {
	CanResolveSelected() bool
	CanResumeSelected() bool
	IsBulkResolving() bool
	IsBulkResuming() bool
}

// MaintenanceState is the maintenance controller as seen by the views.
type MaintenanceState interface {
	Observe(enabled bool)
	Enabled() bool
	Known() bool
	Pending() bool
	SelectedExchanges() []string
	LastTransition() (maintenance.Transition, bool)
}

type Monitor struct {
	store     *store.Store
	selection *selection.Manager
	notifier  *notify.Notifier
	metrics   *metrics.Metrics

	// mu serialises "replace records + reconcile selection" with every
	// read of (selection, records).
	mu      sync.Mutex
	eventID string

	sortMu sync.RWMutex
	sort   sorting.State

	depMu       sync.RWMutex
	scoper      Scoper
	bulk        BulkState
	maintenance MaintenanceState

	subs subscribers
}

func New(notifier *notify.Notifier, m *metrics.Metrics) *Monitor {
	if notifier == nil {
		notifier = notify.New(1)
	}
	return &Monitor{
		store:     store.New(),
		selection: selection.NewManager(),
		notifier:  notifier,
		metrics:   m,
		sort:      sorting.Unsorted(),
		subs:      newSubscribers(),
	}
}

// Attach wires the components that are built on top of the monitor. Any of
// them may be nil.
func (m *Monitor) Attach(scoper Scoper, bulk BulkState, maint MaintenanceState) {
	m.depMu.Lock()
	defer m.depMu.Unlock()
	m.scoper = scoper
	m.bulk = bulk
	m.maintenance = maint
}

func (m *Monitor) deps() (Scoper, BulkState, MaintenanceState) {
	m.depMu.RLock()
	defer m.depMu.RUnlock()
	return m.scoper, m.bulk, m.maintenance
}

// ApplyOpenOrders replaces the open-order snapshot.
func (m *Monitor) ApplyOpenOrders(orders []model.OpenOrder, at time.Time) {
	m.store.ReplaceOpenOrders(orders, at)
	m.metrics.SetOpenOrders(len(orders))
	m.publish(EventOrders)
}

// ApplyWatchRecords replaces the watch records and prunes the selection in
// the same critical section.
func (m *Monitor) ApplyWatchRecords(records []model.WatchRecord) {
	m.mu.Lock()
	kept := m.store.ReplaceWatchRecords(records)
	dropped := m.selection.Reconcile(kept)
	size := m.selection.Len()
	m.mu.Unlock()

	if len(dropped) > 0 {
		logger.WithField("dropped", dropped).Debug("selection pruned after refresh")
	}
	m.metrics.SetSelectionSize(size)
	m.publish(EventWatched)
}

func (m *Monitor) ApplyMaintenanceStatus(status model.MaintenanceStatus) {
	m.store.SetMaintenanceEnabled(status.Enabled)
	if _, _, maint := m.deps(); maint != nil {
		maint.Observe(status.Enabled)
	}
	m.publish(EventMaintenance)
}

func (m *Monitor) ApplyMaintenanceEvents(events []model.MaintenanceEvent) {
	m.store.ReplaceEvents(events)
	m.publish(EventMaintenance)
}

// SelectedRecords returns the selected records in display order together
// with the viewed event id.
func (m *Monitor) SelectedRecords() ([]model.WatchRecord, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection.Selected(m.store.WatchRecords()), m.eventID
}

func (m *Monitor) ClearSelection() {
	m.mu.Lock()
	m.selection.Clear()
	m.mu.Unlock()
	m.metrics.SetSelectionSize(0)
	m.publish(EventWatched)
}

// ToggleSelection flips one record. Only present, unresolved records can be
// selected; deselecting always works.
func (m *Monitor) ToggleSelection(watchID string) (bool, error) {
	m.mu.Lock()
	if !m.selection.Contains(watchID) && !selectable(m.store.WatchRecords(), watchID) {
		m.mu.Unlock()
		return false, ErrNotSelectable
	}
	selected := m.selection.Toggle(watchID)
	size := m.selection.Len()
	m.mu.Unlock()

	m.metrics.SetSelectionSize(size)
	m.publish(EventWatched)
	return selected, nil
}

// SelectAll selects every unresolved record, or clears the selection.
func (m *Monitor) SelectAll(checked bool) int {
	m.mu.Lock()
	m.selection.SelectAll(checked, m.store.WatchRecords())
	size := m.selection.Len()
	m.mu.Unlock()

	m.metrics.SetSelectionSize(size)
	m.publish(EventWatched)
	return size
}

// SetEventScope changes the viewed maintenance event ("" for the active
// one). A change clears the selection and triggers a watched refresh.
func (m *Monitor) SetEventScope(eventID string) bool {
	m.mu.Lock()
	changed := m.eventID != eventID
	m.eventID = eventID
	if changed {
		m.selection.Clear()
	}
	m.mu.Unlock()

	if !changed {
		return false
	}
	m.metrics.SetSelectionSize(0)
	if scoper, _, _ := m.deps(); scoper != nil {
		scoper.SetEventScope(eventID)
	}
	m.publish(EventWatched)
	return true
}

func (m *Monitor) EventScope() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventID
}

// ToggleSort advances the click cycle on column.
func (m *Monitor) ToggleSort(column string) (sorting.State, error) {
	if !sorting.IsSortable(column) {
		return m.SortState(), ErrNotSortable
	}
	m.sortMu.Lock()
	m.sort = m.sort.Toggle(column)
	state := m.sort
	m.sortMu.Unlock()

	m.publish(EventOrders)
	return state, nil
}

func (m *Monitor) SortState() sorting.State {
	m.sortMu.RLock()
	defer m.sortMu.RUnlock()
	return m.sort
}

// DisplayedOrderIDs lists the ids in display order: each group parent
// followed by its children, then the standalone orders.
func (m *Monitor) DisplayedOrderIDs() []model.OrderID {
	flat := m.sortedHierarchy().Flatten()
	ids := make([]model.OrderID, 0, len(flat))
	for _, o := range flat {
		ids = append(ids, o.ID)
	}
	return ids
}

// OrderType looks up the order type of an open order.
func (m *Monitor) OrderType(id model.OrderID) (model.OrderType, error) {
	for _, o := range m.store.OpenOrders() {
		if o.ID == id {
			return o.Type(), nil
		}
	}
	return model.OrderTypeSingle, ErrUnknownOrder
}

func (m *Monitor) Notifier() *notify.Notifier {
	return m.notifier
}

func (m *Monitor) sortedHierarchy() hierarchy.Hierarchy {
	return sorting.SortHierarchy(hierarchy.Build(m.store.OpenOrders()), m.SortState())
}

func selectable(records []model.WatchRecord, watchID string) bool {
	for _, r := range records {
		if r.WatchID == watchID {
			return !r.Resolved
		}
	}
	return false
}

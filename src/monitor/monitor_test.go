package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordermonitor/src/bulk"
	"ordermonitor/src/maintenance"
	"ordermonitor/src/model"
	"ordermonitor/src/notify"
)

func oid(s string) *model.OrderID {
	id := model.OrderID(s)
	return &id
}

func order(id string, qty float64) model.OpenOrder {
	return model.OpenOrder{ID: model.OrderID(id), Status: model.OrderStatusActive, TargetQty: model.NumberValue(qty)}
}

func child(id, parent string, qty float64) model.OpenOrder {
	o := order(id, qty)
	o.ParentOrderID = oid(parent)
	return o
}

func record(watchID, orderID string, resolved bool, status model.OrderStatus) model.WatchRecord {
	return model.WatchRecord{
		WatchID:            watchID,
		OrderID:            model.OrderID(orderID),
		MaintenanceEventID: "ev1",
		CurrentStatus:      status,
		Resolved:           resolved,
	}
}

type fakeScoper struct {
	calls []string
}

func (f *fakeScoper) SetEventScope(id string) bool {
	f.calls = append(f.calls, id)
	return true
}

type fakeMaintenance struct {
	observed []bool
}

func (f *fakeMaintenance) Observe(enabled bool)        { f.observed = append(f.observed, enabled) }
func (f *fakeMaintenance) Enabled() bool               { return len(f.observed) > 0 && f.observed[len(f.observed)-1] }
func (f *fakeMaintenance) Known() bool                 { return len(f.observed) > 0 }
func (f *fakeMaintenance) Pending() bool               { return false }
func (f *fakeMaintenance) SelectedExchanges() []string { return nil }
func (f *fakeMaintenance) LastTransition() (maintenance.Transition, bool) {
	return maintenance.Transition{}, false
}

func TestRefreshPrunesSelection(t *testing.T) {
	m := New(nil, nil)
	m.ApplyWatchRecords([]model.WatchRecord{
		record("w1", "1", false, model.OrderStatusPaused),
		record("w2", "2", false, model.OrderStatusActive),
	})
	assert.Equal(t, 2, m.SelectAll(true))

	m.ApplyWatchRecords([]model.WatchRecord{
		record("w1", "1", true, model.OrderStatusPaused),
	})
	assert.Empty(t, m.Watched().Selection)
}

func TestToggleSelectionOnlyAcceptsUnresolvedRecords(t *testing.T) {
	m := New(nil, nil)
	m.ApplyWatchRecords([]model.WatchRecord{
		record("w1", "1", false, model.OrderStatusPaused),
		record("w2", "2", true, model.OrderStatusActive),
	})

	on, err := m.ToggleSelection("w1")
	require.NoError(t, err)
	assert.True(t, on)

	_, err = m.ToggleSelection("w2")
	assert.ErrorIs(t, err, ErrNotSelectable)
	_, err = m.ToggleSelection("missing")
	assert.ErrorIs(t, err, ErrNotSelectable)

	on, err = m.ToggleSelection("w1")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestEventScopeChangeClearsSelection(t *testing.T) {
	m := New(nil, nil)
	scoper := &fakeScoper{}
	m.Attach(scoper, nil, nil)
	m.ApplyWatchRecords([]model.WatchRecord{record("w1", "1", false, model.OrderStatusPaused)})
	m.SelectAll(true)

	assert.True(t, m.SetEventScope("ev9"))
	assert.Empty(t, m.Watched().Selection)
	assert.False(t, m.SetEventScope("ev9"))
	assert.Equal(t, []string{"ev9"}, scoper.calls)

	v := m.Watched()
	require.NotNil(t, v.EventID)
	assert.Equal(t, "ev9", *v.EventID)
}

func TestOrdersViewGroupsAndSorts(t *testing.T) {
	m := New(nil, nil)
	parent := order("P", 0)
	parent.ChildOrderIDs = []model.OrderID{"c1", "c2"}
	at := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	m.ApplyOpenOrders([]model.OpenOrder{
		order("s1", 30),
		parent,
		child("c1", "P", 20),
		child("c2", "P", 5),
		order("s2", 10),
	}, at)

	v := m.Orders()
	require.Len(t, v.Grouped, 1)
	require.NotNil(t, v.LastRefreshedAt)
	assert.Equal(t, at, *v.LastRefreshedAt)
	assert.Equal(t, []model.OrderID{"P", "c1", "c2", "s1", "s2"}, m.DisplayedOrderIDs())

	state, err := m.ToggleSort("target_qty")
	require.NoError(t, err)
	assert.Equal(t, "target_qty", state.Column)
	assert.Equal(t, []model.OrderID{"P", "c2", "c1", "s2", "s1"}, m.DisplayedOrderIDs())

	_, err = m.ToggleSort("actions")
	assert.ErrorIs(t, err, ErrNotSortable)
}

func TestOrderTypeLookup(t *testing.T) {
	m := New(nil, nil)
	o := order("7", 1)
	o.OrderType = "Batch"
	m.ApplyOpenOrders([]model.OpenOrder{o}, time.Now())

	typ, err := m.OrderType("7")
	require.NoError(t, err)
	assert.Equal(t, model.OrderTypeBatch, typ)

	_, err = m.OrderType("8")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestMaintenanceStatusIsForwarded(t *testing.T) {
	m := New(nil, nil)
	maint := &fakeMaintenance{}
	m.Attach(nil, nil, maint)

	m.ApplyMaintenanceStatus(model.MaintenanceStatus{Enabled: true})
	assert.Equal(t, []bool{true}, maint.observed)

	v := m.Maintenance()
	assert.True(t, v.Enabled)
	assert.True(t, v.Known)
	assert.NotNil(t, v.SelectedExchanges)
	assert.NotNil(t, v.Events)
}

func TestSubscribeDeliversViewsAndNotices(t *testing.T) {
	n := notify.New(5)
	m := New(n, nil)

	var (
		mu     sync.Mutex
		events []Event
	)
	stop := m.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	m.ApplyOpenOrders([]model.OpenOrder{order("1", 1)}, time.Now())
	n.Info("hello")
	stop()
	stop()
	m.ApplyOpenOrders(nil, time.Now())
	n.Info("ignored")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, EventOrders, events[0].Kind)
	assert.Len(t, events[0].Data.(OrdersView).Standalone, 1)
	assert.Equal(t, EventNotice, events[1].Kind)
	assert.Equal(t, "hello", events[1].Data.(notify.Notice).Message)
}

type fakeBulkAPI struct {
	resolved []model.OrderID
	eventID  string
}

func (f *fakeBulkAPI) ResolveWatchedOrdersBulk(_ context.Context, ids []model.OrderID, eventID string) (string, error) {
	f.resolved, f.eventID = ids, eventID
	return "ok", nil
}

func (f *fakeBulkAPI) ResumeWatchedOrdersBulk(context.Context, []model.OrderID) (string, error) {
	return "ok", nil
}

type noopRefresher struct{}

func (noopRefresher) RefreshWatched(context.Context) error    { return nil }
func (noopRefresher) RefreshOpenOrders(context.Context) error { return nil }

func TestBulkResolveThroughMonitor(t *testing.T) {
	m := New(nil, nil)
	api := &fakeBulkAPI{}
	coord := bulk.NewCoordinator(api, m, noopRefresher{}, notify.New(5), nil, nil)
	m.Attach(nil, coord, nil)

	m.ApplyWatchRecords([]model.WatchRecord{
		record("w1", "1", false, model.OrderStatusPaused),
		record("w2", "2", false, model.OrderStatusActive),
		record("w3", "2", false, model.OrderStatusActive),
	})
	assert.False(t, m.Watched().CanResolveSelected)

	m.SelectAll(true)
	v := m.Watched()
	assert.True(t, v.CanResolveSelected)
	assert.True(t, v.CanResumeSelected)

	res, err := coord.ResolveSelected(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cleared)
	assert.Equal(t, []model.OrderID{"1", "2"}, api.resolved)
	assert.Equal(t, "ev1", api.eventID)
	assert.Empty(t, m.Watched().Selection)
}

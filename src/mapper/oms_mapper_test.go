package mapper

import (
	"testing"
	"time"

	"ordermonitor/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapOpenOrdersAcceptsEnvelopeAndDropsDuplicates(t *testing.T) {
	raw := []byte(`{"data":[
		{"id":1,"status":"active","child_order_ids":[2]},
		{"id":2,"parent_order_id":1,"status":"PAUSED"},
		{"id":"1","status":"COMPLETE"},
		{"status":"ACTIVE"}
	]}`)

	orders, err := MapOpenOrders(raw)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, model.OrderStatusActive, orders[0].Status)
	assert.Equal(t, model.OrderID("2"), orders[1].ID)
}

func TestMapOpenOrdersBareArrayAndEmpty(t *testing.T) {
	orders, err := MapOpenOrders([]byte(`[{"id":"A"}]`))
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = MapOpenOrders([]byte(``))
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = MapOpenOrders([]byte(`{"unexpected":true}`))
	assert.Error(t, err)
}

func TestMapWatchRecords(t *testing.T) {
	raw := []byte(`{"watched_orders":[
		{"watch_id":"a","order_id":10,"maintenance_event_id":7,"current_status":"paused","resolved":0,"exchanges":["binance"," okx "]},
		{"id":"b","order_id":"11","maintenance_event_id":"7","resolved":"true","resolved_at":"2025-03-04 12:00:00","exchanges":"kraken,bybit"},
		{"watch_id":"c","order_id":12,"resolved":false,"resolved_at":"2025-03-04T12:00:00Z"},
		{"order_id":13}
	]}`)

	records, err := MapWatchRecords(raw)
	require.NoError(t, err)
	require.Len(t, records, 3)

	a := records[0]
	assert.Equal(t, "a", a.WatchID)
	assert.Equal(t, model.OrderID("10"), a.OrderID)
	assert.Equal(t, "7", a.MaintenanceEventID)
	assert.True(t, a.IsPaused())
	assert.False(t, a.Resolved)
	assert.Equal(t, []string{"binance", "okx"}, a.Exchanges)

	b := records[1]
	assert.Equal(t, "b", b.WatchID)
	assert.True(t, b.Resolved)
	require.NotNil(t, b.ResolvedAt)
	assert.True(t, b.ResolvedAt.Equal(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"kraken", "bybit"}, b.Exchanges)

	assert.True(t, records[2].Resolved, "resolved_at implies resolved")
}

func TestMapMaintenanceEvents(t *testing.T) {
	raw := []byte(`[
		{"id":1,"enabled_at":"2025-03-04T10:00:00Z","disabled_at":"2025-03-04T11:00:00Z","duration_seconds":"3600","watched_orders_count":4,"resolved_orders_count":"2"},
		{"id":2,"enabled_at":"2025-03-05T10:00:00Z","disabled_at":null,"watched_orders_count":1}
	]`)

	events, err := MapMaintenanceEvents(raw)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.False(t, events[0].IsActive)
	require.NotNil(t, events[0].DurationSeconds)
	assert.Equal(t, 3600.0, *events[0].DurationSeconds)
	assert.Equal(t, 2, events[0].ResolvedOrdersCount)

	assert.True(t, events[1].IsActive)
	assert.Nil(t, events[1].DisabledAt)
	assert.Nil(t, events[1].DurationSeconds)
}

func TestMapMaintenanceStatusAndMessage(t *testing.T) {
	status, err := MapMaintenanceStatus([]byte(`{"enabled":true}`))
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	status, err = MapMaintenanceStatus([]byte(`{"maintenance_mode":"1"}`))
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	assert.Equal(t, "3 orders resolved", MapMessage([]byte(`{"message":"3 orders resolved"}`)))
	assert.Equal(t, "", MapMessage(nil))
}

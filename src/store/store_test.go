package store

import (
	"testing"
	"time"

	"ordermonitor/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceOpenOrdersReturnsCopies(t *testing.T) {
	s := New()
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	s.ReplaceOpenOrders([]model.OpenOrder{{ID: "1", ChildOrderIDs: []model.OrderID{"2"}}}, at)

	got := s.OpenOrders()
	got[0].ChildOrderIDs[0] = "mutated"
	got[0].ID = "x"

	again := s.OpenOrders()
	assert.Equal(t, model.OrderID("1"), again[0].ID)
	assert.Equal(t, model.OrderID("2"), again[0].ChildOrderIDs[0])
	assert.Equal(t, at, s.LastRefreshedAt())
	assert.Equal(t, []model.OrderID{"1"}, s.OpenOrderIDs())
}

func TestWatchRecordResolutionIsMonotonic(t *testing.T) {
	s := New()
	resolvedAt := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	s.ReplaceWatchRecords([]model.WatchRecord{
		{WatchID: "a", Resolved: true, ResolvedAt: &resolvedAt},
		{WatchID: "b"},
	})

	stored := s.ReplaceWatchRecords([]model.WatchRecord{
		{WatchID: "a", Resolved: false},
		{WatchID: "b"},
	})

	require.Len(t, stored, 2)
	assert.True(t, stored[0].Resolved)
	require.NotNil(t, stored[0].ResolvedAt)
	assert.Equal(t, resolvedAt, *stored[0].ResolvedAt)
	assert.False(t, stored[1].Resolved)
	assert.Equal(t, stored, s.WatchRecords())
}

func TestResolutionMemoryIsDroppedWhenRecordDisappears(t *testing.T) {
	s := New()
	s.ReplaceWatchRecords([]model.WatchRecord{{WatchID: "a", Resolved: true}})
	s.ReplaceWatchRecords(nil)

	stored := s.ReplaceWatchRecords([]model.WatchRecord{{WatchID: "a"}})
	assert.False(t, stored[0].Resolved)
}

func TestActiveEvent(t *testing.T) {
	s := New()
	_, ok := s.ActiveEvent()
	assert.False(t, ok)

	s.ReplaceEvents([]model.MaintenanceEvent{{ID: "E1"}, {ID: "E2", IsActive: true}})
	ev, ok := s.ActiveEvent()
	require.True(t, ok)
	assert.Equal(t, "E2", ev.ID)
	assert.Len(t, s.Events(), 2)
}

func TestMaintenanceEnabledKnown(t *testing.T) {
	s := New()
	_, known := s.MaintenanceEnabled()
	assert.False(t, known)

	s.SetMaintenanceEnabled(true)
	enabled, known := s.MaintenanceEnabled()
	assert.True(t, enabled)
	assert.True(t, known)
}

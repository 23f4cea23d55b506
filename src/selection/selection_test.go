package selection

import (
	"fmt"
	"math/rand"
	"testing"

	"ordermonitor/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, resolved bool) model.WatchRecord {
	return model.WatchRecord{WatchID: id, Resolved: resolved, MaintenanceEventID: "E1"}
}

func TestSelectAllPicksOnlyUnresolved(t *testing.T) {
	records := []model.WatchRecord{
		{WatchID: "a", Resolved: false, CurrentStatus: model.OrderStatusPaused, OrderID: "10", MaintenanceEventID: "E1"},
		{WatchID: "b", Resolved: true, OrderID: "11", MaintenanceEventID: "E1"},
	}

	m := NewManager()
	m.SelectAll(true, records)
	assert.Equal(t, []string{"a"}, m.IDs())

	m.SelectAll(false, records)
	assert.Zero(t, m.Len())
}

func TestToggleIgnoresRecordState(t *testing.T) {
	m := NewManager()
	assert.True(t, m.Toggle("x"))
	assert.True(t, m.Contains("x"))
	assert.False(t, m.Toggle("x"))
	assert.False(t, m.Contains("x"))
}

func TestReconcilePrunesMissingAndResolved(t *testing.T) {
	m := NewManager()
	m.Toggle("a")
	m.Toggle("b")
	m.Toggle("c")

	dropped := m.Reconcile([]model.WatchRecord{record("a", false), record("b", true)})
	assert.Equal(t, []string{"b", "c"}, dropped)
	assert.Equal(t, []string{"a"}, m.IDs())
}

func TestSelectedFollowsRecordOrder(t *testing.T) {
	records := []model.WatchRecord{record("z", false), record("a", false), record("m", false)}
	m := NewManager()
	m.Toggle("a")
	m.Toggle("z")

	got := m.Selected(records)
	require.Len(t, got, 2)
	assert.Equal(t, "z", got[0].WatchID)
	assert.Equal(t, "a", got[1].WatchID)
}

func TestSelectionStaysWithinUnresolvedRecords(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	m := NewManager()

	for round := 0; round < 500; round++ {
		var records []model.WatchRecord
		for i := 0; i < rng.Intn(8); i++ {
			records = append(records, record(fmt.Sprintf("w%d", rng.Intn(10)), rng.Intn(3) == 0))
		}

		switch rng.Intn(3) {
		case 0:
			m.Toggle(fmt.Sprintf("w%d", rng.Intn(10)))
		case 1:
			m.SelectAll(rng.Intn(2) == 0, records)
		}
		m.Reconcile(records)

		unresolved := make(map[string]bool)
		for _, r := range records {
			if !r.Resolved {
				unresolved[r.WatchID] = true
			}
		}
		for _, id := range m.IDs() {
			require.True(t, unresolved[id], "round %d: %s selected but not unresolved", round, id)
		}
	}
}

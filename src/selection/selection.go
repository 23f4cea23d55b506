// Package selection owns the operator's set of selected watch records.
package selection

import (
	"sort"
	"sync"

	"ordermonitor/src/model"
)

// Manager holds the selected watch ids. Members are always present and
// unresolved in the most recent record set passed to Reconcile or SelectAll.
type Manager struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewManager() *Manager {
	return &Manager{ids: make(map[string]struct{})}
}

// Toggle flips membership of watchID. It does not consult the records, so a
// resolved record that is somehow selected can still be toggled off.
func (m *Manager) Toggle(watchID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ids[watchID]; ok {
		delete(m.ids, watchID)
		return false
	}
	m.ids[watchID] = struct{}{}
	return true
}

// SelectAll replaces the selection with every unresolved record when checked
// is true, and clears it otherwise.
func (m *Manager) SelectAll(checked bool, records []model.WatchRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ids = make(map[string]struct{})
	if !checked {
		return
	}
	for id := range selectable(records) {
		m.ids[id] = struct{}{}
	}
}

// Reconcile drops every selected id that is missing from records or resolved.
// It returns the ids that were dropped.
func (m *Manager) Reconcile(records []model.WatchRecord) []string {
	allowed := selectable(records)

	m.mu.Lock()
	defer m.mu.Unlock()

	var dropped []string
	for id := range m.ids {
		if _, ok := allowed[id]; !ok {
			delete(m.ids, id)
			dropped = append(dropped, id)
		}
	}
	sort.Strings(dropped)
	return dropped
}

func (m *Manager) Clear() {
	m.mu.Lock()
	m.ids = make(map[string]struct{})
	m.mu.Unlock()
}

// IDs returns the selection in ascending order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) Contains(watchID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[watchID]
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Selected returns the records whose watch id is selected, in record order.
func (m *Manager) Selected(records []model.WatchRecord) []model.WatchRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.WatchRecord
	for _, r := range records {
		if _, ok := m.ids[r.WatchID]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

func selectable(records []model.WatchRecord) map[string]struct{} {
	out := make(map[string]struct{}, len(records))
	for _, r := range records {
		if !r.Resolved {
			out[r.WatchID] = struct{}{}
		}
	}
	return out
}

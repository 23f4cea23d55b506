// Package store holds the latest snapshots of open orders, watch records and
// maintenance events. Every write replaces a whole collection; every read
// returns a copy.
package store

import (
	"sync"
	"time"

	"ordermonitor/src/model"

	logger "github.com/sirupsen/logrus"
)

// Store is the only shared mutable resource of the monitor.
type Store struct {
	mu sync.RWMutex

	openOrders      []model.OpenOrder
	lastRefreshedAt time.Time

	watchRecords []model.WatchRecord
	// resolved remembers resolution per watch id so a stale response cannot
	// flip a record back to unresolved.
	resolved map[string]*time.Time

	events []model.MaintenanceEvent

	maintenanceEnabled bool
	maintenanceKnown   bool
}

// New creates an empty store.
func New() *Store {
	return &Store{resolved: make(map[string]*time.Time)}
}

// ReplaceOpenOrders swaps in a new open-order snapshot and records when it was taken.
func (s *Store) ReplaceOpenOrders(orders []model.OpenOrder, at time.Time) {
	cp := cloneOrders(orders)

	s.mu.Lock()
	s.openOrders = cp
	s.lastRefreshedAt = at
	s.mu.Unlock()
}

// OpenOrders returns a copy of the current open-order snapshot.
func (s *Store) OpenOrders() []model.OpenOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.openOrders)
}

// OpenOrderIDs returns the ids of every order in the current snapshot, in snapshot order.
func (s *Store) OpenOrderIDs() []model.OrderID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.OrderID, 0, len(s.openOrders))
	for _, o := range s.openOrders {
		ids = append(ids, o.ID)
	}
	return ids
}

// LastRefreshedAt is the time of the last successful open-order refresh; zero if none.
func (s *Store) LastRefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefreshedAt
}

// ReplaceWatchRecords swaps in a new watch-record snapshot and returns it as
// stored, i.e. with resolution made monotonic.
func (s *Store) ReplaceWatchRecords(records []model.WatchRecord) []model.WatchRecord {
	cp := cloneRecords(records)

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]*time.Time, len(cp))
	for i := range cp {
		rec := &cp[i]
		if prev, ok := s.resolved[rec.WatchID]; ok && !rec.Resolved {
			logger.WithFields(logger.Fields{
				"watch_id": rec.WatchID,
				"order_id": rec.OrderID,
			}).Debug("Ignoring resolved->unresolved regression for watch record")
			rec.Resolved = true
			if rec.ResolvedAt == nil && prev != nil {
				t := *prev
				rec.ResolvedAt = &t
			}
		}
		if rec.Resolved {
			seen[rec.WatchID] = rec.ResolvedAt
		}
	}

	s.resolved = seen
	s.watchRecords = cp
	return cloneRecords(cp)
}

// WatchRecords returns a copy of the current watch-record snapshot.
func (s *Store) WatchRecords() []model.WatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.watchRecords)
}

// ReplaceEvents swaps in a new maintenance-event list.
func (s *Store) ReplaceEvents(events []model.MaintenanceEvent) {
	active := 0
	for _, e := range events {
		if e.IsActive {
			active++
		}
	}
	if active > 1 {
		logger.WithField("active_events", active).Warn("API reported more than one active maintenance event")
	}

	cp := make([]model.MaintenanceEvent, len(events))
	copy(cp, events)

	s.mu.Lock()
	s.events = cp
	s.mu.Unlock()
}

// Events returns a copy of the maintenance-event list.
func (s *Store) Events() []model.MaintenanceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]model.MaintenanceEvent, len(s.events))
	copy(cp, s.events)
	return cp
}

// ActiveEvent returns the first active maintenance event, if any.
func (s *Store) ActiveEvent() (model.MaintenanceEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.IsActive {
			return e, true
		}
	}
	return model.MaintenanceEvent{}, false
}

// SetMaintenanceEnabled records the global maintenance flag.
func (s *Store) SetMaintenanceEnabled(enabled bool) {
	s.mu.Lock()
	s.maintenanceEnabled = enabled
	s.maintenanceKnown = true
	s.mu.Unlock()
}

// MaintenanceEnabled returns the last known flag and whether it was ever loaded.
func (s *Store) MaintenanceEnabled() (enabled bool, known bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maintenanceEnabled, s.maintenanceKnown
}

func cloneOrders(in []model.OpenOrder) []model.OpenOrder {
	out := make([]model.OpenOrder, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}

func cloneRecords(in []model.WatchRecord) []model.WatchRecord {
	out := make([]model.WatchRecord, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}

package monitor

import (
	"sync"

	"ordermonitor/src/notify"
)

// EventKind names the part of the state an event carries.
type EventKind string

const (
	EventOrders      EventKind = "orders"
	EventWatched     EventKind = "watched"
	EventMaintenance EventKind = "maintenance"
	EventNotice      EventKind = "notice"
)

// Event is pushed to subscribers whenever a view changes or a notice is raised.
type Event struct {
	Kind EventKind `json:"type"`
	Data any       `json:"data"`
}

type subscribers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(Event)
}

func newSubscribers() subscribers {
	return subscribers{fns: make(map[int]func(Event))}
}

func (s *subscribers) snapshot() []func(Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(Event), 0, len(s.fns))
	for _, fn := range s.fns {
		out = append(out, fn)
	}
	return out
}

// Subscribe registers fn for view and notice events. fn is called from the
// goroutine that changed the state and must not block. The returned func
// unsubscribes.
func (m *Monitor) Subscribe(fn func(Event)) func() {
	m.subs.mu.Lock()
	id := m.subs.nextID
	m.subs.nextID++
	m.subs.fns[id] = fn
	m.subs.mu.Unlock()

	stopNotices := m.notifier.Listen(func(n notify.Notice) {
		fn(Event{Kind: EventNotice, Data: n})
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			stopNotices()
			m.subs.mu.Lock()
			delete(m.subs.fns, id)
			m.subs.mu.Unlock()
		})
	}
}

// Snapshot returns one event per view, for new subscribers.
func (m *Monitor) Snapshot() []Event {
	return []Event{
		{Kind: EventOrders, Data: m.Orders()},
		{Kind: EventWatched, Data: m.Watched()},
		{Kind: EventMaintenance, Data: m.Maintenance()},
	}
}

func (m *Monitor) publish(kind EventKind) {
	fns := m.subs.snapshot()
	if len(fns) == 0 {
		return
	}

	var data any
	switch kind {
	case EventOrders:
		data = m.Orders()
	case EventWatched:
		data = m.Watched()
	case EventMaintenance:
		data = m.Maintenance()
	case EventNotice:
		return
	}
	ev := Event{Kind: kind, Data: data}
	for _, fn := range fns {
		fn(ev)
	}
}

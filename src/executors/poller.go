// Package executors runs the periodic refresh loops that keep the order
// store current.
package executors

import (
	"context"
	"errors"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/connectors"
	"ordermonitor/src/metrics"
	"ordermonitor/src/model"
)

// Loop names, also used as metric labels.
const (
	LoopOpenOrders  = "open_orders"
	LoopWatched     = "watched_orders"
	LoopMaintenance = "maintenance"
)

var (
	ErrStopped        = errors.New("poller stopped")
	ErrAlreadyStarted = errors.New("poller already started")
)

// Sink receives successful poll results. Each call replaces a whole collection.
type Sink interface {
	ApplyOpenOrders(orders []model.OpenOrder, at time.Time)
	ApplyWatchRecords(records []model.WatchRecord)
	ApplyMaintenanceStatus(status model.MaintenanceStatus)
	ApplyMaintenanceEvents(events []model.MaintenanceEvent)
}

// Scope is read by the loops at tick time.
type Scope struct {
	// EventID is the viewed maintenance event; "" means the active one.
	EventID string
	Filter  model.OpenOrderFilter
}

type loop struct {
	name    string
	period  time.Duration
	sem     chan struct{}
	refresh func(ctx context.Context) error
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Poller owns three independent loops. Each loop has at most one request in
// flight: a tick that finds the previous request outstanding is dropped, and
// explicit refreshes wait their turn.
type Poller struct {
	api     connectors.OrderManagementAPI
	sink    Sink
	metrics *metrics.Metrics
	now     func() time.Time

	scopeMu sync.RWMutex
	scope   Scope

	openOrders  *loop
	watched     *loop
	maintenance *loop

	mu     sync.Mutex
	state  state
	life   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(cfg Config, api connectors.OrderManagementAPI, sink Sink, m *metrics.Metrics) *Poller {
	life, cancel := context.WithCancel(context.Background())
	p := &Poller{
		api:     api,
		sink:    sink,
		metrics: m,
		now:     time.Now,
		scope:   Scope{Filter: cfg.Filter()},
		life:    life,
		cancel:  cancel,
	}
	p.openOrders = &loop{name: LoopOpenOrders, period: cfg.OpenOrdersPeriod, sem: make(chan struct{}, 1), refresh: p.fetchOpenOrders}
	p.watched = &loop{name: LoopWatched, period: cfg.WatchedOrdersPeriod, sem: make(chan struct{}, 1), refresh: p.fetchWatched}
	p.maintenance = &loop{name: LoopMaintenance, period: cfg.MaintenancePeriod, sem: make(chan struct{}, 1), refresh: p.fetchMaintenance}
	return p
}

// Start launches the loops. Each loop refreshes immediately, then on its period.
// The loops end when ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateRunning:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrStopped
	}
	p.state = stateRunning

	stop := context.AfterFunc(ctx, p.cancel)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		<-p.life.Done()
		stop()
	}()

	for _, l := range []*loop{p.openOrders, p.watched, p.maintenance} {
		p.wg.Add(1)
		go p.run(l)
	}

	logger.WithFields(logger.Fields{
		"open_orders_period":    p.openOrders.period.String(),
		"watched_orders_period": p.watched.period.String(),
		"maintenance_period":    p.maintenance.period.String(),
	}).Info("poller started")
	return nil
}

// Stop cancels the loops and waits for in-flight requests. Once it returns
// the sink is no longer called.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == stateStopped {
		p.mu.Unlock()
		return
	}
	p.state = stateStopped
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logger.Info("poller stopped")
}

func (p *Poller) run(l *loop) {
	defer p.wg.Done()

	if l.period <= 0 {
		logger.WithField("loop", l.name).Warn("non-positive period, loop disabled")
		return
	}

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	p.tick(l)
	for {
		select {
		case <-p.life.Done():
			return
		case <-ticker.C:
			p.tick(l)
		}
	}
}

// tick starts a refresh unless the loop already has one in flight.
func (p *Poller) tick(l *loop) {
	select {
	case l.sem <- struct{}{}:
	default:
		logger.WithField("loop", l.name).Debug("previous refresh still in flight, tick skipped")
		p.metrics.ObservePoll(l.name, metrics.ResultSkipped, 0)
		return
	}

	if !p.enter() {
		<-l.sem
		return
	}
	go func() {
		defer p.wg.Done()
		defer func() { <-l.sem }()
		_ = p.execute(p.life, l)
	}()
}

// enter registers work with the wait group unless the poller is stopped.
func (p *Poller) enter() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateStopped {
		return false
	}
	p.wg.Add(1)
	return true
}

func (p *Poller) execute(ctx context.Context, l *loop) error {
	started := p.now()
	err := l.refresh(ctx)
	elapsed := p.now().Sub(started)

	if err != nil {
		p.metrics.ObservePoll(l.name, metrics.ResultError, elapsed)
		if !errors.Is(err, ErrStopped) && !errors.Is(err, context.Canceled) {
			logger.WithError(err).WithField("loop", l.name).Warn("refresh failed")
		}
		return err
	}
	p.metrics.ObservePoll(l.name, metrics.ResultOK, elapsed)
	return nil
}

// refreshNow waits for the loop's slot and refreshes once. It is used after
// mutations, where the caller needs data fetched after its own write.
func (p *Poller) refreshNow(ctx context.Context, l *loop) error {
	if !p.enter() {
		return ErrStopped
	}
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.life, cancel)
	defer stop()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		if p.life.Err() != nil {
			return ErrStopped
		}
		return ctx.Err()
	}
	defer func() { <-l.sem }()

	return p.execute(ctx, l)
}

func (p *Poller) RefreshOpenOrders(ctx context.Context) error {
	return p.refreshNow(ctx, p.openOrders)
}

func (p *Poller) RefreshWatched(ctx context.Context) error {
	return p.refreshNow(ctx, p.watched)
}

func (p *Poller) RefreshMaintenance(ctx context.Context) error {
	return p.refreshNow(ctx, p.maintenance)
}

// Scope returns the current scope.
func (p *Poller) Scope() Scope {
	p.scopeMu.RLock()
	defer p.scopeMu.RUnlock()
	return p.scope
}

// SetEventScope changes the viewed event and, when it changed, refreshes the
// watched orders out of band. It reports whether the scope changed.
func (p *Poller) SetEventScope(eventID string) bool {
	p.scopeMu.Lock()
	changed := p.scope.EventID != eventID
	p.scope.EventID = eventID
	p.scopeMu.Unlock()

	if changed {
		p.background(p.watched)
	}
	return changed
}

// SetFilter changes the open-order filter and refreshes open orders out of band.
func (p *Poller) SetFilter(filter model.OpenOrderFilter) {
	p.scopeMu.Lock()
	changed := p.scope.Filter != filter
	p.scope.Filter = filter
	p.scopeMu.Unlock()

	if changed {
		p.background(p.openOrders)
	}
}

func (p *Poller) background(l *loop) {
	if !p.enter() {
		return
	}
	go func() {
		defer p.wg.Done()
		_ = p.refreshNow(p.life, l)
	}()
}

// applyAllowed reports whether results may still reach the sink.
func (p *Poller) applyAllowed(ctx context.Context) error {
	if p.life.Err() != nil {
		return ErrStopped
	}
	return ctx.Err()
}

func (p *Poller) fetchOpenOrders(ctx context.Context) error {
	orders, err := p.api.ListOpenOrders(ctx, p.Scope().Filter)
	if err != nil {
		return err
	}
	if err := p.applyAllowed(ctx); err != nil {
		return err
	}
	p.sink.ApplyOpenOrders(orders, p.now())
	return nil
}

func (p *Poller) fetchWatched(ctx context.Context) error {
	records, err := p.api.ListWatchedOrders(ctx, p.Scope().EventID)
	if err != nil {
		return err
	}
	if err := p.applyAllowed(ctx); err != nil {
		return err
	}
	p.sink.ApplyWatchRecords(records)
	return nil
}

// fetchMaintenance reads the status and the event list. Either may fail
// without discarding the other.
func (p *Poller) fetchMaintenance(ctx context.Context) error {
	var errs []error

	status, err := p.api.GetMaintenanceStatus(ctx)
	if err != nil {
		errs = append(errs, err)
	} else if err := p.applyAllowed(ctx); err != nil {
		return err
	} else {
		p.sink.ApplyMaintenanceStatus(status)
	}

	events, err := p.api.ListMaintenanceEvents(ctx)
	if err != nil {
		errs = append(errs, err)
	} else if err := p.applyAllowed(ctx); err != nil {
		return err
	} else {
		p.sink.ApplyMaintenanceEvents(events)
	}

	return errors.Join(errs...)
}

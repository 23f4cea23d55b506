// Package maintenance toggles the global maintenance flag. The operator sees
// the requested value immediately; it is committed when the API accepts it
// and rolled back when the call fails.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ordermonitor/src/metrics"
	"ordermonitor/src/model"
	"ordermonitor/src/notify"
)

var ErrTogglePending = errors.New("a maintenance toggle is already pending")

type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseCommitted  Phase = "committed"
	PhaseRolledBack Phase = "rolled_back"
)

// Transition is one toggle attempt.
type Transition struct {
	From      bool      `json:"from"`
	To        bool      `json:"to"`
	Phase     Phase     `json:"phase"`
	OrderIDs  []string  `json:"order_ids,omitempty"`
	Exchanges []string  `json:"exchanges,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

type API interface {
	SetMaintenanceMode(ctx context.Context, enabled bool, orderIDs []model.OrderID, exchanges []string) (string, error)
}

// Orders yields the ids of the orders currently shown to the operator.
type Orders interface {
	DisplayedOrderIDs() []model.OrderID
}

type Refresher interface {
	RefreshWatched(ctx context.Context) error
	RefreshMaintenance(ctx context.Context) error
}

type CaptureFunc func(ctx context.Context, method string, err error, data map[string]interface{})

type Controller struct {
	api       API
	orders    Orders
	refresher Refresher
	notifier  *notify.Notifier
	metrics   *metrics.Metrics
	capture   CaptureFunc
	now       func() time.Time

	mu        sync.Mutex
	committed bool
	known     bool
	pending   *Transition
	last      *Transition
	exchanges []string
}

func NewController(api API, orders Orders, refresher Refresher, notifier *notify.Notifier, m *metrics.Metrics, capture CaptureFunc) *Controller {
	if capture == nil {
		capture = func(context.Context, string, error, map[string]interface{}) {}
	}
	return &Controller{
		api:       api,
		orders:    orders,
		refresher: refresher,
		notifier:  notifier,
		metrics:   m,
		capture:   capture,
		now:       time.Now,
	}
}

// Enabled returns the value the operator should see: the requested value
// while a toggle is pending, otherwise the committed one.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return c.pending.To
	}
	return c.committed
}

// Known reports whether the flag has been read from the API or set by a toggle.
func (c *Controller) Known() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.known
}

// Pending reports whether a toggle is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// LastTransition returns the most recent finished toggle, if any.
func (c *Controller) LastTransition() (Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Transition{}, false
	}
	return *c.last, true
}

// Observe records the flag reported by a status poll. It is ignored while a
// toggle is pending so the optimistic value does not flicker.
func (c *Controller) Observe(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return
	}
	c.committed = enabled
	c.known = true
}

// SetSelectedExchanges sets the exchanges submitted when maintenance is
// turned on. Names are trimmed, deduplicated and sorted.
func (c *Controller) SetSelectedExchanges(exchanges []string) []string {
	seen := make(map[string]struct{}, len(exchanges))
	out := make([]string, 0, len(exchanges))
	for _, e := range exchanges {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)

	c.mu.Lock()
	c.exchanges = out
	c.mu.Unlock()
	return append([]string(nil), out...)
}

func (c *Controller) SelectedExchanges() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.exchanges...)
}

// Toggle requests enabled. Turning on submits the displayed orders and the
// selected exchanges; turning off submits an empty scope.
func (c *Controller) Toggle(ctx context.Context, enabled bool) (Transition, error) {
	var (
		orderIDs  []model.OrderID
		exchanges []string
	)
	if enabled {
		orderIDs = c.orders.DisplayedOrderIDs()
		exchanges = c.SelectedExchanges()
	}

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		c.notifier.Warning("%s", ErrTogglePending.Error())
		return Transition{}, ErrTogglePending
	}
	t := &Transition{
		From:      c.committed,
		To:        enabled,
		Phase:     PhasePending,
		OrderIDs:  idStrings(orderIDs),
		Exchanges: exchanges,
		StartedAt: c.now(),
	}
	c.pending = t
	c.mu.Unlock()

	if orderIDs == nil {
		orderIDs = []model.OrderID{}
	}
	if exchanges == nil {
		exchanges = []string{}
	}

	message, err := c.api.SetMaintenanceMode(ctx, enabled, orderIDs, exchanges)

	c.mu.Lock()
	c.pending = nil
	if err != nil {
		t.Phase = PhaseRolledBack
		t.Error = err.Error()
		c.committed = t.From
	} else {
		t.Phase = PhaseCommitted
		t.Message = message
		c.committed = enabled
		c.known = true
	}
	result := *t
	c.last = t
	c.mu.Unlock()

	if err != nil {
		c.metrics.IncMaintenanceToggle(enabled, metrics.ResultError)
		c.notifier.Error("Failed to turn maintenance mode %s: %v", onOff(enabled), err)
		c.capture(ctx, "toggle", err, map[string]interface{}{
			"enabled":   enabled,
			"order_ids": result.OrderIDs,
			"exchanges": result.Exchanges,
		})
		return result, fmt.Errorf("set maintenance mode %s: %w", onOff(enabled), err)
	}

	c.metrics.IncMaintenanceToggle(enabled, metrics.ResultOK)
	if message == "" {
		message = fmt.Sprintf("Maintenance mode turned %s", onOff(enabled))
	}
	c.notifier.Success("%s", message)

	if enabled {
		c.refreshAfterEnable(ctx)
	}
	return result, nil
}

// refreshAfterEnable loads the watch records and the event the API just
// created. Failures are left to the next poll.
func (c *Controller) refreshAfterEnable(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return c.refresher.RefreshWatched(ctx) })
	g.Go(func() error { return c.refresher.RefreshMaintenance(ctx) })
	if err := g.Wait(); err != nil {
		logger.WithError(err).Warn("refresh after enabling maintenance failed")
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func idStrings(ids []model.OrderID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

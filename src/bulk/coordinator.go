// Package bulk resolves and resumes the selected watched orders.
package bulk

import (
	"context"
	"errors"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ordermonitor/src/metrics"
	"ordermonitor/src/model"
	"ordermonitor/src/notify"
)

const (
	ActionResolve = "resolve"
	ActionResume  = "resume"
)

// Source exposes the selection joined with the current watch records.
// SelectedRecords must read both under the same lock that guards reconcile.
type Source interface {
	SelectedRecords() (selected []model.WatchRecord, viewedEventID string)
	ClearSelection()
}

// Refresher re-reads collections after a mutation.
type Refresher interface {
	RefreshWatched(ctx context.Context) error
	RefreshOpenOrders(ctx context.Context) error
}

// API is the part of the order-management API used for bulk actions.
type API interface {
	ResolveWatchedOrdersBulk(ctx context.Context, orderIDs []model.OrderID, eventID string) (string, error)
	ResumeWatchedOrdersBulk(ctx context.Context, orderIDs []model.OrderID) (string, error)
}

// CaptureFunc records a failed mutation in the exception journal.
type CaptureFunc func(ctx context.Context, method string, err error, data map[string]interface{})

// Result describes a successful bulk call.
type Result struct {
	Action   string          `json:"action"`
	OrderIDs []model.OrderID `json:"order_ids"`
	EventID  string          `json:"maintenance_event_id,omitempty"`
	Message  string          `json:"message,omitempty"`
	// Cleared is false when the follow-up refresh failed and the selection
	// was left for the next reconcile to prune.
	Cleared bool `json:"cleared"`
}

type Coordinator struct {
	api       API
	source    Source
	refresher Refresher
	notifier  *notify.Notifier
	metrics   *metrics.Metrics
	capture   CaptureFunc

	mu        sync.Mutex
	resolving bool
	resuming  bool
}

func NewCoordinator(api API, source Source, refresher Refresher, notifier *notify.Notifier, m *metrics.Metrics, capture CaptureFunc) *Coordinator {
	if capture == nil {
		capture = func(context.Context, string, error, map[string]interface{}) {}
	}
	return &Coordinator{
		api:       api,
		source:    source,
		refresher: refresher,
		notifier:  notifier,
		metrics:   m,
		capture:   capture,
	}
}

func (c *Coordinator) IsBulkResolving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolving
}

func (c *Coordinator) IsBulkResuming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resuming
}

// CanResolveSelected reports whether the resolve trigger should be enabled.
func (c *Coordinator) CanResolveSelected() bool {
	if c.busy() {
		return false
	}
	selected, _ := c.source.SelectedRecords()
	return len(unresolved(selected)) > 0
}

// CanResumeSelected reports whether the resume trigger should be enabled.
func (c *Coordinator) CanResumeSelected() bool {
	if c.busy() {
		return false
	}
	selected, _ := c.source.SelectedRecords()
	return len(paused(selected)) > 0
}

func (c *Coordinator) busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolving || c.resuming
}

// begin sets the flag for action unless any bulk action is already running.
func (c *Coordinator) begin(action string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolving || c.resuming {
		return nil, ErrBulkInFlight
	}
	flag := &c.resolving
	if action == ActionResume {
		flag = &c.resuming
	}
	*flag = true
	return func() {
		c.mu.Lock()
		*flag = false
		c.mu.Unlock()
	}, nil
}

// ResolveSelected resolves the unresolved selected records under a single
// maintenance event: the viewed one, or the only one the records carry.
func (c *Coordinator) ResolveSelected(ctx context.Context) (Result, error) {
	done, err := c.begin(ActionResolve)
	if err != nil {
		return Result{}, c.reject(ActionResolve, err)
	}
	defer done()

	selected, viewed := c.source.SelectedRecords()
	candidates := unresolved(selected)
	if len(candidates) == 0 {
		return Result{}, c.reject(ActionResolve, ErrNothingToResolve)
	}

	orderIDs := distinctOrderIDs(candidates)
	if len(orderIDs) == 0 {
		return Result{}, c.reject(ActionResolve, ErrNoValidOrderIDs)
	}

	eventID, err := targetEvent(viewed, candidates)
	if err != nil {
		return Result{}, c.reject(ActionResolve, err)
	}

	message, err := c.api.ResolveWatchedOrdersBulk(ctx, orderIDs, eventID)
	if err != nil {
		return Result{}, c.fail(ctx, ActionResolve, orderIDs, eventID, err)
	}

	res := Result{Action: ActionResolve, OrderIDs: orderIDs, EventID: eventID, Message: message}
	res.Cleared = c.settle(ActionResolve, c.refresher.RefreshWatched(ctx))
	c.metrics.IncBulkAction(ActionResolve, metrics.ResultOK)
	c.notifier.Success("Resolved %d watched order(s)", len(orderIDs))
	return res, nil
}

// ResumeSelected resumes the orders behind the selected paused records.
func (c *Coordinator) ResumeSelected(ctx context.Context) (Result, error) {
	done, err := c.begin(ActionResume)
	if err != nil {
		return Result{}, c.reject(ActionResume, err)
	}
	defer done()

	selected, _ := c.source.SelectedRecords()
	candidates := paused(selected)
	if len(candidates) == 0 {
		return Result{}, c.reject(ActionResume, ErrNothingToResume)
	}

	orderIDs := distinctOrderIDs(candidates)
	if len(orderIDs) == 0 {
		return Result{}, c.reject(ActionResume, ErrNoValidOrderIDs)
	}

	message, err := c.api.ResumeWatchedOrdersBulk(ctx, orderIDs)
	if err != nil {
		return Result{}, c.fail(ctx, ActionResume, orderIDs, "", err)
	}

	var g errgroup.Group
	g.Go(func() error { return c.refresher.RefreshWatched(ctx) })
	g.Go(func() error { return c.refresher.RefreshOpenOrders(ctx) })

	res := Result{Action: ActionResume, OrderIDs: orderIDs, Message: message}
	res.Cleared = c.settle(ActionResume, g.Wait())
	c.metrics.IncBulkAction(ActionResume, metrics.ResultOK)
	c.notifier.Success("Resumed %d order(s)", len(orderIDs))
	return res, nil
}

// settle clears the selection once the refresh has landed. A failed refresh
// leaves the selection as is.
func (c *Coordinator) settle(action string, refreshErr error) bool {
	if refreshErr != nil {
		logger.WithError(refreshErr).WithField("action", action).
			Warn("refresh after bulk action failed, selection kept")
		return false
	}
	c.source.ClearSelection()
	return true
}

func (c *Coordinator) reject(action string, err error) error {
	c.metrics.IncBulkAction(action, "rejected")
	if errors.Is(err, ErrNoValidOrderIDs) {
		c.notifier.Error("%s", err.Error())
	} else {
		c.notifier.Warning("%s", err.Error())
	}
	return err
}

func (c *Coordinator) fail(ctx context.Context, action string, orderIDs []model.OrderID, eventID string, err error) error {
	mErr := &MutationError{Action: action, Count: len(orderIDs), Err: err}
	c.metrics.IncBulkAction(action, metrics.ResultError)
	c.notifier.Error("%s", mErr.Error())

	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}
	c.capture(ctx, action+"_selected", mErr, map[string]interface{}{
		"order_ids":            ids,
		"maintenance_event_id": eventID,
	})
	return mErr
}

func unresolved(records []model.WatchRecord) []model.WatchRecord {
	var out []model.WatchRecord
	for _, r := range records {
		if !r.Resolved {
			out = append(out, r)
		}
	}
	return out
}

func paused(records []model.WatchRecord) []model.WatchRecord {
	var out []model.WatchRecord
	for _, r := range records {
		if r.IsPaused() {
			out = append(out, r)
		}
	}
	return out
}

// distinctOrderIDs keeps first-seen order and skips empty ids.
func distinctOrderIDs(records []model.WatchRecord) []model.OrderID {
	seen := make(map[model.OrderID]struct{}, len(records))
	var out []model.OrderID
	for _, r := range records {
		if r.OrderID.IsZero() {
			continue
		}
		if _, ok := seen[r.OrderID]; ok {
			continue
		}
		seen[r.OrderID] = struct{}{}
		out = append(out, r.OrderID)
	}
	return out
}

// targetEvent picks the viewed event when there is one. Otherwise the records
// must agree on exactly one event.
func targetEvent(viewed string, records []model.WatchRecord) (string, error) {
	if viewed != "" {
		return viewed, nil
	}

	seen := make(map[string]struct{})
	var only string
	for _, r := range records {
		if r.MaintenanceEventID == "" {
			continue
		}
		if _, ok := seen[r.MaintenanceEventID]; !ok {
			seen[r.MaintenanceEventID] = struct{}{}
			only = r.MaintenanceEventID
		}
	}

	switch len(seen) {
	case 0:
		return "", ErrEventUndetermined
	case 1:
		return only, nil
	}
	return "", ErrAmbiguousEvent
}

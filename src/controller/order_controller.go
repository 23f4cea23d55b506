package controller

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/model"
	"ordermonitor/src/notify"
)

// OrderAPI is the subset of the order-management API used by per-row actions.
type OrderAPI interface {
	PauseOrder(ctx context.Context, id model.OrderID) error
	ResumeOrder(ctx context.Context, id model.OrderID) error
	CancelOrder(ctx context.Context, id model.OrderID, orderType model.OrderType) error
	ResolveWatchRecord(ctx context.Context, watchID string) error
}

// Refresher re-reads state after a successful action.
type Refresher interface {
	RefreshOpenOrders(ctx context.Context) error
	RefreshWatched(ctx context.Context) error
}

// OrderActions runs single-order lifecycle actions: call, notice, refresh.
type OrderActions struct {
	api       OrderAPI
	refresher Refresher
	notifier  *notify.Notifier
	capture   func(ctx context.Context, method string, err error, data map[string]interface{})
}

func NewOrderActions(
	api OrderAPI,
	refresher Refresher,
	notifier *notify.Notifier,
	capture func(ctx context.Context, method string, err error, data map[string]interface{}),
) *OrderActions {
	if notifier == nil {
		notifier = notify.New(0)
	}
	return &OrderActions{api: api, refresher: refresher, notifier: notifier, capture: capture}
}

func (a *OrderActions) Pause(ctx context.Context, id model.OrderID) error {
	err := a.api.PauseOrder(ctx, id)
	return a.finish(ctx, "PauseOrder", id.String(), "Order %s paused", err, a.refresher.RefreshOpenOrders)
}

func (a *OrderActions) Resume(ctx context.Context, id model.OrderID) error {
	err := a.api.ResumeOrder(ctx, id)
	return a.finish(ctx, "ResumeOrder", id.String(), "Order %s resumed", err, a.refresher.RefreshOpenOrders)
}

// Cancel dispatches on the order type; composite orders have their own
// cancellation endpoints.
func (a *OrderActions) Cancel(ctx context.Context, id model.OrderID, orderType model.OrderType) error {
	err := a.api.CancelOrder(ctx, id, orderType)
	label := "Order %s canceled"
	switch orderType {
	case model.OrderTypeSingle:
	case model.OrderTypeMulti:
		label = "Multi-order %s canceled"
	case model.OrderTypeChained:
		label = "Chained order %s canceled"
	case model.OrderTypeBatch:
		label = "Batch order %s canceled"
	}
	return a.finish(ctx, "CancelOrder", id.String(), label, err, a.refresher.RefreshOpenOrders)
}

// ResolveOne resolves a single watch record.
func (a *OrderActions) ResolveOne(ctx context.Context, watchID string) error {
	err := a.api.ResolveWatchRecord(ctx, watchID)
	return a.finish(ctx, "ResolveWatchRecord", watchID, "Watched order %s resolved", err, a.refresher.RefreshWatched)
}

func (a *OrderActions) finish(
	ctx context.Context,
	method, id, success string,
	err error,
	refresh func(context.Context) error,
) error {
	if err != nil {
		err = fmt.Errorf("%s %s: %w", method, id, err)
		a.notifier.Error("Failed: %v", err)
		if a.capture != nil {
			a.capture(ctx, method, err, map[string]interface{}{"id": id})
		}
		return err
	}

	if rerr := refresh(ctx); rerr != nil {
		logger.WithError(rerr).WithField("method", method).Warn("refresh after order action failed")
	}
	a.notifier.Success(success, id)
	return nil
}

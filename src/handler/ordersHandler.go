package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ordermonitor/src/model"
	"ordermonitor/src/monitor"
	"ordermonitor/src/sorting"
)

type ordersView interface {
	Orders() monitor.OrdersView
	ToggleSort(column string) (sorting.State, error)
	OrderType(id model.OrderID) (model.OrderType, error)
}

type orderActor interface {
	Pause(ctx context.Context, id model.OrderID) error
	Resume(ctx context.Context, id model.OrderID) error
	Cancel(ctx context.Context, id model.OrderID, orderType model.OrderType) error
	ResolveOne(ctx context.Context, watchID string) error
}

// ListOrdersHandler returns the grouped, sorted open orders.
func ListOrdersHandler(view ordersView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, view.Orders())
	}
}

// ToggleSortHandler advances the sort cycle on {column}.
func ToggleSortHandler(view ordersView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := view.ToggleSort(chi.URLParam(r, "column"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func PauseOrderHandler(actions orderActor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.OrderID(chi.URLParam(r, "id"))
		if err := actions.Pause(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ResumeOrderHandler(actions orderActor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.OrderID(chi.URLParam(r, "id"))
		if err := actions.Resume(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CancelOrderHandler cancels {id} through the endpoint matching its order
// type in the current snapshot.
func CancelOrderHandler(view ordersView, actions orderActor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.OrderID(chi.URLParam(r, "id"))
		orderType, err := view.OrderType(id)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := actions.Cancel(r.Context(), id, orderType); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

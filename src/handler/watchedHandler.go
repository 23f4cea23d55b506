package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ordermonitor/src/bulk"
	"ordermonitor/src/monitor"
)

type watchedView interface {
	Watched() monitor.WatchedView
	SetEventScope(eventID string) bool
	ToggleSelection(watchID string) (bool, error)
	SelectAll(checked bool) int
}

type bulkRunner interface {
	ResolveSelected(ctx context.Context) (bulk.Result, error)
	ResumeSelected(ctx context.Context) (bulk.Result, error)
}

type scopeRequest struct {
	EventID *string `json:"event_id"`
}

type selectAllRequest struct {
	Checked bool `json:"checked"`
}

type selectionResponse struct {
	WatchID  string `json:"watch_id,omitempty"`
	Selected bool   `json:"selected"`
	Count    int    `json:"count"`
}

func ListWatchedHandler(view watchedView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, view.Watched())
	}
}

// SetScopeHandler sets the viewed maintenance event. A null or empty
// event_id follows the active event.
func SetScopeHandler(view watchedView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scopeRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		eventID := ""
		if req.EventID != nil {
			eventID = strings.TrimSpace(*req.EventID)
		}
		view.SetEventScope(eventID)
		writeJSON(w, http.StatusOK, view.Watched())
	}
}

func ToggleSelectionHandler(view watchedView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		watchID := chi.URLParam(r, "watchID")
		selected, err := view.ToggleSelection(watchID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, selectionResponse{
			WatchID:  watchID,
			Selected: selected,
			Count:    len(view.Watched().Selection),
		})
	}
}

func SelectAllHandler(view watchedView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectAllRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		count := view.SelectAll(req.Checked)
		writeJSON(w, http.StatusOK, selectionResponse{Selected: req.Checked, Count: count})
	}
}

func ResolveSelectedHandler(runner bulkRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := runner.ResolveSelected(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func ResumeSelectedHandler(runner bulkRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := runner.ResumeSelected(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ResolveWatchedHandler resolves the single record {watchID}.
func ResolveWatchedHandler(actions orderActor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := actions.ResolveOne(r.Context(), chi.URLParam(r, "watchID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

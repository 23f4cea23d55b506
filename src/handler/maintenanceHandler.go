package handler

import (
	"context"
	"net/http"
	"strconv"

	"ordermonitor/src/maintenance"
	"ordermonitor/src/model"
	"ordermonitor/src/monitor"
	"ordermonitor/src/notify"
	"ordermonitor/src/repository"
)

type maintenanceView interface {
	Maintenance() monitor.MaintenanceView
}

type maintenanceToggler interface {
	Toggle(ctx context.Context, enabled bool) (maintenance.Transition, error)
	SetSelectedExchanges(exchanges []string) []string
}

type noticeSource interface {
	Recent() []notify.Notice
}

type exceptionFinder interface {
	FindLatest(ctx context.Context, filter repository.ExceptionFilter) ([]model.Exception, error)
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type exchangesRequest struct {
	Exchanges []string `json:"exchanges"`
}

func GetMaintenanceHandler(view maintenanceView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, view.Maintenance())
	}
}

func SetExchangesHandler(ctl maintenanceToggler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exchangesRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		writeJSON(w, http.StatusOK, exchangesRequest{Exchanges: ctl.SetSelectedExchanges(req.Exchanges)})
	}
}

// ToggleMaintenanceHandler returns the transition both on success and on a
// rolled-back call, so the caller sees which value is now in force.
func ToggleMaintenanceHandler(ctl maintenanceToggler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleRequest
		if err := decodeBody(r, &req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "enabled is required"})
			return
		}

		t, err := ctl.Toggle(r.Context(), *req.Enabled)
		if err != nil {
			if t.Phase == maintenance.PhaseRolledBack {
				writeJSON(w, statusFor(err), t)
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func ListNoticesHandler(notices noticeSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, notices.Recent())
	}
}

// ListExceptionsHandler lists journaled exceptions, newest first.
// Supports module, level and limit query parameters.
func ListExceptionsHandler(repo exceptionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := repository.ExceptionFilter{
			Module: r.URL.Query().Get("module"),
			Level:  r.URL.Query().Get("level"),
		}
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err := strconv.Atoi(limitParam)
			if err != nil || limit <= 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
			filter.Limit = limit
		}

		out, err := repo.FindLatest(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		if out == nil {
			out = []model.Exception{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

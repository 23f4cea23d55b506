package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/bulk"
	"ordermonitor/src/connectors"
	"ordermonitor/src/maintenance"
	"ordermonitor/src/monitor"
	"ordermonitor/src/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP statuses. Rejections that never
// reached the order-management API are client errors; failed calls are
// reported as a bad gateway.
func statusFor(err error) int {
	var apiErr *connectors.APIError
	switch {
	case errors.Is(err, bulk.ErrBulkInFlight), errors.Is(err, maintenance.ErrTogglePending):
		return http.StatusConflict
	case bulk.IsRejection(err), errors.Is(err, monitor.ErrNotSelectable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, monitor.ErrUnknownOrder):
		return http.StatusNotFound
	case errors.Is(err, monitor.ErrNotSortable):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrJournalDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordermonitor/src/bulk"
	"ordermonitor/src/connectors"
	"ordermonitor/src/maintenance"
	"ordermonitor/src/model"
	"ordermonitor/src/monitor"
	"ordermonitor/src/repository"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{bulk.ErrBulkInFlight, http.StatusConflict},
		{maintenance.ErrTogglePending, http.StatusConflict},
		{bulk.ErrAmbiguousEvent, http.StatusUnprocessableEntity},
		{monitor.ErrNotSelectable, http.StatusUnprocessableEntity},
		{monitor.ErrUnknownOrder, http.StatusNotFound},
		{monitor.ErrNotSortable, http.StatusBadRequest},
		{repository.ErrJournalDisabled, http.StatusServiceUnavailable},
		{&bulk.MutationError{Action: "resolve", Count: 1, Err: &connectors.APIError{StatusCode: 500}}, http.StatusBadGateway},
		{fmt.Errorf("pause: %w", &connectors.APIError{StatusCode: 404}), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

type fakeFinder struct {
	filter repository.ExceptionFilter
	out    []model.Exception
	err    error
}

func (f *fakeFinder) FindLatest(_ context.Context, filter repository.ExceptionFilter) ([]model.Exception, error) {
	f.filter = filter
	return f.out, f.err
}

func TestListExceptionsHandler(t *testing.T) {
	finder := &fakeFinder{}
	h := ListExceptionsHandler(finder)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exceptions?module=bulk&level=error&limit=5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	assert.Equal(t, repository.ExceptionFilter{Module: "bulk", Level: "error", Limit: 5}, finder.filter)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exceptions?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	finder.err = errors.New("db down")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exceptions", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"db down"}`, rr.Body.String())
}

type fakeToggler struct {
	t   maintenance.Transition
	err error
}

func (f *fakeToggler) Toggle(context.Context, bool) (maintenance.Transition, error) {
	return f.t, f.err
}

func (f *fakeToggler) SetSelectedExchanges(ex []string) []string { return ex }

func TestToggleMaintenanceHandlerPending(t *testing.T) {
	h := ToggleMaintenanceHandler(&fakeToggler{err: maintenance.ErrTogglePending})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/maintenance/toggle", strings.NewReader(`{"enabled":true}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already pending")
}

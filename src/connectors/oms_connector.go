package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/mapper"
	"ordermonitor/src/model"
)

// OrderManagementAPI is the order-management backend the monitor reads from
// and mutates through.
type OrderManagementAPI interface {
	ListOpenOrders(ctx context.Context, filter model.OpenOrderFilter) ([]model.OpenOrder, error)
	// ListWatchedOrders lists records of eventID, or of the active event when eventID is "".
	ListWatchedOrders(ctx context.Context, eventID string) ([]model.WatchRecord, error)
	GetMaintenanceStatus(ctx context.Context) (model.MaintenanceStatus, error)
	ListMaintenanceEvents(ctx context.Context) ([]model.MaintenanceEvent, error)
	SetMaintenanceMode(ctx context.Context, enabled bool, orderIDs []model.OrderID, exchanges []string) (string, error)
	ResolveWatchRecord(ctx context.Context, watchID string) error
	ResolveWatchedOrdersBulk(ctx context.Context, orderIDs []model.OrderID, eventID string) (string, error)
	ResumeWatchedOrdersBulk(ctx context.Context, orderIDs []model.OrderID) (string, error)
	PauseOrder(ctx context.Context, id model.OrderID) error
	ResumeOrder(ctx context.Context, id model.OrderID) error
	CancelOrder(ctx context.Context, id model.OrderID, orderType model.OrderType) error
}

// APIError is a non-2xx answer from the order-management API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oms %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// OMSClient talks to the order-management API over HTTP.
type OMSClient struct {
	baseURL string
	http    *resty.Client
}

var _ OrderManagementAPI = (*OMSClient)(nil)

// isRetryableResp retries reads only. Mutations are never replayed; the
// poll cadence covers transient read failures when retries are disabled.
func isRetryableResp(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return (code >= 500 && code <= 599) || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func NewOMSClient(cfg Config) *OMSClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
		logger.Warnf("No OMS base URL provided, using default: %s", baseURL)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(isRetryableResp).
		SetHeader("Accept", "application/json")

	if cfg.APIToken != "" {
		httpClient.SetAuthToken(cfg.APIToken)
	}

	return &OMSClient{baseURL: baseURL, http: httpClient}
}

func NewOMSClientFromEnv() *OMSClient {
	return NewOMSClient(GetConfig())
}

func (c *OMSClient) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	requestID := uuid.NewString()
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		logger.WithFields(logger.Fields{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Debug("OMS request failed")
		return nil, fmt.Errorf("oms %s %s: %w", method, path, err)
	}

	if !resp.IsSuccess() {
		apiErr := &APIError{
			StatusCode: resp.StatusCode(),
			Method:     method,
			Path:       path,
			Message:    errorMessage(resp.Body()),
		}
		logger.WithFields(logger.Fields{
			"status":     apiErr.StatusCode,
			"path":       path,
			"request_id": requestID,
		}).Debug(apiErr.Message)
		return nil, apiErr
	}
	return resp.Body(), nil
}

// errorMessage picks error, message or detail from a JSON body, falling back
// to the raw body text.
func errorMessage(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			if s, ok := body[key].(string); ok && s != "" {
				return s
			}
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "empty response"
	}
	return msg
}

func (c *OMSClient) ListOpenOrders(ctx context.Context, filter model.OpenOrderFilter) ([]model.OpenOrder, error) {
	q := url.Values{}
	if filter.Pair != "" {
		q.Set("pair", filter.Pair)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Exchange != "" {
		q.Set("exchange", filter.Exchange)
	}
	raw, err := c.do(ctx, http.MethodGet, "/api/orders/open", q, nil)
	if err != nil {
		return nil, err
	}
	return mapper.MapOpenOrders(raw)
}

func (c *OMSClient) ListWatchedOrders(ctx context.Context, eventID string) ([]model.WatchRecord, error) {
	q := url.Values{}
	if eventID != "" {
		q.Set("maintenance_event_id", eventID)
	}
	raw, err := c.do(ctx, http.MethodGet, "/api/maintenance/watched-orders", q, nil)
	if err != nil {
		return nil, err
	}
	return mapper.MapWatchRecords(raw)
}

func (c *OMSClient) GetMaintenanceStatus(ctx context.Context) (model.MaintenanceStatus, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/maintenance/status", nil, nil)
	if err != nil {
		return model.MaintenanceStatus{}, err
	}
	return mapper.MapMaintenanceStatus(raw)
}

func (c *OMSClient) ListMaintenanceEvents(ctx context.Context) ([]model.MaintenanceEvent, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/maintenance/events", nil, nil)
	if err != nil {
		return nil, err
	}
	return mapper.MapMaintenanceEvents(raw)
}

type maintenanceToggleRequest struct {
	Enabled   bool            `json:"enabled"`
	OrderIDs  []model.OrderID `json:"order_ids"`
	Exchanges []string        `json:"exchanges"`
}

func (c *OMSClient) SetMaintenanceMode(ctx context.Context, enabled bool, orderIDs []model.OrderID, exchanges []string) (string, error) {
	body := maintenanceToggleRequest{
		Enabled:   enabled,
		OrderIDs:  nonNilIDs(orderIDs),
		Exchanges: exchanges,
	}
	if body.Exchanges == nil {
		body.Exchanges = []string{}
	}
	raw, err := c.do(ctx, http.MethodPost, "/api/maintenance/toggle", nil, body)
	if err != nil {
		return "", err
	}
	return mapper.MapMessage(raw), nil
}

func (c *OMSClient) ResolveWatchRecord(ctx context.Context, watchID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/maintenance/watched-orders/"+url.PathEscape(watchID)+"/resolve", nil, nil)
	return err
}

type bulkRequest struct {
	OrderIDs []model.OrderID `json:"order_ids"`
	// Event ids share the order id encoding: integers go out as numbers.
	MaintenanceEventID *model.OrderID `json:"maintenance_event_id,omitempty"`
}

func (c *OMSClient) ResolveWatchedOrdersBulk(ctx context.Context, orderIDs []model.OrderID, eventID string) (string, error) {
	ev := model.OrderID(eventID)
	raw, err := c.do(ctx, http.MethodPost, "/api/maintenance/watched-orders/resolve-bulk", nil, bulkRequest{
		OrderIDs:           nonNilIDs(orderIDs),
		MaintenanceEventID: &ev,
	})
	if err != nil {
		return "", err
	}
	return mapper.MapMessage(raw), nil
}

func (c *OMSClient) ResumeWatchedOrdersBulk(ctx context.Context, orderIDs []model.OrderID) (string, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/maintenance/watched-orders/resume-bulk", nil, bulkRequest{
		OrderIDs: nonNilIDs(orderIDs),
	})
	if err != nil {
		return "", err
	}
	return mapper.MapMessage(raw), nil
}

func (c *OMSClient) PauseOrder(ctx context.Context, id model.OrderID) error {
	_, err := c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(id.String())+"/pause", nil, nil)
	return err
}

func (c *OMSClient) ResumeOrder(ctx context.Context, id model.OrderID) error {
	_, err := c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(id.String())+"/resume", nil, nil)
	return err
}

func (c *OMSClient) CancelOrder(ctx context.Context, id model.OrderID, orderType model.OrderType) error {
	path, err := cancelPath(id, orderType)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// cancelPath selects the cancellation endpoint for the order family.
func cancelPath(id model.OrderID, orderType model.OrderType) (string, error) {
	escaped := url.PathEscape(id.String())
	switch orderType {
	case model.OrderTypeSingle:
		return "/api/orders/" + escaped, nil
	case model.OrderTypeMulti:
		return "/api/multi-orders/" + escaped, nil
	case model.OrderTypeChained:
		return "/api/chained-orders/" + escaped, nil
	case model.OrderTypeBatch:
		return "/api/batch-orders/" + escaped, nil
	}
	return "", fmt.Errorf("cancel order %s: unsupported order type %d", id, int(orderType))
}

func nonNilIDs(ids []model.OrderID) []model.OrderID {
	if ids == nil {
		return []model.OrderID{}
	}
	return ids
}

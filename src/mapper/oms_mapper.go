package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/model"
)

// envelopeKeys are the wrapper fields list endpoints have used over time.
var envelopeKeys = []string{"data", "results", "items", "orders", "watched_orders", "events"}

// decodeList accepts either a bare JSON array or an object wrapping the array
// in one of envelopeKeys.
func decodeList(raw []byte, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, out)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return fmt.Errorf("decode list payload: %w", err)
	}
	for _, key := range envelopeKeys {
		if inner, ok := wrapper[key]; ok {
			return decodeList(inner, out)
		}
	}
	return fmt.Errorf("decode list payload: no array field among %v", envelopeKeys)
}

// MapOpenOrders decodes a list of open orders. Orders without an id are
// dropped, and only the first occurrence of a repeated id is kept.
func MapOpenOrders(raw []byte) ([]model.OpenOrder, error) {
	var orders []model.OpenOrder
	if err := decodeList(raw, &orders); err != nil {
		return nil, err
	}

	seen := make(map[model.OrderID]struct{}, len(orders))
	out := make([]model.OpenOrder, 0, len(orders))
	for _, o := range orders {
		if o.ID.IsZero() {
			logger.WithField("mapper", "MapOpenOrders").Warn("Open order without id dropped")
			continue
		}
		if _, dup := seen[o.ID]; dup {
			logger.WithFields(logger.Fields{
				"mapper":   "MapOpenOrders",
				"order_id": o.ID.String(),
			}).Warn("Duplicate open order id, keeping first occurrence")
			continue
		}
		seen[o.ID] = struct{}{}

		o.Status = o.Status.Normalize()
		if _, ok := model.ParseOrderType(o.OrderType); !ok && o.OrderType != "" {
			logger.WithFields(logger.Fields{
				"mapper":     "MapOpenOrders",
				"order_id":   o.ID.String(),
				"order_type": o.OrderType,
			}).Debug("Unknown order type, treating as Single")
		}
		out = append(out, o)
	}
	return out, nil
}

// WatchRecordDTO is the wire shape of a watched order. The API is loose
// about booleans, timestamps and the exchange list.
type WatchRecordDTO struct {
	WatchID            model.OrderID     `json:"watch_id"`
	ID                 model.OrderID     `json:"id"`
	OrderID            model.OrderID     `json:"order_id"`
	MaintenanceEventID model.OrderID     `json:"maintenance_event_id"`
	OrderStatusAtWatch model.OrderStatus `json:"order_status_at_watch"`
	CurrentStatus      model.OrderStatus `json:"current_status"`
	Resolved           model.Value       `json:"resolved"`
	ResolvedAt         model.Value       `json:"resolved_at"`
	Exchanges          json.RawMessage   `json:"exchanges"`
	Pair               model.Value       `json:"pair"`
	Side               model.Value       `json:"side"`
	TargetOrderQty     model.Value       `json:"target_order_qty"`
	TargetExecutedQty  model.Value       `json:"target_executed_qty"`
	TargetToken        model.Value       `json:"target_token"`
}

// MapWatchRecords decodes watched orders. Records without a watch id fall
// back to "id" and are dropped when neither is present.
func MapWatchRecords(raw []byte) ([]model.WatchRecord, error) {
	var dtos []WatchRecordDTO
	if err := decodeList(raw, &dtos); err != nil {
		return nil, err
	}

	out := make([]model.WatchRecord, 0, len(dtos))
	for _, d := range dtos {
		watchID := d.WatchID
		if watchID.IsZero() {
			watchID = d.ID
		}
		if watchID.IsZero() {
			logger.WithFields(logger.Fields{
				"mapper":   "MapWatchRecords",
				"order_id": d.OrderID.String(),
			}).Warn("Watch record without watch_id dropped")
			continue
		}

		rec := model.WatchRecord{
			WatchID:            watchID.String(),
			OrderID:            d.OrderID,
			MaintenanceEventID: d.MaintenanceEventID.String(),
			OrderStatusAtWatch: d.OrderStatusAtWatch.Normalize(),
			CurrentStatus:      d.CurrentStatus.Normalize(),
			Exchanges:          parseExchanges(d.Exchanges),
			Pair:               d.Pair,
			Side:               d.Side,
			TargetOrderQty:     d.TargetOrderQty,
			TargetExecutedQty:  d.TargetExecutedQty,
			TargetToken:        d.TargetToken,
		}
		if at, ok := parseTime("resolved_at", d.ResolvedAt); ok {
			rec.ResolvedAt = &at
		}
		rec.Resolved = parseBool(d.Resolved) || rec.ResolvedAt != nil
		out = append(out, rec)
	}
	return out, nil
}

// MaintenanceEventDTO is the wire shape of a maintenance event.
type MaintenanceEventDTO struct {
	ID                  model.OrderID `json:"id"`
	EnabledAt           model.Value   `json:"enabled_at"`
	DisabledAt          model.Value   `json:"disabled_at"`
	IsActive            model.Value   `json:"is_active"`
	DurationSeconds     model.Value   `json:"duration_seconds"`
	WatchedOrdersCount  model.Value   `json:"watched_orders_count"`
	ResolvedOrdersCount model.Value   `json:"resolved_orders_count"`
}

// MapMaintenanceEvents decodes maintenance events. When is_active is absent
// an event is active exactly when it has no disabled_at.
func MapMaintenanceEvents(raw []byte) ([]model.MaintenanceEvent, error) {
	var dtos []MaintenanceEventDTO
	if err := decodeList(raw, &dtos); err != nil {
		return nil, err
	}

	out := make([]model.MaintenanceEvent, 0, len(dtos))
	for _, d := range dtos {
		if d.ID.IsZero() {
			logger.WithField("mapper", "MapMaintenanceEvents").Warn("Maintenance event without id dropped")
			continue
		}
		ev := model.MaintenanceEvent{
			ID:                  d.ID.String(),
			WatchedOrdersCount:  parseInt("watched_orders_count", d.WatchedOrdersCount),
			ResolvedOrdersCount: parseInt("resolved_orders_count", d.ResolvedOrdersCount),
		}
		if at, ok := parseTime("enabled_at", d.EnabledAt); ok {
			ev.EnabledAt = &at
		}
		if at, ok := parseTime("disabled_at", d.DisabledAt); ok {
			ev.DisabledAt = &at
		}
		if d.IsActive.Valid() {
			ev.IsActive = parseBool(d.IsActive)
		} else {
			ev.IsActive = ev.DisabledAt == nil
		}
		if d.DurationSeconds.Valid() {
			if f, err := strconv.ParseFloat(strings.TrimSpace(d.DurationSeconds.String()), 64); err == nil {
				ev.DurationSeconds = &f
			} else {
				logger.WithField("value", d.DurationSeconds.String()).WithError(err).Warn("Failed to parse duration_seconds")
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

// MapMaintenanceStatus decodes {"enabled": ...}, tolerating the older
// "maintenance_mode" field name.
func MapMaintenanceStatus(raw []byte) (model.MaintenanceStatus, error) {
	var dto struct {
		Enabled         model.Value `json:"enabled"`
		MaintenanceMode model.Value `json:"maintenance_mode"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return model.MaintenanceStatus{}, fmt.Errorf("decode maintenance status: %w", err)
	}
	if dto.Enabled.Valid() {
		return model.MaintenanceStatus{Enabled: parseBool(dto.Enabled)}, nil
	}
	return model.MaintenanceStatus{Enabled: parseBool(dto.MaintenanceMode)}, nil
}

// MapMessage extracts the human-readable message of a mutation response.
// An empty body yields "".
func MapMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var dto struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return ""
	}
	if dto.Message != "" {
		return dto.Message
	}
	return dto.Detail
}

func parseBool(v model.Value) bool {
	if !v.Valid() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v.String())) {
	case "true", "1", "yes", "y", "t":
		return true
	}
	return false
}

func parseInt(field string, v model.Value) int {
	if !v.Valid() || strings.TrimSpace(v.String()) == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	if err != nil {
		logger.WithFields(logger.Fields{
			"field": field,
			"value": v.String(),
		}).WithError(err).Warn("Failed to parse integer field; defaulting to 0")
		return 0
	}
	return int(f)
}

func parseTime(field string, v model.Value) (time.Time, bool) {
	if !v.Valid() || strings.TrimSpace(v.String()) == "" {
		return time.Time{}, false
	}
	t, ok := model.ParseTimestamp(v.String())
	if !ok {
		logger.WithFields(logger.Fields{
			"field": field,
			"value": v.String(),
		}).Warn("Failed to parse timestamp field; ignoring")
	}
	return t, ok
}

// parseExchanges accepts ["a","b"] or "a, b".
func parseExchanges(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var joined string
		if err := json.Unmarshal(raw, &joined); err != nil {
			logger.WithField("value", string(raw)).Warn("Unrecognised exchanges field; ignoring")
			return nil
		}
		list = strings.Split(joined, ",")
	}

	out := make([]string, 0, len(list))
	for _, e := range list {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

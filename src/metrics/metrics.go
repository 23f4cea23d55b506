// Package metrics exposes Prometheus counters for polling, bulk actions and
// maintenance toggles. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

type Metrics struct {
	registry *prometheus.Registry

	pollTicks          *prometheus.CounterVec
	pollDuration       *prometheus.HistogramVec
	bulkActions        *prometheus.CounterVec
	maintenanceToggles *prometheus.CounterVec
	openOrders         prometheus.Gauge
	selectionSize      prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		pollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ordermonitor_poll_ticks_total",
			Help: "Poll ticks by loop and result (ok, error, skipped).",
		}, []string{"loop", "result"}),
		pollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ordermonitor_poll_duration_seconds",
			Help:    "Duration of poll fetches by loop.",
			Buckets: prometheus.DefBuckets,
		}, []string{"loop"}),
		bulkActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ordermonitor_bulk_actions_total",
			Help: "Bulk resolve/resume attempts by action and result.",
		}, []string{"action", "result"}),
		maintenanceToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ordermonitor_maintenance_toggles_total",
			Help: "Maintenance mode toggles by requested state and result.",
		}, []string{"enabled", "result"}),
		openOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ordermonitor_open_orders",
			Help: "Open orders in the latest snapshot.",
		}),
		selectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ordermonitor_selected_watch_records",
			Help: "Watch records currently selected.",
		}),
	}

	registry.MustRegister(m.pollTicks, m.pollDuration, m.bulkActions, m.maintenanceToggles, m.openOrders, m.selectionSize)
	return m
}

// Handler exposes the registry via HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePoll(loop, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.pollTicks.WithLabelValues(loop, result).Inc()
	if result != ResultSkipped {
		m.pollDuration.WithLabelValues(loop).Observe(d.Seconds())
	}
}

func (m *Metrics) IncBulkAction(action, result string) {
	if m == nil {
		return
	}
	m.bulkActions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) IncMaintenanceToggle(enabled bool, result string) {
	if m == nil {
		return
	}
	state := "off"
	if enabled {
		state = "on"
	}
	m.maintenanceToggles.WithLabelValues(state, result).Inc()
}

func (m *Metrics) SetOpenOrders(n int) {
	if m == nil {
		return
	}
	m.openOrders.Set(float64(n))
}

func (m *Metrics) SetSelectionSize(n int) {
	if m == nil {
		return
	}
	m.selectionSize.Set(float64(n))
}

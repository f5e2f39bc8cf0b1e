// Package metrics exposes Prometheus collectors for refresh cycles.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors on a private registry so several instances
// (tests, embedded servers) never collide.
type Metrics struct {
	reg *prometheus.Registry

	CyclesTotal     prometheus.Counter
	CycleDuration   prometheus.Histogram
	LastCycle       prometheus.Gauge
	Evaluations     *prometheus.CounterVec // labels: pair
	NoData          *prometheus.CounterVec // labels: pair
	FetchErrors     *prometheus.CounterVec // labels: pair
	SignalsTotal    *prometheus.CounterVec // labels: pair, direction
	NotifyErrors    prometheus.Counter
	HistoryErrors   prometheus.Counter
	HTTPRequests    *prometheus.CounterVec // labels: method, route, status
	HTTPReqDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesense_refresh_cycles_total",
			Help: "Completed signal refresh cycles",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradesense_refresh_cycle_duration_seconds",
			Help:    "Wall time of one refresh cycle across all pairs",
			Buckets: prometheus.DefBuckets,
		}),
		LastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesense_last_refresh_timestamp_seconds",
			Help: "Unix time the last refresh cycle finished",
		}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesense_evaluations_total",
			Help: "Snapshots evaluated per pair",
		}, []string{"pair"}),
		NoData: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesense_insufficient_data_total",
			Help: "Evaluations skipped because the series was too short",
		}, []string{"pair"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesense_fetch_errors_total",
			Help: "Market data fetch failures per pair",
		}, []string{"pair"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesense_signals_total",
			Help: "Signals emitted",
		}, []string{"pair", "direction"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesense_notify_errors_total",
			Help: "Failed signal notifications",
		}),
		HistoryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesense_history_errors_total",
			Help: "Failed signal history writes",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesense_http_requests_total",
			Help: "API requests served",
		}, []string{"method", "route", "status"}),
		HTTPReqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradesense_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.LastCycle,
		m.Evaluations,
		m.NoData,
		m.FetchErrors,
		m.SignalsTotal,
		m.NotifyErrors,
		m.HistoryErrors,
		m.HTTPRequests,
		m.HTTPReqDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveCycle records one finished refresh cycle.
func (m *Metrics) ObserveCycle(start, end time.Time) {
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(end.Sub(start).Seconds())
	m.LastCycle.Set(float64(end.Unix()))
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

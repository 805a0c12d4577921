// Package metrics defines the Prometheus collectors exported by pitchboard.
//
// All collectors register with the default registry on import, so the
// server's /metrics endpoint exposes them without further wiring.
//
//	timer := metrics.NewTimer()
//	d := engine.Build(ctx, table, sel)
//	metrics.PassDuration.WithLabelValues("api").Observe(timer.Stop().Seconds())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pitchboard"

var (
	// LoaderReads counts dataset reads by outcome (ok, io_error, parse_error, cached).
	LoaderReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_reads_total",
			Help:      "Dataset load attempts by result",
		},
		[]string{"result"},
	)

	// LoaderRows is the row count of the last successful load per source file.
	LoaderRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loader_rows",
			Help:      "Rows in the loaded dataset",
		},
		[]string{"source"},
	)

	// Passes counts dashboard passes by entry point (page, api, cli).
	Passes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Dashboard passes executed",
		},
		[]string{"entry"},
	)

	// PassDuration tracks the latency of one filter → summarize → charts pass.
	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Dashboard pass latency",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"entry"},
	)

	// FilteredRows observes how many rows survive each selection.
	FilteredRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows kept by a selection",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// ChartRenders counts SVG renders by panel and result.
	ChartRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_renders_total",
			Help:      "SVG chart renders",
		},
		[]string{"panel", "result"},
	)

	// HTTPRequests counts served requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks request latency by route.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Timer measures elapsed time for a histogram observation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration. A timer may be stopped more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObservePass records one pass for an entry point.
func ObservePass(entry string, filtered int, d time.Duration) {
	Passes.WithLabelValues(entry).Inc()
	PassDuration.WithLabelValues(entry).Observe(d.Seconds())
	FilteredRows.Observe(float64(filtered))
}

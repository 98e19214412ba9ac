// Package observability holds the Prometheus metrics of the import pipelines
// and the dashboard server.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "fleetwatch"

// Metrics holds the counters and histograms of one process. Each Metrics owns
// its registry so several instances can live side by side. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	FilesProcessed   *prometheus.CounterVec   // labels: pipeline, outcome={imported,skipped,failed}
	RowsWrittenTotal *prometheus.CounterVec   // labels: table
	SamplesDropped   *prometheus.CounterVec   // labels: reason
	RunDuration      *prometheus.HistogramVec // labels: pipeline
	LastSuccess      *prometheus.GaugeVec     // labels: pipeline
	HTTPRequests     *prometheus.CounterVec   // labels: route, code
}

// NewMetrics creates the metrics and registers them on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Source files handled by an import pipeline, by outcome.",
		}, []string{"pipeline", "outcome"}),
		RowsWrittenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written to the datastores, by table.",
		}, []string{"table"}),
		SamplesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_dropped_total",
			Help:      "GPS samples discarded while reading track files, by reason.",
		}, []string{"reason"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete import run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"pipeline"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last import run that stored data.",
		}, []string{"pipeline"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.Registry.MustRegister(
		m.FilesProcessed,
		m.RowsWrittenTotal,
		m.SamplesDropped,
		m.RunDuration,
		m.LastSuccess,
		m.HTTPRequests,
	)

	return m
}

// FileProcessed counts one source file
func (m *Metrics) FileProcessed(pipeline, outcome string) {
	if m == nil {
		return
	}
	m.FilesProcessed.WithLabelValues(pipeline, outcome).Inc()
}

// RowsWritten adds n written rows for table
func (m *Metrics) RowsWritten(table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsWrittenTotal.WithLabelValues(table).Add(float64(n))
}

// SamplesDroppedN adds n discarded GPS samples for reason
func (m *Metrics) SamplesDroppedN(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SamplesDropped.WithLabelValues(reason).Add(float64(n))
}

// ObserveDuration records the duration of a run
func (m *Metrics) ObserveDuration(pipeline string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

// MarkSuccess sets the last success time of pipeline to now
func (m *Metrics) MarkSuccess(pipeline string) {
	if m == nil {
		return
	}
	m.LastSuccess.WithLabelValues(pipeline).SetToCurrentTime()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// RequestServed counts one dashboard response
func (m *Metrics) RequestServed(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Push sends every metric of the registry to a Pushgateway. Import runs are
// short-lived, so they push once when they finish instead of being scraped.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}

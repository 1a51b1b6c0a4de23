// Package metrics provides Prometheus metrics for the chat backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Ensure Metrics implements the recorder port.
var _ driven.Recorder = (*Metrics)(nil)

const namespace = "chatbot"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Ingestion metrics
	DocumentsIngestedTotal *prometheus.CounterVec
	ChunksCreatedTotal     prometheus.Counter

	// Selection metrics
	SelectionsTotal       *prometheus.CounterVec
	SelectedChunks        prometheus.Histogram
	OracleDurationSeconds prometheus.Histogram

	// Chat metrics
	ChatRequestsTotal *prometheus.CounterVec
}

// New creates and registers all collectors, including the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),

		DocumentsIngestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_ingested_total",
				Help:      "Total number of ingestion attempts by media kind and status",
			},
			[]string{"kind", "status"},
		),
		ChunksCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_created_total",
				Help:      "Total number of chunks stored",
			},
		),

		SelectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "selections_total",
				Help:      "Total number of relevance selections by outcome",
			},
			[]string{"outcome"},
		),
		SelectedChunks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "selected_chunks",
				Help:      "Number of chunks kept per selection",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		OracleDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "oracle_duration_seconds",
				Help:      "Latency of the selection oracle in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		ChatRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_requests_total",
				Help:      "Total number of chat requests by status",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// DocumentIngested implements driven.Recorder.
func (m *Metrics) DocumentIngested(kind, status string, chunks int) {
	m.DocumentsIngestedTotal.WithLabelValues(kind, status).Inc()
	if chunks > 0 {
		m.ChunksCreatedTotal.Add(float64(chunks))
	}
}

// SelectionCompleted implements driven.Recorder.
func (m *Metrics) SelectionCompleted(outcome string, selected int, elapsed time.Duration) {
	m.SelectionsTotal.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.OracleDurationSeconds.Observe(elapsed.Seconds())
	}
	if outcome != "error" {
		m.SelectedChunks.Observe(float64(selected))
	}
}

// ChatCompleted implements driven.Recorder.
func (m *Metrics) ChatCompleted(status string) {
	m.ChatRequestsTotal.WithLabelValues(status).Inc()
}

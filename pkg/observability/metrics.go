package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one process. Each instance owns
// its registry, so several can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	NodeChanges   *prometheus.CounterVec
	EdgeChanges   *prometheus.CounterVec
	Saves         *prometheus.CounterVec
	SaveDuration  prometheus.Histogram
	Validations   *prometheus.CounterVec
	FindingsTotal *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		NodeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_changes_total",
			Help:      "Structural node changes by event and node kind",
		}, []string{"event", "kind"}),
		EdgeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edge_changes_total",
			Help:      "Connection changes by event",
		}, []string{"event"}),
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_saves_total",
			Help:      "Calls to the save handler by outcome",
		}, []string{"outcome"}),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_save_duration_seconds",
			Help:      "Duration of save handler calls",
			Buckets:   prometheus.DefBuckets,
		}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_validations_total",
			Help:      "Validation runs by resulting status",
		}, []string{"status"}),
		FindingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_findings_total",
			Help:      "Non-success findings reported by level",
		}, []string{"level"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.NodeChanges, m.EdgeChanges, m.Saves, m.SaveDuration,
		m.Validations, m.FindingsTotal, m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns editor hooks that record every event.
func (m *Metrics) Hooks() domain.EditHooks {
	return domain.EditHooks{
		OnNodeChange: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeChanges.WithLabelValues(string(e.Type), string(e.NodeKind)).Inc()
		},
		OnEdgeChange: func(_ context.Context, e *domain.EdgeEvent) {
			m.EdgeChanges.WithLabelValues(string(e.Type)).Inc()
		},
		OnSave: func(_ context.Context, e *domain.SaveEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.Saves.WithLabelValues(outcome).Inc()
			m.SaveDuration.Observe(e.Duration.Seconds())
		},
		OnValidate: func(_ context.Context, e *domain.ValidateEvent) {
			status := domain.FlowError
			if e.Passed {
				status = domain.FlowValidated
			}
			m.Validations.WithLabelValues(string(status)).Inc()
			m.FindingsTotal.WithLabelValues(string(domain.LevelError)).Add(float64(e.Errors))
			m.FindingsTotal.WithLabelValues(string(domain.LevelWarning)).Add(float64(e.Warnings))
		},
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

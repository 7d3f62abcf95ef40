// Package metrics exposes Prometheus instrumentation for clone and
// deployment activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors on a private registry so multiple
// instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	cloneJobsTotal  *prometheus.CounterVec
	cloneActive     prometheus.Gauge
	cloneDuration   prometheus.Histogram
	deployments     *prometheus.GaugeVec
	deployActions   *prometheus.CounterVec
	allocatedPorts  prometheus.Gauge
	stackDetections *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		cloneJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodock_clone_jobs_total",
				Help: "Total number of finished clone jobs",
			},
			[]string{"status"},
		),
		cloneActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "repodock_clone_jobs_active",
				Help: "Number of clone jobs currently running",
			},
		),
		cloneDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "repodock_clone_duration_seconds",
				Help:    "Clone duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		deployments: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "repodock_deployments",
				Help: "Number of deployments by status",
			},
			[]string{"status"},
		),
		deployActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodock_deployment_actions_total",
				Help: "Total number of deployment lifecycle actions",
			},
			[]string{"action", "outcome"},
		),
		allocatedPorts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "repodock_allocated_ports",
				Help: "Number of host ports currently reserved",
			},
		),
		stackDetections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodock_stack_detections_total",
				Help: "Total number of stack detections by result",
			},
			[]string{"stack"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repodock_http_requests_total",
				Help: "Count of processed HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "repodock_http_request_duration_seconds",
				Help:    "Latency distribution of HTTP handlers",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CloneJobFinished records a clone job reaching a terminal status.
func (m *Metrics) CloneJobFinished(status string, duration time.Duration) {
	m.cloneJobsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		m.cloneDuration.Observe(duration.Seconds())
	}
}

// SetActiveClones sets the number of in-flight clone jobs.
func (m *Metrics) SetActiveClones(n int) {
	m.cloneActive.Set(float64(n))
}

// SetDeployments sets the deployment gauge for one status.
func (m *Metrics) SetDeployments(status string, n int) {
	m.deployments.WithLabelValues(status).Set(float64(n))
}

// DeploymentAction records a lifecycle action and its outcome.
func (m *Metrics) DeploymentAction(action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.deployActions.WithLabelValues(action, outcome).Inc()
}

// SetAllocatedPorts sets the reserved port gauge.
func (m *Metrics) SetAllocatedPorts(n int) {
	m.allocatedPorts.Set(float64(n))
}

// StackDetected records a detection result.
func (m *Metrics) StackDetected(stack string) {
	m.stackDetections.WithLabelValues(stack).Inc()
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

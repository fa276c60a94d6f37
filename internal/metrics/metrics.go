package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fleet"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Event bus metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of domain events published",
		},
		[]string{"kind"},
	)

	EventHandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_handler_failures_total",
			Help:      "Total number of event handler errors and panics",
		},
		[]string{"kind", "subscriber"},
	)

	EventHandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_handler_duration_seconds",
			Help:      "Event handler execution time distribution",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"kind", "subscriber"},
	)
)

// Business metrics
var (
	InspectionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inspections_started_total",
			Help:      "Total number of inspections started",
		},
		[]string{"type"},
	)

	InspectionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inspections_completed_total",
			Help:      "Total number of inspections completed",
		},
		[]string{"type", "result"}, // result: "passed" or "failed"
	)

	InspectionDefects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inspection_defects_total",
			Help:      "Total number of failed inspection items",
		},
		[]string{"class"}, // "minor" or "critical"
	)

	VehicleStatusSyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicle_status_sync_failures_total",
			Help:      "Total number of vehicle status updates dropped after a failure",
		},
	)

	MaintenanceEscalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_escalations_total",
			Help:      "Total number of maintenance escalations sent",
		},
		[]string{"severity", "channel", "status"},
	)

	StatisticsRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistics_runs_total",
			Help:      "Total number of statistics aggregations",
		},
	)
)

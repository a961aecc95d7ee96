package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvocationsTotal counts CLI invocations by client and outcome.
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentlink_invocations_total",
			Help: "Total number of CLI invocations",
		},
		[]string{"client", "status"},
	)

	// InvocationDuration tracks wall-clock invocation duration in seconds.
	InvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentlink_invocation_duration_seconds",
			Help:    "CLI invocation duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"client"},
	)

	// InvocationsInFlight tracks currently running CLI processes.
	InvocationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentlink_invocations_in_flight",
			Help: "Number of CLI invocations currently running",
		},
	)

	// DegradedParses counts parses that fell back to raw passthrough.
	DegradedParses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentlink_degraded_parses_total",
			Help: "Parses that fell back to raw output",
		},
		[]string{"client"},
	)

	// RegistryClients tracks the number of usable client configurations.
	RegistryClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentlink_registry_clients",
			Help: "Number of valid CLI clients in the registry",
		},
	)

	// RegistryLoadFailures tracks definitions excluded at load time.
	RegistryLoadFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentlink_registry_load_failures",
			Help: "Number of client definitions excluded by validation",
		},
	)

	// HTTPRequests counts HTTP requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentlink_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks HTTP request duration in seconds.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentlink_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

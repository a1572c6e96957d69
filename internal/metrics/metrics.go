package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scholarhub"

var (
	// Registry holds every collector exported on /metrics.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	dbQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Total number of database statements by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	dbDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database statements.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"type"},
	)

	dbSlowQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "slow_queries_total",
			Help:      "Statements that exceeded the slow query threshold.",
		},
	)

	applicationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "transitions_total",
			Help:      "Application status transitions.",
		},
		[]string{"from", "to"},
	)

	sequenceAllocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "allocations_total",
			Help:      "Identifiers handed out per counter.",
		},
		[]string{"counter", "outcome"},
	)

	uploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "upload_bytes",
			Help:      "Size of accepted document uploads.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 12),
		},
	)

	realtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Open websocket connections.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		dbQueries,
		dbDuration,
		dbSlowQueries,
		applicationTransitions,
		sequenceAllocations,
		uploadBytes,
		realtimeConnections,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// HTTPStarted marks a request in flight and returns the completion hook.
func HTTPStarted() func(method, route string, status int, duration time.Duration) {
	httpInFlight.Inc()
	return func(method, route string, status int, duration time.Duration) {
		httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// ObserveQuery records one database statement.
func ObserveQuery(queryType string, duration time.Duration, err error, slow bool) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	dbQueries.WithLabelValues(queryType, outcome).Inc()
	dbDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	if slow {
		dbSlowQueries.Inc()
	}
}

// ObserveTransition counts an application moving between statuses.
func ObserveTransition(from, to string) {
	applicationTransitions.WithLabelValues(from, to).Inc()
}

// ObserveAllocation counts a sequence value handed out, or a failed attempt.
func ObserveAllocation(counter string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	sequenceAllocations.WithLabelValues(counter, outcome).Inc()
}

// ObserveUpload records the size of a stored document.
func ObserveUpload(size int64) {
	uploadBytes.Observe(float64(size))
}

// RealtimeConnected adjusts the open websocket gauge by delta.
func RealtimeConnected(delta int) {
	realtimeConnections.Add(float64(delta))
}

package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder publishes Prometheus metrics for the quota layer and HTTP traffic.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	quotaDecisions  *prometheus.CounterVec
	cacheOperations *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a dedicated
// registry is created so multiple recorders can coexist in one process.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	quotaDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poam",
		Subsystem: "quota",
		Name:      "decisions_total",
		Help:      "Quota decisions by tier and outcome.",
	}, []string{"tier", "outcome"})

	cacheOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poam",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Tenant response cache operations.",
	}, []string{"operation", "result"})

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poam",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "route", "status_code"})

	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poam",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for HTTP requests.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"})

	reg.MustRegister(quotaDecisions, cacheOperations, httpRequests, httpLatency)

	return &Recorder{
		gatherer:        reg,
		handler:         promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		quotaDecisions:  quotaDecisions,
		cacheOperations: cacheOperations,
		httpRequests:    httpRequests,
		httpLatency:     httpLatency,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

func (r *Recorder) ObserveQuota(tier, outcome string) {
	if r == nil {
		return
	}
	r.quotaDecisions.WithLabelValues(normalizeLabel(tier), normalizeLabel(outcome)).Inc()
}

func (r *Recorder) ObserveCache(operation, result string) {
	if r == nil {
		return
	}
	r.cacheOperations.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

// ObserveHTTP records a completed request. route is the matched route pattern,
// not the raw path, to keep label cardinality bounded.
func (r *Recorder) ObserveHTTP(method, route string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	statusLabel := strconv.Itoa(statusCode)
	if statusCode <= 0 {
		statusLabel = "unknown"
	}
	methodLabel := normalizeLabel(method)
	routeLabel := normalizeLabel(route)
	r.httpRequests.WithLabelValues(methodLabel, routeLabel, statusLabel).Inc()
	r.httpLatency.WithLabelValues(methodLabel, routeLabel).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CredentialOperations counts save, delete and status calls by result.
var CredentialOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradescope_credential_operations_total",
		Help: "Credential operations by operation and result class",
	},
	[]string{"operation", "result"},
)

// AnalysisRequests counts analyze calls by result class.
var AnalysisRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradescope_analysis_requests_total",
		Help: "Chart analysis requests by result class",
	},
	[]string{"result"},
)

// RateLimitRejections counts mutations refused by the rate limiter.
var RateLimitRejections = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tradescope_rate_limit_rejections_total",
		Help: "Credential mutations rejected by the per-user rate limiter",
	},
)

// Notifications counts trade notification attempts by result.
var Notifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradescope_notifications_total",
		Help: "Trade decision notifications by result",
	},
	[]string{"result"},
)

var outboundRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradescope_outbound_requests_total",
		Help: "Outbound HTTP requests by client, status code and method",
	},
	[]string{"client", "code", "method"},
)

var outboundDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "tradescope_outbound_request_duration_seconds",
		Help:    "Outbound HTTP request latency by client",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	},
	[]string{"client", "code", "method"},
)

var registerOnce sync.Once

// RegisterMetrics registers every collector with the default registry. Safe
// to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CredentialOperations,
			AnalysisRequests,
			RateLimitRejections,
			Notifications,
			outboundRequests,
			outboundDuration,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentTransport wraps next so every request is counted and timed under
// the given client label. A nil next uses http.DefaultTransport.
func InstrumentTransport(client string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	labels := prometheus.Labels{"client": client}
	return promhttp.InstrumentRoundTripperCounter(outboundRequests.MustCurryWith(labels),
		promhttp.InstrumentRoundTripperDuration(outboundDuration.MustCurryWith(labels), next),
	)
}

package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for gateway client operations.
var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsywx_gateway_requests_total",
		Help: "Total gateway requests by endpoint and status",
	}, []string{"endpoint", "status"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rsywx_gateway_request_duration_seconds",
		Help:    "Gateway request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	gatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsywx_gateway_errors_total",
		Help: "Total gateway errors by class",
	}, []string{"class"})

	gatewayRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsywx_gateway_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	gatewayRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rsywx_gateway_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	gatewayRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rsywx_gateway_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	gatewayCachedEnvelopesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rsywx_gateway_cached_envelopes_total",
		Help: "Envelopes the gateway marked as served from its own cache",
	})
)

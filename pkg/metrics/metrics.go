// Package metrics defines the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat error categories recorded on ChatErrorCount.
const (
	ErrorMissingInput = "missing_input"
	ErrorEmptyInput   = "empty_input"
	ErrorInputTooLong = "input_too_long"
	ErrorKeyError     = "key_error"
	ErrorUnknown      = "unknown"
)

var (
	// RequestCount counts requests by method, endpoint and status code.
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "request_count_total",
			Help: "Total number of requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks request latency by method and endpoint.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ChatErrorCount counts chat failures by error category.
	ChatErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_errors_total",
			Help: "Total number of chat errors",
		},
		[]string{"error_type"},
	)
)

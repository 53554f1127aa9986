package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_api_requests_total",
			Help: "Total number of API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	APIRequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_api_request_retries_total",
			Help: "Total number of transport-level retry attempts",
		},
		[]string{"operation"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "client_api_request_duration_seconds",
			Help: "Duration of API requests in seconds",
		},
		[]string{"operation"},
	)
)

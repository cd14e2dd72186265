// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_lookups_total",
			Help: "Total number of account lookups by outcome",
		},
		[]string{"variant", "outcome"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "account_lookups_rate_limited_total",
			Help: "Lookups rejected by the attempt limiter",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lookup_sessions_active",
			Help: "Number of live lookup sessions",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_tickets_processed_total",
			Help: "Total number of tickets processed by outcome",
		},
		[]string{"outcome"},
	)

	TicketsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_tickets_failed_total",
			Help: "Total number of tickets degraded to a sentinel row",
		},
		[]string{"failure_kind"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "triage_inference_duration_seconds",
			Help: "Duration of model invocations in seconds",
		},
		[]string{"model_id"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_cache_requests_total",
			Help: "Completion cache lookups by result",
		},
		[]string{"result"},
	)
)

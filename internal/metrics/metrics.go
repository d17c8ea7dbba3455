package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration measures request latency by chi route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pairsync_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Invitations counts invitation operations by op (issue|consume) and result code.
	Invitations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairsync_invitations_total",
			Help: "Invitation operations by outcome",
		},
		[]string{"op", "result"},
	)

	// Answers counts answer submissions by prompt kind and result code.
	Answers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairsync_answers_total",
			Help: "Answer submissions by outcome",
		},
		[]string{"kind", "result"},
	)

	// Reminders counts reminder requests by prompt kind and result code.
	Reminders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairsync_reminders_total",
			Help: "Partner reminder requests by outcome",
		},
		[]string{"kind", "result"},
	)

	// CleanupDeleted counts rows removed by the cleanup job.
	CleanupDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairsync_cleanup_deleted_total",
			Help: "Rows deleted by the cleanup job",
		},
		[]string{"task"},
	)
)

// ResultOK labels successful operations.
const ResultOK = "ok"

func Handler() http.Handler {
	return promhttp.Handler()
}

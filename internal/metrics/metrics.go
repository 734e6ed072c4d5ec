// Package metrics exports the Prometheus collectors for claim processing.
// Collectors are registered at import time via promauto; the admin server
// serves them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClaimsProcessed counts finished claim runs by terminal status.
	ClaimsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimflow_claims_processed_total",
			Help: "Claim runs finished, by terminal task status",
		},
		[]string{"status"},
	)

	// TeamDuration observes wall time per team sub-workflow.
	TeamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claimflow_team_duration_seconds",
			Help:    "Wall time of one team sub-workflow",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"team"},
	)

	// InvestigatorRequests counts reasoning-service calls by outcome.
	InvestigatorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimflow_investigator_requests_total",
			Help: "Reasoning-service calls, by worker and outcome",
		},
		[]string{"worker", "outcome"},
	)

	// ReportWrites counts claim-report upserts by outcome.
	ReportWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimflow_report_writes_total",
			Help: "Claim report upserts, by outcome",
		},
		[]string{"outcome"},
	)

	// QueueMessages counts inbound queue messages by disposition.
	QueueMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimflow_queue_messages_total",
			Help: "Inbound claim-id messages, by disposition",
		},
		[]string{"disposition"},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

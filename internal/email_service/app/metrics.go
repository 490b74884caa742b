package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emailJobsReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "email_worker",
			Name:      "jobs_received_total",
			Help:      "Total number of queue deliveries received by the email consumer.",
		},
		[]string{"result"}, // "accepted", "malformed", "fetch_error"
	)

	emailsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "email_worker",
			Name:      "emails_processed_total",
			Help:      "Total number of email jobs processed, by outcome.",
		},
		[]string{"outcome"}, // "sent", "failed", "already_sent", "not_found", "claimed_elsewhere", "error_fetch", "error_persist"
	)

	emailProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "email_worker",
			Name:      "email_processing_duration_seconds",
			Help:      "Duration of successful email job processing, fetch through status write-back.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

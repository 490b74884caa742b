package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emailsEnqueuedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "email_api",
			Name:      "emails_enqueued_total",
			Help:      "Total number of enqueue attempts, by result.",
		},
		[]string{"result"}, // "accepted", "error_db", "error_encode", "error_publish"
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEventsTotal tracks inbound webhook deliveries per event kind and outcome
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_webhook_events_total",
			Help: "Total number of inbound webhook deliveries",
		},
		[]string{"event", "result"},
	)

	// SignatureFailuresTotal tracks rejected deliveries with bad or missing signatures
	SignatureFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paygate_signature_failures_total",
			Help: "Total number of webhook deliveries rejected at the signature gate",
		},
	)

	// ProcessingDuration tracks end-to-end webhook processing latency
	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paygate_processing_duration_seconds",
			Help:    "Webhook processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)

	// StatusTransitionsTotal tracks state machine transitions
	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_status_transitions_total",
			Help: "Total number of transaction status transitions",
		},
		[]string{"from", "to"},
	)

	// CacheLookupsTotal tracks read-path cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_cache_lookups_total",
			Help: "Total number of status cache lookups",
		},
		[]string{"result"},
	)

	// RegistrationsTotal tracks provider registration calls
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_registrations_total",
			Help: "Total number of provider registration calls",
		},
		[]string{"kind", "result"},
	)

	// DBConnectionPoolUsage tracks the connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paygate_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusense_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trusense_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingestion metrics
	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusense_readings_ingested_total",
			Help: "Total number of sensor readings received",
		},
		[]string{"status"}, // status: accepted, rejected
	)

	// Ledger metrics
	LedgerSubmitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusense_ledger_submit_total",
			Help: "Total number of messages submitted to the consensus topic",
		},
		[]string{"status"}, // status: success, failed
	)

	LedgerSubmitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trusense_ledger_submit_duration_seconds",
			Help:    "Time taken to submit a message to the consensus topic",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// Alerting metrics
	ViolationsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusense_violations_total",
			Help: "Total number of out-of-range violations detected",
		},
		[]string{"metric"},
	)

	NotificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trusense_notifications_sent_total",
			Help: "Total number of alert emails dispatched",
		},
	)

	NotificationsThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trusense_notifications_throttled_total",
			Help: "Total number of alerts suppressed by the throttle window",
		},
	)

	// Subscriber hydration metrics
	HydrationFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusense_hydration_fetches_total",
			Help: "Total number of subscriber fetches from the backing store",
		},
		[]string{"status"}, // status: success, failed
	)

	// Analytics mirror metrics
	MirrorPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusense_mirror_published_total",
			Help: "Total number of readings published to the analytics stream",
		},
		[]string{"status"}, // status: success, failed
	)

	MirrorDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trusense_mirror_dropped_total",
			Help: "Total number of readings dropped because the mirror queue was full",
		},
	)

	MirrorPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trusense_mirror_publish_duration_seconds",
			Help:    "Time taken to publish a batch to the analytics stream",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Mail metrics
	MailEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trusense_mail_enqueued_total",
			Help: "Total number of emails handed to the mailer",
		},
	)

	MailSendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trusense_mail_send_errors_total",
			Help: "Total number of SMTP send failures",
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusense_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)

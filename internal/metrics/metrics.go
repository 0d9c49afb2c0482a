// Package metrics defines Prometheus metrics for chatwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatwatch"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last /healthz request succeeded.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last /readyz request succeeded.",
	})
)

// Ingestion metrics.
var (
	EventsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_ingested_total",
		Help:      "Total number of metric events accepted by the aggregator.",
	}, []string{"kind"})

	IngestionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_errors_total",
		Help:      "Total number of metric events dropped as malformed.",
	}, []string{"reason"})

	EventsEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_evicted_total",
		Help:      "Total number of samples evicted after falling out of retention.",
	}, []string{"kind"})
)

// Evaluation metrics.
var (
	EvaluationTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluation_ticks_total",
		Help:      "Total number of completed evaluation ticks.",
	})

	EvaluationTicksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluation_ticks_skipped_total",
		Help:      "Total number of ticks skipped because another tick was in flight.",
	})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of evaluation ticks in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	RuleValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rule_value",
		Help:      "Most recent derived value evaluated for each rule.",
	}, []string{"rule_id"})

	RuleUnderfilled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rule_underfilled",
		Help:      "1 if the rule's window had fewer samples than min_sample_count.",
	}, []string{"rule_id"})
)

// Alert metrics.
var (
	AlertTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alert_transitions_total",
		Help:      "Total number of notifying alert transitions.",
	}, []string{"rule_id", "transition"})

	AlertsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alerts_active",
		Help:      "Number of open or suppressed alert instances.",
	})

	RuleReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_reloads_total",
		Help:      "Total number of rule reload attempts by result.",
	}, []string{"result"})
)

// Dispatch metrics.
var (
	DispatchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_attempts_total",
		Help:      "Total number of sink delivery attempts.",
	}, []string{"sink"})

	DispatchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_failures_total",
		Help:      "Total number of notifications that exhausted retries for a sink.",
	}, []string{"sink"})

	NotificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of a single sink send in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sink"})
)

// Probe metrics.
var (
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "Total number of liveness probes by result.",
	}, []string{"result"})

	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_duration_seconds",
		Help:      "Duration of liveness probes in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Scheduler metrics.
var (
	SchedulerNextProbeTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_probe_timestamp",
		Help:      "Unix timestamp of the next scheduled probe.",
	})

	SchedulerNextTickTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_tick_timestamp",
		Help:      "Unix timestamp of the next scheduled evaluation tick.",
	})
)

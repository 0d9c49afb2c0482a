package main

import "errors"

// KnownMetrics is the set of metric names exported by chatwatch plus the
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"chatwatch_http_request_duration_seconds": true,
	"chatwatch_http_requests_total":           true,

	// Health metrics.
	"chatwatch_healthz_up": true,
	"chatwatch_readyz_up":  true,

	// Ingestion metrics.
	"chatwatch_events_ingested_total":  true,
	"chatwatch_ingestion_errors_total": true,
	"chatwatch_events_evicted_total":   true,

	// Evaluation metrics.
	"chatwatch_evaluation_ticks_total":         true,
	"chatwatch_evaluation_ticks_skipped_total": true,
	"chatwatch_evaluation_duration_seconds":    true,
	"chatwatch_rule_value":                     true,
	"chatwatch_rule_underfilled":               true,

	// Alert metrics.
	"chatwatch_alert_transitions_total": true,
	"chatwatch_alerts_active":           true,
	"chatwatch_rule_reloads_total":      true,

	// Dispatch metrics.
	"chatwatch_dispatch_attempts_total":       true,
	"chatwatch_dispatch_failures_total":       true,
	"chatwatch_notification_duration_seconds": true,

	// Probe and scheduler metrics.
	"chatwatch_probes_total":                   true,
	"chatwatch_probe_duration_seconds":         true,
	"chatwatch_scheduler_next_probe_timestamp": true,
	"chatwatch_scheduler_next_tick_timestamp":  true,

	// Recording rules.
	"chatwatch:http_requests:rate5m":         true,
	"chatwatch:http_errors:rate5m":           true,
	"chatwatch:events_ingested:rate5m":       true,
	"chatwatch:ingestion_errors:rate5m":      true,
	"chatwatch:evaluation_duration:p95_5m":   true,
	"chatwatch:notification_duration:p95_5m": true,
	"chatwatch:dispatch_failures:rate5m":     true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
	// PlainRules writes bare Prometheus rule files instead of
	// PrometheusRule custom resources.
	PlainRules bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}

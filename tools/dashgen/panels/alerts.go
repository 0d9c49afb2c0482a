package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// TransitionsRate shows notifying transitions per hour by kind.
func TransitionsRate() *timeseries.PanelBuilder {
	return series(
		"Alert Transitions",
		"Raised, still-breaching and resolved notifications per hour",
		`sum by (transition) (increase(`+Sel("alert_transitions_total")+`[1h]))`,
		"{{transition}}",
	).
		DrawStyle(common.GraphDrawStyleBars)
}

// NotificationLatency shows p95 send latency per sink.
func NotificationLatency() *timeseries.PanelBuilder {
	return series(
		"Notification Latency (p95)",
		"95th percentile duration of a single sink send",
		`chatwatch:notification_duration:p95_5m`,
		"{{sink}}",
	).
		Unit("s").
		Thresholds(escalating(1, 5))
}

// DispatchFailures counts notifications that exhausted retries.
func DispatchFailures() *stat.PanelBuilder {
	return tally(
		"Dispatch Failures (24h)",
		"Notifications that exhausted retries, by sink",
		`sum by (sink) (increase(`+Sel("dispatch_failures_total")+`[24h]))`,
		1, 5,
	).
		Span(tsWidth)
}

// ReloadFailures counts rule reloads rejected by validation.
func ReloadFailures() *stat.PanelBuilder {
	return tally(
		"Rule Reload Failures (24h)",
		"Reloads rejected by validation; the previous rules stay active",
		`increase(`+Sel("rule_reloads_total", `result="failure"`)+`[24h])`,
		1, 3,
	).
		Span(tsWidth).
		GraphMode(common.BigValueGraphModeNone)
}

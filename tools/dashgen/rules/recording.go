package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newResource("chatwatch-recording-rules",
		RuleGroup{
			Name: "chatwatch-recording",
			Rules: []Rule{
				{
					Record: "chatwatch:http_requests:rate5m",
					Expr:   `sum(rate(chatwatch_http_requests_total[5m]))`,
				},
				{
					Record: "chatwatch:http_errors:rate5m",
					Expr:   `sum(rate(chatwatch_http_requests_total{status=~"5.."}[5m]))`,
				},
				{
					Record: "chatwatch:events_ingested:rate5m",
					Expr:   `sum by (kind) (rate(chatwatch_events_ingested_total[5m]))`,
				},
				{
					Record: "chatwatch:ingestion_errors:rate5m",
					Expr:   `sum by (reason) (rate(chatwatch_ingestion_errors_total[5m]))`,
				},
				{
					Record: "chatwatch:evaluation_duration:p95_5m",
					Expr:   `histogram_quantile(0.95, sum(rate(chatwatch_evaluation_duration_seconds_bucket[5m])) by (le))`,
				},
				{
					Record: "chatwatch:notification_duration:p95_5m",
					Expr:   `histogram_quantile(0.95, sum(rate(chatwatch_notification_duration_seconds_bucket[5m])) by (le, sink))`,
				},
				{
					Record: "chatwatch:dispatch_failures:rate5m",
					Expr:   `sum by (sink) (rate(chatwatch_dispatch_failures_total[5m]))`,
				},
			},
		},
	)
}

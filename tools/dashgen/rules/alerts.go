package rules

// AlertRules returns a PrometheusRule CR that watches chatwatch itself.
// These fire when the alerting pipeline is impaired, which chatwatch cannot
// report through its own sinks.
func AlertRules() PrometheusRule {
	return newResource("chatwatch-alerts",
		RuleGroup{
			Name: "chatwatch-alerts",
			Rules: []Rule{
				{
					Alert: "ChatwatchDown",
					Expr:  `absent(up{job="chatwatch"})`,
					For:   "2m",
					Labels: map[string]string{
						"severity": "critical",
					},
					Annotations: map[string]string{
						"summary":     "chatwatch is down",
						"description": "The chatwatch job has been absent for more than 2 minutes. Chat service alerts are not being evaluated.",
					},
				},
				{
					Alert: "ChatwatchReadinessDown",
					Expr:  `chatwatch_readyz_up == 0`,
					For:   "2m",
					Labels: map[string]string{
						"severity": "critical",
					},
					Annotations: map[string]string{
						"summary":     "chatwatch readiness check is failing",
						"description": "The archive store has been unreachable for more than 2 minutes.",
					},
				},
				{
					Alert: "ChatwatchTicksStalled",
					Expr:  `increase(chatwatch_evaluation_ticks_total[10m]) == 0`,
					For:   "5m",
					Labels: map[string]string{
						"severity": "critical",
					},
					Annotations: map[string]string{
						"summary":     "No evaluation ticks completed",
						"description": "chatwatch has not completed a rule evaluation tick in 10 minutes.",
					},
				},
				{
					Alert: "ChatwatchTicksSkipped",
					Expr:  `increase(chatwatch_evaluation_ticks_skipped_total[15m]) > 0`,
					For:   "15m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Evaluation ticks are overlapping",
						"description": "Ticks are being skipped because the previous tick was still running. Raise the tick interval or reduce rule windows.",
					},
				},
				{
					Alert: "ChatwatchDispatchFailures",
					Expr:  `sum(chatwatch:dispatch_failures:rate5m) > 0`,
					For:   "5m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Alert notifications are failing",
						"description": "One or more sinks have exhausted retries for alert notifications over the last 5 minutes.",
					},
				},
				{
					Alert: "ChatwatchRuleReloadFailed",
					Expr:  `increase(chatwatch_rule_reloads_total{result="failure"}[10m]) > 0`,
					For:   "0m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Rule reload rejected",
						"description": "The rule file failed validation on reload. The previous rule set is still active.",
					},
				},
				{
					Alert: "ChatwatchIngestionErrors",
					Expr:  `sum(chatwatch:ingestion_errors:rate5m) > 1`,
					For:   "10m",
					Labels: map[string]string{
						"severity": "warning",
					},
					Annotations: map[string]string{
						"summary":     "Producers are sending malformed metric events",
						"description": "More than 1 event/s has been rejected for 10 minutes.",
					},
				},
			},
		},
	)
}

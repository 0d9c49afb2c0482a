package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// TickDuration shows p95 evaluation tick time.
func TickDuration() *timeseries.PanelBuilder {
	return series(
		"Tick Duration (p95)",
		"95th percentile duration of an evaluation tick over all rules",
		`chatwatch:evaluation_duration:p95_5m`,
		"p95",
	).
		Unit("s").
		Thresholds(escalating(0.5, 5))
}

// SkippedTicks counts ticks dropped because the previous one was running.
func SkippedTicks() *stat.PanelBuilder {
	return tally(
		"Skipped Ticks (1h)",
		"Evaluation ticks skipped while another tick was in flight",
		`increase(`+Sel("evaluation_ticks_skipped_total")+`[1h])`,
		1, 10,
	)
}

// UnderfilledRules counts rules whose window holds too few samples to
// breach.
func UnderfilledRules() *stat.PanelBuilder {
	return tally(
		"Underfilled Rules",
		"Rules that cannot breach because their window is underfilled",
		`sum(`+Sel("rule_underfilled")+`)`,
		1, 3,
	).
		GraphMode(common.BigValueGraphModeNone)
}

// RuleValues plots the derived statistic of every rule.
func RuleValues() *timeseries.PanelBuilder {
	return withTableLegend(series(
		"Rule Values",
		"Derived statistic per rule at each evaluation tick",
		Sel("rule_value"),
		"{{rule_id}}",
	), "last", "max").
		Span(fullWidth).
		FillOpacity(0)
}

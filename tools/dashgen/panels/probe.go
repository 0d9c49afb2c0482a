package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ProbeResults shows chat service health probes per minute by result.
func ProbeResults() *timeseries.PanelBuilder {
	return series(
		"Probe Results",
		"Chat service health probes per minute by result",
		`sum by (result) (increase(`+Sel("probes_total")+`[1m]))`,
		"{{result}}",
	).
		FillOpacity(30).
		LineWidth(1).
		DrawStyle(common.GraphDrawStyleBars)
}

// ProbeDuration shows the p95 round trip of the health endpoint.
func ProbeDuration() *timeseries.PanelBuilder {
	return series(
		"Probe Duration (p95)",
		"95th percentile round-trip of the chat service health endpoint",
		`histogram_quantile(0.95, sum(rate(`+Sel("probe_duration_seconds_bucket")+`[15m])) by (le))`,
		"p95",
	).
		Unit("s").
		Thresholds(escalating(1, 4))
}

package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// EventsRate shows accepted metric events per second by kind.
func EventsRate() *timeseries.PanelBuilder {
	return withTableLegend(series(
		"Events Ingested",
		"Accepted metric events per second by kind",
		`chatwatch:events_ingested:rate5m`,
		"{{kind}}",
	), "mean", "max").
		Unit("ops")
}

// IngestionErrors shows rejected events by reason.
func IngestionErrors() *timeseries.PanelBuilder {
	return series(
		"Rejected Events",
		"Malformed metric events dropped per second by reason",
		`chatwatch:ingestion_errors:rate5m`,
		"{{reason}}",
	).
		Unit("ops").
		Thresholds(escalating(0.1, 1)).
		DrawStyle(common.GraphDrawStyleBars)
}

// Evictions shows samples aged out of the aggregator retention.
func Evictions() *timeseries.PanelBuilder {
	return series(
		"Evicted Samples",
		"Samples dropped for falling outside the retention horizon",
		`sum by (kind) (rate(`+Sel("events_evicted_total")+`[5m]))`,
		"{{kind}}",
	).
		Unit("ops").
		LineWidth(1)
}

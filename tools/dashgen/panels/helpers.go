// Package panels provides Grafana dashboard panel builders for chatwatch
// metrics.
package panels

import (
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// Job is the scrape job label chatwatch runs under.
const Job = "chatwatch"

// Panel dimensions on the 24-column grid.
const (
	statWidth  = 6
	statHeight = 4
	tsWidth    = 12
	tsHeight   = 8
	fullWidth  = 24
)

// Sel returns a selector for chatwatch_<name> scoped to Job, plus any extra
// label matchers such as `result="failure"`.
func Sel(name string, matchers ...string) string {
	m := append([]string{`job="` + Job + `"`}, matchers...)
	return "chatwatch_" + name + "{" + strings.Join(m, ",") + "}"
}

func dsRef() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

func query(expr, legend string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legend).
		RefId("A")
}

func steps(s ...dashboard.Threshold) cog.Builder[dashboard.ThresholdsConfig] {
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(s)
}

// escalating is green below yellow, yellow below red, red above.
func escalating(yellow, red float64) cog.Builder[dashboard.ThresholdsConfig] {
	return steps(
		dashboard.Threshold{Color: "green"},
		dashboard.Threshold{Value: cog.ToPtr(yellow), Color: "yellow"},
		dashboard.Threshold{Value: cog.ToPtr(red), Color: "red"},
	)
}

func green() cog.Builder[dashboard.ThresholdsConfig] {
	return steps(dashboard.Threshold{Color: "green"})
}

// series starts a 12-wide line chart with one query. Callers override unit,
// thresholds and draw style as needed.
func series(title, desc, expr, legend string) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(desc).
		Datasource(dsRef()).
		Height(tsHeight).
		Span(tsWidth).
		WithTarget(query(expr, legend)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(green()).
		ColorScheme(dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdPaletteClassic)).
		DrawStyle(common.GraphDrawStyleLine)
}

// withTableLegend adds a bottom table legend and a sorted multi-series
// tooltip.
func withTableLegend(b *timeseries.PanelBuilder, calcs ...string) *timeseries.PanelBuilder {
	return b.
		Legend(common.NewVizLegendOptionsBuilder().
			DisplayMode(common.LegendDisplayModeTable).
			Placement(common.LegendPlacementBottom).
			Calcs(calcs)).
		Tooltip(common.NewVizTooltipOptionsBuilder().
			Mode(common.TooltipDisplayModeMulti).
			Sort(common.SortOrderDescending))
}

// tally starts a stat panel whose background turns yellow then red as the
// value grows.
func tally(title, desc, expr string, yellow, red float64) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(desc).
		Datasource(dsRef()).
		Height(tsHeight).
		Span(statWidth).
		WithTarget(query(expr, "")).
		Thresholds(escalating(yellow, red)).
		ColorScheme(dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdThresholds)).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// upDown is a small stat for a 0/1 gauge: red at 0, green at 1.
func upDown(title, desc, expr string) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(desc).
		Datasource(dsRef()).
		Height(statHeight).
		Span(statWidth).
		WithTarget(query(expr, "")).
		Thresholds(steps(
			dashboard.Threshold{Color: "red"},
			dashboard.Threshold{Value: cog.ToPtr(1.0), Color: "green"},
		)).
		ColorScheme(dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdThresholds)).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat shows the liveness endpoint.
func HealthzStat() *stat.PanelBuilder {
	return upDown("Healthz", "Health check status (1 = ok, 0 = failing)", Sel("healthz_up"))
}

// ReadyzStat shows whether the archive store answers pings.
func ReadyzStat() *stat.PanelBuilder {
	return upDown("Readyz", "Readiness check status (1 = store reachable, 0 = not ready)", Sel("readyz_up"))
}

// ActiveAlertsStat shows open and suppressed alerts.
func ActiveAlertsStat() *stat.PanelBuilder {
	return tally("Active Alerts", "Open or suppressed alert instances", Sel("alerts_active"), 1, 3).
		Height(statHeight)
}

// UptimeStat shows time since the process started.
func UptimeStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Uptime").
		Description("Time since process start").
		Datasource(dsRef()).
		Height(statHeight).
		Span(statWidth).
		WithTarget(query(`time() - process_start_time_seconds{job="`+Job+`"}`, "")).
		Unit("s").
		Thresholds(green()).
		GraphMode(common.BigValueGraphModeNone)
}

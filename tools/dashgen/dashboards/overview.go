// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/chatwatch/tools/dashgen/panels"
)

// BuildOverview constructs the chatwatch overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Chatwatch Overview").
		Uid("chatwatch-overview").
		Tags([]string{"chatwatch", "alerting"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.ActiveAlertsStat()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("API").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.IngestLatency()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Ingestion").
		WithPanel(panels.EventsRate()).
		WithPanel(panels.IngestionErrors()).
		WithPanel(panels.Evictions()))

	b.WithRow(dashboard.NewRowBuilder("Evaluation").
		WithPanel(panels.TickDuration()).
		WithPanel(panels.SkippedTicks()).
		WithPanel(panels.UnderfilledRules()).
		WithPanel(panels.RuleValues()))

	b.WithRow(dashboard.NewRowBuilder("Alerts").
		WithPanel(panels.TransitionsRate()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.DispatchFailures()).
		WithPanel(panels.ReloadFailures()))

	b.WithRow(dashboard.NewRowBuilder("Probe").
		WithPanel(panels.ProbeResults()).
		WithPanel(panels.ProbeDuration()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}

package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate shows API requests per second by route.
func RequestRate() *timeseries.PanelBuilder {
	return withTableLegend(series(
		"API Requests",
		"HTTP requests per second by route",
		`sum by (path) (rate(`+Sel("http_requests_total")+`[5m]))`,
		"{{path}}",
	), "mean", "max").
		Unit("reqps")
}

// IngestLatency shows p95 latency of the ingestion routes. Producers call
// them inline, so this is latency added to the chat service.
func IngestLatency() *timeseries.PanelBuilder {
	return withTableLegend(series(
		"Ingest Latency (p95)",
		"95th percentile duration of POST /api/v1/metrics and /api/v1/metrics/batch",
		`histogram_quantile(0.95, sum(rate(`+Sel("http_request_duration_seconds_bucket", `path=~"/api/v1/metrics.*"`)+`[5m])) by (le, path))`,
		"{{path}}",
	), "mean", "max").
		Unit("s").
		Thresholds(escalating(0.05, 0.25))
}

// ErrorRate shows 5xx responses as a percentage of all requests.
func ErrorRate() *timeseries.PanelBuilder {
	return series(
		"API Error Rate %",
		"HTTP 5xx responses as a percentage of all API requests",
		`chatwatch:http_errors:rate5m / chatwatch:http_requests:rate5m * 100`,
		"error %",
	).
		Unit("percent").
		Thresholds(escalating(1, 5))
}

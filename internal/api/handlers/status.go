package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/chatwatch/internal/aggregator"
	"github.com/donaldgifford/chatwatch/internal/engine"
	"github.com/donaldgifford/chatwatch/internal/rules"
)

// StatusSource reports aggregator and tick state. It is satisfied by
// *engine.Engine.
type StatusSource interface {
	Aggregator() *aggregator.Aggregator
	LastTick() *engine.TickReport
}

// ScheduleSource reports the next scheduled runs. It is satisfied by
// *engine.Scheduler.
type ScheduleSource interface {
	NextProbe() time.Time
	NextTick() time.Time
}

// StatusHandler handles GET /api/v1/status.
type StatusHandler struct {
	engine   StatusSource
	schedule ScheduleSource
	reload   ReloadStatusProvider
	version  string
}

// NewStatusHandler creates a StatusHandler. schedule may be nil when no
// scheduler is running.
func NewStatusHandler(eng StatusSource, schedule ScheduleSource, reload ReloadStatusProvider, version string) *StatusHandler {
	return &StatusHandler{engine: eng, schedule: schedule, reload: reload, version: version}
}

// TickSummary is the short form of the last tick in the status body.
type TickSummary struct {
	Trigger       string    `json:"trigger"`
	At            time.Time `json:"at"`
	DurationMS    int64     `json:"duration_ms"`
	Rules         int       `json:"rules"`
	Notifications int       `json:"notifications"`
}

// StatusBody is the engine status document.
type StatusBody struct {
	Version         string                   `json:"version"`
	Retention       string                   `json:"retention"                   doc:"Aggregator retention horizon"`
	Series          []aggregator.SeriesStats `json:"series"                      doc:"Retained samples per metric kind"`
	NextProbe       *time.Time               `json:"next_probe,omitempty"`
	NextTick        *time.Time               `json:"next_tick,omitempty"`
	LastTick        *TickSummary             `json:"last_tick,omitempty"`
	LastReloadError *rules.ReloadError       `json:"last_reload_error,omitempty"`
}

// StatusOutput is the response for GET /api/v1/status.
type StatusOutput struct {
	Body StatusBody
}

// Status returns aggregator sizes, the schedule and the last tick.
func (h *StatusHandler) Status(_ context.Context, _ *struct{}) (*StatusOutput, error) {
	agg := h.engine.Aggregator()

	out := &StatusOutput{}
	out.Body.Version = h.version
	out.Body.Retention = agg.Retention().String()
	out.Body.Series = agg.Stats()

	if h.schedule != nil {
		out.Body.NextProbe = timePtr(h.schedule.NextProbe())
		out.Body.NextTick = timePtr(h.schedule.NextTick())
	}
	if last := h.engine.LastTick(); last != nil {
		out.Body.LastTick = &TickSummary{
			Trigger:       last.Trigger,
			At:            last.At,
			DurationMS:    last.Duration.Milliseconds(),
			Rules:         len(last.Outcomes),
			Notifications: len(last.Notifications),
		}
	}
	if h.reload != nil {
		out.Body.LastReloadError = h.reload.LastError()
	}
	return out, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// RegisterStatusRoutes registers the status route on the Huma API.
func RegisterStatusRoutes(api huma.API, h *StatusHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Engine status",
		Description: "Returns aggregator series sizes, scheduler next runs and the last evaluation tick.",
		Tags:        []string{"system"},
	}, h.Status)
}

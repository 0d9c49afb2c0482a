package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/chatwatch/internal/rules"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// ActiveAlertsProvider lists live alert instances. It is satisfied by
// *engine.Tracker.
type ActiveAlertsProvider interface {
	Active() []domain.AlertInstance
}

// AlertHistoryProvider lists archived alert instances.
type AlertHistoryProvider interface {
	ListArchivedAlerts(ctx context.Context, ruleID string, limit int) ([]domain.AlertInstance, error)
}

// ReloadStatusProvider reports the last failed rule reload.
type ReloadStatusProvider interface {
	LastError() *rules.ReloadError
}

// AlertsHandler serves active and archived alerts.
type AlertsHandler struct {
	active  ActiveAlertsProvider
	history AlertHistoryProvider
	reload  ReloadStatusProvider
}

// NewAlertsHandler creates an AlertsHandler.
func NewAlertsHandler(
	active ActiveAlertsProvider,
	history AlertHistoryProvider,
	reload ReloadStatusProvider,
) *AlertsHandler {
	return &AlertsHandler{active: active, history: history, reload: reload}
}

// ListAlertsOutput is the response for GET /api/v1/alerts.
type ListAlertsOutput struct {
	Body struct {
		Alerts          []domain.AlertInstance `json:"alerts"                      doc:"Open and suppressed alert instances"`
		LastReloadError *rules.ReloadError     `json:"last_reload_error,omitempty" doc:"Most recent failed rule reload"`
	}
}

// ListAlerts returns the live alert instances.
func (h *AlertsHandler) ListAlerts(_ context.Context, _ *struct{}) (*ListAlertsOutput, error) {
	out := &ListAlertsOutput{}
	out.Body.Alerts = h.active.Active()
	if h.reload != nil {
		out.Body.LastReloadError = h.reload.LastError()
	}
	return out, nil
}

// AlertHistoryInput filters the archive.
type AlertHistoryInput struct {
	RuleID string `query:"rule_id" doc:"Only instances of this rule"`
	Limit  int    `query:"limit"   doc:"Maximum instances to return (default 50, max 500)" minimum:"0"`
}

// AlertHistoryOutput is the response for GET /api/v1/alerts/history.
type AlertHistoryOutput struct {
	Body struct {
		Alerts []domain.AlertInstance `json:"alerts" doc:"Resolved instances, most recently resolved first"`
	}
}

// AlertHistory returns archived alert instances.
func (h *AlertsHandler) AlertHistory(ctx context.Context, input *AlertHistoryInput) (*AlertHistoryOutput, error) {
	alerts, err := h.history.ListArchivedAlerts(ctx, input.RuleID, clampLimit(input.Limit))
	if err != nil {
		return nil, huma.Error500InternalServerError("listing alert history: " + err.Error())
	}
	if alerts == nil {
		alerts = []domain.AlertInstance{}
	}

	out := &AlertHistoryOutput{}
	out.Body.Alerts = alerts
	return out, nil
}

// RegisterAlertsRoutes registers the alert routes on the Huma API.
func RegisterAlertsRoutes(api huma.API, h *AlertsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-alerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts",
		Summary:     "List active alerts",
		Description: "Returns open and suppressed alert instances and the last rule reload error, if any.",
		Tags:        []string{"alerts"},
	}, h.ListAlerts)

	huma.Register(api, huma.Operation{
		OperationID: "list-alert-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts/history",
		Summary:     "List resolved alerts",
		Description: "Returns archived alert instances, optionally filtered by rule.",
		Tags:        []string{"alerts"},
	}, h.AlertHistory)
}

package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/donaldgifford/chatwatch/internal/rules"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// ActiveAlerts is the response of ListAlerts.
type ActiveAlerts struct {
	Alerts          []domain.AlertInstance `json:"alerts"`
	LastReloadError *rules.ReloadError     `json:"last_reload_error,omitempty"`
}

// ListAlerts returns the open and suppressed alerts.
func (c *Client) ListAlerts(ctx context.Context) (*ActiveAlerts, error) {
	var out ActiveAlerts
	if err := c.get(ctx, "/api/v1/alerts", &out); err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return &out, nil
}

// AlertHistory returns resolved alerts, optionally for one rule. A zero
// limit uses the server default.
func (c *Client) AlertHistory(ctx context.Context, ruleID string, limit int) ([]domain.AlertInstance, error) {
	q := url.Values{}
	if ruleID != "" {
		q.Set("rule_id", ruleID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/alerts/history"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var out struct {
		Alerts []domain.AlertInstance `json:"alerts"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("listing alert history: %w", err)
	}
	return out.Alerts, nil
}

package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/donaldgifford/chatwatch/internal/api/handlers"
	"github.com/donaldgifford/chatwatch/internal/engine"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// Evaluate runs one evaluation tick on the server.
func (c *Client) Evaluate(ctx context.Context) (*engine.TickReport, error) {
	var out engine.TickReport
	if err := c.post(ctx, "/api/v1/evaluate", nil, &out); err != nil {
		return nil, fmt.Errorf("triggering evaluation: %w", err)
	}
	return &out, nil
}

// Status returns the engine status document.
func (c *Client) Status(ctx context.Context) (*handlers.StatusBody, error) {
	var out handlers.StatusBody
	if err := c.get(ctx, "/api/v1/status", &out); err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}
	return &out, nil
}

// Feed returns recent dashboard notifications, newest first.
func (c *Client) Feed(ctx context.Context, limit int) ([]domain.AlertNotification, error) {
	path := "/api/v1/feed"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Notifications []domain.AlertNotification `json:"notifications"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("listing feed: %w", err)
	}
	return out.Notifications, nil
}

// IngestBatch pushes metric events and request records.
func (c *Client) IngestBatch(
	ctx context.Context,
	events []domain.MetricEvent,
	requests []domain.RequestRecord,
) (*handlers.IngestResult, error) {
	body := struct {
		Events   []domain.MetricEvent   `json:"events,omitempty"`
		Requests []domain.RequestRecord `json:"requests,omitempty"`
	}{Events: events, Requests: requests}

	var out handlers.IngestResult
	if err := c.post(ctx, "/api/v1/metrics/batch", body, &out); err != nil {
		return nil, fmt.Errorf("ingesting metrics: %w", err)
	}
	return &out, nil
}

package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// FeedReader returns recent dashboard notifications. It is satisfied by
// *notify.FeedSink.
type FeedReader interface {
	Recent(limit int) []domain.AlertNotification
}

// FeedHandler serves the dashboard feed.
type FeedHandler struct {
	feed FeedReader
}

// NewFeedHandler creates a FeedHandler. A nil feed means the feed sink is
// disabled and the route returns an empty list.
func NewFeedHandler(f FeedReader) *FeedHandler {
	return &FeedHandler{feed: f}
}

// FeedInput bounds the feed page.
type FeedInput struct {
	Limit int `query:"limit" doc:"Maximum notifications to return (default 50, max 500)" minimum:"0"`
}

// FeedOutput is the response for GET /api/v1/feed.
type FeedOutput struct {
	Body struct {
		Notifications []domain.AlertNotification `json:"notifications" doc:"Newest first"`
	}
}

// Recent returns the latest feed notifications.
func (h *FeedHandler) Recent(_ context.Context, input *FeedInput) (*FeedOutput, error) {
	out := &FeedOutput{}
	out.Body.Notifications = []domain.AlertNotification{}
	if h.feed != nil {
		out.Body.Notifications = h.feed.Recent(clampLimit(input.Limit))
	}
	return out, nil
}

// RegisterFeedRoutes registers the feed route on the Huma API. The websocket
// stream is mounted on the router directly.
func RegisterFeedRoutes(api huma.API, h *FeedHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-feed",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed",
		Summary:     "Recent dashboard notifications",
		Description: "Returns notifications recorded by the dashboard feed sink.",
		Tags:        []string{"feed"},
	}, h.Recent)
}

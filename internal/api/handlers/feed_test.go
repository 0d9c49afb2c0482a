package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/chatwatch/internal/api/handlers"
	"github.com/donaldgifford/chatwatch/internal/notify"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func TestFeed_Recent(t *testing.T) {
	t.Parallel()

	feed := notify.NewFeedSink(10, nil)
	for i, rule := range []string{"error-rate", "p95-latency", "probe-down"} {
		n := &domain.AlertNotification{
			ID:         rule + "-n",
			RuleID:     rule,
			Transition: domain.TransitionRaised,
			Timestamp:  time.Date(2026, 10, 14, 12, i, 0, 0, time.UTC),
		}
		require.NoError(t, feed.Send(context.Background(), n))
	}

	_, api := humatest.New(t)
	handlers.RegisterFeedRoutes(api, handlers.NewFeedHandler(feed))

	resp := api.Get("/api/v1/feed?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Notifications []domain.AlertNotification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 2)
	assert.Equal(t, "probe-down", body.Notifications[0].RuleID)
	assert.Equal(t, "p95-latency", body.Notifications[1].RuleID)
}

func TestFeed_Disabled(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	handlers.RegisterFeedRoutes(api, handlers.NewFeedHandler(nil))

	resp := api.Get("/api/v1/feed")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"notifications":[]`)
}

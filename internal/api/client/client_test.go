package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListAlerts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "problem detail",
			status:     http.StatusConflict,
			body:       `{"title":"Conflict","status":409,"detail":"evaluation tick already in progress"}`,
			wantDetail: "evaluation tick already in progress",
		},
		{
			name:       "plain error body",
			status:     http.StatusServiceUnavailable,
			body:       `{"error":"internal"}`,
			wantDetail: "internal",
		},
		{
			name:       "not json",
			status:     http.StatusBadGateway,
			body:       "upstream down\n",
			wantDetail: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Evaluate(context.Background())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestClient_ListAlerts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/alerts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"alerts":[{"id":"a1","rule_id":"error-rate","state":"open"}],
			"last_reload_error":{"message":"bad file","at":"2026-10-14T12:00:00Z"}
		}`))
	}))
	defer srv.Close()

	result, err := New(srv.URL).ListAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, domain.StateOpen, result.Alerts[0].State)
	require.NotNil(t, result.LastReloadError)
	assert.Equal(t, "bad file", result.LastReloadError.Message)
}

func TestClient_AlertHistory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/alerts/history", r.URL.Path)
		assert.Equal(t, "probe-down", r.URL.Query().Get("rule_id"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"alerts":[{"id":"a9","rule_id":"probe-down","state":"resolved"}]}`))
	}))
	defer srv.Close()

	alerts, err := New(srv.URL).AlertHistory(context.Background(), "probe-down", 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "a9", alerts[0].ID)
}

func TestClient_ReloadRules(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/rules/reload", r.URL.Path)
		_, _ = w.Write([]byte(`{"rules":[{"id":"error-rate","window":"5m0s","debounce":"10m0s"}]}`))
	}))
	defer srv.Close()

	set, err := New(srv.URL).ReloadRules(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	assert.Equal(t, 5*time.Minute, set.Rules[0].Window.Std())
}

func TestClient_IngestBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/metrics/batch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Events   []domain.MetricEvent   `json:"events"`
			Requests []domain.RequestRecord `json:"requests"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Events, 1)
		assert.Empty(t, body.Requests)

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"accepted":1,"rejected":0}`))
	}))
	defer srv.Close()

	ev := domain.NewMetricEvent(domain.KindCostUSD, 0.4, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC), nil)
	res, err := New(srv.URL).IngestBatch(context.Background(), []domain.MetricEvent{ev}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
}

func TestClient_Feed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"notifications":[{"id":"n1","state_transition":"resolved"}]}`))
	}))
	defer srv.Close()

	items, err := New(srv.URL).Feed(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.TransitionResolved, items[0].Transition)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	c := New("http://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, c.httpClient)
}

package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/chatwatch/internal/aggregator"
	"github.com/donaldgifford/chatwatch/internal/api"
	"github.com/donaldgifford/chatwatch/internal/dispatch"
	"github.com/donaldgifford/chatwatch/internal/engine"
	"github.com/donaldgifford/chatwatch/internal/notify"
	"github.com/donaldgifford/chatwatch/internal/rules"
	"github.com/donaldgifford/chatwatch/internal/store"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	srv  *httptest.Server
	feed *notify.FeedSink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := quietLogger()
	set := &domain.RuleSet{Rules: []domain.Rule{{
		ID:             "router-error-rate",
		MetricKind:     domain.KindRequestOutcome,
		Statistic:      domain.StatErrorRatio,
		Window:         domain.Duration(5 * time.Minute),
		Comparator:     domain.Greater,
		Threshold:      0.05,
		MinSampleCount: 20,
		Debounce:       domain.Duration(10 * time.Minute),
		Severity:       domain.SeverityCritical,
	}}}

	ms := store.NewMemoryStore()
	feed := notify.NewFeedSink(10, notify.NewHub(log))
	disp := dispatch.New(
		[]notify.Sink{feed},
		dispatch.WithConfig(dispatch.Config{
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			RateLimit:       1000,
			Burst:           100,
		}),
		dispatch.WithRecorder(ms),
		dispatch.WithLogger(log),
	)
	mgr := rules.NewStaticManager(set, rules.WithLogger(log))
	eng := engine.NewEngine(
		aggregator.New(aggregator.WithLogger(log)),
		mgr,
		engine.WithLogger(log),
		engine.WithSubmitter(disp),
		engine.WithArchiver(ms),
	)

	e, _ := api.NewRouter(api.Deps{
		Engine:  eng,
		Rules:   mgr,
		Store:   ms,
		Feed:    feed,
		Logger:  log,
		Version: "test",
	})

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = disp.Wait(ctx)
	})

	return &testServer{srv: srv, feed: feed}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, s.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = s.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ready"}`, body)

	code, body = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "chatwatch_")

	code, body = s.do(t, http.MethodGet, "/openapi.json", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "/api/v1/metrics/batch")
}

func TestRouter_IngestEvaluateDeliver(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	now := time.Now().UTC()

	for i := range 25 {
		outcome := "success"
		if i%5 == 0 {
			outcome = "error"
		}
		body := fmt.Sprintf(`{"outcome":%q,"timestamp":%q}`, outcome, now.Add(-time.Duration(25-i)*time.Second).Format(time.RFC3339Nano))
		code, resp := s.do(t, http.MethodPost, "/api/v1/metrics", body)
		require.Equal(t, http.StatusAccepted, code, resp)
	}

	code, body := s.do(t, http.MethodPost, "/api/v1/evaluate", "")
	require.Equal(t, http.StatusOK, code, body)

	var report engine.TickReport
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	require.Len(t, report.Notifications, 1)
	assert.Equal(t, domain.TransitionRaised, report.Notifications[0].Transition)

	require.Eventually(t, func() bool {
		return len(s.feed.Recent(0)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	code, body = s.do(t, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"rule_id":"router-error-rate"`)
	assert.Contains(t, body, `"state":"open"`)

	code, body = s.do(t, http.MethodGet, "/api/v1/feed", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"state_transition":"raised"`)

	code, body = s.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"last_tick"`)
}

func TestRouter_IngestRejectsMalformed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/metrics", `{"outcome":"unknown","timestamp":"2026-10-14T12:00:00Z"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body := s.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"samples":0`)
}

func TestRouter_FeedWebsocket(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	n := &domain.AlertNotification{ID: "ws-1", RuleID: "router-error-rate", Transition: domain.TransitionRaised}
	require.NoError(t, s.feed.Send(context.Background(), n))

	wsURL := "ws" + strings.TrimPrefix(s.srv.URL, "http") + api.FeedWSPath
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"id":"ws-1"`)
}

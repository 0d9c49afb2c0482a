package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	apiclient "github.com/donaldgifford/chatwatch/internal/api/client"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func newState(health string) *state {
	return &state{mode: mode{Health: health, ErrorRate: 0.1, LatencyMS: 500, CostUSD: 0.01}}
}

func TestHealthHandler_Healthy(t *testing.T) {
	handler := healthHandler(testLogger(), newState("healthy"))
	w := httptest.NewRecorder()

	handler(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status=%q, want healthy", resp["status"])
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	handler := healthHandler(testLogger(), newState("degraded"))
	w := httptest.NewRecorder()

	handler(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "degraded" {
		t.Errorf("status=%q, want degraded", resp["status"])
	}
}

func TestHealthHandler_DownHangsUntilCanceled(t *testing.T) {
	handler := healthHandler(testLogger(), newState("down"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody).WithContext(ctx)
	w := httptest.NewRecorder()

	start := time.Now()
	handler(w, req)

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond || elapsed > 5*time.Second {
		t.Errorf("handler returned after %s, want about 50ms", elapsed)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestModeHandler_Update(t *testing.T) {
	st := newState("healthy")
	handler := modeHandler(testLogger(), st)

	req := httptest.NewRequest(http.MethodPost, "/admin/mode?health=degraded&error_rate=0.4&latency_ms=2500", http.NoBody)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	got := st.get()
	if got.Health != "degraded" || got.ErrorRate != 0.4 || got.LatencyMS != 2500 {
		t.Errorf("mode=%+v, want degraded/0.4/2500", got)
	}
	if got.CostUSD != 0.01 {
		t.Errorf("cost_usd=%v, want unchanged 0.01", got.CostUSD)
	}
}

func TestModeHandler_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "unknown health", query: "health=sideways"},
		{name: "negative latency", query: "latency_ms=-1"},
		{name: "error rate above one", query: "error_rate=1.5"},
		{name: "not a number", query: "cost_usd=lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState("healthy")
			w := httptest.NewRecorder()
			modeHandler(testLogger(), st)(w, httptest.NewRequest(http.MethodPost, "/admin/mode?"+tt.query, http.NoBody))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d, want %d", w.Code, http.StatusBadRequest)
			}
			if st.get() != newState("healthy").mode {
				t.Errorf("mode changed on rejected update: %+v", st.get())
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewPCG(1, 2))

	all := synthesize(mode{ErrorRate: 1, LatencyMS: 100, CostUSD: 0.01}, 10, now, rng)
	if len(all) != 10 {
		t.Fatalf("len=%d, want 10", len(all))
	}
	for i, rec := range all {
		if rec.Outcome != domain.OutcomeError {
			t.Errorf("record %d outcome=%q, want error", i, rec.Outcome)
		}
		if _, err := rec.Events(); err != nil {
			t.Errorf("record %d invalid: %v", i, err)
		}
		if i > 0 && rec.Timestamp.Before(all[i-1].Timestamp) {
			t.Errorf("record %d out of order", i)
		}
	}
	if !all[9].Timestamp.Equal(now) {
		t.Errorf("last timestamp=%s, want %s", all[9].Timestamp, now)
	}

	for _, rec := range synthesize(mode{ErrorRate: 0, LatencyMS: 100}, 20, now, rng) {
		if rec.Outcome != domain.OutcomeSuccess {
			t.Fatalf("outcome=%q with zero error rate", rec.Outcome)
		}
	}
}

func TestRunPusher(t *testing.T) {
	var batches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/metrics/batch" {
			t.Errorf("path=%s, want /api/v1/metrics/batch", r.URL.Path)
		}
		var body struct {
			Requests []domain.RequestRecord `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding batch: %v", err)
		}
		if len(body.Requests) != 3 {
			t.Errorf("requests=%d, want 3", len(body.Requests))
		}
		batches.Add(1)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"accepted":9,"rejected":0}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runPusher(ctx, testLogger(), apiclient.New(srv.URL), newState("healthy"), 3)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for batches.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	<-done

	if batches.Load() == 0 {
		t.Fatal("pusher never sent a batch")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

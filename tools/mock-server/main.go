// Package main implements a mock chat service for local development.
// It serves the /health endpoint chatwatch probes and can push synthetic
// request records to a chatwatch server, so rules can be exercised end to
// end without a real chat deployment. Failure modes are switched at runtime
// through /admin/mode.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	apiclient "github.com/donaldgifford/chatwatch/internal/api/client"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// mode is the behaviour the mock currently simulates.
type mode struct {
	// Health is "healthy", "degraded" (503 with a degraded body) or "down"
	// (the connection hangs past any sane probe timeout).
	Health string `json:"health"`
	// ErrorRate is the share of generated requests that fail.
	ErrorRate float64 `json:"error_rate"`
	// LatencyMS is the mean generated latency.
	LatencyMS float64 `json:"latency_ms"`
	// CostUSD is the mean generated cost per request.
	CostUSD float64 `json:"cost_usd"`
}

type state struct {
	mu   sync.RWMutex
	mode mode
}

func (s *state) get() mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *state) set(m mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	push := flag.String("push", "", "chatwatch server URL to push synthetic request records to")
	rps := flag.Int("rps", 5, "synthetic requests per second when pushing")
	errorRate := flag.Float64("error-rate", 0.01, "initial share of failed requests")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	st := &state{mode: mode{Health: "healthy", ErrorRate: *errorRate, LatencyMS: 800, CostUSD: 0.002}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler(logger, st))
	mux.HandleFunc("GET /admin/mode", modeHandler(logger, st))
	mux.HandleFunc("POST /admin/mode", modeHandler(logger, st))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *push != "" {
		go runPusher(ctx, logger, apiclient.New(*push), st, *rps)
	}

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock chat service", "addr", addr, "push", *push)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Minute,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// hangFor is how long a "down" health check stalls before answering.
var hangFor = 30 * time.Second

func healthHandler(logger *slog.Logger, st *state) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := st.get()
		w.Header().Set("Content-Type", "application/json")

		switch m.Health {
		case "degraded":
			w.WriteHeader(http.StatusServiceUnavailable)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
		case "down":
			logger.Warn("health check hanging", "for", hangFor)
			select {
			case <-time.After(hangFor):
			case <-r.Context().Done():
				return
			}
			w.WriteHeader(http.StatusGatewayTimeout)
		default:
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
		}
	}
}

// modeHandler reports the current mode on GET. POST updates any of the
// health, error_rate, latency_ms and cost_usd query parameters.
func modeHandler(logger *slog.Logger, st *state) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := st.get()
		if r.Method == http.MethodPost {
			q := r.URL.Query()
			if h := q.Get("health"); h != "" {
				if h != "healthy" && h != "degraded" && h != "down" {
					http.Error(w, "health must be healthy, degraded or down", http.StatusBadRequest)
					return
				}
				m.Health = h
			}
			for key, dst := range map[string]*float64{
				"error_rate": &m.ErrorRate,
				"latency_ms": &m.LatencyMS,
				"cost_usd":   &m.CostUSD,
			} {
				raw := q.Get(key)
				if raw == "" {
					continue
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil || v < 0 {
					http.Error(w, key+" must be a non-negative number", http.StatusBadRequest)
					return
				}
				*dst = v
			}
			if m.ErrorRate > 1 {
				http.Error(w, "error_rate must be at most 1", http.StatusBadRequest)
				return
			}
			st.set(m)
			logger.Info("mode changed", "health", m.Health, "error_rate", m.ErrorRate, "latency_ms", m.LatencyMS, "cost_usd", m.CostUSD)
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(m)
	}
}

// synthesize builds n request records for the given mode ending at now.
func synthesize(m mode, n int, now time.Time, rng *rand.Rand) []domain.RequestRecord {
	out := make([]domain.RequestRecord, 0, n)
	for i := range n {
		outcome := domain.OutcomeSuccess
		if rng.Float64() < m.ErrorRate {
			outcome = domain.OutcomeError
		}
		latency := m.LatencyMS * rng.ExpFloat64()
		cost := m.CostUSD * (0.5 + rng.Float64())
		out = append(out, domain.RequestRecord{
			Outcome:   outcome,
			LatencyMS: &latency,
			CostUSD:   &cost,
			Timestamp: now.Add(-time.Duration(n-1-i) * time.Second / time.Duration(n)),
			Tags:      map[string]string{"source": "mock-server"},
		})
	}
	return out
}

func runPusher(ctx context.Context, logger *slog.Logger, c *apiclient.Client, st *state, rps int) {
	if rps <= 0 {
		rps = 1
	}
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)) //nolint:gosec // synthetic traffic

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			records := synthesize(st.get(), rps, now.UTC(), rng)
			res, err := c.IngestBatch(ctx, nil, records)
			if err != nil {
				logger.Warn("push failed", "error", err)
				continue
			}
			logger.Debug("pushed", "accepted", res.Accepted, "rejected", res.Rejected)
		}
	}
}

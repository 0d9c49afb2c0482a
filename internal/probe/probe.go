// Package probe checks whether the chat service is up.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	"github.com/donaldgifford/chatwatch/internal/telemetry"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

const (
	// DefaultTimeout bounds one probe request.
	DefaultTimeout = 5 * time.Second
	// DefaultJSONPath and DefaultExpectValue match the chat service's /health body.
	DefaultJSONPath    = "status"
	DefaultExpectValue = "healthy"

	maxBodyBytes = 1 << 20
)

// Result is the observation from one probe.
type Result struct {
	At         time.Time
	Up         bool
	StatusCode int
	Latency    time.Duration
	Err        *domain.ProbeError
}

// Events converts the result to metric events: an uptime_probe event and,
// when withLatency is set and the probe succeeded, a probe_latency_ms event.
func (r Result) Events(withLatency bool) []domain.MetricEvent {
	tags := map[string]string{}
	if r.StatusCode != 0 {
		tags["status_code"] = strconv.Itoa(r.StatusCode)
	}
	value := domain.ValueSuccess
	if !r.Up {
		value = domain.ValueFailure
		if r.Err != nil {
			tags["error"] = r.Err.Err.Error()
		}
	}

	events := []domain.MetricEvent{domain.NewMetricEvent(domain.KindUptimeProbe, value, r.At, tags)}
	if withLatency && r.Up {
		events = append(events, domain.NewMetricEvent(
			domain.KindProbeLatencyMS,
			float64(r.Latency)/float64(time.Millisecond),
			r.At,
			nil,
		))
	}
	return events
}

// Prober performs liveness probes.
type Prober interface {
	Probe(ctx context.Context) Result
}

// HTTPProber probes a URL with GET and optionally checks a JSON field.
type HTTPProber struct {
	url         string
	client      *http.Client
	timeout     time.Duration
	jsonPath    string
	expectValue string
	nowFunc     func() time.Time
	log         *slog.Logger
}

// Option configures an HTTPProber.
type Option func(*HTTPProber)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPProber) {
		p.client = c
	}
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *HTTPProber) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithExpectJSON requires the gjson path in the response body to equal value.
// An empty path disables the body check.
func WithExpectJSON(path, value string) Option {
	return func(p *HTTPProber) {
		p.jsonPath = path
		p.expectValue = value
	}
}

// WithNowFunc overrides the clock for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(p *HTTPProber) {
		p.nowFunc = f
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *HTTPProber) {
		p.log = l
	}
}

// NewHTTPProber creates a prober for url.
func NewHTTPProber(url string, opts ...Option) *HTTPProber {
	p := &HTTPProber{
		url:         url,
		client:      http.DefaultClient,
		timeout:     DefaultTimeout,
		jsonPath:    DefaultJSONPath,
		expectValue: DefaultExpectValue,
		nowFunc:     time.Now,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// URL returns the probed URL.
func (p *HTTPProber) URL() string {
	return p.url
}

// Probe issues one request. Failures are reported in the Result, never
// returned as errors.
func (p *HTTPProber) Probe(ctx context.Context) Result {
	ctx, span := telemetry.StartProbeSpan(ctx, p.url)
	defer span.End()

	res := Result{At: p.nowFunc()}
	start := time.Now()

	status, err := p.do(ctx)
	res.Latency = time.Since(start)
	res.StatusCode = status
	res.Up = err == nil

	metrics.ProbeDuration.Observe(res.Latency.Seconds())
	span.SetAttributes(attribute.Int("http.status_code", status))

	if err != nil {
		res.Err = &domain.ProbeError{URL: p.url, StatusCode: status, Err: err}
		metrics.ProbesTotal.WithLabelValues("failure").Inc()
		span.SetStatus(codes.Error, err.Error())
		p.log.Warn("probe failed", "url", p.url, "status_code", status, "error", err)
		return res
	}

	metrics.ProbesTotal.WithLabelValues("success").Inc()
	p.log.Debug("probe succeeded", "url", p.url, "duration_ms", res.Latency.Milliseconds())
	return res
}

func (p *HTTPProber) do(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating probe request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("timed out after %s", p.timeout)
		}
		return 0, fmt.Errorf("sending probe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if p.jsonPath == "" {
		return resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading probe body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return resp.StatusCode, errors.New("probe body is not valid JSON")
	}
	got := gjson.GetBytes(body, p.jsonPath)
	if !got.Exists() {
		return resp.StatusCode, fmt.Errorf("probe body has no %q field", p.jsonPath)
	}
	if got.String() != p.expectValue {
		return resp.StatusCode, fmt.Errorf("probe body %s = %q, want %q", p.jsonPath, got.String(), p.expectValue)
	}
	return resp.StatusCode, nil
}

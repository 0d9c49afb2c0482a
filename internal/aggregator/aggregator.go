// Package aggregator maintains per-metric-kind sliding-window statistics
// over a stream of metric events.
package aggregator

import (
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

const (
	// DefaultRetention bounds how long samples are kept when no rule needs longer.
	DefaultRetention = 24 * time.Hour
	// DefaultExactCeiling is the sample count above which percentiles are approximated.
	DefaultExactCeiling = 10_000
	// DefaultCompression is the t-digest compression used above the ceiling.
	DefaultCompression = 100.0
)

// Aggregator ingests metric events concurrently and answers trailing-window
// snapshots. Each metric kind has its own series and lock, so producers of
// different kinds never contend and snapshots only block writers of the
// kind being read.
type Aggregator struct {
	series       map[domain.MetricKind]*series
	retention    atomic.Int64
	floor        time.Duration
	exactCeiling int
	compression  float64
	nowFunc      func() time.Time
	log          *slog.Logger
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithNowFunc overrides the clock for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(a *Aggregator) {
		a.nowFunc = f
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// WithRetention sets the sample retention. SetRetention never goes below it.
func WithRetention(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.retention.Store(int64(d))
			a.floor = d
		}
	}
}

// WithExactCeiling sets the sample count up to which percentiles are exact.
func WithExactCeiling(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.exactCeiling = n
		}
	}
}

// WithCompression sets the t-digest compression parameter.
func WithCompression(c float64) Option {
	return func(a *Aggregator) {
		if c > 0 {
			a.compression = c
		}
	}
}

// New creates an Aggregator with one series per known metric kind.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		series:       make(map[domain.MetricKind]*series, len(domain.MetricKinds)),
		exactCeiling: DefaultExactCeiling,
		compression:  DefaultCompression,
		floor:        DefaultRetention,
		nowFunc:      time.Now,
		log:          slog.Default(),
	}
	a.retention.Store(int64(DefaultRetention))
	for _, kind := range domain.MetricKinds {
		a.series[kind] = &series{kind: kind}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Retention returns the current sample retention.
func (a *Aggregator) Retention() time.Duration {
	return time.Duration(a.retention.Load())
}

// SetRetention changes how long samples are kept. Callers raise it to the
// largest rule window whenever the rule set changes; values below the
// configured retention (DefaultRetention unless WithRetention was given) are
// clamped so shrinking a rule set never drops data another reload might need.
func (a *Aggregator) SetRetention(d time.Duration) {
	if d < a.floor {
		d = a.floor
	}
	a.retention.Store(int64(d))
}

// Ingest validates and records an event. Malformed events are dropped,
// counted, and returned as an *domain.IngestionError.
func (a *Aggregator) Ingest(e domain.MetricEvent) error {
	if err := e.Validate(); err != nil {
		countRejected(err)
		a.log.Debug("metric event dropped", "kind", e.Kind, "error", err)
		return err
	}

	now := a.nowFunc()
	cutoff := now.Add(-a.Retention())
	if e.Timestamp.Before(cutoff) {
		metrics.EventsEvictedTotal.WithLabelValues(string(e.Kind)).Inc()
		return nil
	}

	s := a.series[e.Kind]
	evicted := s.add(sample{ts: e.Timestamp.UnixNano(), value: e.Value}, cutoff.UnixNano())

	metrics.EventsIngestedTotal.WithLabelValues(string(e.Kind)).Inc()
	if evicted > 0 {
		metrics.EventsEvictedTotal.WithLabelValues(string(e.Kind)).Add(float64(evicted))
	}
	return nil
}

// IngestAll records a batch of events, returning how many were accepted and
// the errors for the ones that were not.
func (a *Aggregator) IngestAll(events []domain.MetricEvent) (int, []error) {
	var (
		accepted int
		errs     []error
	)
	for i := range events {
		if err := a.Ingest(events[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		accepted++
	}
	return accepted, errs
}

// Snapshot returns the aggregate for kind over the trailing window ending
// now. The window is inclusive at both ends. When fewer than minSamples
// events fall in the window the stat is still returned with Underfilled set.
func (a *Aggregator) Snapshot(kind domain.MetricKind, window time.Duration, minSamples int) domain.WindowStat {
	end := a.nowFunc()
	start := end.Add(-window)

	stat := domain.WindowStat{
		Kind:        kind,
		Window:      window,
		WindowStart: start,
		WindowEnd:   end,
	}

	s, ok := a.series[kind]
	if !ok {
		stat.Underfilled = true
		return stat
	}

	s.summarize(&stat, start.UnixNano(), end.UnixNano(), a.exactCeiling, a.compression)
	stat.Underfilled = stat.Count < minSamples
	return stat
}

// Export returns all retained events with timestamps at or after since,
// ordered by timestamp. Tags are not retained by the aggregator.
func (a *Aggregator) Export(since time.Time) []domain.MetricEvent {
	var out []domain.MetricEvent
	for _, kind := range domain.MetricKinds {
		for _, smp := range a.series[kind].since(since.UnixNano()) {
			out = append(out, domain.NewMetricEvent(kind, smp.value, time.Unix(0, smp.ts).UTC(), nil))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SeriesStats describes the retained samples of one kind.
type SeriesStats struct {
	Kind    domain.MetricKind `json:"kind"`
	Samples int               `json:"samples"`
	Oldest  *time.Time        `json:"oldest,omitempty"`
	Newest  *time.Time        `json:"newest,omitempty"`
}

// Stats returns per-kind retention statistics in a stable order.
func (a *Aggregator) Stats() []SeriesStats {
	out := make([]SeriesStats, 0, len(domain.MetricKinds))
	for _, kind := range domain.MetricKinds {
		out = append(out, a.series[kind].stats())
	}
	return out
}

func countRejected(err error) {
	reason := string(domain.ReasonDecode)
	if ie, ok := err.(*domain.IngestionError); ok {
		reason = string(ie.Reason)
	}
	metrics.IngestionErrorsTotal.WithLabelValues(reason).Inc()
}

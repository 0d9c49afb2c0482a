// Package domain defines the core types for the chatwatch alerting engine.
package domain

import (
	"math"
	"time"
)

// MetricKind identifies the kind of operational observation.
type MetricKind string

// Metric kind constants.
const (
	KindRequestOutcome MetricKind = "request_outcome"
	KindLatencyMS      MetricKind = "latency_ms"
	KindCostUSD        MetricKind = "cost_usd"
	KindUptimeProbe    MetricKind = "uptime_probe"
	// KindProbeLatencyMS is the health endpoint round trip. It is kept apart
	// from latency_ms so probe samples never move request latency rules.
	KindProbeLatencyMS MetricKind = "probe_latency_ms"
)

// MetricKinds lists every supported kind in a stable order.
var MetricKinds = []MetricKind{
	KindRequestOutcome,
	KindLatencyMS,
	KindCostUSD,
	KindUptimeProbe,
	KindProbeLatencyMS,
}

// Valid reports whether k is a known metric kind.
func (k MetricKind) Valid() bool {
	switch k {
	case KindRequestOutcome, KindLatencyMS, KindCostUSD, KindUptimeProbe, KindProbeLatencyMS:
		return true
	default:
		return false
	}
}

// Binary reports whether values of this kind are success/failure flags.
func (k MetricKind) Binary() bool {
	return k == KindRequestOutcome || k == KindUptimeProbe
}

// Values for binary kinds (request_outcome, uptime_probe).
const (
	ValueSuccess = 0.0
	ValueFailure = 1.0
)

// MetricEvent is one immutable observation. Construct it with NewMetricEvent
// so the tag map is not shared with the caller.
type MetricEvent struct {
	Kind      MetricKind        `json:"kind"           doc:"Metric kind" enum:"request_outcome,latency_ms,cost_usd,uptime_probe,probe_latency_ms"`
	Value     float64           `json:"value"          doc:"Observed value (0/1 for request_outcome and uptime_probe)"`
	Timestamp time.Time         `json:"timestamp"      doc:"Observation time"`
	Tags      map[string]string `json:"tags,omitempty" doc:"Free-form tags"`
}

// NewMetricEvent builds a MetricEvent with a private copy of tags.
func NewMetricEvent(kind MetricKind, value float64, ts time.Time, tags map[string]string) MetricEvent {
	var cp map[string]string
	if len(tags) > 0 {
		cp = make(map[string]string, len(tags))
		for k, v := range tags {
			cp[k] = v
		}
	}
	return MetricEvent{Kind: kind, Value: value, Timestamp: ts, Tags: cp}
}

// IsFailure reports whether a binary event records an error or probe failure.
func (e MetricEvent) IsFailure() bool {
	return e.Kind.Binary() && e.Value >= ValueFailure
}

// Validate checks the event shape. A non-nil result is always an *IngestionError.
func (e MetricEvent) Validate() error {
	switch {
	case !e.Kind.Valid():
		return &IngestionError{Reason: ReasonUnknownKind, Detail: string(e.Kind)}
	case e.Timestamp.IsZero():
		return &IngestionError{Reason: ReasonMissingTimestamp}
	case math.IsNaN(e.Value) || math.IsInf(e.Value, 0):
		return &IngestionError{Reason: ReasonBadValue, Detail: "value is not finite"}
	}

	if e.Kind.Binary() {
		if e.Value != ValueSuccess && e.Value != ValueFailure {
			return &IngestionError{Reason: ReasonBadValue, Detail: "binary metric must be 0 or 1"}
		}
		return nil
	}

	if e.Value < 0 {
		return &IngestionError{Reason: ReasonBadValue, Detail: "value must be non-negative"}
	}
	return nil
}

// Request outcome labels accepted from the chat service.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// RequestRecord is the per-request shape pushed by the chat service.
type RequestRecord struct {
	Outcome   string            `json:"outcome"              doc:"Request outcome" enum:"success,error"`
	LatencyMS *float64          `json:"latency_ms,omitempty" doc:"End-to-end latency in milliseconds"`
	CostUSD   *float64          `json:"cost_usd,omitempty"   doc:"Estimated request cost in USD"`
	Timestamp time.Time         `json:"timestamp"            doc:"Request completion time"`
	Tags      map[string]string `json:"tags,omitempty"       doc:"Free-form tags (session, model, route)"`
}

// Events expands the record into its metric events. The outcome event is
// always present; latency and cost are emitted only when set.
func (r RequestRecord) Events() ([]MetricEvent, error) {
	var outcome float64
	switch r.Outcome {
	case OutcomeSuccess:
		outcome = ValueSuccess
	case OutcomeError:
		outcome = ValueFailure
	default:
		return nil, &IngestionError{Reason: ReasonBadOutcome, Detail: r.Outcome}
	}

	events := make([]MetricEvent, 0, 3)
	events = append(events, NewMetricEvent(KindRequestOutcome, outcome, r.Timestamp, r.Tags))
	if r.LatencyMS != nil {
		events = append(events, NewMetricEvent(KindLatencyMS, *r.LatencyMS, r.Timestamp, r.Tags))
	}
	if r.CostUSD != nil {
		events = append(events, NewMetricEvent(KindCostUSD, *r.CostUSD, r.Timestamp, r.Tags))
	}

	for i := range events {
		if err := events[i].Validate(); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// WindowStat is the aggregate of one metric kind over a trailing window.
type WindowStat struct {
	Kind                MetricKind    `json:"kind"`
	Window              time.Duration `json:"window"`
	WindowStart         time.Time     `json:"window_start"`
	WindowEnd           time.Time     `json:"window_end"`
	Count               int           `json:"count"`
	ErrorCount          int           `json:"error_count"`
	Sum                 float64       `json:"sum"`
	SumSquares          float64       `json:"sum_squares"`
	Min                 float64       `json:"min"`
	Max                 float64       `json:"max"`
	P50                 float64       `json:"p50"`
	P90                 float64       `json:"p90"`
	P95                 float64       `json:"p95"`
	P99                 float64       `json:"p99"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastFailed          bool          `json:"last_failed"`
	Underfilled         bool          `json:"underfilled"`
	Approximate         bool          `json:"approximate"`
}

// ErrorRatio returns ErrorCount/Count, or 0 when the window is empty.
// An empty window means "no data", not "healthy".
func (s WindowStat) ErrorRatio() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.Count)
}

// Mean returns Sum/Count, or 0 when the window is empty.
func (s WindowStat) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Value returns the derived value named by stat.
func (s WindowStat) Value(stat Statistic) float64 {
	switch stat {
	case StatErrorRatio:
		return s.ErrorRatio()
	case StatErrorCount:
		return float64(s.ErrorCount)
	case StatCount:
		return float64(s.Count)
	case StatSum:
		return s.Sum
	case StatMean:
		return s.Mean()
	case StatMin:
		return s.Min
	case StatMax:
		return s.Max
	case StatP50:
		return s.P50
	case StatP90:
		return s.P90
	case StatP95:
		return s.P95
	case StatP99:
		return s.P99
	case StatConsecutiveFailures:
		return float64(s.ConsecutiveFailures)
	case StatLastFailed:
		if s.LastFailed {
			return 1
		}
		return 0
	default:
		return 0
	}
}

package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/donaldgifford/chatwatch/internal/aggregator"
	"github.com/donaldgifford/chatwatch/internal/metrics"
	"github.com/donaldgifford/chatwatch/internal/probe"
	"github.com/donaldgifford/chatwatch/internal/telemetry"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// ErrTickInProgress is returned by Tick when another tick holds the guard.
var ErrTickInProgress = errors.New("evaluation tick already in progress")

// Tick triggers.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerDryRun   = "dryrun"
)

const storeTimeout = 5 * time.Second

// RuleSource returns the active rule set. It is satisfied by *rules.Manager.
type RuleSource interface {
	Current() *domain.RuleSet
}

// Submitter accepts notifications for background delivery. It is satisfied
// by *dispatch.Dispatcher.
type Submitter interface {
	Submit(n domain.AlertNotification) error
}

// Archiver persists resolved alert instances.
type Archiver interface {
	ArchiveAlert(ctx context.Context, a *domain.AlertInstance) error
}

// EventWriter persists accepted metric events.
type EventWriter interface {
	InsertMetricEvents(ctx context.Context, events []domain.MetricEvent) (int64, error)
}

// TickReport summarizes one evaluation tick.
type TickReport struct {
	Trigger       string                     `json:"trigger"`
	At            time.Time                  `json:"at"`
	Duration      time.Duration              `json:"duration"`
	Outcomes      []domain.RuleOutcome       `json:"outcomes"`
	Notifications []domain.AlertNotification `json:"notifications"`
}

// Engine ties the aggregator, rule set, alert tracker and dispatcher into
// the evaluation loop.
type Engine struct {
	agg       *aggregator.Aggregator
	rules     RuleSource
	tracker   *Tracker
	submitter Submitter
	archiver  Archiver
	events    EventWriter
	prober    probe.Prober

	recordProbeLatency bool

	tickMu   sync.Mutex
	lastTick atomic.Pointer[TickReport]
	nowFunc  func() time.Time
	log      *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithNowFunc overrides the clock used for state transitions. It should
// match the aggregator's clock.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = f
	}
}

// WithSubmitter sends notifications produced by ticks for delivery. Without
// one, notifications are only reported.
func WithSubmitter(s Submitter) EngineOption {
	return func(e *Engine) {
		e.submitter = s
	}
}

// WithArchiver writes resolved instances to durable storage.
func WithArchiver(a Archiver) EngineOption {
	return func(e *Engine) {
		e.archiver = a
	}
}

// WithEventWriter persists every accepted metric event.
func WithEventWriter(w EventWriter) EngineOption {
	return func(e *Engine) {
		e.events = w
	}
}

// WithProber enables RunProbe. When recordLatency is set a successful probe
// also feeds a latency sample.
func WithProber(p probe.Prober, recordLatency bool) EngineOption {
	return func(e *Engine) {
		e.prober = p
		e.recordProbeLatency = recordLatency
	}
}

// WithTracker replaces the default alert tracker.
func WithTracker(t *Tracker) EngineOption {
	return func(e *Engine) {
		e.tracker = t
	}
}

// NewEngine creates an Engine reading events from agg and rules from src.
func NewEngine(agg *aggregator.Aggregator, src RuleSource, opts ...EngineOption) *Engine {
	e := &Engine{
		agg:     agg,
		rules:   src,
		nowFunc: time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracker == nil {
		e.tracker = NewTracker(DefaultArchiveSize)
	}
	return e
}

// Tracker returns the engine's alert tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Aggregator returns the engine's event aggregator.
func (e *Engine) Aggregator() *aggregator.Aggregator {
	return e.agg
}

// Rules returns the active rule set.
func (e *Engine) Rules() *domain.RuleSet {
	return e.rules.Current()
}

// LastTick returns the report of the most recent completed tick, or nil.
func (e *Engine) LastTick() *TickReport {
	return e.lastTick.Load()
}

// Ingest records events in the aggregator and, when configured, persists
// the accepted ones. Malformed events are dropped and returned.
func (e *Engine) Ingest(ctx context.Context, events []domain.MetricEvent) (int, []error) {
	var (
		accepted []domain.MetricEvent
		errs     []error
	)
	for i := range events {
		if err := e.agg.Ingest(events[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		accepted = append(accepted, events[i])
	}
	e.persist(ctx, accepted)
	return len(accepted), errs
}

func (e *Engine) persist(ctx context.Context, events []domain.MetricEvent) {
	if e.events == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if _, err := e.events.InsertMetricEvents(ctx, events); err != nil {
		e.log.Warn("persisting metric events failed", "count", len(events), "error", err)
	}
}

// RunProbe performs one liveness probe and feeds the result into the
// aggregator. A failed probe is data, not an error.
func (e *Engine) RunProbe(ctx context.Context) (probe.Result, bool) {
	if e.prober == nil {
		return probe.Result{}, false
	}
	res := e.prober.Probe(ctx)
	_, errs := e.Ingest(ctx, res.Events(e.recordProbeLatency))
	for _, err := range errs {
		e.log.Error("probe event rejected", "error", err)
	}
	return res, true
}

// Tick evaluates every active rule once, advances alert state and submits
// resulting notifications. Only one tick runs at a time; a concurrent call
// returns ErrTickInProgress without evaluating.
func (e *Engine) Tick(ctx context.Context, trigger string) (*TickReport, error) {
	if !e.tickMu.TryLock() {
		metrics.EvaluationTicksSkippedTotal.Inc()
		e.log.Warn("evaluation tick skipped, previous tick still running", "trigger", trigger)
		return nil, ErrTickInProgress
	}
	defer e.tickMu.Unlock()

	start := time.Now()
	set := e.rules.Current()
	if set == nil {
		set = &domain.RuleSet{}
	}
	now := e.nowFunc()

	ctx, span := telemetry.StartTickSpan(ctx, trigger, len(set.Rules))
	defer span.End()

	e.agg.SetRetention(set.MaxWindow())

	report := &TickReport{
		Trigger:  trigger,
		At:       now,
		Outcomes: make([]domain.RuleOutcome, 0, len(set.Rules)),
	}

	for _, res := range e.tracker.Reconcile(set, now) {
		e.handle(ctx, res, report)
	}

	outcomes := Evaluate(set.Rules, e.agg)
	for i := range set.Rules {
		rule := &set.Rules[i]
		outcome := outcomes[i]
		report.Outcomes = append(report.Outcomes, outcome)

		metrics.RuleValue.WithLabelValues(rule.ID).Set(outcome.Value)
		underfilled := 0.0
		if outcome.Underfilled {
			underfilled = 1
		}
		metrics.RuleUnderfilled.WithLabelValues(rule.ID).Set(underfilled)

		e.handle(ctx, e.tracker.Apply(rule, outcome, now), report)
	}

	report.Duration = time.Since(start)
	metrics.EvaluationTicksTotal.Inc()
	metrics.EvaluationDuration.Observe(report.Duration.Seconds())
	span.SetAttributes(attribute.Int("chatwatch.notifications", len(report.Notifications)))

	transitions := make(map[string]int, len(report.Notifications))
	for i := range report.Notifications {
		transitions[string(report.Notifications[i].Transition)]++
	}
	telemetry.RecordTick(ctx, trigger, report.Duration, transitions)

	e.lastTick.Store(report)
	e.log.Debug("evaluation tick complete",
		"trigger", trigger,
		"rules", len(set.Rules),
		"notifications", len(report.Notifications),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

func (e *Engine) handle(ctx context.Context, res StepResult, report *TickReport) {
	if res.Archived && res.Next != nil && e.archiver != nil {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
		if err := e.archiver.ArchiveAlert(actx, res.Next); err != nil {
			e.log.Warn("archiving resolved alert failed",
				"rule_id", res.Next.RuleID,
				"alert_id", res.Next.ID,
				"error", err,
			)
		}
		cancel()
	}

	if res.Notification == nil {
		return
	}
	n := *res.Notification
	report.Notifications = append(report.Notifications, n)

	e.log.Info("alert transition",
		"rule_id", n.RuleID,
		"alert_id", n.AlertID,
		"transition", n.Transition,
		"value", n.Value,
		"threshold", n.Threshold,
	)

	if e.submitter == nil {
		return
	}
	if err := e.submitter.Submit(n); err != nil {
		e.log.Error("submitting notification failed", "rule_id", n.RuleID, "error", err)
	}
}

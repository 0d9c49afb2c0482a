// Package dispatch delivers alert notifications to sinks with per-sink
// retries and rate limits.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	"github.com/donaldgifford/chatwatch/internal/notify"
	"github.com/donaldgifford/chatwatch/internal/telemetry"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// Defaults for Config.
const (
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 30 * time.Second
	DefaultMultiplier      = 2.0
	DefaultRateLimit       = 1.0
	DefaultBurst           = 5
	DefaultTimeout         = 2 * time.Minute

	recordTimeout = 5 * time.Second
)

// Config controls retry and rate limiting.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// RateLimit is sends per second per sink; Burst is the bucket size.
	RateLimit float64
	Burst     int
	// Timeout bounds one Submit'd dispatch, retries included.
	Timeout time.Duration
}

// DefaultConfig returns the default dispatch settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
		RateLimit:       DefaultRateLimit,
		Burst:           DefaultBurst,
		Timeout:         DefaultTimeout,
	}
}

// Recorder persists delivery outcomes.
type Recorder interface {
	RecordDelivery(ctx context.Context, d *domain.Delivery) error
}

// Result summarizes one Dispatch call.
type Result struct {
	NotificationID string            `json:"notification_id"`
	Deliveries     []domain.Delivery `json:"deliveries"`
}

// Failed returns the deliveries that did not succeed.
func (r Result) Failed() []domain.Delivery {
	var out []domain.Delivery
	for _, d := range r.Deliveries {
		if !d.Succeeded {
			out = append(out, d)
		}
	}
	return out
}

type route struct {
	sink    notify.Sink
	limiter *rate.Limiter
}

// Dispatcher fans notifications out to sinks. Delivery outcomes never feed
// back into alert state.
type Dispatcher struct {
	routes   []route
	cfg      Config
	recorder Recorder
	nowFunc  func() time.Time
	log      *slog.Logger

	mu      sync.Mutex
	closed  bool
	queues  map[string]*ruleQueue
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithConfig replaces the retry and rate limit settings. Zero fields keep
// their defaults.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) {
		def := DefaultConfig()
		if cfg.MaxRetries < 0 {
			cfg.MaxRetries = 0
		} else if cfg.MaxRetries == 0 {
			cfg.MaxRetries = def.MaxRetries
		}
		if cfg.InitialInterval <= 0 {
			cfg.InitialInterval = def.InitialInterval
		}
		if cfg.MaxInterval <= 0 {
			cfg.MaxInterval = def.MaxInterval
		}
		if cfg.Multiplier < 1 {
			cfg.Multiplier = def.Multiplier
		}
		if cfg.RateLimit <= 0 {
			cfg.RateLimit = def.RateLimit
		}
		if cfg.Burst <= 0 {
			cfg.Burst = def.Burst
		}
		if cfg.Timeout <= 0 {
			cfg.Timeout = def.Timeout
		}
		d.cfg = cfg
	}
}

// WithRecorder persists every delivery outcome.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithNowFunc overrides the clock for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(d *Dispatcher) {
		d.nowFunc = f
	}
}

// New creates a Dispatcher for sinks. Sink names must be unique.
func New(sinks []notify.Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:     DefaultConfig(),
		nowFunc: time.Now,
		log:     slog.Default(),
		queues:  make(map[string]*ruleQueue),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.routes = make([]route, 0, len(sinks))
	for _, s := range sinks {
		d.routes = append(d.routes, route{
			sink:    s,
			limiter: rate.NewLimiter(rate.Limit(d.cfg.RateLimit), d.cfg.Burst),
		})
	}
	d.baseCtx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Sinks returns the configured sink names in order.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.routes))
	for _, r := range d.routes {
		names = append(names, r.sink.Name())
	}
	return names
}

// selectRoutes returns the routes allowed for n.
func (d *Dispatcher) selectRoutes(n *domain.AlertNotification) []route {
	if len(n.Sinks) == 0 {
		return d.routes
	}
	allowed := make(map[string]struct{}, len(n.Sinks))
	for _, name := range n.Sinks {
		allowed[name] = struct{}{}
	}
	var out []route
	for _, r := range d.routes {
		if _, ok := allowed[r.sink.Name()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Dispatch delivers n to every allowed sink concurrently and waits for all
// of them. A failing or slow sink never delays the others beyond ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.AlertNotification) Result {
	routes := d.selectRoutes(n)
	if len(routes) == 0 {
		d.log.Warn("notification matches no configured sink",
			"rule_id", n.RuleID,
			"notification_id", n.ID,
			"sinks", n.Sinks,
			"configured", d.Sinks(),
		)
	}

	ctx, span := telemetry.StartDispatchSpan(ctx, n.RuleID, string(n.Transition), len(routes))
	defer span.End()

	res := Result{
		NotificationID: n.ID,
		Deliveries:     make([]domain.Delivery, len(routes)),
	}

	var g errgroup.Group
	for i, r := range routes {
		g.Go(func() error {
			res.Deliveries[i] = d.deliver(ctx, r, n)
			return nil
		})
	}
	_ = g.Wait()

	if failed := res.Failed(); len(failed) > 0 {
		span.SetStatus(codes.Error, failed[0].ErrorText)
	}
	d.record(ctx, res.Deliveries)
	return res
}

func (d *Dispatcher) deliver(ctx context.Context, r route, n *domain.AlertNotification) domain.Delivery {
	name := r.sink.Name()
	attempts := 0

	op := func() error {
		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		metrics.DispatchAttemptsTotal.WithLabelValues(name).Inc()

		err := r.sink.Send(ctx, n)
		if err != nil && notify.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.RetryNotify(op, backoff.WithContext(d.newBackOff(), ctx), func(err error, wait time.Duration) {
		d.log.Warn("notification send failed, retrying",
			"sink", name,
			"rule_id", n.RuleID,
			"attempt", attempts,
			"retry_in", wait,
			"error", err,
		)
	})

	delivery := domain.Delivery{
		NotificationID: n.ID,
		RuleID:         n.RuleID,
		Sink:           name,
		Attempts:       attempts,
		Succeeded:      err == nil,
		CompletedAt:    d.nowFunc().UTC(),
	}
	telemetry.RecordDelivery(ctx, name, delivery.Succeeded)
	if err != nil {
		dispErr := &domain.DispatchError{Sink: name, Attempts: attempts, Err: err}
		delivery.ErrorText = dispErr.Error()
		metrics.DispatchFailuresTotal.WithLabelValues(name).Inc()
		d.log.Error("notification delivery failed",
			"sink", name,
			"rule_id", n.RuleID,
			"alert_id", n.AlertID,
			"attempts", attempts,
			"permanent", notify.IsPermanent(err),
			"error", dispErr,
		)
	}
	return delivery
}

func (d *Dispatcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.cfg.InitialInterval
	b.MaxInterval = d.cfg.MaxInterval
	b.Multiplier = d.cfg.Multiplier
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(d.cfg.MaxRetries))
}

func (d *Dispatcher) record(ctx context.Context, deliveries []domain.Delivery) {
	if d.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	for i := range deliveries {
		if err := d.recorder.RecordDelivery(ctx, &deliveries[i]); err != nil {
			d.log.Warn("recording delivery failed", "sink", deliveries[i].Sink, "error", err)
		}
	}
}

// ErrClosed is returned by Submit after Wait has been called.
var ErrClosed = errors.New("dispatcher closed")

// ruleQueue holds one rule's notifications waiting for delivery.
type ruleQueue struct {
	pending []domain.AlertNotification
}

// Submit dispatches n in the background with the configured timeout.
// Notifications of one rule are delivered one at a time in submit order, so
// a retried "raised" always reaches a sink before the "resolved" after it.
// Different rules dispatch concurrently.
func (d *Dispatcher) Submit(n domain.AlertNotification) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn("notification dropped, dispatcher closed", "rule_id", n.RuleID)
		return ErrClosed
	}
	d.wg.Add(1)
	q, running := d.queues[n.RuleID]
	if !running {
		q = &ruleQueue{}
		d.queues[n.RuleID] = q
	}
	q.pending = append(q.pending, n)
	d.mu.Unlock()

	if !running {
		go d.drain(n.RuleID, q)
	}
	return nil
}

// drain delivers q until it is empty, then forgets it. q holds at least one
// notification on entry.
func (d *Dispatcher) drain(ruleID string, q *ruleQueue) {
	for {
		d.mu.Lock()
		n := q.pending[0]
		q.pending = q.pending[1:]
		d.mu.Unlock()

		ctx, cancel := context.WithTimeout(d.baseCtx, d.cfg.Timeout)
		d.Dispatch(ctx, &n)
		cancel()

		d.mu.Lock()
		last := len(q.pending) == 0
		if last {
			delete(d.queues, ruleID)
		}
		d.mu.Unlock()
		d.wg.Done()
		if last {
			return
		}
	}
}

// Wait stops accepting submissions and waits for in-flight dispatches. If
// ctx ends first the remaining dispatches are cancelled and ctx's error is
// returned.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

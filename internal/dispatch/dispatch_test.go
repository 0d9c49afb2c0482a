package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/chatwatch/internal/notify"
	"github.com/donaldgifford/chatwatch/internal/notify/mocks"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
		RateLimit:       1000,
		Burst:           100,
		Timeout:         5 * time.Second,
	}
}

func testNotification(sinks ...string) *domain.AlertNotification {
	n := &domain.AlertNotification{
		ID:         "notif-1",
		RuleID:     "error-rate",
		AlertID:    "alert-1",
		Transition: domain.TransitionRaised,
		MetricKind: domain.KindRequestOutcome,
		Statistic:  domain.StatErrorRatio,
		Value:      0.08,
		Threshold:  0.05,
		Comparator: domain.Greater,
		Window:     domain.Duration(5 * time.Minute),
		Severity:   domain.SeverityWarning,
		Timestamp:  time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
		Sinks:      sinks,
	}
	n.Message = domain.FormatMessage(n)
	return n
}

func namedSink(t *testing.T, name string) *mocks.MockSink {
	t.Helper()
	s := mocks.NewMockSink(t)
	s.EXPECT().Name().Return(name).Maybe()
	return s
}

type fakeRecorder struct {
	mu         sync.Mutex
	deliveries []domain.Delivery
	err        error
}

func (f *fakeRecorder) RecordDelivery(_ context.Context, d *domain.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, *d)
	return f.err
}

func (f *fakeRecorder) all() []domain.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Delivery(nil), f.deliveries...)
}

func TestDispatch_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	sink := namedSink(t, "slack")
	sink.EXPECT().Send(mock.Anything, mock.Anything).Return(errors.New("503")).Twice()
	sink.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()

	rec := &fakeRecorder{}
	d := New([]notify.Sink{sink},
		WithConfig(fastConfig()),
		WithRecorder(rec),
		WithLogger(quietLogger()),
	)

	res := d.Dispatch(context.Background(), testNotification())

	require.Len(t, res.Deliveries, 1)
	got := res.Deliveries[0]
	assert.True(t, got.Succeeded)
	assert.Equal(t, 3, got.Attempts)
	assert.Equal(t, "slack", got.Sink)
	assert.Equal(t, "notif-1", got.NotificationID)
	assert.Empty(t, got.ErrorText)
	assert.Empty(t, res.Failed())

	recorded := rec.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, got, recorded[0])
}

func TestDispatch_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	sink := namedSink(t, "discord")
	sink.EXPECT().Send(mock.Anything, mock.Anything).Return(errors.New("connection refused")).Times(4)

	d := New([]notify.Sink{sink}, WithConfig(fastConfig()), WithLogger(quietLogger()))
	res := d.Dispatch(context.Background(), testNotification())

	require.Len(t, res.Deliveries, 1)
	got := res.Deliveries[0]
	assert.False(t, got.Succeeded)
	assert.Equal(t, 4, got.Attempts)
	assert.Contains(t, got.ErrorText, "discord")
	assert.Contains(t, got.ErrorText, "connection refused")
	assert.Len(t, res.Failed(), 1)
}

func TestDispatch_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	sink := namedSink(t, "webhook")
	sink.EXPECT().Send(mock.Anything, mock.Anything).
		Return(notify.Permanent(errors.New("webhook returned 400"))).Once()

	d := New([]notify.Sink{sink}, WithConfig(fastConfig()), WithLogger(quietLogger()))
	res := d.Dispatch(context.Background(), testNotification())

	require.Len(t, res.Deliveries, 1)
	assert.False(t, res.Deliveries[0].Succeeded)
	assert.Equal(t, 1, res.Deliveries[0].Attempts)
	assert.Contains(t, res.Deliveries[0].ErrorText, "returned 400")
}

func TestDispatch_FailingSinkDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	var delivered atomic.Bool

	slow := namedSink(t, "slow")
	slow.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ *domain.AlertNotification) error {
			<-ctx.Done()
			return ctx.Err()
		})

	fast := namedSink(t, "fast")
	fast.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, *domain.AlertNotification) error {
			delivered.Store(true)
			return nil
		}).Once()

	d := New([]notify.Sink{slow, fast}, WithConfig(fastConfig()), WithLogger(quietLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := d.Dispatch(ctx, testNotification())

	assert.True(t, delivered.Load())
	require.Len(t, res.Deliveries, 2)
	assert.False(t, res.Deliveries[0].Succeeded)
	assert.Equal(t, "slow", res.Deliveries[0].Sink)
	assert.True(t, res.Deliveries[1].Succeeded)
	assert.Equal(t, "fast", res.Deliveries[1].Sink)
}

func TestDispatch_RoutesToNamedSinks(t *testing.T) {
	t.Parallel()

	slack := namedSink(t, "slack")
	slack.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()
	email := namedSink(t, "email")

	d := New([]notify.Sink{slack, email}, WithConfig(fastConfig()), WithLogger(quietLogger()))
	res := d.Dispatch(context.Background(), testNotification("slack"))

	require.Len(t, res.Deliveries, 1)
	assert.Equal(t, "slack", res.Deliveries[0].Sink)
	email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatch_NoMatchingSinkWarns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slack := namedSink(t, "slack")
	d := New([]notify.Sink{slack},
		WithConfig(fastConfig()),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	res := d.Dispatch(context.Background(), testNotification("pagerduty"))
	assert.Empty(t, res.Deliveries)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "notification matches no configured sink")
	assert.Contains(t, buf.String(), "rule_id=error-rate")
}

func TestDispatch_RecorderErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	sink := namedSink(t, "log")
	sink.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()

	rec := &fakeRecorder{err: errors.New("db down")}
	d := New([]notify.Sink{sink},
		WithConfig(fastConfig()),
		WithRecorder(rec),
		WithLogger(quietLogger()),
	)

	res := d.Dispatch(context.Background(), testNotification())
	require.Len(t, res.Deliveries, 1)
	assert.True(t, res.Deliveries[0].Succeeded)
	assert.Len(t, rec.all(), 1)
}

func TestSubmitAndWait(t *testing.T) {
	t.Parallel()

	sink := namedSink(t, "slack")
	sink.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Times(3)

	rec := &fakeRecorder{}
	d := New([]notify.Sink{sink},
		WithConfig(fastConfig()),
		WithRecorder(rec),
		WithLogger(quietLogger()),
	)

	for range 3 {
		require.NoError(t, d.Submit(*testNotification()))
	}

	require.NoError(t, d.Wait(context.Background()))
	assert.Len(t, rec.all(), 3)

	assert.ErrorIs(t, d.Submit(*testNotification()), ErrClosed)
}

// orderedSink records the transitions it accepted, failing the first
// delivery of failOn once.
type orderedSink struct {
	mu     sync.Mutex
	failOn domain.Transition
	failed bool
	got    []domain.Transition
}

func (s *orderedSink) Name() string { return "ordered" }

func (s *orderedSink) Send(_ context.Context, n *domain.AlertNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Transition == s.failOn && !s.failed {
		s.failed = true
		return errors.New("connection reset")
	}
	s.got = append(s.got, n.Transition)
	return nil
}

func (s *orderedSink) transitions() []domain.Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transition{}, s.got...)
}

func TestSubmit_RetriedRaisedArrivesBeforeResolved(t *testing.T) {
	t.Parallel()

	sink := &orderedSink{failOn: domain.TransitionRaised}
	cfg := fastConfig()
	cfg.InitialInterval = 150 * time.Millisecond
	cfg.MaxInterval = 300 * time.Millisecond
	d := New([]notify.Sink{sink}, WithConfig(cfg), WithLogger(quietLogger()))

	raised := *testNotification()
	resolved := *testNotification()
	resolved.ID = "notif-2"
	resolved.Transition = domain.TransitionResolved

	require.NoError(t, d.Submit(raised))
	// Let the first attempt fail and enter backoff.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, d.Submit(resolved))

	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, []domain.Transition{domain.TransitionRaised, domain.TransitionResolved}, sink.transitions())

	d.mu.Lock()
	assert.Empty(t, d.queues)
	d.mu.Unlock()
}

func TestSubmit_RulesDispatchIndependently(t *testing.T) {
	t.Parallel()

	otherDelivered := make(chan struct{})
	sink := namedSink(t, "slack")
	sink.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, n *domain.AlertNotification) error {
			if n.RuleID == "other" {
				close(otherDelivered)
				return nil
			}
			select {
			case <-otherDelivered:
				return nil
			case <-ctx.Done():
				return notify.Permanent(ctx.Err())
			}
		}).Twice()

	rec := &fakeRecorder{}
	d := New([]notify.Sink{sink}, WithConfig(fastConfig()), WithRecorder(rec), WithLogger(quietLogger()))

	first := *testNotification()
	other := *testNotification()
	other.ID = "notif-2"
	other.RuleID = "other"
	require.NoError(t, d.Submit(first))
	require.NoError(t, d.Submit(other))

	require.NoError(t, d.Wait(context.Background()))
	deliveries := rec.all()
	require.Len(t, deliveries, 2)
	for _, del := range deliveries {
		assert.True(t, del.Succeeded, "rule %s", del.RuleID)
	}
}

func TestWait_CancelsOnDeadline(t *testing.T) {
	t.Parallel()

	sink := namedSink(t, "stuck")
	sink.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ *domain.AlertNotification) error {
			<-ctx.Done()
			return ctx.Err()
		})

	d := New([]notify.Sink{sink}, WithConfig(fastConfig()), WithLogger(quietLogger()))
	require.NoError(t, d.Submit(*testNotification()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithConfig_Defaults(t *testing.T) {
	t.Parallel()

	d := New(nil, WithConfig(Config{MaxRetries: -1}))
	assert.Equal(t, 0, d.cfg.MaxRetries)
	assert.Equal(t, DefaultInitialInterval, d.cfg.InitialInterval)
	assert.Equal(t, DefaultMaxInterval, d.cfg.MaxInterval)
	assert.InDelta(t, DefaultMultiplier, d.cfg.Multiplier, 0)
	assert.Equal(t, DefaultBurst, d.cfg.Burst)
	assert.Equal(t, DefaultTimeout, d.cfg.Timeout)

	d = New(nil, WithConfig(Config{}))
	assert.Equal(t, DefaultMaxRetries, d.cfg.MaxRetries)
}

func TestSinks(t *testing.T) {
	t.Parallel()

	d := New([]notify.Sink{namedSink(t, "a"), namedSink(t, "b")})
	assert.Equal(t, []string{"a", "b"}, d.Sinks())
}

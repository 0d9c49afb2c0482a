package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func breached(v float64) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: "error-rate", Breached: true, Value: v}
}

func cleared(v float64) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: "error-rate", Value: v}
}

func openInstance(notifiedAt time.Time) *domain.AlertInstance {
	return &domain.AlertInstance{
		ID:              "alert-1",
		RuleID:          "error-rate",
		State:           domain.StateOpen,
		OpenedAt:        notifiedAt,
		LastNotifiedAt:  notifiedAt,
		LastEvaluatedAt: notifiedAt,
		LastValue:       0.08,
		NotifyCount:     1,
	}
}

func TestStep(t *testing.T) {
	t.Parallel()

	rule := errorRateRule()
	now := t0.Add(time.Hour)

	tests := []struct {
		name           string
		current        *domain.AlertInstance
		outcome        domain.RuleOutcome
		wantState      domain.AlertState
		wantNil        bool
		wantArchived   bool
		wantTransition domain.Transition
	}{
		{
			name:    "none stays none when clear",
			outcome: cleared(0.01),
			wantNil: true,
		},
		{
			name:           "none raises when breached",
			outcome:        breached(0.08),
			wantState:      domain.StateOpen,
			wantTransition: domain.TransitionRaised,
		},
		{
			name:      "open within debounce is suppressed",
			current:   openInstance(now.Add(-time.Minute)),
			outcome:   breached(0.09),
			wantState: domain.StateSuppressed,
		},
		{
			name:           "open after debounce reports still breaching",
			current:        openInstance(now.Add(-10 * time.Minute)),
			outcome:        breached(0.09),
			wantState:      domain.StateOpen,
			wantTransition: domain.TransitionStillBreaching,
		},
		{
			name:           "open resolves when clear",
			current:        openInstance(now.Add(-time.Minute)),
			outcome:        cleared(0.02),
			wantState:      domain.StateResolved,
			wantArchived:   true,
			wantTransition: domain.TransitionResolved,
		},
		{
			name: "suppressed resolves when clear",
			current: func() *domain.AlertInstance {
				inst := openInstance(now.Add(-time.Minute))
				inst.State = domain.StateSuppressed
				return inst
			}(),
			outcome:        cleared(0.02),
			wantState:      domain.StateResolved,
			wantArchived:   true,
			wantTransition: domain.TransitionResolved,
		},
		{
			name: "resolved instance is treated as none",
			current: func() *domain.AlertInstance {
				inst := openInstance(now.Add(-time.Hour))
				inst.State = domain.StateResolved
				return inst
			}(),
			outcome:        breached(0.1),
			wantState:      domain.StateOpen,
			wantTransition: domain.TransitionRaised,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var before domain.AlertInstance
			if tt.current != nil {
				before = *tt.current
			}

			res := Step(tt.current, &rule, tt.outcome, now)

			if tt.current != nil {
				assert.Equal(t, before, *tt.current, "current must not be mutated")
			}
			if tt.wantNil {
				assert.Nil(t, res.Next)
				assert.Nil(t, res.Notification)
				return
			}

			require.NotNil(t, res.Next)
			assert.Equal(t, tt.wantState, res.Next.State)
			assert.Equal(t, tt.wantArchived, res.Archived)
			assert.Equal(t, now, res.Next.LastEvaluatedAt)
			assert.InDelta(t, tt.outcome.Value, res.Next.LastValue, 0)

			if tt.wantTransition == "" {
				assert.Nil(t, res.Notification)
				return
			}
			require.NotNil(t, res.Notification)
			assert.Equal(t, tt.wantTransition, res.Notification.Transition)
			assert.Equal(t, res.Next.ID, res.Notification.AlertID)
			assert.Equal(t, now, res.Notification.Timestamp)
		})
	}
}

func TestStep_RaisedNotificationCarriesRule(t *testing.T) {
	t.Parallel()

	rule := errorRateRule()
	rule.Sinks = []string{"slack"}

	res := Step(nil, &rule, breached(0.08), t0)
	require.NotNil(t, res.Notification)
	n := res.Notification

	assert.NotEmpty(t, n.ID)
	assert.NotEqual(t, n.ID, n.AlertID)
	assert.Equal(t, "error-rate", n.RuleID)
	assert.Equal(t, domain.KindRequestOutcome, n.MetricKind)
	assert.Equal(t, domain.StatErrorRatio, n.Statistic)
	assert.InDelta(t, 0.05, n.Threshold, 0)
	assert.Equal(t, domain.Greater, n.Comparator)
	assert.Equal(t, domain.SeverityCritical, n.Severity)
	assert.Equal(t, []string{"slack"}, n.Sinks)
	assert.Equal(t, "[RAISED] error-rate: error_ratio 0.0800 > 0.0500 over 5m0s (page on-call)", n.Message)
	assert.Equal(t, 1, res.Next.NotifyCount)
	assert.Equal(t, t0, res.Next.OpenedAt)
}

func TestStep_StillBreachingUpdatesNotifyBookkeeping(t *testing.T) {
	t.Parallel()

	rule := errorRateRule()
	now := t0.Add(15 * time.Minute)
	current := openInstance(t0)

	res := Step(current, &rule, breached(0.07), now)
	require.NotNil(t, res.Next)
	assert.Equal(t, now, res.Next.LastNotifiedAt)
	assert.Equal(t, 2, res.Next.NotifyCount)
	assert.Equal(t, t0, res.Next.OpenedAt)
	assert.Equal(t, "alert-1", res.Next.ID)
}

func TestStep_ResolvedSetsResolvedAt(t *testing.T) {
	t.Parallel()

	rule := errorRateRule()
	now := t0.Add(3 * time.Minute)

	res := Step(openInstance(t0), &rule, cleared(0.01), now)
	require.NotNil(t, res.Next.ResolvedAt)
	assert.Equal(t, now, *res.Next.ResolvedAt)
	assert.Equal(t, 1, res.Next.NotifyCount)
}

func TestStep_ZeroDebounceNotifiesEveryTick(t *testing.T) {
	t.Parallel()

	rule := errorRateRule()
	rule.Debounce = 0

	res := Step(openInstance(t0), &rule, breached(0.08), t0)
	require.NotNil(t, res.Notification)
	assert.Equal(t, domain.TransitionStillBreaching, res.Notification.Transition)
}

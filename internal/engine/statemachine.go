package engine

import (
	"time"

	"github.com/google/uuid"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// newID generates instance and notification identifiers.
var newID = uuid.NewString

// StepResult is the outcome of advancing one rule's alert by one evaluation.
type StepResult struct {
	// Next is the instance after the step; nil when the rule has no alert.
	Next *domain.AlertInstance
	// Archived is set when Next has just been resolved and leaves the
	// active set.
	Archived bool
	// Notification is non-nil when the step must be announced.
	Notification *domain.AlertNotification
}

// Step advances the alert for rule given this tick's outcome. It never
// mutates current and never fails.
//
//	none      + breached                     -> open        (raised)
//	open/supp + breached, within debounce    -> suppressed
//	open/supp + breached, debounce elapsed   -> open        (still_breaching)
//	open/supp + not breached                 -> resolved    (resolved, archived)
//	none      + not breached                 -> none
func Step(current *domain.AlertInstance, rule *domain.Rule, outcome domain.RuleOutcome, now time.Time) StepResult {
	if current == nil || current.State == domain.StateResolved || current.State == domain.StateNone {
		if !outcome.Breached {
			return StepResult{}
		}
		next := &domain.AlertInstance{
			ID:              newID(),
			RuleID:          rule.ID,
			State:           domain.StateOpen,
			OpenedAt:        now,
			LastNotifiedAt:  now,
			LastEvaluatedAt: now,
			LastValue:       outcome.Value,
			NotifyCount:     1,
		}
		return StepResult{
			Next:         next,
			Notification: newNotification(rule, next, domain.TransitionRaised, outcome.Value, now),
		}
	}

	next := *current
	next.LastEvaluatedAt = now
	next.LastValue = outcome.Value

	if !outcome.Breached {
		resolvedAt := now
		next.State = domain.StateResolved
		next.ResolvedAt = &resolvedAt
		return StepResult{
			Next:         &next,
			Archived:     true,
			Notification: newNotification(rule, &next, domain.TransitionResolved, outcome.Value, now),
		}
	}

	if now.Sub(current.LastNotifiedAt) < rule.Debounce.Std() {
		next.State = domain.StateSuppressed
		return StepResult{Next: &next}
	}

	next.State = domain.StateOpen
	next.LastNotifiedAt = now
	next.NotifyCount++
	return StepResult{
		Next:         &next,
		Notification: newNotification(rule, &next, domain.TransitionStillBreaching, outcome.Value, now),
	}
}

func newNotification(
	rule *domain.Rule,
	inst *domain.AlertInstance,
	transition domain.Transition,
	value float64,
	now time.Time,
) *domain.AlertNotification {
	n := &domain.AlertNotification{
		ID:          newID(),
		RuleID:      rule.ID,
		AlertID:     inst.ID,
		Transition:  transition,
		MetricKind:  rule.MetricKind,
		Statistic:   rule.EffectiveStatistic(),
		Value:       value,
		Threshold:   rule.Threshold,
		Comparator:  rule.Comparator,
		Window:      rule.Window,
		Severity:    rule.Severity,
		ActionLabel: rule.ActionLabel,
		Timestamp:   now,
		Sinks:       rule.Sinks,
	}
	n.Message = domain.FormatMessage(n)
	return n
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// AlertState is the lifecycle state of an AlertInstance.
type AlertState string

// Alert state constants. "none" is never stored; it is the absence of an instance.
const (
	StateNone       AlertState = "none"
	StateOpen       AlertState = "open"
	StateSuppressed AlertState = "suppressed"
	StateResolved   AlertState = "resolved"
)

// AlertInstance tracks one ongoing (or archived) breach of a rule.
type AlertInstance struct {
	ID              string     `json:"id"                    db:"id"`
	RuleID          string     `json:"rule_id"               db:"rule_id"`
	State           AlertState `json:"state"                 db:"state"`
	OpenedAt        time.Time  `json:"opened_at"             db:"opened_at"`
	LastNotifiedAt  time.Time  `json:"last_notified_at"      db:"last_notified_at"`
	LastEvaluatedAt time.Time  `json:"last_evaluated_at"     db:"last_evaluated_at"`
	LastValue       float64    `json:"last_value"            db:"last_value"`
	NotifyCount     int        `json:"notify_count"          db:"notify_count"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// Transition is the kind of state change a notification reports.
type Transition string

// Transition constants.
const (
	TransitionRaised         Transition = "raised"
	TransitionStillBreaching Transition = "still_breaching"
	TransitionResolved       Transition = "resolved"
)

// AlertNotification is delivered to sinks for every notifying transition.
type AlertNotification struct {
	ID          string     `json:"id"`
	RuleID      string     `json:"rule_id"`
	AlertID     string     `json:"alert_id"`
	Transition  Transition `json:"state_transition"`
	MetricKind  MetricKind `json:"metric_kind"`
	Statistic   Statistic  `json:"statistic"`
	Value       float64    `json:"value"`
	Threshold   float64    `json:"threshold"`
	Comparator  Comparator `json:"comparator"`
	Window      Duration   `json:"window"`
	Severity    Severity   `json:"severity"`
	ActionLabel string     `json:"action_label,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Message     string     `json:"message"`
	// Sinks restricts delivery to the named sinks; empty means all.
	Sinks []string `json:"sinks,omitempty"`
}

// FormatMessage builds the human-readable notification line.
func FormatMessage(n *AlertNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s %.4f %s %.4f over %s",
		strings.ToUpper(string(n.Transition)),
		n.RuleID,
		n.Statistic,
		n.Value,
		n.Comparator,
		n.Threshold,
		n.Window,
	)
	if n.ActionLabel != "" {
		fmt.Fprintf(&b, " (%s)", n.ActionLabel)
	}
	return b.String()
}

// Delivery records the outcome of delivering one notification to one sink.
type Delivery struct {
	NotificationID string    `json:"notification_id" db:"notification_id"`
	RuleID         string    `json:"rule_id"         db:"rule_id"`
	Sink           string    `json:"sink"            db:"sink"`
	Attempts       int       `json:"attempts"        db:"attempts"`
	Succeeded      bool      `json:"succeeded"       db:"succeeded"`
	ErrorText      string    `json:"error_text,omitempty" db:"error_text"`
	CompletedAt    time.Time `json:"completed_at"    db:"completed_at"`
}

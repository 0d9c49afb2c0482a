package domain

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that encodes as a Go duration string ("5m")
// in YAML and JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", string(b), err)
	}
	*d = Duration(parsed)
	return nil
}

// Comparator is a threshold comparison operator.
type Comparator string

// Comparator constants.
const (
	Greater        Comparator = ">"
	Less           Comparator = "<"
	GreaterOrEqual Comparator = ">="
	LessOrEqual    Comparator = "<="
)

// Valid reports whether c is a supported comparator.
func (c Comparator) Valid() bool {
	switch c {
	case Greater, Less, GreaterOrEqual, LessOrEqual:
		return true
	default:
		return false
	}
}

// Compare applies the comparator as "value <c> threshold".
func (c Comparator) Compare(value, threshold float64) bool {
	switch c {
	case Greater:
		return value > threshold
	case Less:
		return value < threshold
	case GreaterOrEqual:
		return value >= threshold
	case LessOrEqual:
		return value <= threshold
	default:
		return false
	}
}

// Statistic names the derived window value a rule compares.
type Statistic string

// Statistic constants.
const (
	StatErrorRatio          Statistic = "error_ratio"
	StatErrorCount          Statistic = "error_count"
	StatCount               Statistic = "count"
	StatSum                 Statistic = "sum"
	StatMean                Statistic = "mean"
	StatMin                 Statistic = "min"
	StatMax                 Statistic = "max"
	StatP50                 Statistic = "p50"
	StatP90                 Statistic = "p90"
	StatP95                 Statistic = "p95"
	StatP99                 Statistic = "p99"
	StatConsecutiveFailures Statistic = "consecutive_failures"
	StatLastFailed          Statistic = "last_failed"
)

// Statistics lists every supported statistic.
var Statistics = []Statistic{
	StatErrorRatio, StatErrorCount, StatCount, StatSum, StatMean, StatMin, StatMax,
	StatP50, StatP90, StatP95, StatP99, StatConsecutiveFailures, StatLastFailed,
}

// Valid reports whether s is a supported statistic.
func (s Statistic) Valid() bool {
	for _, known := range Statistics {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultStatistic returns the statistic used when a rule does not name one.
func DefaultStatistic(k MetricKind) Statistic {
	switch k {
	case KindRequestOutcome:
		return StatErrorRatio
	case KindLatencyMS, KindProbeLatencyMS:
		return StatP95
	case KindCostUSD:
		return StatSum
	case KindUptimeProbe:
		return StatConsecutiveFailures
	default:
		return ""
	}
}

// Severity is a routing hint carried on notifications.
type Severity string

// Severity constants.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rule is one declarative threshold rule. Rules are immutable once loaded.
type Rule struct {
	ID             string     `json:"id"                    yaml:"id"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	MetricKind     MetricKind `json:"metric_kind"           yaml:"metric_kind"`
	Statistic      Statistic  `json:"statistic"             yaml:"statistic,omitempty"`
	Window         Duration   `json:"window"                yaml:"window"`
	Comparator     Comparator `json:"comparator"            yaml:"comparator"`
	Threshold      float64    `json:"threshold"             yaml:"threshold"`
	MinSampleCount int        `json:"min_sample_count"      yaml:"min_sample_count"`
	Debounce       Duration   `json:"debounce"              yaml:"debounce"`
	ActionLabel    string     `json:"action_label,omitempty" yaml:"action_label,omitempty"`
	Severity       Severity   `json:"severity"              yaml:"severity,omitempty"`
	Sinks          []string   `json:"sinks,omitempty"       yaml:"sinks,omitempty"`
}

// EffectiveStatistic returns the configured statistic or the kind default.
func (r *Rule) EffectiveStatistic() Statistic {
	if r.Statistic != "" {
		return r.Statistic
	}
	return DefaultStatistic(r.MetricKind)
}

// RuleSet is an ordered, immutable set of rules with unique IDs.
type RuleSet struct {
	Rules    []Rule    `json:"rules"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Get returns the rule with the given ID.
func (s *RuleSet) Get(id string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			return s.Rules[i], true
		}
	}
	return Rule{}, false
}

// MaxWindow returns the largest window of any rule, or 0 for an empty set.
func (s *RuleSet) MaxWindow() time.Duration {
	if s == nil {
		return 0
	}
	var longest time.Duration
	for i := range s.Rules {
		if w := s.Rules[i].Window.Std(); w > longest {
			longest = w
		}
	}
	return longest
}

// RuleOutcome is the result of evaluating one rule at one tick.
type RuleOutcome struct {
	RuleID      string    `json:"rule_id"`
	Statistic   Statistic `json:"statistic"`
	Breached    bool      `json:"breached"`
	Value       float64   `json:"value"`
	Count       int       `json:"count"`
	Underfilled bool      `json:"underfilled"`
}

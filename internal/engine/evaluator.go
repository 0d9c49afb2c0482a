package engine

import (
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// Snapshotter answers trailing-window aggregates. It is satisfied by
// *aggregator.Aggregator.
type Snapshotter interface {
	Snapshot(kind domain.MetricKind, window time.Duration, minSamples int) domain.WindowStat
}

// Evaluate checks every rule against src in configured order. It holds no
// state and performs no I/O beyond the snapshots it reads.
func Evaluate(rules []domain.Rule, src Snapshotter) []domain.RuleOutcome {
	out := make([]domain.RuleOutcome, 0, len(rules))
	for i := range rules {
		out = append(out, EvaluateRule(&rules[i], src.Snapshot(
			rules[i].MetricKind,
			rules[i].Window.Std(),
			rules[i].MinSampleCount,
		)))
	}
	return out
}

// EvaluateRule compares one rule against an already taken snapshot.
// Underfilled windows never breach. An empty window is treated as
// underfilled for every statistic except count, where zero is a real value.
func EvaluateRule(rule *domain.Rule, stat domain.WindowStat) domain.RuleOutcome {
	statistic := rule.EffectiveStatistic()
	outcome := domain.RuleOutcome{
		RuleID:      rule.ID,
		Statistic:   statistic,
		Value:       stat.Value(statistic),
		Count:       stat.Count,
		Underfilled: stat.Underfilled || (stat.Count == 0 && statistic != domain.StatCount),
	}
	if outcome.Underfilled {
		return outcome
	}
	outcome.Breached = rule.Comparator.Compare(outcome.Value, rule.Threshold)
	return outcome
}

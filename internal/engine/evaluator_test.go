package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

type stubSnapshotter map[domain.MetricKind]domain.WindowStat

func (s stubSnapshotter) Snapshot(kind domain.MetricKind, _ time.Duration, minSamples int) domain.WindowStat {
	stat := s[kind]
	stat.Underfilled = stat.Count < minSamples
	return stat
}

func TestEvaluateRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rule       domain.Rule
		stat       domain.WindowStat
		wantBreach bool
		wantUnder  bool
		wantValue  float64
	}{
		{
			name:       "error ratio over threshold",
			rule:       errorRateRule(),
			stat:       domain.WindowStat{Count: 100, ErrorCount: 8},
			wantBreach: true,
			wantValue:  0.08,
		},
		{
			name:      "error ratio under threshold",
			rule:      errorRateRule(),
			stat:      domain.WindowStat{Count: 100, ErrorCount: 2},
			wantValue: 0.02,
		},
		{
			name:      "underfilled never breaches",
			rule:      errorRateRule(),
			stat:      domain.WindowStat{Count: 10, ErrorCount: 10, Underfilled: true},
			wantUnder: true,
			wantValue: 1,
		},
		{
			name: "empty window is underfilled",
			rule: domain.Rule{
				ID: "p95", MetricKind: domain.KindLatencyMS,
				Comparator: domain.Less, Threshold: 100,
			},
			stat:      domain.WindowStat{},
			wantUnder: true,
		},
		{
			name: "empty window counts as zero for count",
			rule: domain.Rule{
				ID: "traffic", MetricKind: domain.KindRequestOutcome, Statistic: domain.StatCount,
				Comparator: domain.Less, Threshold: 1,
			},
			stat:       domain.WindowStat{},
			wantBreach: true,
		},
		{
			name: "p95 latency default statistic",
			rule: domain.Rule{
				ID: "p95", MetricKind: domain.KindLatencyMS,
				Comparator: domain.Greater, Threshold: 2000,
			},
			stat:       domain.WindowStat{Count: 50, P95: 2500},
			wantBreach: true,
			wantValue:  2500,
		},
		{
			name: "cost sum at threshold with >=",
			rule: domain.Rule{
				ID: "cost", MetricKind: domain.KindCostUSD,
				Comparator: domain.GreaterOrEqual, Threshold: 25,
			},
			stat:       domain.WindowStat{Count: 3, Sum: 25},
			wantBreach: true,
			wantValue:  25,
		},
		{
			name: "probe last failed",
			rule: domain.Rule{
				ID: "down", MetricKind: domain.KindUptimeProbe, Statistic: domain.StatLastFailed,
				Comparator: domain.GreaterOrEqual, Threshold: 1,
			},
			stat:       domain.WindowStat{Count: 1, ErrorCount: 1, LastFailed: true},
			wantBreach: true,
			wantValue:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := EvaluateRule(&tt.rule, tt.stat)
			assert.Equal(t, tt.rule.ID, got.RuleID)
			assert.Equal(t, tt.rule.EffectiveStatistic(), got.Statistic)
			assert.Equal(t, tt.wantBreach, got.Breached)
			assert.Equal(t, tt.wantUnder, got.Underfilled)
			assert.InDelta(t, tt.wantValue, got.Value, 1e-9)
		})
	}
}

func TestEvaluate_PreservesRuleOrder(t *testing.T) {
	t.Parallel()

	rules := []domain.Rule{
		{ID: "z", MetricKind: domain.KindCostUSD, Comparator: domain.Greater, Threshold: 1, MinSampleCount: 1},
		errorRateRule(),
		{ID: "a", MetricKind: domain.KindLatencyMS, Comparator: domain.Greater, Threshold: 1, MinSampleCount: 1},
	}
	src := stubSnapshotter{
		domain.KindCostUSD:        {Count: 2, Sum: 5},
		domain.KindRequestOutcome: {Count: 100, ErrorCount: 1},
	}

	got := Evaluate(rules, src)
	require.Len(t, got, 3)
	assert.Equal(t, "z", got[0].RuleID)
	assert.True(t, got[0].Breached)
	assert.Equal(t, "error-rate", got[1].RuleID)
	assert.False(t, got[1].Breached)
	assert.Equal(t, "a", got[2].RuleID)
	assert.True(t, got[2].Underfilled)
}

package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/donaldgifford/chatwatch/internal/aggregator"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// ReplayOptions controls a dry-run replay.
type ReplayOptions struct {
	// At is the first tick time. Zero means the newest event's timestamp.
	At time.Time
	// Ticks is the number of evaluations, at At, At+Step, ...
	Ticks int
	Step  time.Duration
	Log   *slog.Logger
}

// ReplayResult holds the reports of every replayed tick.
type ReplayResult struct {
	Reports  []*TickReport
	Rejected []error
}

type staticSource struct {
	set *domain.RuleSet
}

func (s staticSource) Current() *domain.RuleSet { return s.set }

// Replay evaluates set against historical events with a simulated clock.
// Before each tick, events up to the tick time are fed to a fresh
// aggregator, so later events never leak into earlier windows. Nothing is
// delivered.
func Replay(ctx context.Context, set *domain.RuleSet, events []domain.MetricEvent, opts ReplayOptions) (*ReplayResult, error) {
	if opts.Ticks <= 0 {
		opts.Ticks = 1
	}
	if opts.Ticks > 1 && opts.Step <= 0 {
		return nil, errors.New("step must be positive when replaying more than one tick")
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	sorted := make([]domain.MetricEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	at := opts.At
	if at.IsZero() {
		if len(sorted) == 0 {
			return nil, errors.New("no events to replay and no evaluation time given")
		}
		at = sorted[len(sorted)-1].Timestamp
	}

	now := at
	clock := func() time.Time { return now }

	agg := aggregator.New(
		aggregator.WithNowFunc(clock),
		aggregator.WithRetention(set.MaxWindow()),
		aggregator.WithLogger(opts.Log),
	)
	eng := NewEngine(agg, staticSource{set: set},
		WithNowFunc(clock),
		WithLogger(opts.Log),
	)

	res := &ReplayResult{Reports: make([]*TickReport, 0, opts.Ticks)}
	next := 0
	for i := range opts.Ticks {
		now = at.Add(time.Duration(i) * opts.Step)

		for next < len(sorted) && !sorted[next].Timestamp.After(now) {
			if err := agg.Ingest(sorted[next]); err != nil {
				res.Rejected = append(res.Rejected, err)
			}
			next++
		}

		report, err := eng.Tick(ctx, TriggerDryRun)
		if err != nil {
			return nil, err
		}
		res.Reports = append(res.Reports, report)
	}
	return res, nil
}

package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/chatwatch/internal/metrics"
)

// Scheduler runs the liveness probe and the evaluation tick on independent
// intervals. Neither job overlaps with itself.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger

	probeEntryID cron.EntryID
	tickEntryID  cron.EntryID
}

// cronLogger adapts slog to cron.Logger. cron's info output is noisy, so it
// is logged at debug.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// NewScheduler creates a Scheduler for eng. A zero probeInterval disables
// the probe job.
func NewScheduler(
	eng *Engine,
	probeInterval time.Duration,
	tickInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if tickInterval <= 0 {
		return nil, errors.New("tick interval must be positive")
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	if probeInterval > 0 {
		id, err := c.AddFunc("@every "+probeInterval.String(), s.runProbe)
		if err != nil {
			return nil, err
		}
		s.probeEntryID = id
	}

	id, err := c.AddFunc("@every "+tickInterval.String(), s.runTick)
	if err != nil {
		return nil, err
	}
	s.tickEntryID = id

	return s, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
	s.SyncNextRunTimestamps()
}

// Stop halts new runs. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextProbe returns the next scheduled probe, or zero when probing is off
// or the scheduler has not started.
func (s *Scheduler) NextProbe() time.Time {
	if s.probeEntryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.probeEntryID).Next
}

// NextTick returns the next scheduled evaluation tick.
func (s *Scheduler) NextTick() time.Time {
	return s.cron.Entry(s.tickEntryID).Next
}

// SyncNextRunTimestamps publishes the next run times as gauges.
func (s *Scheduler) SyncNextRunTimestamps() {
	if next := s.NextProbe(); !next.IsZero() {
		metrics.SchedulerNextProbeTimestamp.Set(float64(next.Unix()))
	}
	if next := s.NextTick(); !next.IsZero() {
		metrics.SchedulerNextTickTimestamp.Set(float64(next.Unix()))
	}
}

func (s *Scheduler) runProbe() {
	defer s.SyncNextRunTimestamps()

	res, ok := s.engine.RunProbe(context.Background())
	if !ok {
		return
	}
	if !res.Up {
		s.log.Warn("liveness probe failed", "error", res.Err, "latency_ms", res.Latency.Milliseconds())
	}
}

func (s *Scheduler) runTick() {
	defer s.SyncNextRunTimestamps()

	if _, err := s.engine.Tick(context.Background(), TriggerSchedule); err != nil {
		s.log.Warn("scheduled evaluation tick not run", "error", err)
	}
}

package notify

import (
	"context"
	"log/slog"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// LogSink writes notifications as structured log lines. It is always
// available and is the only sink a fresh install has.
type LogSink struct {
	name string
	log  *slog.Logger
}

// NewLogSink creates a sink that logs to l.
func NewLogSink(name string, l *slog.Logger) *LogSink {
	if name == "" {
		name = "log"
	}
	return &LogSink{name: name, log: l}
}

// Name implements Sink.
func (s *LogSink) Name() string { return s.name }

// Send logs the notification at a level derived from severity and transition.
func (s *LogSink) Send(ctx context.Context, n *domain.AlertNotification) error {
	defer observe(s.name, time.Now())

	level := slog.LevelWarn
	switch {
	case n.Transition == domain.TransitionResolved, n.Severity == domain.SeverityInfo:
		level = slog.LevelInfo
	case n.Severity == domain.SeverityCritical:
		level = slog.LevelError
	}

	s.log.Log(ctx, level, n.Message,
		"rule_id", n.RuleID,
		"alert_id", n.AlertID,
		"transition", n.Transition,
		"statistic", n.Statistic,
		"value", n.Value,
		"threshold", n.Threshold,
		"severity", n.Severity,
	)
	return nil
}

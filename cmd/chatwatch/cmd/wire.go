package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/chatwatch/internal/aggregator"
	"github.com/donaldgifford/chatwatch/internal/config"
	"github.com/donaldgifford/chatwatch/internal/dispatch"
	"github.com/donaldgifford/chatwatch/internal/notify"
	"github.com/donaldgifford/chatwatch/internal/probe"
	"github.com/donaldgifford/chatwatch/internal/store"
	"github.com/donaldgifford/chatwatch/pkg/logger"
)

// sinkSet is the configured notification sinks plus whatever needs closing
// when the process exits.
type sinkSet struct {
	sinks   []notify.Sink
	feed    *notify.FeedSink
	closers []func() error
}

func (s *sinkSet) close(log *slog.Logger) {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Warn("closing sink", "error", err)
		}
	}
}

// names lists the configured sink names rules may route to.
func (s *sinkSet) names() []string {
	out := make([]string, 0, len(s.sinks))
	for _, sink := range s.sinks {
		out = append(out, sink.Name())
	}
	return out
}

// buildSinks constructs every enabled sink from the notifications section.
func buildSinks(cfg *config.NotificationsConfig, log *slog.Logger) (*sinkSet, error) {
	set := &sinkSet{}

	if !cfg.Log.Disabled {
		set.sinks = append(set.sinks, notify.NewLogSink("log", logger.Component(log, "alerts")))
	}
	if cfg.Discord.Enabled {
		set.sinks = append(set.sinks, notify.NewDiscordSink(cfg.Discord.WebhookURL))
	}
	if cfg.Slack.Enabled {
		set.sinks = append(set.sinks, notify.NewSlackSink(cfg.Slack.WebhookURL, cfg.Slack.Channel))
	}
	if cfg.Webhook.Enabled {
		set.sinks = append(set.sinks, notify.NewWebhookSink(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Headers))
	}
	if cfg.Email.Enabled {
		set.sinks = append(set.sinks, notify.NewEmailSink(notify.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
		}))
	}
	if cfg.Feed.Enabled {
		set.feed = notify.NewFeedSink(cfg.Feed.Size, notify.NewHub(logger.Component(log, "feed")))
		set.sinks = append(set.sinks, set.feed)
	}
	if cfg.Redis.Enabled {
		client, err := notify.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("configuring redis sink: %w", err)
		}
		set.closers = append(set.closers, client.Close)
		set.sinks = append(set.sinks, notify.NewRedisStreamSink(client, cfg.Redis.Stream, cfg.Redis.MaxLen))
	}

	return set, nil
}

// openStore returns the PostgreSQL store when a database is configured and
// the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (store.Store, error) {
	if !cfg.Enabled() {
		return store.NewMemoryStore(), nil
	}

	s, err := store.NewPostgresStore(ctx, cfg.DSN(), int32(cfg.PoolSize)) //nolint:gosec // pool size is validated config
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func newAggregator(cfg *config.AggregatorConfig, opts ...aggregator.Option) *aggregator.Aggregator {
	opts = append([]aggregator.Option{
		aggregator.WithRetention(cfg.Retention),
		aggregator.WithExactCeiling(cfg.ExactCeiling),
		aggregator.WithCompression(cfg.Compression),
	}, opts...)
	return aggregator.New(opts...)
}

func newProber(cfg *config.ProbeConfig, log *slog.Logger) probe.Prober {
	if cfg.URL == "" {
		return nil
	}
	opts := []probe.Option{
		probe.WithTimeout(cfg.Timeout),
		probe.WithLogger(log),
	}
	if cfg.ExpectPath != "" {
		opts = append(opts, probe.WithExpectJSON(cfg.ExpectPath, cfg.ExpectValue))
	}
	return probe.NewHTTPProber(cfg.URL, opts...)
}

func dispatchConfig(cfg *config.DispatchConfig) dispatch.Config {
	return dispatch.Config{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
		RateLimit:       cfg.RateLimit,
		Burst:           cfg.Burst,
		Timeout:         cfg.Timeout,
	}
}

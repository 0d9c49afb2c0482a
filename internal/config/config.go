// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Aggregator    AggregatorConfig    `yaml:"aggregator"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Probe         ProbeConfig         `yaml:"probe"`
	Dispatch      DispatchConfig      `yaml:"dispatch"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Rules         RulesConfig         `yaml:"rules"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig defines PostgreSQL connection settings. An empty host
// selects the in-memory store.
type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Name          string `yaml:"name"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	SSLMode       string `yaml:"sslmode"`
	PoolSize      int    `yaml:"pool_size"`
	PersistEvents bool   `yaml:"persist_events"`
}

// Enabled reports whether a PostgreSQL store is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// AggregatorConfig tunes the sliding-window aggregator.
type AggregatorConfig struct {
	Retention    time.Duration `yaml:"retention"`
	ExactCeiling int           `yaml:"exact_ceiling"`
	Compression  float64       `yaml:"compression"`
}

// ScheduleConfig defines cron intervals.
type ScheduleConfig struct {
	ProbeInterval time.Duration `yaml:"probe_interval"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	LockFile      string        `yaml:"lock_file"`
}

// ProbeConfig defines the liveness probe of the chat service. An empty URL
// disables probing.
type ProbeConfig struct {
	URL           string        `yaml:"url"`
	Timeout       time.Duration `yaml:"timeout"`
	ExpectPath    string        `yaml:"expect_json_path"`
	ExpectValue   string        `yaml:"expect_value"`
	RecordLatency bool          `yaml:"record_latency"`
}

// DispatchConfig defines retry and rate limit settings for sinks.
type DispatchConfig struct {
	MaxRetries      int           `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
	RateLimit       float64       `yaml:"rate_limit"`
	Burst           int           `yaml:"burst"`
	Timeout         time.Duration `yaml:"timeout"`
	DrainTimeout    time.Duration `yaml:"drain_timeout"`
}

// NotificationsConfig defines notification sinks.
type NotificationsConfig struct {
	Log     LogSinkConfig `yaml:"log"`
	Discord DiscordConfig `yaml:"discord"`
	Slack   SlackConfig   `yaml:"slack"`
	Webhook WebhookConfig `yaml:"webhook"`
	Email   EmailConfig   `yaml:"email"`
	Feed    FeedConfig    `yaml:"feed"`
	Redis   RedisConfig   `yaml:"redis"`
}

// LogSinkConfig defines the structured log sink. It is on unless disabled.
type LogSinkConfig struct {
	Disabled bool `yaml:"disabled"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// SlackConfig defines Slack incoming webhook settings.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Secret  string            `yaml:"secret"`
	Headers map[string]string `yaml:"headers"`
}

// EmailConfig defines SMTP settings.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// FeedConfig defines the in-process dashboard feed.
type FeedConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

// RedisConfig defines the Redis stream sink.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	MaxLen  int64  `yaml:"max_len"`
}

// RulesConfig points at the rule file.
type RulesConfig struct {
	Path        string `yaml:"path"`
	ArchiveSize int    `yaml:"archive_size"`
}

// TracingConfig defines OpenTelemetry export. An empty endpoint disables it.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`

	// MetricInterval is the OTLP metric push period.
	MetricInterval time.Duration `yaml:"metric_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config content, applying defaults and validation.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyAggregatorDefaults(&cfg.Aggregator)
	applyScheduleDefaults(&cfg.Schedule)
	applyProbeDefaults(&cfg.Probe)
	applyDispatchDefaults(&cfg.Dispatch)
	applyNotificationsDefaults(&cfg.Notifications)
	applyRulesDefaults(&cfg.Rules)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 15 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyAggregatorDefaults(a *AggregatorConfig) {
	if a.Retention == 0 {
		a.Retention = 24 * time.Hour
	}
	if a.ExactCeiling == 0 {
		a.ExactCeiling = 10_000
	}
	if a.Compression == 0 {
		a.Compression = 100
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.ProbeInterval == 0 {
		s.ProbeInterval = 60 * time.Second
	}
	if s.TickInterval == 0 {
		s.TickInterval = 60 * time.Second
	}
	if s.LockFile == "" {
		s.LockFile = "/tmp/chatwatch.lock"
	}
}

func applyProbeDefaults(p *ProbeConfig) {
	if p.Timeout == 0 {
		p.Timeout = 5 * time.Second
	}
	if p.ExpectPath == "" {
		p.ExpectPath = "status"
	}
	if p.ExpectValue == "" {
		p.ExpectValue = "healthy"
	}
}

func applyDispatchDefaults(d *DispatchConfig) {
	if d.MaxRetries == 0 {
		d.MaxRetries = 3
	}
	if d.InitialInterval == 0 {
		d.InitialInterval = 500 * time.Millisecond
	}
	if d.MaxInterval == 0 {
		d.MaxInterval = 30 * time.Second
	}
	if d.Multiplier == 0 {
		d.Multiplier = 2
	}
	if d.RateLimit == 0 {
		d.RateLimit = 1
	}
	if d.Burst == 0 {
		d.Burst = 5
	}
	if d.Timeout == 0 {
		d.Timeout = 2 * time.Minute
	}
	if d.DrainTimeout == 0 {
		d.DrainTimeout = 30 * time.Second
	}
}

func applyNotificationsDefaults(n *NotificationsConfig) {
	if n.Email.Port == 0 {
		n.Email.Port = 587
	}
	if n.Feed.Size == 0 {
		n.Feed.Size = 200
	}
	if n.Redis.Stream == "" {
		n.Redis.Stream = "chatwatch:alerts"
	}
	if n.Redis.MaxLen == 0 {
		n.Redis.MaxLen = 10_000
	}
}

func applyRulesDefaults(r *RulesConfig) {
	if r.Path == "" {
		r.Path = "rules.yaml"
	}
	if r.ArchiveSize == 0 {
		r.ArchiveSize = 500
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.SampleRatio == 0 {
		t.SampleRatio = 0.1
	}
	if t.MetricInterval == 0 {
		t.MetricInterval = 30 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got %d)", cfg.Server.Port))
	}

	if cfg.Database.Enabled() {
		if cfg.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required when database.host is set"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, errors.New("database.user is required when database.host is set"))
		}
	}

	if cfg.Schedule.ProbeInterval < 0 {
		errs = append(errs, errors.New("schedule.probe_interval must not be negative"))
	}
	if cfg.Schedule.TickInterval < time.Second {
		errs = append(errs, fmt.Errorf("schedule.tick_interval must be at least 1s (got %s)", cfg.Schedule.TickInterval))
	}

	if cfg.Probe.URL != "" {
		if err := validateURL(cfg.Probe.URL); err != nil {
			errs = append(errs, fmt.Errorf("probe.url: %w", err))
		}
	}

	if cfg.Dispatch.MaxRetries < 0 {
		errs = append(errs, errors.New("dispatch.max_retries must not be negative"))
	}
	if cfg.Dispatch.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("dispatch.multiplier must be at least 1 (got %g)", cfg.Dispatch.Multiplier))
	}
	if cfg.Dispatch.RateLimit < 0 {
		errs = append(errs, errors.New("dispatch.rate_limit must not be negative"))
	}

	errs = append(errs, validateNotifications(&cfg.Notifications)...)

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be between 0 and 1 (got %g)", cfg.Tracing.SampleRatio))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
	}
	if !slices.Contains([]string{"text", "json"}, cfg.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}

func validateNotifications(n *NotificationsConfig) []error {
	var errs []error

	if n.Discord.Enabled {
		if err := validateURL(n.Discord.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("notifications.discord.webhook_url: %w", err))
		}
	}
	if n.Slack.Enabled {
		if err := validateURL(n.Slack.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("notifications.slack.webhook_url: %w", err))
		}
	}
	if n.Webhook.Enabled {
		if err := validateURL(n.Webhook.URL); err != nil {
			errs = append(errs, fmt.Errorf("notifications.webhook.url: %w", err))
		}
	}
	if n.Email.Enabled {
		if n.Email.Host == "" {
			errs = append(errs, errors.New("notifications.email.host is required when email is enabled"))
		}
		if n.Email.From == "" {
			errs = append(errs, errors.New("notifications.email.from is required when email is enabled"))
		}
		if len(n.Email.To) == 0 {
			errs = append(errs, errors.New("notifications.email.to needs at least one recipient"))
		}
	}
	if n.Redis.Enabled && n.Redis.URL == "" {
		errs = append(errs, errors.New("notifications.redis.url is required when redis is enabled"))
	}
	if n.Feed.Size < 0 {
		errs = append(errs, errors.New("notifications.feed.size must not be negative"))
	}

	return errs
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

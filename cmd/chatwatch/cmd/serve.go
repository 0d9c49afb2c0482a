package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/chatwatch/internal/aggregator"
	"github.com/donaldgifford/chatwatch/internal/api"
	"github.com/donaldgifford/chatwatch/internal/config"
	"github.com/donaldgifford/chatwatch/internal/dispatch"
	"github.com/donaldgifford/chatwatch/internal/engine"
	"github.com/donaldgifford/chatwatch/internal/rules"
	"github.com/donaldgifford/chatwatch/internal/store"
	"github.com/donaldgifford/chatwatch/internal/telemetry"
	"github.com/donaldgifford/chatwatch/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server, probe and evaluation scheduler",
		Long: "Runs the ingestion API, the liveness probe and the periodic rule\n" +
			"evaluation. SIGHUP reloads the rule file; SIGINT or SIGTERM drains\n" +
			"pending notifications and exits.",
		RunE: runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	lock := flock.New(cfg.Schedule.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", cfg.Schedule.LockFile, err)
	}
	if !locked {
		return fmt.Errorf("another chatwatch instance holds %s", cfg.Schedule.LockFile)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("releasing lock", "error", err)
		}
	}()

	ctx := context.Background()

	telCfg := telemetry.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: "chatwatch",
		Version:     Version,
	}
	shutdownTracing, err := telemetry.InitTraceProvider(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	shutdownMetrics, err := telemetry.InitMeterProvider(ctx, telCfg, cfg.Tracing.MetricInterval)
	if err != nil {
		return fmt.Errorf("initializing OTLP metrics: %w", err)
	}

	sinks, err := buildSinks(&cfg.Notifications, log)
	if err != nil {
		return err
	}
	defer sinks.close(log)

	mgr, err := rules.NewManager(cfg.Rules.Path,
		rules.WithLogger(logger.Component(log, "rules")),
		rules.WithKnownSinks(sinks.names()),
	)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	log.Info("rules loaded", "path", cfg.Rules.Path, "count", len(mgr.Current().Rules))

	st, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	agg := newAggregator(&cfg.Aggregator, aggregator.WithLogger(logger.Component(log, "aggregator")))
	if cfg.Database.PersistEvents {
		warmAggregator(ctx, st, agg, mgr.Current().MaxWindow(), log)
	}

	disp := dispatch.New(sinks.sinks,
		dispatch.WithConfig(dispatchConfig(&cfg.Dispatch)),
		dispatch.WithRecorder(st),
		dispatch.WithLogger(logger.Component(log, "dispatch")),
	)

	opts := []engine.EngineOption{
		engine.WithLogger(logger.Component(log, "engine")),
		engine.WithTracker(engine.NewTracker(cfg.Rules.ArchiveSize)),
		engine.WithSubmitter(disp),
		engine.WithArchiver(st),
	}
	if cfg.Database.PersistEvents {
		opts = append(opts, engine.WithEventWriter(st))
	}
	if p := newProber(&cfg.Probe, logger.Component(log, "probe")); p != nil {
		opts = append(opts, engine.WithProber(p, cfg.Probe.RecordLatency))
	}
	eng := engine.NewEngine(agg, mgr, opts...)

	probeInterval := cfg.Schedule.ProbeInterval
	if cfg.Probe.URL == "" {
		probeInterval = 0
	}
	sched, err := engine.NewScheduler(eng, probeInterval, cfg.Schedule.TickInterval, logger.Component(log, "scheduler"))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()

	e, _ := api.NewRouter(api.Deps{
		Engine:    eng,
		Rules:     mgr,
		Store:     st,
		Feed:      sinks.feed,
		Scheduler: sched,
		Logger:    logger.Component(log, "http"),
		Version:   Version,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := cfg.Server.Addr()
	log.Info("starting server", "addr", addr, "sinks", disp.Sinks())

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	var runErr error
wait:
	for {
		select {
		case s := <-sig:
			if s == syscall.SIGHUP {
				if _, err := mgr.Reload(); err != nil {
					log.Error("rule reload failed, keeping previous rules", "error", err)
				}
				continue
			}
			log.Info("shutting down", "signal", s.String())
			break wait
		case err := <-serverErr:
			runErr = fmt.Errorf("server error: %w", err)
			break wait
		}
	}

	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutting down server", "error", err)
	}

	drainCtx, drainCancel := context.WithTimeout(ctx, cfg.Dispatch.DrainTimeout)
	defer drainCancel()
	if err := disp.Wait(drainCtx); err != nil {
		log.Warn("pending notifications abandoned", "error", err)
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Warn("flushing traces", "error", err)
	}
	if err := shutdownMetrics(ctx); err != nil {
		log.Warn("flushing OTLP metrics", "error", err)
	}

	log.Info("server stopped")
	return runErr
}

// warmAggregator refills the windows from persisted events so a restart
// does not leave every rule underfilled.
func warmAggregator(ctx context.Context, st store.Store, agg *aggregator.Aggregator, window time.Duration, log *slog.Logger) {
	if window <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	agg.SetRetention(window)
	now := time.Now()
	events, err := st.ListMetricEvents(ctx, now.Add(-window), now)
	if err != nil {
		log.Warn("loading persisted events failed, starting with empty windows", "error", err)
		return
	}
	accepted, errs := agg.IngestAll(events)
	log.Info("aggregator warmed from store", "accepted", accepted, "rejected", len(errs), "window", window)
}

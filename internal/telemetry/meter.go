package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
)

// DefaultMetricInterval is how often metrics are pushed to the collector.
const DefaultMetricInterval = 30 * time.Second

// Meter returns the package-level meter.
func Meter() metric.Meter {
	return otel.Meter(tracerName)
}

// InitMeterProvider installs a global meter provider pushing over OTLP gRPC
// to the same collector as traces. Prometheus scraping is unaffected. With
// no endpoint the global no-op provider is kept.
func InitMeterProvider(ctx context.Context, cfg Config, interval time.Duration) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	if interval <= 0 {
		interval = DefaultMetricInterval
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithUserAgent("chatwatch/" + cfg.Version)),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "chatwatch"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

type instruments struct {
	tickDuration metric.Float64Histogram
	transitions  metric.Int64Counter
	deliveries   metric.Int64Counter
}

var (
	instOnce sync.Once
	inst     instruments
)

// The global provider delegates, so instruments created before
// InitMeterProvider still report once it is installed.
func getInstruments() *instruments {
	instOnce.Do(func() {
		m := Meter()
		inst.tickDuration, _ = m.Float64Histogram("chatwatch.tick.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of one evaluation tick."),
		)
		inst.transitions, _ = m.Int64Counter("chatwatch.alert.transitions",
			metric.WithDescription("Alert transitions produced by evaluation."),
		)
		inst.deliveries, _ = m.Int64Counter("chatwatch.dispatch.deliveries",
			metric.WithDescription("Notification deliveries by sink and outcome."),
		)
	})
	return &inst
}

// RecordTick records one finished evaluation tick.
func RecordTick(ctx context.Context, trigger string, d time.Duration, transitions map[string]int) {
	in := getInstruments()
	trig := attribute.String("chatwatch.trigger", trigger)
	in.tickDuration.Record(ctx, d.Seconds(), metric.WithAttributes(trig))
	for transition, n := range transitions {
		in.transitions.Add(ctx, int64(n), metric.WithAttributes(
			trig,
			attribute.String("chatwatch.transition", transition),
		))
	}
}

// RecordDelivery records the outcome of one sink delivery.
func RecordDelivery(ctx context.Context, sink string, succeeded bool) {
	getInstruments().deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("chatwatch.sink", sink),
		attribute.Bool("chatwatch.succeeded", succeeded),
	))
}

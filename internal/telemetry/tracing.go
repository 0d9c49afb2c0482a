// Package telemetry configures OpenTelemetry tracing for chatwatch.
//
// Custom span attributes use the `chatwatch.` prefix.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

const tracerName = "github.com/donaldgifford/chatwatch"

// Config controls trace export.
type Config struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	ServiceName string
	Version     string
}

// Tracer returns the package-level tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider installs a global tracer provider exporting over OTLP
// gRPC. With no endpoint tracing stays disabled and the global no-op
// provider is kept. The returned function flushes and shuts the provider down.
func InitTraceProvider(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent("chatwatch/" + cfg.Version)),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "chatwatch"
	}
	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Sampler returns a parent-based ratio sampler. Ratios outside (0, 1]
// fall back to always sampling.
func Sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// StartTickSpan creates the span for one evaluation tick.
func StartTickSpan(ctx context.Context, trigger string, rules int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "chatwatch.tick",
		trace.WithAttributes(
			attribute.String("chatwatch.trigger", trigger),
			attribute.Int("chatwatch.rules", rules),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartDispatchSpan creates the span for delivering one notification.
func StartDispatchSpan(ctx context.Context, ruleID, transition string, sinks int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "chatwatch.dispatch",
		trace.WithAttributes(
			attribute.String("chatwatch.rule_id", ruleID),
			attribute.String("chatwatch.transition", transition),
			attribute.Int("chatwatch.sinks", sinks),
		),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

// StartProbeSpan creates the span for one liveness probe.
func StartProbeSpan(ctx context.Context, url string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "chatwatch.probe",
		trace.WithAttributes(
			attribute.String("chatwatch.probe_url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// Package tracing exports OpenTelemetry spans for parses, scene cache
// loads and MCP tool calls.
package tracing

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// ServiceName is the service.name resource attribute.
	ServiceName = "osmscene"
	// TracerName names the instrumentation scope.
	TracerName = "github.com/NERVsystems/osmscene"

	shutdownTimeout = 5 * time.Second
)

// Tracer is the package tracer. It is a no-op until Setup installs an
// exporter.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(TracerName)

// Config selects where spans go and how many are kept.
type Config struct {
	// Endpoint is the OTLP/gRPC collector address. Empty disables export.
	Endpoint    string
	Environment string
	Version     string
	// Insecure sends spans without TLS.
	Insecure bool
	// SampleRatio is the fraction of root traces kept, in [0, 1].
	SampleRatio float64
}

// ConfigFromEnv reads OTLP_ENDPOINT, OTLP_INSECURE, OTLP_SAMPLE_RATIO and
// ENVIRONMENT.
func ConfigFromEnv(version string) (Config, error) {
	cfg := Config{
		Endpoint:    os.Getenv("OTLP_ENDPOINT"),
		Environment: os.Getenv("ENVIRONMENT"),
		Version:     version,
		SampleRatio: 1,
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OTLP_INSECURE: %w", err)
		}
		cfg.Insecure = insecure
	}
	if v := os.Getenv("OTLP_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("OTLP_SAMPLE_RATIO: %w", err)
		}
		if ratio < 0 || ratio > 1 {
			return cfg, fmt.Errorf("OTLP_SAMPLE_RATIO %v outside [0, 1]", ratio)
		}
		cfg.SampleRatio = ratio
	}
	return cfg, nil
}

// InitTracing is Setup with the configuration taken from the environment.
func InitTracing(ctx context.Context, version string) (shutdown func(context.Context) error, err error) {
	cfg, err := ConfigFromEnv(version)
	if err != nil {
		return nil, err
	}
	return Setup(ctx, cfg)
}

// Setup installs an OTLP exporter for cfg. Without an endpoint the tracer
// stays a no-op and shutdown does nothing.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.Endpoint == "" {
		Tracer = noop.NewTracerProvider().Tracer(TracerName)
		return func(context.Context) error { return nil }, nil
	}

	clientOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(clientOpts...))
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(cfg.Version),
			attribute.String("service.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	Tracer = tp.Tracer(TracerName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// sampler follows the caller's decision and samples new roots by ratio.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// UseProvider points the package tracer at tp. Tests use it with an
// in-memory recorder.
func UseProvider(tp trace.TracerProvider) {
	Tracer = tp.Tracer(TracerName)
}

// StartSpan starts a span on the package tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name, opts...)
}

// StartParse starts the span covering one parse of source.
func StartParse(ctx context.Context, source string) (context.Context, trace.Span) {
	return StartSpan(ctx, "osm.parse",
		trace.WithAttributes(attribute.String(AttrParseSource, source)))
}

// StartCacheLoad starts the span covering one scene cache lookup.
func StartCacheLoad(ctx context.Context, path string) (context.Context, trace.Span) {
	return StartSpan(ctx, "cache.scene.load",
		trace.WithAttributes(attribute.String(AttrCachePath, path)))
}

// StartTool starts the span covering one MCP tool call.
func StartTool(ctx context.Context, tool string) (context.Context, trace.Span) {
	return StartSpan(ctx, "mcp.tool."+tool,
		trace.WithAttributes(attribute.String(AttrMCPToolName, tool)))
}

// Finish sets the span status from err, recording err as an event when
// it is non-nil. It does not end the span.
func Finish(span trace.Span, err error) {
	if !span.IsRecording() {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(ErrorAttributes(err)...)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// Fail marks the span failed without an error value, for outcomes such as
// rate limiting or tool error results.
func Fail(span trace.Span, reason string) {
	if span.IsRecording() {
		span.SetStatus(codes.Error, reason)
	}
}

package oteltrace

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"go.jacobcolvin.com/turbotrace/version"
)

const (
	// DefaultEndpoint is the collector endpoint used when none is
	// configured.
	DefaultEndpoint = "http://localhost:4317"
	// DefaultTimeout bounds both client construction and each span export.
	DefaultTimeout = time.Second
	// ServiceName tags exported spans in the collector.
	ServiceName = "turbo"
)

// Config controls export client construction. The zero value is completed by
// [Config.withDefaults]; most callers use it as-is.
type Config struct {
	// Exporter, when set, replaces the OTLP/gRPC client entirely. Used by
	// tests to capture spans in memory.
	Exporter sdktrace.SpanExporter
	// Endpoint is the collector URL, e.g. "http://localhost:4317".
	Endpoint string
	// Timeout bounds client construction and per-export RPCs.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	return c
}

// Exporter owns the OTLP export client and its tracer provider. Releasing it
// with [Exporter.Shutdown] flushes pending spans and closes the client.
//
// Create instances with [New].
type Exporter struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// New builds the OTLP/gRPC export client and tracer provider, and installs
// the W3C TraceContext propagator globally. Construction is bounded by
// cfg.Timeout; an error here is fatal to the pipeline, by contract.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	cfg = cfg.withDefaults()

	exporter := cfg.Exporter
	if exporter == nil {
		buildCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		client, err := otlptracegrpc.New(buildCtx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithTimeout(cfg.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("building OTLP export client: %w", err)
		}

		exporter = client
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version.Version),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Exporter{
		provider: provider,
		tracer:   provider.Tracer(ServiceName),
	}, nil
}

// Tracer returns the tracer spans should be started from.
func (e *Exporter) Tracer() trace.Tracer {
	return e.tracer
}

// Shutdown flushes pending spans and releases the export client. Safe to
// call once per Exporter; the provider rejects later use.
func (e *Exporter) Shutdown(ctx context.Context) error {
	err := e.provider.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutting down tracer provider: %w", err)
	}

	return nil
}

// ContextWithTraceparent attaches an externally received W3C traceparent
// value to ctx via the global propagator, so spans started from the returned
// context become children of the calling service's span. An empty value
// returns ctx unchanged.
func ContextWithTraceparent(ctx context.Context, traceparent string) context.Context {
	if traceparent == "" {
		return ctx
	}

	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier{
		"traceparent": traceparent,
	})
}

// Traceparent renders the current span context in ctx as a W3C traceparent
// value for handing to child processes. Returns "" when ctx carries no span.
func Traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return carrier.Get("traceparent")
}

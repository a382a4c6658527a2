// Package oteltrace exports pipeline spans to a remote OpenTelemetry
// collector over OTLP/gRPC.
//
// [New] builds the export client against a fixed local default endpoint with
// a short timeout; a build failure has no recovery path, so callers are
// expected to abort after logging it. Span export is synchronous: the
// tracer provider uses a syncer rather than a batcher, so short-lived
// processes never exit with spans still queued. The W3C TraceContext
// propagator is installed globally at
// build time so traceparent values received from a calling service can be
// attached to the root span via [ContextWithTraceparent].
//
// [OtelConfig] carries the CLI-surface flags (--otlp-destination,
// --otlp-parent) as plain data. [OtelConfig.Validate] enforces that a
// traceparent is only meaningful with a destination; this is a boundary
// constraint, checked at flag parse time, not on the export path.
package oteltrace

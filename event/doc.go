// Package event defines the data model for the turbotrace pipeline: leveled,
// targeted log events and span records.
//
// An [Event] is an immutable snapshot produced at a call site and consumed
// synchronously by the pipeline's sinks. It carries a [Level], a dotted
// target string identifying the logical source (for example
// "turbo.run.scheduler"), and an ordered field set in which the "message"
// field is distinguished: terminal and file sinks render only the message.
//
// Levels are ordered by severity, ERROR being the most severe:
//
//	ERROR > WARN > INFO > DEBUG > TRACE
//
// [Level.Allows] implements threshold checks against this ordering. Use
// [ParseLevel] to parse user-supplied level strings.
//
// A [Span] records one timed operation for the span-aware sinks (timeline
// trace and OTLP export). Spans are identified by a process-unique ID and
// carry an optional source location captured at start.
package event

// Package pipeline composes the event sinks into a single process-wide chain.
//
// A [Pipeline] fans each event out to an ordered list of independently
// filtered stages: the terminal sink (WARN by default), an optional rolling
// log file (INFO by default), an optional timeline trace, and the remote
// span exporter (INFO by default). Defaults are raised by CLI verbosity and
// overridden per target by TURBO_LOG_VERBOSITY directives.
//
// The file and timeline stages start disabled and are enabled, or replaced,
// at runtime through [Pipeline.SetFileLogger] and
// [Pipeline.EnableTimelineTrace]; emission never blocks on a reload.
// [Pipeline.Shutdown] flushes every sink exactly once and is safe on every
// exit path.
package pipeline

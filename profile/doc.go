// Package profile captures a sampling CPU profile for the lifetime of the
// tracing pipeline, plus optional snapshot profiles at shutdown.
//
// [Start] begins continuous CPU sampling into the report file (pprof binary
// format, [DefaultReport] by default) and configures the runtime sampling
// rates. [Capture.Stop] finalizes the report and writes any enabled snapshot
// profiles (heap, allocs, goroutine, threadcreate, block, mutex).
//
// The pipeline treats every error from this package as best-effort: failures
// to build or write a report are logged and swallowed, never fatal.
//
// Typical usage wires a [Config] to CLI flags and brackets command
// execution:
//
//	cfg := profile.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//
//	cap, err := profile.Start(*cfg)
//	...
//	stopErr := cap.Stop()
package profile

package profile

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// DefaultReport is the report path used when a [Config] leaves Report empty.
const DefaultReport = "pprof.pb"

// Capture is a running profiling session. Exactly one capture can run per
// process; [Capture.Stop] finalizes the report.
//
// Create instances with [Start].
type Capture struct {
	cpuFile *os.File
	cfg     Config
}

// Start configures runtime sampling rates and begins continuous CPU sampling
// into the report file, truncating any previous report. The capture runs
// until [Capture.Stop].
func Start(cfg Config) (*Capture, error) {
	if cfg.Report == "" {
		cfg.Report = DefaultReport
	}

	runtime.MemProfileRate = cfg.MemProfileRate
	runtime.SetBlockProfileRate(cfg.BlockProfileRate)
	runtime.SetMutexProfileFraction(cfg.MutexProfileFraction)

	f, err := os.Create(cfg.Report) //nolint:gosec // Report path from caller configuration is expected.
	if err != nil {
		return nil, fmt.Errorf("creating profile report: %w", err)
	}

	err = pprof.StartCPUProfile(f)
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("starting CPU sampling: %w", err)
	}

	return &Capture{
		cpuFile: f,
		cfg:     cfg,
	}, nil
}

// Report returns the path the CPU report is being written to.
func (c *Capture) Report() string {
	return c.cpuFile.Name()
}

// Stop ends CPU sampling, finalizes the report, and writes all enabled
// snapshot profiles.
func (c *Capture) Stop() error {
	pprof.StopCPUProfile()

	err := c.cpuFile.Close()
	if err != nil {
		return fmt.Errorf("finalizing profile report: %w", err)
	}

	return c.writeSnapshots()
}

// writeSnapshots writes all enabled snapshot profiles (heap, allocs,
// goroutine, etc.).
func (c *Capture) writeSnapshots() error {
	snapshots := []struct {
		name string
		path string
	}{
		{"heap", c.cfg.HeapProfile},
		{"allocs", c.cfg.AllocsProfile},
		{"goroutine", c.cfg.GoroutineProfile},
		{"threadcreate", c.cfg.ThreadcreateProfile},
		{"block", c.cfg.BlockProfile},
		{"mutex", c.cfg.MutexProfile},
	}

	for _, s := range snapshots {
		if s.path == "" {
			continue
		}

		err := writeSnapshot(s.name, s.path)
		if err != nil {
			return err
		}
	}

	return nil
}

// writeSnapshot writes a named pprof profile to the given file path.
func writeSnapshot(name, path string) error {
	f, err := os.Create(path) //nolint:gosec // Snapshot path from caller configuration is expected.
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}

	prof := pprof.Lookup(name)
	if prof == nil {
		_ = f.Close()

		return fmt.Errorf("unknown profile: %s", name)
	}

	err = prof.WriteTo(f, 0)
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("write %s profile: %w", name, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("write %s profile: %w", name, err)
	}

	return nil
}

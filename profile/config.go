package profile

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for profiling configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	// Report is the continuous CPU report path flag name.
	Report string

	// Snapshot profile path flag names.
	HeapProfile         string
	AllocsProfile       string
	GoroutineProfile    string
	ThreadcreateProfile string
	BlockProfile        string
	MutexProfile        string

	// Rate configuration flag names.
	MemProfileRate       string
	BlockProfileRate     string
	MutexProfileFraction string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds profiling configuration: the continuous CPU report path,
// optional snapshot paths, and sampling rates. A zero-value Config captures
// CPU samples to [DefaultReport] with no snapshots.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Pass the Config to [Start] to begin sampling.
type Config struct {
	Flags Flags `json:"-" yaml:"-"`

	// Report is the continuous CPU report path (empty = [DefaultReport]).
	Report string `json:"report,omitempty" yaml:"report,omitempty"`

	// Snapshot output paths (empty = disabled).
	HeapProfile         string `json:"heap_profile,omitempty" yaml:"heap_profile,omitempty"`
	AllocsProfile       string `json:"allocs_profile,omitempty" yaml:"allocs_profile,omitempty"`
	GoroutineProfile    string `json:"goroutine_profile,omitempty" yaml:"goroutine_profile,omitempty"`
	ThreadcreateProfile string `json:"threadcreate_profile,omitempty" yaml:"threadcreate_profile,omitempty"`
	BlockProfile        string `json:"block_profile,omitempty" yaml:"block_profile,omitempty"`
	MutexProfile        string `json:"mutex_profile,omitempty" yaml:"mutex_profile,omitempty"`

	// Rate configuration.
	MemProfileRate       int `json:"mem_profile_rate,omitempty" yaml:"mem_profile_rate,omitempty"`
	BlockProfileRate     int `json:"block_profile_rate,omitempty" yaml:"block_profile_rate,omitempty"`
	MutexProfileFraction int `json:"mutex_profile_fraction,omitempty" yaml:"mutex_profile_fraction,omitempty"`
}

// NewConfig creates a new [Config] with default flag names, no snapshots,
// and the default report path.
func NewConfig() *Config {
	f := Flags{
		Report:               "profile-report",
		HeapProfile:          "heap-profile",
		AllocsProfile:        "allocs-profile",
		GoroutineProfile:     "goroutine-profile",
		ThreadcreateProfile:  "threadcreate-profile",
		BlockProfile:         "block-profile",
		MutexProfile:         "mutex-profile",
		MemProfileRate:       "mem-profile-rate",
		BlockProfileRate:     "block-profile-rate",
		MutexProfileFraction: "mutex-profile-fraction",
	}

	return f.NewConfig()
}

// RegisterFlags adds profiling flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	// Profile output paths.
	flags.StringVar(&c.Report, c.Flags.Report, DefaultReport, "write continuous CPU report to file")
	flags.StringVar(&c.HeapProfile, c.Flags.HeapProfile, "", "write heap profile to file")
	flags.StringVar(&c.AllocsProfile, c.Flags.AllocsProfile, "", "write allocs profile to file")
	flags.StringVar(&c.GoroutineProfile, c.Flags.GoroutineProfile, "", "write goroutine profile to file")
	flags.StringVar(&c.ThreadcreateProfile, c.Flags.ThreadcreateProfile, "", "write threadcreate profile to file")
	flags.StringVar(&c.BlockProfile, c.Flags.BlockProfile, "", "write block profile to file")
	flags.StringVar(&c.MutexProfile, c.Flags.MutexProfile, "", "write mutex profile to file")

	// Rate configuration.
	flags.IntVar(&c.MemProfileRate, c.Flags.MemProfileRate, 524288, "memory profile rate (bytes per sample)")
	flags.IntVar(&c.BlockProfileRate, c.Flags.BlockProfileRate, 1, "block profile rate (nanoseconds)")
	flags.IntVar(&c.MutexProfileFraction, c.Flags.MutexProfileFraction, 1, "mutex profile fraction (1/N sampling)")
}

// RegisterCompletions registers shell completions for profile flags on cmd.
// Integer flags disable file completion; path flags use default file
// completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, name := range []string{
		c.Flags.MemProfileRate,
		c.Flags.BlockProfileRate,
		c.Flags.MutexProfileFraction,
	} {
		err := cmd.RegisterFlagCompletionFunc(name, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", name, err)
		}
	}

	return nil
}

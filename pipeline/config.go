package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/turbotrace/console"
	"go.jacobcolvin.com/turbotrace/filelog"
	"go.jacobcolvin.com/turbotrace/oteltrace"
	"go.jacobcolvin.com/turbotrace/profile"
)

// DefaultLogPrefix is the base name for rolled log files.
const DefaultLogPrefix = "turbo"

// Flags holds CLI flag names for pipeline configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Verbosity   string
	Color       string
	LogDir      string
	LogPrefix   string
	LogRotation string
	TraceFile   string
	TraceArgs   string
	Profile     string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:     f,
		Color:     string(console.ColorAuto),
		LogPrefix: DefaultLogPrefix,
		Rotation:  string(filelog.RotationDaily),
		Otel:      oteltrace.NewOtelConfig(),
		Profile:   profile.NewConfig(),
	}
}

// Config holds everything needed to build a [Pipeline] from CLI flags or a
// YAML file: verbosity, color mode, the optional file/timeline/remote sinks,
// and profiling.
//
// Create instances with [NewConfig], register CLI flags with
// [Config.RegisterFlags], then build the pipeline with [Config.NewPipeline].
type Config struct {
	Flags Flags `json:"-" yaml:"-"`

	// Color selects ANSI color handling for the terminal sink: "auto",
	// "always", or "never".
	Color string `json:"color,omitempty" yaml:"color,omitempty"`

	// LogDir enables the file sink, writing rolled log files under this
	// directory.
	LogDir string `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`
	// LogPrefix is the base name for rolled log files.
	LogPrefix string `json:"log_prefix,omitempty" yaml:"log_prefix,omitempty"`
	// Rotation selects how often the log file rolls: "daily", "hourly", or
	// "never".
	Rotation string `json:"log_rotation,omitempty" yaml:"log_rotation,omitempty"`

	// TraceFile enables the timeline trace sink, writing to this path.
	TraceFile string `json:"trace_file,omitempty" yaml:"trace_file,omitempty"`

	// Otel configures remote-trace export.
	Otel *oteltrace.OtelConfig `json:"otel,omitempty" yaml:"otel,omitempty"`
	// Profile configures sampling profiling, active when Profiling is set.
	Profile *profile.Config `json:"profile,omitempty" yaml:"profile,omitempty"`

	// Verbosity is the CLI -v count: 0 = no override, 1 = info, 2 = debug,
	// >=3 = trace.
	Verbosity int `json:"verbosity,omitempty" yaml:"verbosity,omitempty"`

	// TraceArgs captures span and event fields into the timeline trace.
	TraceArgs bool `json:"trace_args,omitempty" yaml:"trace_args,omitempty"`
	// Profiling enables sampling profiling for the pipeline lifetime.
	Profiling bool `json:"profiling,omitempty" yaml:"profiling,omitempty"`
}

// NewConfig creates a new [Config] with default flag names and default
// values.
func NewConfig() *Config {
	f := Flags{
		Verbosity:   "verbosity",
		Color:       "color",
		LogDir:      "log-dir",
		LogPrefix:   "log-prefix",
		LogRotation: "log-rotation",
		TraceFile:   "trace-file",
		TraceArgs:   "trace-args",
		Profile:     "profile",
	}

	return f.NewConfig()
}

// RegisterFlags adds pipeline flags to the given [*pflag.FlagSet], including
// the remote-trace and profiling flags of the nested configs.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.CountVarP(&c.Verbosity, c.Flags.Verbosity, "v",
		"increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.StringVar(&c.Color, c.Flags.Color, c.Color,
		fmt.Sprintf("colorize terminal output, one of %v", console.GetAllColorModeStrings()))

	flags.StringVar(&c.LogDir, c.Flags.LogDir, "",
		"write rolled log files to the specified directory")
	flags.StringVar(&c.LogPrefix, c.Flags.LogPrefix, c.LogPrefix,
		"base name for rolled log files")
	flags.StringVar(&c.Rotation, c.Flags.LogRotation, c.Rotation,
		fmt.Sprintf("log file rotation, one of %v", filelog.GetAllRotationStrings()))

	flags.StringVar(&c.TraceFile, c.Flags.TraceFile, "",
		"write a timeline trace to the specified file")
	flags.BoolVar(&c.TraceArgs, c.Flags.TraceArgs, false,
		"capture span and event fields into the timeline trace")

	flags.BoolVar(&c.Profiling, c.Flags.Profile, false,
		"capture runtime profiles for the duration of the run")

	c.Otel.RegisterFlags(flags)
	c.Profile.RegisterFlags(flags)
}

// RegisterCompletions registers shell completions for pipeline flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	completions := map[string][]string{
		c.Flags.Color:       console.GetAllColorModeStrings(),
		c.Flags.LogRotation: filelog.GetAllRotationStrings(),
	}

	for name, values := range completions {
		err := cmd.RegisterFlagCompletionFunc(name,
			cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", name, err)
		}
	}

	err := cmd.RegisterFlagCompletionFunc(c.Flags.LogDir,
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		})
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.LogDir, err)
	}

	return c.Profile.RegisterCompletions(cmd)
}

// LoadFile overlays values from a YAML config file onto c, overwriting
// whatever is currently set for the keys the file provides.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Config path from caller configuration is expected.
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	err = yaml.Unmarshal(data, c)
	if err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

// Validate checks cross-field constraints and enum values.
func (c *Config) Validate() error {
	_, err := console.ParseColorMode(c.Color)
	if err != nil {
		return fmt.Errorf("%w: %q", err, c.Color)
	}

	_, err = filelog.ParseRotation(c.Rotation)
	if err != nil {
		return fmt.Errorf("%w: %q", err, c.Rotation)
	}

	return c.Otel.Validate()
}

// NewPipeline validates c and builds the [Pipeline] it describes: the always-
// on terminal and remote-trace stages, plus the file and timeline sinks when
// configured. Extra options are applied last and win over the config. Any
// error shuts down whatever was already built; on success the caller owns
// [Pipeline.Shutdown].
//
// The returned context carries any traceparent handed down by a calling
// service, so spans started from it join the caller's trace.
func (c *Config) NewPipeline(ctx context.Context, extra ...Option) (context.Context, *Pipeline, error) {
	err := c.Validate()
	if err != nil {
		return ctx, nil, err
	}

	mode, _ := console.ParseColorMode(c.Color)
	rot, _ := filelog.ParseRotation(c.Rotation)

	opts := []Option{
		WithVerbosity(c.Verbosity),
		WithANSI(mode.Enabled(os.Stderr)),
	}
	if c.Profiling {
		opts = append(opts, WithProfiling(*c.Profile))
	}

	if c.Otel.Destination != "" {
		opts = append(opts, WithOtel(oteltrace.Config{Endpoint: c.Otel.Destination}))
	}

	opts = append(opts, extra...)

	p, err := New(ctx, opts...)
	if err != nil {
		return ctx, nil, err
	}

	if c.LogDir != "" {
		appender, err := filelog.NewAppender(c.LogDir, c.LogPrefix, rot)
		if err != nil {
			_ = p.Shutdown(ctx)

			return ctx, nil, fmt.Errorf("enabling file logging: %w", err)
		}

		err = p.SetFileLogger(appender)
		if err != nil {
			_ = appender.Close()
			_ = p.Shutdown(ctx)

			return ctx, nil, err
		}
	}

	if c.TraceFile != "" {
		err = p.EnableTimelineTrace(c.TraceFile, c.TraceArgs)
		if err != nil {
			_ = p.Shutdown(ctx)

			return ctx, nil, fmt.Errorf("enabling timeline trace: %w", err)
		}
	}

	ctx = oteltrace.ContextWithTraceparent(ctx, c.Otel.Traceparent)

	return ctx, p, nil
}

// Package main provides the CLI entry point for turbotrace, a wrapper that
// runs a command under a structured logging and tracing pipeline: filtered
// terminal output, optional rolled log files and timeline traces, remote span
// export, and runtime profiling.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/turbotrace/event"
	"go.jacobcolvin.com/turbotrace/oteltrace"
	"go.jacobcolvin.com/turbotrace/pipeline"
	"go.jacobcolvin.com/turbotrace/version"
)

func main() {
	cfg := pipeline.NewConfig()

	var configFile string

	rootCmd := &cobra.Command{
		Use:   "turbotrace [flags] -- <command> [args...]",
		Short: "Run a command under a structured logging and tracing pipeline",
		Long: `turbotrace runs a command with leveled terminal output, optional rolled log
files, an optional Chrome-compatible timeline trace, remote span export over
OTLP, and runtime profiling. The child process receives a TRACEPARENT
environment variable so its own spans join the trace.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if configFile == "" {
				return nil
			}

			return cfg.LoadFile(configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, args)
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "",
		"load configuration from a YAML file (file values override flags)")
	cfg.RegisterFlags(rootCmd.Flags())

	completionErr := cfg.RegisterCompletions(rootCmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	rootCmd.AddCommand(newVersionCmd(), newSchemaCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}

		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run builds the pipeline, executes the child command inside a span, and
// shuts the pipeline down on every exit path.
func run(ctx context.Context, cfg *pipeline.Config, args []string) error {
	ctx, p, err := cfg.NewPipeline(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownErr := p.Shutdown(context.Background())
		if shutdownErr != nil {
			fmt.Fprintf(os.Stderr, "pipeline shutdown: %v\n", shutdownErr)
		}
	}()

	log := p.Logger("turbo.exec")

	ctx, span := p.StartSpan(ctx, "turbo.exec", "run",
		event.String("command", args[0]))
	defer span.End()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // Running the given command is the point.
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "TRACEPARENT="+oteltrace.Traceparent(ctx))

	log.Debug("starting command", event.String("command", args[0]))

	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Error("command failed",
				event.String("command", args[0]),
				event.Int("code", exitErr.ExitCode()))

			return err
		}

		return fmt.Errorf("running %s: %w", args[0], err)
	}

	log.Debug("command finished", event.String("command", args[0]))

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			v := version.Version
			if v == "" {
				v = "devel"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "turbotrace %s (revision %s, %s, %s/%s)\n",
				v, version.Revision, version.GoVersion, version.GoOS, version.GoArch)
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration file JSON schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := jsonschema.For[pipeline.Config](nil)
			if err != nil {
				return fmt.Errorf("generating config schema: %w", err)
			}

			out, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding config schema: %w", err)
			}

			out = append(out, '\n')

			_, err = cmd.OutOrStdout().Write(out)
			if err != nil {
				return fmt.Errorf("writing config schema: %w", err)
			}

			return nil
		},
	}
}

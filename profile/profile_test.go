package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/turbotrace/profile"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()

	// Report path is resolved at Start, not construction.
	assert.Empty(t, cfg.Report)

	// Snapshot paths should be empty (disabled).
	assert.Empty(t, cfg.HeapProfile)
	assert.Empty(t, cfg.AllocsProfile)
	assert.Empty(t, cfg.GoroutineProfile)
	assert.Empty(t, cfg.ThreadcreateProfile)
	assert.Empty(t, cfg.BlockProfile)
	assert.Empty(t, cfg.MutexProfile)

	// Rate fields should be zero.
	assert.Zero(t, cfg.MemProfileRate)
	assert.Zero(t, cfg.BlockProfileRate)
	assert.Zero(t, cfg.MutexProfileFraction)
}

func TestConfig_RegisterFlags(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cfg.RegisterFlags(flags)

	wantFlags := []string{
		"profile-report",
		"heap-profile",
		"allocs-profile",
		"goroutine-profile",
		"threadcreate-profile",
		"block-profile",
		"mutex-profile",
		"mem-profile-rate",
		"block-profile-rate",
		"mutex-profile-fraction",
	}

	for _, name := range wantFlags {
		flag := flags.Lookup(name)
		require.NotNil(t, flag, "flag %s should be registered", name)
	}
}

func TestConfig_RegisterFlags_Parsing(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cfg.RegisterFlags(flags)

	err := flags.Parse([]string{
		"--profile-report=report.pb",
		"--heap-profile=heap.prof",
		"--mem-profile-rate=1024",
	})
	require.NoError(t, err)

	assert.Equal(t, "report.pb", cfg.Report)
	assert.Equal(t, "heap.prof", cfg.HeapProfile)
	assert.Equal(t, 1024, cfg.MemProfileRate)
}

func TestConfig_RegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cfg.RegisterFlags(flags)

	err := flags.Parse([]string{})
	require.NoError(t, err)

	assert.Equal(t, profile.DefaultReport, cfg.Report)
	assert.Equal(t, 524288, cfg.MemProfileRate)
	assert.Equal(t, 1, cfg.BlockProfileRate)
	assert.Equal(t, 1, cfg.MutexProfileFraction)
}

func TestRegisterCompletions(t *testing.T) {
	t.Parallel()

	cfg := profile.NewConfig()

	cmd := &cobra.Command{Use: "test"}
	cfg.RegisterFlags(cmd.Flags())

	err := cfg.RegisterCompletions(cmd)
	require.NoError(t, err)

	for _, flag := range []string{
		"mem-profile-rate",
		"block-profile-rate",
		"mutex-profile-fraction",
	} {
		completionFn, ok := cmd.GetFlagCompletionFunc(flag)
		require.True(t, ok)

		values, directive := completionFn(cmd, nil, "")
		assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
		assert.Nil(t, values)
	}
}

// Capture lifecycle: CPU profiling is process-global state, so Start/Stop
// pairs run in one sequential test.
func TestCapture(t *testing.T) { //nolint:paralleltest // pprof.StartCPUProfile is process-global.
	dir := t.TempDir()

	cfg := profile.Config{
		Report:               filepath.Join(dir, "pprof.pb"),
		GoroutineProfile:     filepath.Join(dir, "goroutine.prof"),
		MemProfileRate:       524288,
		BlockProfileRate:     1,
		MutexProfileFraction: 1,
	}

	cap, err := profile.Start(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Report, cap.Report())

	// Burn a little CPU so the report has samples to encode.
	sum := 0
	for i := range 1_000_000 {
		sum += i
	}

	_ = sum

	require.NoError(t, cap.Stop())

	info, err := os.Stat(cfg.Report)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = os.Stat(cfg.GoroutineProfile)
	require.NoError(t, err)

	// A second capture can start after the first stopped.
	cap2, err := profile.Start(profile.Config{Report: filepath.Join(dir, "second.pb")})
	require.NoError(t, err)
	require.NoError(t, cap2.Stop())
}

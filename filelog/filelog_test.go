package filelog_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/turbotrace/event"
	"go.jacobcolvin.com/turbotrace/filelog"
)

func TestParseRotation(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input       string
		expected    filelog.Rotation
		expectError bool
	}{
		"daily":            {input: "daily", expected: filelog.RotationDaily},
		"hourly":           {input: "hourly", expected: filelog.RotationHourly},
		"never":            {input: "never", expected: filelog.RotationNever},
		"case insensitive": {input: "DAILY", expected: filelog.RotationDaily},
		"unknown":          {input: "weekly", expectError: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rot, err := filelog.ParseRotation(tc.input)
			if tc.expectError {
				require.ErrorIs(t, err, filelog.ErrUnknownRotation)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, rot)
			}
		})
	}
}

func TestAppender_Write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	a, err := filelog.NewAppender(dir, "turbod", filelog.RotationNever)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "turbod.log"), a.Path())

	_, err = a.Write([]byte("line one\n"))
	require.NoError(t, err)
	_, err = a.Write([]byte("line two\n"))
	require.NoError(t, err)

	require.NoError(t, a.Close())

	data, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestAppender_DailyFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	a, err := filelog.NewAppender(dir, "turbod", filelog.RotationDaily)
	require.NoError(t, err)

	t.Cleanup(func() { _ = a.Close() })

	want := filepath.Join(dir, "turbod."+time.Now().Format("2006-01-02")+".log")
	assert.Equal(t, want, a.Path())
}

func TestAppender_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "logs")

	a, err := filelog.NewAppender(dir, "turbod", filelog.RotationNever)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNonBlocking_DrainsOnClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	a, err := filelog.NewAppender(dir, "turbod", filelog.RotationNever)
	require.NoError(t, err)

	nb, guard := filelog.NewNonBlocking(a)

	for i := range 100 {
		_, err := fmt.Fprintf(nb, "line %d\n", i)
		require.NoError(t, err)
	}

	require.NoError(t, guard.Close())

	data, err := os.ReadFile(a.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 100)
	assert.Equal(t, "line 0", lines[0])
	assert.Equal(t, "line 99", lines[99])
	assert.Zero(t, nb.Dropped())
}

func TestNonBlocking_ConcurrentWriters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	a, err := filelog.NewAppender(dir, "turbod", filelog.RotationNever)
	require.NoError(t, err)

	nb, guard := filelog.NewNonBlocking(a)
	sink := filelog.NewSink(nb)

	const (
		workers = 10
		each    = 100
	)

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range each {
				e := event.New(event.LevelInfo, "turbo.run",
					fmt.Sprintf("worker %d event %d", w, i))
				e.Time = time.Now()

				assert.NoError(t, sink.Emit(e))
			}
		}()
	}

	wg.Wait()
	require.NoError(t, guard.Close())

	data, err := os.ReadFile(a.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, workers*each)

	for _, line := range lines {
		assert.Contains(t, line, "[INFO] turbo.run: worker")
	}
}

func TestNonBlocking_DropOldestWhenFull(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	w := &gatedWriter{release: blocked}

	nb, guard := filelog.NewNonBlocking(w, filelog.WithQueueSize(4))

	// The background goroutine blocks on the first entry; everything else
	// contends for the 4-slot queue.
	for i := range 20 {
		_, err := fmt.Fprintf(nb, "line %d\n", i)
		require.NoError(t, err)
	}

	close(blocked)
	require.NoError(t, guard.Close())

	assert.Positive(t, nb.Dropped())
	assert.Contains(t, w.String(), "line 19")
	assert.Contains(t, w.String(), "dropped")
}

func TestNonBlocking_NeverBlocksAtMinimumQueue(t *testing.T) {
	t.Parallel()

	// A queue of one with a consumer that drains as fast as it can maximizes
	// the window where the queue empties between a failed enqueue and the
	// eviction. Every write must still return immediately, and every entry
	// must be either delivered or counted as dropped.
	w := &countingWriter{}

	nb, guard := filelog.NewNonBlocking(w, filelog.WithQueueSize(1))

	const writes = 200_000

	done := make(chan struct{})

	go func() {
		defer close(done)

		for range writes {
			_, err := nb.Write([]byte("x\n"))
			assert.NoError(t, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Write blocked instead of dropping")
	}

	require.NoError(t, guard.Close())

	assert.Equal(t, uint64(writes), w.entries.Load()+nb.Dropped())
}

func TestGuard_CloseIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	a, err := filelog.NewAppender(dir, "turbod", filelog.RotationNever)
	require.NoError(t, err)

	nb, guard := filelog.NewNonBlocking(a)

	_, err = nb.Write([]byte("hello\n"))
	require.NoError(t, err)

	require.NoError(t, guard.Close())
	require.NoError(t, guard.Close())

	// Writes after close are discarded without error.
	_, err = nb.Write([]byte("late\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestSink_LineFormat(t *testing.T) {
	t.Parallel()

	var sb safeBuffer

	sink := filelog.NewSink(&sb)

	ts := time.Date(2023, 4, 5, 6, 7, 8, 90_000_000, time.UTC)
	e := event.New(event.LevelWarn, "turbo.daemon", "lock contended",
		event.Int("attempts", 3))
	e.Time = ts

	require.NoError(t, sink.Emit(e))

	want := fmt.Sprintf("%s [WARN] turbo.daemon: lock contended\n",
		ts.Local().Format("2006-01-02T15:04:05.000-0700"))
	assert.Equal(t, want, sb.String())
	assert.NotContains(t, sb.String(), "\x1b")
}

// gatedWriter blocks its first Write until released, then records everything.
type gatedWriter struct {
	release <-chan struct{}
	sb      strings.Builder
	mu      sync.Mutex
	waited  bool
}

func (w *gatedWriter) Write(b []byte) (int, error) {
	if !w.waited {
		w.waited = true
		<-w.release
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return w.sb.Write(b)
}

func (w *gatedWriter) Close() error { return nil }

func (w *gatedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.sb.String()
}

// countingWriter counts delivered log entries, ignoring the dropped-lines
// summary written on drain.
type countingWriter struct {
	entries atomic.Uint64
}

func (w *countingWriter) Write(b []byte) (int, error) {
	if string(b) == "x\n" {
		w.entries.Add(1)
	}

	return len(b), nil
}

func (w *countingWriter) Close() error { return nil }

// safeBuffer is a minimal synchronized buffer for sink tests.
type safeBuffer struct {
	sb strings.Builder
	mu sync.Mutex
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sb.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sb.String()
}

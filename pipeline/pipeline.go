package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"go.jacobcolvin.com/turbotrace/chrometrace"
	"go.jacobcolvin.com/turbotrace/console"
	"go.jacobcolvin.com/turbotrace/event"
	"go.jacobcolvin.com/turbotrace/filelog"
	"go.jacobcolvin.com/turbotrace/filter"
	"go.jacobcolvin.com/turbotrace/oteltrace"
	"go.jacobcolvin.com/turbotrace/profile"
)

// Target is the pipeline's own event target.
const Target = "turbo.trace"

// installed enforces that at most one Pipeline is live per process.
// Shutdown releases it.
var installed atomic.Bool

// stage is one step of the ordered sink chain: a severity filter plus the
// code that forwards an allowed event to the stage's current sink. Stages
// backed by a [Slot] resolve the sink per event, so reloads take effect
// without rebuilding the chain.
type stage struct {
	filter *filter.Filter
	emit   func(ctx context.Context, e event.Event)
}

// guardCell holds the latest guard for an optional sink. The mutex makes
// (sink, guard) replacement one atomic unit: no two reloads of the same slot
// interleave partially.
type guardCell struct {
	c  io.Closer
	mu sync.Mutex
}

// swap stores a new guard and returns the displaced one.
func (g *guardCell) swap(c io.Closer) io.Closer {
	old := g.c
	g.c = c

	return old
}

// settings collects construction options.
type settings struct {
	consoleOut io.Writer
	profiling  *profile.Config
	directives string
	otel       oteltrace.Config
	verbosity  int
	ansi       bool
}

// Option configures [New].
type Option func(*settings)

// WithVerbosity sets the CLI verbosity count (0 = no override, 1 = info,
// 2 = debug, >=3 = trace).
func WithVerbosity(v int) Option {
	return func(s *settings) { s.verbosity = v }
}

// WithANSI enables or disables terminal colors. The default is off; resolve
// it with [console.ColorMode.Enabled] at startup.
func WithANSI(ansi bool) Option {
	return func(s *settings) { s.ansi = ansi }
}

// WithConsoleWriter overrides the terminal sink's writer, os.Stderr by
// default.
func WithConsoleWriter(w io.Writer) Option {
	return func(s *settings) { s.consoleOut = w }
}

// WithDirectives overrides the filter directive string, which defaults to
// the TURBO_LOG_VERBOSITY environment variable.
func WithDirectives(directives string) Option {
	return func(s *settings) { s.directives = directives }
}

// WithOtel overrides the remote-trace export configuration.
func WithOtel(cfg oteltrace.Config) Option {
	return func(s *settings) { s.otel = cfg }
}

// WithProfiling enables sampling profiling for the pipeline lifetime.
func WithProfiling(cfg profile.Config) Option {
	return func(s *settings) { s.profiling = &cfg }
}

// Pipeline is the process-wide event sink: an ordered chain of independently
// filtered stages (terminal, log file, timeline trace, remote trace), the
// reload handles and guards for the optional stages, and the shutdown
// sequence that flushes everything exactly once.
//
// Create instances with [New] or [Config.NewPipeline]. At most one Pipeline
// may be live per process; a second construction before [Pipeline.Shutdown]
// is a programming error and panics.
type Pipeline struct {
	console  *console.Sink
	exporter *oteltrace.Exporter
	capture  *profile.Capture

	fileSlot   *Slot[filelog.Sink]
	fileHandle *ReloadHandle[filelog.Sink]
	fileGuard  guardCell

	chromeSlot   *Slot[chrometrace.Writer]
	chromeHandle *ReloadHandle[chrometrace.Writer]
	chromeGuard  guardCell

	stages      []stage
	shutdownErr error
	spanID      atomic.Uint64
	shutdown    sync.Once
	closed      atomic.Bool
}

// New builds the pipeline: terminal sink (active, WARN default), file sink
// slot (disabled), timeline trace slot (disabled), and the remote-trace
// exporter (active, INFO default). The remote exporter is built against a
// fixed local endpoint with a short timeout; its construction error is
// returned and must be treated as fatal, since the export client cannot be
// deferred the way the optional sinks can.
//
// Panics if another Pipeline is already live.
func New(ctx context.Context, opts ...Option) (*Pipeline, error) {
	s := settings{
		consoleOut: os.Stderr,
		directives: os.Getenv(filter.EnvVar),
	}
	for _, opt := range opts {
		opt(&s)
	}

	if !installed.CompareAndSwap(false, true) {
		panic("pipeline: a pipeline is already installed in this process")
	}

	exporter, err := oteltrace.New(ctx, s.otel)
	if err != nil {
		installed.Store(false)

		return nil, fmt.Errorf("enabling remote tracing: %w", err)
	}

	p := &Pipeline{
		console:  console.NewSink(s.consoleOut, s.ansi),
		exporter: exporter,
	}

	p.fileSlot, p.fileHandle = NewSlot[filelog.Sink]()
	p.chromeSlot, p.chromeHandle = NewSlot[chrometrace.Writer]()

	// The file sink logs the tool's own targets down to TRACE; the
	// directive string may still override that rule.
	fileDirectives := "turbo=trace," + s.directives

	otelFilter := filter.Build(event.LevelInfo, s.verbosity, s.directives)

	p.stages = []stage{
		{
			filter: filter.Build(event.LevelWarn, s.verbosity, s.directives),
			emit: func(_ context.Context, e event.Event) {
				_ = p.console.Emit(e)
			},
		},
		{
			filter: filter.Build(event.LevelInfo, s.verbosity, fileDirectives),
			emit: func(_ context.Context, e event.Event) {
				if sink := p.fileSlot.Get(); sink != nil {
					_ = sink.Emit(e)
				}
			},
		},
		{
			// The timeline trace records everything; its own filter is
			// the slot being enabled at all.
			emit: func(_ context.Context, e event.Event) {
				if w := p.chromeSlot.Get(); w != nil {
					_ = w.Emit(e)
				}
			},
		},
		{
			filter: otelFilter,
			emit: func(ctx context.Context, e event.Event) {
				span := trace.SpanFromContext(ctx)
				if span.IsRecording() {
					span.AddEvent(e.Message(),
						trace.WithAttributes(eventAttrs(e)...))
				}
			},
		},
	}

	if s.profiling != nil {
		capture, err := profile.Start(*s.profiling)
		if err != nil {
			p.Emit(event.New(event.LevelError, Target,
				fmt.Sprintf("failed to start profiling: %v", err)))
		} else {
			p.capture = capture
		}
	}

	return p, nil
}

// NewWithVerbosity builds a pipeline with default settings, the given
// verbosity, and ANSI colors on or off. See [New].
func NewWithVerbosity(ctx context.Context, verbosity int, ansi bool) (*Pipeline, error) {
	return New(ctx, WithVerbosity(verbosity), WithANSI(ansi))
}

// Emit sends one event through the chain with no span context.
func (p *Pipeline) Emit(e event.Event) {
	p.EmitContext(context.Background(), e)
}

// EmitContext sends one event through every stage in order. A stage whose
// filter rejects the event, or whose slot is disabled, is a no-op. Sink
// failures degrade silently; nothing propagates back to the emitter.
func (p *Pipeline) EmitContext(ctx context.Context, e event.Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	for _, st := range p.stages {
		if st.filter != nil && !st.filter.Allows(e.Level, e.Target) {
			continue
		}

		st.emit(ctx, e)
	}
}

// Logger returns a [Logger] emitting through p with the given target.
func (p *Pipeline) Logger(target string) *Logger {
	return &Logger{p: p, target: target}
}

// SetFileLogger enables (or replaces) the file sink: the appender goes
// behind a new non-blocking writer, the slot is reloaded, and the previous
// guard, if any, is released so its queue drains. Returns
// [ErrPipelineClosed] after shutdown, leaving the appender untouched by the
// pipeline.
func (p *Pipeline) SetFileLogger(appender *filelog.Appender) error {
	nb, guard := filelog.NewNonBlocking(appender)
	sink := filelog.NewSink(nb)

	p.fileGuard.mu.Lock()

	err := p.fileHandle.Reload(sink)
	if err != nil {
		p.fileGuard.mu.Unlock()
		_ = guard.Close()

		return err
	}

	old := p.fileGuard.swap(guard)
	p.fileGuard.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	return nil
}

// EnableTimelineTrace enables (or replaces) the timeline trace sink writing
// to path. Span arguments are captured only when includeArgs is set; source
// locations are always captured. A failure leaves the previous sink, if any,
// active.
func (p *Pipeline) EnableTimelineTrace(path string, includeArgs bool) error {
	w, err := chrometrace.NewWriter(path, chrometrace.WithArgs(includeArgs))
	if err != nil {
		return err
	}

	p.chromeGuard.mu.Lock()

	err = p.chromeHandle.Reload(w)
	if err != nil {
		p.chromeGuard.mu.Unlock()
		_ = w.Close()

		return err
	}

	old := p.chromeGuard.swap(w)
	p.chromeGuard.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	return nil
}

// EnableOpenTelemetry accepts a remote-trace reconfiguration but currently
// performs no reconfiguration: the export client and its endpoint are fixed
// at construction time.
//
// TODO: move the exporter into a reloadable slot so cfg.Destination and
// cfg.Traceparent can take effect after startup.
func (p *Pipeline) EnableOpenTelemetry(_ *oteltrace.OtelConfig) error {
	if p.closed.Load() {
		return ErrPipelineClosed
	}

	return nil
}

// Span is one in-flight timed operation, recorded by the timeline trace and
// remote-trace sinks. End it exactly once.
type Span struct {
	p    *Pipeline
	otel trace.Span
	info event.Span
	once sync.Once
}

// StartSpan begins a span named name under the given target, capturing the
// caller's source location. The returned context carries the span for
// [Pipeline.EmitContext] and for parenting nested spans.
func (p *Pipeline) StartSpan(ctx context.Context, target, name string, fields ...event.Field) (context.Context, *Span) {
	s := &Span{
		p: p,
		info: event.Span{
			ID:     p.spanID.Add(1),
			Name:   name,
			Target: target,
			Start:  time.Now(),
			Fields: fields,
		},
	}

	if _, file, line, ok := runtime.Caller(1); ok {
		s.info.File = file
		s.info.Line = line
	}

	if w := p.chromeSlot.Get(); w != nil {
		_ = w.SpanBegin(&s.info)
	}

	ctx, s.otel = p.exporter.Tracer().Start(ctx, name,
		trace.WithAttributes(spanAttrs(target, fields)...))

	return ctx, s
}

// End finishes the span in every span-aware sink. Idempotent.
func (s *Span) End() {
	s.once.Do(func() {
		s.info.End = time.Now()

		if w := s.p.chromeSlot.Get(); w != nil {
			_ = w.SpanEnd(&s.info)
		}

		s.otel.End()
	})
}

// Shutdown flushes and releases every resource the pipeline owns, in
// dependency order: the profiling report is written (best-effort), the
// optional sinks' guards are released so their queues drain, and the remote
// export client is shut down, flushing pending spans. Idempotent; safe on
// every exit path.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.shutdown.Do(func() {
		var errs []error

		if p.capture != nil {
			err := p.capture.Stop()
			if err != nil {
				// Best-effort by contract: log and swallow.
				p.Emit(event.New(event.LevelError, Target,
					fmt.Sprintf("failed to write profile report: %v", err)))
			}
		}

		p.closed.Store(true)
		p.fileSlot.close()
		p.chromeSlot.close()

		errs = append(errs, p.releaseGuard(&p.fileGuard))
		errs = append(errs, p.releaseGuard(&p.chromeGuard))

		err := p.exporter.Shutdown(ctx)
		if err != nil {
			errs = append(errs, err)
		}

		installed.Store(false)

		p.shutdownErr = errors.Join(errs...)
	})

	return p.shutdownErr
}

func (p *Pipeline) releaseGuard(cell *guardCell) error {
	cell.mu.Lock()
	defer cell.mu.Unlock()

	if cell.c == nil {
		return nil
	}

	err := cell.c.Close()
	cell.c = nil

	return err
}

func eventAttrs(e event.Event) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(e.Fields))
	attrs = append(attrs, attribute.String("target", e.Target))

	for _, f := range e.Fields {
		if f.Key == event.MessageKey {
			continue
		}

		attrs = append(attrs, attribute.String(f.Key, fmt.Sprint(f.Value)))
	}

	return attrs
}

func spanAttrs(target string, fields []event.Field) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields)+1)
	attrs = append(attrs, attribute.String("target", target))

	for _, f := range fields {
		attrs = append(attrs, attribute.String(f.Key, fmt.Sprint(f.Value)))
	}

	return attrs
}

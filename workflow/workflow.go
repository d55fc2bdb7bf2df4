package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// StageObserver receives execution metrics. The engine calls it for every
// stage and once per run; a nil observer disables metrics entirely.
type StageObserver interface {
	RecordStage(kind, status string, duration time.Duration)
	RecordRun(status string, duration time.Duration)
}

// Options carries the shared configuration of one pipeline chain.
type Options struct {
	// LogDir and LogFile locate the execution log. Leaving both empty
	// disables file logging; Sink takes precedence over both.
	LogDir  string
	LogFile string
	// Verbose echoes every task log line to the structured logger.
	Verbose bool
	// Logger receives engine diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
	// Sink overrides the file sink with a custom log target (e.g. RedisSink).
	// Injected sinks are not closed by Run.
	Sink Sink
	// Observer receives stage/run metrics (see metrics.Collector).
	Observer StageObserver
	// Tracer emits one span per stage. Defaults to the global provider,
	// which is a no-op unless the application installed an SDK.
	Tracer trace.Tracer
}

// execFn drives the chain up to and including one stage. It returns the
// stage output, the trace accumulated so far, and the raw stage error that
// halted the chain, if any. The trace always covers exactly the stages that
// ran, in order, including the failing one.
type execFn func(ctx context.Context, rt *runtime, input any) (any, []TraceEntry, error)

// runtime is the per-run execution context shared by all stages of one Run.
type runtime struct {
	runID   string
	sink    Sink
	logger  *zap.Logger
	verbose bool
	obs     StageObserver
	tracer  trace.Tracer
}

// sinkLine appends one line to the log sink, reporting failures through the
// logger instead of propagating them.
func (rt *runtime) sinkLine(line string) {
	if rt.sink == nil {
		return
	}
	if err := rt.sink.WriteLine(line); err != nil {
		rt.logger.Warn("log sink write failed", zap.Error(err))
	}
}

func (rt *runtime) observeStage(kind string, att Attempt) {
	if rt.obs == nil {
		return
	}
	status := "ok"
	if att.Err != nil {
		status = "error"
	}
	rt.obs.RecordStage(kind, status, att.Duration)
}

// Workflow is an immutable pipeline handle. Every chaining call returns a
// new value wrapping an extended execution function and an updated graph
// tail; previously returned handles remain valid and unchanged.
type Workflow struct {
	opts *Options
	g    *graph
	tail string
	exec execFn
}

// Start creates a new pipeline, allocating the root graph node.
func Start(opts Options) *Workflow {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	g := newGraph()
	root := g.addNode("start", KindStart)
	return &Workflow{
		opts: &opts,
		g:    g,
		tail: root,
		exec: func(ctx context.Context, rt *runtime, input any) (any, []TraceEntry, error) {
			return input, nil, nil
		},
	}
}

// derive builds the next immutable handle in the chain, sharing the
// append-only graph and options.
func (w *Workflow) derive(tail string, exec execFn) *Workflow {
	return &Workflow{opts: w.opts, g: w.g, tail: tail, exec: exec}
}

// Step appends a sequential stage: task receives the previous stage's
// output, and its failure halts the whole chain immediately.
func (w *Workflow) Step(name string, task Task) *Workflow {
	nodeID := w.g.addNode(name, KindStep)
	w.g.addEdge(w.tail, nodeID, "")

	prev := w.exec
	return w.derive(nodeID, func(ctx context.Context, rt *runtime, input any) (any, []TraceEntry, error) {
		out, trace, err := prev(ctx, rt, input)
		if err != nil {
			return nil, trace, err
		}
		if err := ctx.Err(); err != nil {
			return nil, trace, err
		}

		ctx, span := rt.startStageSpan(ctx, "step", name)
		rt.stageHeader("step", name, out)
		att := runAttempt(rt, name, task, out)
		rt.stageFooter("step", name, att.Duration, att.Output, att.Err)
		rt.observeStage("step", att)
		endStageSpan(span, att.Err)

		trace = append(trace, att.Entry)
		if att.Err != nil {
			rt.logger.Error("step failed",
				zap.String("stage", name),
				zap.Duration("duration", att.Duration),
				zap.Error(att.Err))
			return nil, trace, att.Err
		}
		return att.Output, trace, nil
	})
}

// Tap appends a sequential stage that invokes a side effect and passes its
// input through unchanged. A failing side effect halts the chain like any
// step failure.
func (w *Workflow) Tap(name string, fn SideEffect) *Workflow {
	return w.Step(name, func(ctx context.Context, input any, log LogFunc) (any, error) {
		if err := fn(ctx, input, log); err != nil {
			return nil, err
		}
		return input, nil
	})
}

// Run drives the pipeline to completion. It returns the final output with
// the full trace, or a *RunError wrapping the stage error together with the
// trace of every stage that executed. ctx gates only the sequential loop
// between stages; each attempt runs under its own cancellation signal.
func (w *Workflow) Run(ctx context.Context, input any) (*RunResult, error) {
	runID := uuid.NewString()
	logger := w.opts.Logger.With(
		zap.String("component", "workflow"),
		zap.String("run_id", runID),
	)

	snk, ownsSink := w.openSink(logger)
	defer func() {
		if !ownsSink {
			return
		}
		if err := snk.Close(); err != nil {
			logger.Warn("log sink close failed", zap.Error(err))
		}
	}()

	tracer := w.opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	rt := &runtime{
		runID:   runID,
		sink:    snk,
		logger:  logger,
		verbose: w.opts.Verbose,
		obs:     w.opts.Observer,
		tracer:  tracer,
	}

	ctx, span := tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(attribute.String("workflow.run_id", runID)))
	defer span.End()

	start := time.Now()
	logger.Info("run started")

	output, entries, err := w.exec(ctx, rt, input)
	elapsed := time.Since(start)

	if err != nil {
		if rt.obs != nil {
			rt.obs.RecordRun("error", elapsed)
		}
		// The deferred span.End owns ending the run span; only mark it here.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("run failed",
			zap.Int("stages", len(entries)),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return nil, &RunError{Trace: entries, Err: err}
	}

	if rt.obs != nil {
		rt.obs.RecordRun("ok", elapsed)
	}
	logger.Info("run completed",
		zap.Int("stages", len(entries)),
		zap.Duration("duration", elapsed))
	return &RunResult{Output: output, Trace: entries}, nil
}

// openSink resolves the log target for one run. Sink failures downgrade to a
// no-op sink: logging is a side channel and must never abort a run.
func (w *Workflow) openSink(logger *zap.Logger) (Sink, bool) {
	if w.opts.Sink != nil {
		return w.opts.Sink, false
	}
	if w.opts.LogDir == "" && w.opts.LogFile == "" {
		return nopSink{}, false
	}
	fs, err := newFileSink(w.opts.LogDir, w.opts.LogFile)
	if err != nil {
		logger.Warn("log sink unavailable, continuing without it", zap.Error(err))
		return nopSink{}, false
	}
	return fs, true
}

// GraphSnapshot returns a copy of the structural graph built so far. It is
// available at any point in the lifecycle, before or after running.
func (w *Workflow) GraphSnapshot() GraphSnapshot {
	return w.g.snapshot()
}

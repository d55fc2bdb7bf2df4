package workflow

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newSpanRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	})
	return sr, tp
}

func TestRun_EmitsSpansPerStage(t *testing.T) {
	sr, tp := newSpanRecorder(t)

	wf := Start(Options{Tracer: tp.Tracer("test")}).
		Step("one", appendTask("1")).
		Step("two", appendTask("2"))

	if _, err := wf.Run(context.Background(), "x"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	spans := sr.Ended()
	names := map[string]int{}
	for _, s := range spans {
		names[s.Name()]++
	}
	if names["workflow.step"] != 2 {
		t.Errorf("expected 2 step spans, got %d", names["workflow.step"])
	}
	if names["workflow.run"] != 1 {
		t.Errorf("expected 1 run span, got %d", names["workflow.run"])
	}
}

func TestRun_FailedStageMarksSpanError(t *testing.T) {
	sr, tp := newSpanRecorder(t)

	wf := Start(Options{Tracer: tp.Tracer("test")}).
		Step("boom", failTask("kaput"))

	if _, err := wf.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}

	spans := sr.Ended()
	// Exactly one stage span and one run span, each ended once.
	if len(spans) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(spans))
	}
	errorSpans := 0
	for _, s := range spans {
		if s.Status().Code == codes.Error {
			errorSpans++
		}
	}
	// Both the stage span and the run span carry the error status.
	if errorSpans != 2 {
		t.Errorf("expected 2 error spans, got %d", errorSpans)
	}
}

// countingObserver is a test double for StageObserver.
type countingObserver struct {
	stages map[string]int
	runs   map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{stages: map[string]int{}, runs: map[string]int{}}
}

func (o *countingObserver) RecordStage(kind, status string, _ time.Duration) {
	o.stages[kind+"/"+status]++
}

func (o *countingObserver) RecordRun(status string, _ time.Duration) {
	o.runs[status]++
}

func TestRun_ReportsStageMetrics(t *testing.T) {
	obs := newCountingObserver()

	wf := Start(Options{Observer: obs}).
		Step("ok", appendTask("a")).
		Parallel("par", map[string]Task{
			"p1": appendTask("b"),
		}).
		Fallback("fb", failTask("p"), func(ctx context.Context, input any, log LogFunc) (any, error) {
			return "rescued", nil
		})

	if _, err := wf.Run(context.Background(), "x"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if obs.stages["step/ok"] != 1 {
		t.Errorf("step/ok: %d", obs.stages["step/ok"])
	}
	if obs.stages["parallel/ok"] != 1 {
		t.Errorf("parallel/ok: %d", obs.stages["parallel/ok"])
	}
	if obs.stages["fallback/ok"] != 1 {
		t.Errorf("fallback/ok: %d", obs.stages["fallback/ok"])
	}
	if obs.runs["ok"] != 1 {
		t.Errorf("runs/ok: %d", obs.runs["ok"])
	}
}

func TestRun_ReportsFailureMetrics(t *testing.T) {
	obs := newCountingObserver()

	wf := Start(Options{Observer: obs}).
		Step("boom", failTask("x"))

	if _, err := wf.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if obs.stages["step/error"] != 1 {
		t.Errorf("step/error: %d", obs.stages["step/error"])
	}
	if obs.runs["error"] != 1 {
		t.Errorf("runs/error: %d", obs.runs["error"])
	}
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func appendTask(suffix string) Task {
	return func(ctx context.Context, input any, log LogFunc) (any, error) {
		return input.(string) + suffix, nil
	}
}

func failTask(msg string) Task {
	return func(ctx context.Context, input any, log LogFunc) (any, error) {
		return nil, errors.New(msg)
	}
}

func TestRun_SequentialChain(t *testing.T) {
	wf := Start(Options{}).
		Step("step1", appendTask(" -> step1")).
		Step("step2", appendTask(" -> step2")).
		Step("step3", appendTask(" -> step3"))

	res, err := wf.Run(context.Background(), "start")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	expected := "start -> step1 -> step2 -> step3"
	if res.Output != expected {
		t.Errorf("expected %q, got %q", expected, res.Output)
	}

	if len(res.Trace) != 3 {
		t.Fatalf("expected 3 trace entries, got %d", len(res.Trace))
	}
	for i, name := range []string{"step1", "step2", "step3"} {
		if res.Trace[i].Name != name {
			t.Errorf("trace[%d]: expected name %q, got %q", i, name, res.Trace[i].Name)
		}
		if !res.Trace[i].OK {
			t.Errorf("trace[%d]: expected ok", i)
		}
		if len(res.Trace[i].Children) != 0 {
			t.Errorf("trace[%d]: leaf entry should have no children", i)
		}
	}
}

func TestRun_FailureHaltsChain(t *testing.T) {
	ranAfter := false
	wf := Start(Options{}).
		Step("ok1", appendTask("a")).
		Step("boom", failTask("kaput")).
		Step("never", func(ctx context.Context, input any, log LogFunc) (any, error) {
			ranAfter = true
			return input, nil
		})

	_, err := wf.Run(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %T", err)
	}
	if len(runErr.Trace) != 2 {
		t.Fatalf("expected 2 trace entries, got %d", len(runErr.Trace))
	}
	if runErr.Trace[0].Name != "ok1" || !runErr.Trace[0].OK {
		t.Errorf("trace[0]: expected ok entry for ok1, got %+v", runErr.Trace[0])
	}
	if runErr.Trace[1].Name != "boom" || runErr.Trace[1].OK {
		t.Errorf("trace[1]: expected failed entry for boom, got %+v", runErr.Trace[1])
	}
	if runErr.Trace[1].Error != "kaput" {
		t.Errorf("expected error summary %q, got %q", "kaput", runErr.Trace[1].Error)
	}
	if runErr.Unwrap().Error() != "kaput" {
		t.Errorf("expected unwrapped error kaput, got %v", runErr.Unwrap())
	}
	if ranAfter {
		t.Error("stage after failure must not run")
	}
}

func TestRun_TaskPanicBecomesFailure(t *testing.T) {
	wf := Start(Options{}).
		Step("panics", func(ctx context.Context, input any, log LogFunc) (any, error) {
			panic("oh no")
		})

	_, err := wf.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error from panicking task")
	}
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %T", err)
	}
	if len(runErr.Trace) != 1 || runErr.Trace[0].OK {
		t.Fatalf("expected single failed entry, got %+v", runErr.Trace)
	}
}

func TestTap_PassesInputThrough(t *testing.T) {
	var seen any
	wf := Start(Options{}).
		Step("produce", appendTask("!")).
		Tap("observe", func(ctx context.Context, input any, log LogFunc) error {
			seen = input
			return nil
		}).
		Step("consume", appendTask("?"))

	res, err := wf.Run(context.Background(), "hi")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if seen != "hi!" {
		t.Errorf("tap should observe the upstream output, got %v", seen)
	}
	if res.Output != "hi!?" {
		t.Errorf("tap must pass input through unchanged, got %v", res.Output)
	}
	if len(res.Trace) != 3 {
		t.Errorf("tap counts as one stage, got %d entries", len(res.Trace))
	}
}

func TestTap_ErrorHaltsChain(t *testing.T) {
	wf := Start(Options{}).
		Tap("audit", func(ctx context.Context, input any, log LogFunc) error {
			return errors.New("audit rejected")
		})

	_, err := wf.Run(context.Background(), "in")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestWorkflow_ImmutableChaining(t *testing.T) {
	base := Start(Options{}).Step("common", appendTask("-common"))

	left := base.Step("left", appendTask("-left"))
	right := base.Step("right", appendTask("-right"))

	lres, err := left.Run(context.Background(), "x")
	if err != nil {
		t.Fatalf("left run failed: %v", err)
	}
	rres, err := right.Run(context.Background(), "x")
	if err != nil {
		t.Fatalf("right run failed: %v", err)
	}

	if lres.Output != "x-common-left" {
		t.Errorf("left output: %v", lres.Output)
	}
	if rres.Output != "x-common-right" {
		t.Errorf("right output: %v", rres.Output)
	}
	if len(lres.Trace) != 2 || len(rres.Trace) != 2 {
		t.Errorf("extending a shared prefix must not mutate prior handles")
	}
}

func TestRun_CanceledContextStopsBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	wf := Start(Options{}).
		Step("first", func(c context.Context, input any, log LogFunc) (any, error) {
			cancel() // canceling the run context mid-stage
			return input, nil
		}).
		Step("second", appendTask("-2"))

	_, err := wf.Run(ctx, "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %T", err)
	}
	// The first stage completed; the second never started.
	if len(runErr.Trace) != 1 {
		t.Errorf("expected 1 trace entry, got %d", len(runErr.Trace))
	}
}

func TestRun_FreshSignalPerAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Canceling the run context while a task executes must not reach the
	// task's own signal: each attempt runs under a fresh one.
	var taskCtxErr error
	wf := Start(Options{}).
		Step("probe", func(c context.Context, input any, log LogFunc) (any, error) {
			cancel()
			taskCtxErr = c.Err()
			return input, nil
		})

	_, err := wf.Run(ctx, "x")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if taskCtxErr != nil {
		t.Errorf("task should never have observed a canceled signal, got %v", taskCtxErr)
	}
}

func TestRun_LongerChains(t *testing.T) {
	for _, n := range []int{1, 5, 12} {
		wf := Start(Options{})
		for i := 0; i < n; i++ {
			wf = wf.Step(fmt.Sprintf("s%d", i), appendTask("."))
		}
		res, err := wf.Run(context.Background(), "")
		if err != nil {
			t.Fatalf("n=%d: run failed: %v", n, err)
		}
		if len(res.Trace) != n {
			t.Errorf("n=%d: expected %d entries, got %d", n, n, len(res.Trace))
		}
	}
}

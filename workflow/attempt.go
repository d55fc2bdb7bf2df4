package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// unserializablePlaceholder replaces values that cannot be marshaled to JSON
// (cyclic references, channels, functions) in log output.
const unserializablePlaceholder = "[unserializable]"

// Attempt is the uniform outcome of running a single task once. It is always
// returned, never thrown: higher-level stages inspect and aggregate attempts
// before deciding whether to propagate a failure.
type Attempt struct {
	Output   any
	Err      error
	Duration time.Duration
	Entry    TraceEntry
}

// OK reports whether the attempt succeeded.
func (a Attempt) OK() bool { return a.Err == nil }

// runAttempt executes one task with a dedicated cancellation signal and a
// label-tagged log function, measuring wall-clock duration. A panicking task
// becomes a failed Attempt; nothing escapes to the caller. The engine
// enforces no deadline here: a hung task blocks the pipeline.
func runAttempt(rt *runtime, label string, task Task, input any) Attempt {
	attemptCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logFn := func(v any) {
		text := serialize(v)
		rt.sinkLine(fmt.Sprintf("[%s] %s", label, text))
		if rt.verbose {
			rt.logger.Info("task log", zap.String("stage", label), zap.String("message", text))
		}
	}

	start := time.Now()
	output, err := invoke(attemptCtx, task, input, logFn)
	elapsed := time.Since(start)

	entry := TraceEntry{Name: label, Duration: elapsed, OK: err == nil}
	if err != nil {
		entry.Error = err.Error()
	}
	return Attempt{Output: output, Err: err, Duration: elapsed, Entry: entry}
}

// invoke calls the task, converting a panic into an error.
func invoke(ctx context.Context, task Task, input any, log LogFunc) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx, input, log)
}

// serialize renders a log value: strings verbatim, other primitives via
// fmt, structured values as JSON.
func serialize(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case error:
		return t.Error()
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(t)
	}
	return serializeJSON(v)
}

// serializeJSON marshals a value for header/footer blocks, degrading to the
// fixed placeholder instead of failing.
func serializeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return unserializablePlaceholder
	}
	return string(b)
}

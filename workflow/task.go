package workflow

import "context"

// LogFunc receives diagnostic values emitted by a task while it runs.
// Strings are recorded verbatim; other values are serialized to JSON, with a
// fixed placeholder when serialization fails. Calls are appended to the run's
// log sink tagged with the stage label, and echoed to the structured logger
// when the workflow was started with Verbose.
type LogFunc func(v any)

// Task is a single unit of work accepted by the engine. The input is the
// previous stage's output (or the run input for the first stage) and is
// opaque to the engine.
//
// The context passed to a task is a fresh per-attempt cancellation signal:
// the engine never wires sibling-branch failure, upstream deadlines, or the
// Run caller's context into it. Tasks that need cooperative abort should
// watch ctx themselves; tasks that need retries or timeouts own them.
type Task func(ctx context.Context, input any, log LogFunc) (any, error)

// SideEffect is the function accepted by Tap: it observes the stage input
// without producing a new output.
type SideEffect func(ctx context.Context, input any, log LogFunc) error

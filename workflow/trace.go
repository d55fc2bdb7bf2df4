package workflow

import (
	"fmt"
	"time"
)

// TraceEntry records the outcome of one stage. Leaf entries (plain steps)
// have no children; parallel and fallback groups carry their branch attempts
// as children in declaration order, regardless of completion order.
type TraceEntry struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Children []TraceEntry  `json:"children,omitempty"`
	Notes    []string      `json:"notes,omitempty"`
}

// RunResult is the successful outcome of driving a workflow: the final
// output plus the ordered record of every top-level stage that executed.
type RunResult struct {
	Output any          `json:"output"`
	Trace  []TraceEntry `json:"trace"`
}

// RunError is the failure shape surfaced by Run. It wraps the stage error
// that halted the chain together with the trace accumulated up to and
// including the failing stage, so callers can diagnose exactly which stages
// ran, which failed, and with what timing.
type RunError struct {
	Trace []TraceEntry `json:"trace"`
	Err   error        `json:"-"`
}

func (e *RunError) Error() string {
	return fmt.Sprintf("workflow failed after %d stage(s): %v", len(e.Trace), e.Err)
}

// Unwrap returns the underlying stage error.
func (e *RunError) Unwrap() error { return e.Err }

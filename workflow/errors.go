package workflow

import (
	"fmt"
	"strings"
)

// ParallelError aggregates two or more branch failures from a parallel
// group. When exactly one branch fails, its error propagates as-is and no
// ParallelError is constructed.
type ParallelError struct {
	// Group is the name of the parallel stage.
	Group string
	// Keys lists the failing branch keys in branch order.
	Keys []string
	// Causes holds the raw per-branch errors, aligned with Keys.
	Causes []error
}

func (e *ParallelError) Error() string {
	parts := make([]string, len(e.Keys))
	for i, key := range e.Keys {
		parts[i] = fmt.Sprintf("%s: %v", key, e.Causes[i])
	}
	return fmt.Sprintf("parallel group %q: %d branches failed: %s",
		e.Group, len(e.Keys), strings.Join(parts, "; "))
}

// Unwrap exposes the branch errors to errors.Is / errors.As.
func (e *ParallelError) Unwrap() []error { return e.Causes }

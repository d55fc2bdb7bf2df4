// Package flowkit provides a top-level convenience entry point for building
// workflow pipelines with minimal boilerplate.
//
// Usage:
//
//	import "github.com/flowkit-dev/flowkit"
//
//	wf := flowkit.Start(flowkit.Options{LogDir: "logs"}).
//	    Step("fetch", fetchTask).
//	    Parallel("enrich", map[string]flowkit.Task{"a": taskA, "b": taskB}).
//	    Fallback("deliver", primary, secondary)
//
//	res, err := wf.Run(ctx, input)
//
// This is a thin wrapper around [workflow.Start]; both produce identical
// results. Use this package when you prefer the shorter import path.
package flowkit

import "github.com/flowkit-dev/flowkit/workflow"

// Options configures a pipeline chain.
type Options = workflow.Options

// Task is a single unit of work accepted by the engine.
type Task = workflow.Task

// LogFunc receives diagnostic values emitted by a running task.
type LogFunc = workflow.LogFunc

// Start creates a new pipeline with the root graph node allocated.
func Start(opts Options) *workflow.Workflow {
	return workflow.Start(opts)
}

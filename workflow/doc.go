/*
Package workflow provides a composable pipeline engine that chains
asynchronous tasks into a directed execution graph.

# Overview

A pipeline is assembled from immutable [Workflow] values: [Start] allocates
the root, and every chaining call (Step, Tap, Parallel, Fallback) returns a
new Workflow without mutating the one it was called on. Running the pipeline
produces a [RunResult] whose trace mirrors the chain of stages that actually
executed; failures surface as a [*RunError] carrying the same trace.

# Core types

  - Task           — unit of work func(ctx, input, log) (output, error)
  - Attempt        — uniform success/failure outcome of running one Task
  - TraceEntry     — per-stage record (duration, ok, children for groups)
  - Workflow       — immutable chain handle; Start/Step/Tap/Parallel/Fallback/Run
  - Sink           — append-only log target (file, Redis, or custom)
  - GraphSnapshot  — structural node/edge view, derivable without running

# Stages

  - Step runs one task sequentially, threading the previous stage's output.
  - Tap runs a side effect and passes its input through unchanged.
  - Parallel fans one input out to named branches, waits for every branch to
    settle (a failing branch never cancels its siblings), and fans results
    back in keyed by branch.
  - Fallback runs a primary task and, only on failure, a secondary task with
    the same input.

# Execution graph

Chaining calls, not execution, populate an append-only node/edge table.
GraphSnapshot returns it at any point in the lifecycle, and VisualizeGraph
renders Graphviz DOT or Mermaid flowchart text from it.

The engine deliberately implements no retries, timeouts, or deadlines; task
authors own those concerns. Each attempt receives its own cancellation
signal, which the engine never ties to sibling failures or the caller's
context.
*/
package workflow

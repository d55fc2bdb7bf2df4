package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Parallel appends a fan-out/fan-in stage: every branch receives the
// identical upstream output, all branches start together, and the join point
// is reached only once every branch has settled — a failing branch never
// cancels its siblings.
//
// Branches run in lexical key order in the trace and in aggregate errors
// (Go maps carry no declaration order). On full success the stage output is
// a map[string]any keyed like branches. If exactly one branch fails its
// error propagates as-is; with several failures a *ParallelError enumerates
// every failing key. The trace's children always cover every branch.
//
// Parallel panics when branches is empty: an empty group is a programming
// error, caught at construction rather than at run time.
func (w *Workflow) Parallel(name string, branches map[string]Task) *Workflow {
	if len(branches) == 0 {
		panic(fmt.Sprintf("workflow: parallel group %q requires at least one branch", name))
	}

	keys := make([]string, 0, len(branches))
	for k := range branches {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groupID := w.g.addNode(name, KindParallelGroup)
	w.g.addEdge(w.tail, groupID, "")
	joinID := w.g.addNode(name, KindParallelJoin)
	for _, k := range keys {
		branchID := w.g.addNode(k, KindParallelBranch)
		w.g.addEdge(groupID, branchID, "fan-out")
		w.g.addEdge(branchID, joinID, "fan-in")
	}

	prev := w.exec
	return w.derive(joinID, func(ctx context.Context, rt *runtime, input any) (any, []TraceEntry, error) {
		out, trace, err := prev(ctx, rt, input)
		if err != nil {
			return nil, trace, err
		}
		if err := ctx.Err(); err != nil {
			return nil, trace, err
		}

		ctx, span := rt.startStageSpan(ctx, "parallel", name)
		rt.stageHeader("parallel", name, out)
		start := time.Now()

		// One attempt slot per branch, indexed by declaration order, so the
		// trace never depends on completion order.
		attempts := make([]Attempt, len(keys))
		var wg sync.WaitGroup
		for i, key := range keys {
			wg.Add(1)
			go func(i int, key string) {
				defer wg.Done()
				attempts[i] = runAttempt(rt, key, branches[key], out)
			}(i, key)
		}
		wg.Wait()
		elapsed := time.Since(start)

		group := TraceEntry{
			Name:     name,
			Duration: elapsed,
			Children: make([]TraceEntry, len(keys)),
		}
		results := make(map[string]any, len(keys))
		var failedKeys []string
		var causes []error
		for i, key := range keys {
			group.Children[i] = attempts[i].Entry
			if attempts[i].Err != nil {
				failedKeys = append(failedKeys, key)
				causes = append(causes, attempts[i].Err)
			} else {
				results[key] = attempts[i].Output
			}
		}

		if len(failedKeys) > 0 {
			var groupErr error
			if len(failedKeys) == 1 {
				groupErr = causes[0]
			} else {
				groupErr = &ParallelError{Group: name, Keys: failedKeys, Causes: causes}
			}
			group.OK = false
			group.Error = groupErr.Error()
			rt.stageFooter("parallel", name, elapsed, nil, groupErr)
			rt.observeStage("parallel", Attempt{Err: groupErr, Duration: elapsed})
			endStageSpan(span, groupErr)
			rt.logger.Error("parallel group failed",
				zap.String("stage", name),
				zap.Strings("failed_branches", failedKeys),
				zap.Duration("duration", elapsed))
			return nil, append(trace, group), groupErr
		}

		group.OK = true
		rt.stageFooter("parallel", name, elapsed, results, nil)
		rt.observeStage("parallel", Attempt{Duration: elapsed})
		endStageSpan(span, nil)
		return results, append(trace, group), nil
	})
}

package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Fallback appends a primary/fallback stage. The primary task runs against
// the previous stage's output; only if it fails does the secondary task run,
// with the same input (not the primary's partial output).
//
// When the primary succeeds the group trace entry has one child and a note
// that the fallback was skipped. When the secondary recovers, the group is
// ok with two children and the stage output is the secondary's. When both
// fail, the secondary's error propagates; the primary's failure survives in
// the log body and the group's note.
func (w *Workflow) Fallback(name string, primary, secondary Task) *Workflow {
	groupID := w.g.addNode(name, KindFallbackGroup)
	w.g.addEdge(w.tail, groupID, "")
	primaryID := w.g.addNode(name+"/primary", KindFallbackPrimary)
	secondaryID := w.g.addNode(name+"/secondary", KindFallbackSecondary)
	joinID := w.g.addNode(name, KindFallbackJoin)
	w.g.addEdge(groupID, primaryID, "try")
	w.g.addEdge(groupID, secondaryID, "on failure")
	w.g.addEdge(primaryID, joinID, "")
	w.g.addEdge(secondaryID, joinID, "")

	prev := w.exec
	return w.derive(joinID, func(ctx context.Context, rt *runtime, input any) (any, []TraceEntry, error) {
		out, trace, err := prev(ctx, rt, input)
		if err != nil {
			return nil, trace, err
		}
		if err := ctx.Err(); err != nil {
			return nil, trace, err
		}

		ctx, span := rt.startStageSpan(ctx, "fallback", name)
		rt.stageHeader("fallback", name, out)
		start := time.Now()

		prim := runAttempt(rt, name+"/primary", primary, out)
		if prim.Err == nil {
			group := TraceEntry{
				Name:     name,
				Duration: time.Since(start),
				OK:       true,
				Children: []TraceEntry{prim.Entry},
				Notes:    []string{"fallback skipped: primary succeeded"},
			}
			rt.stageFooter("fallback", name, group.Duration, prim.Output, nil)
			rt.observeStage("fallback", Attempt{Duration: group.Duration})
			endStageSpan(span, nil)
			return prim.Output, append(trace, group), nil
		}

		rt.sinkLine(fmt.Sprintf("[%s] primary failed: %v; running fallback", name, prim.Err))
		rt.logger.Warn("primary failed, running fallback",
			zap.String("stage", name),
			zap.Error(prim.Err))

		sec := runAttempt(rt, name+"/secondary", secondary, out)
		group := TraceEntry{
			Name:     name,
			Duration: time.Since(start),
			Children: []TraceEntry{prim.Entry, sec.Entry},
		}

		if sec.Err == nil {
			group.OK = true
			group.Notes = []string{fmt.Sprintf("recovered from primary failure: %v", prim.Err)}
			rt.stageFooter("fallback", name, group.Duration, sec.Output, nil)
			rt.observeStage("fallback", Attempt{Duration: group.Duration})
			endStageSpan(span, nil)
			return sec.Output, append(trace, group), nil
		}

		// Both failed: the fallback's error is the one that propagates.
		group.OK = false
		group.Error = sec.Err.Error()
		group.Notes = []string{fmt.Sprintf("primary failed: %v", prim.Err)}
		rt.stageFooter("fallback", name, group.Duration, nil, sec.Err)
		rt.observeStage("fallback", Attempt{Err: sec.Err, Duration: group.Duration})
		endStageSpan(span, sec.Err)
		rt.logger.Error("fallback group failed",
			zap.String("stage", name),
			zap.NamedError("primary_error", prim.Err),
			zap.NamedError("fallback_error", sec.Err))
		return nil, append(trace, group), sec.Err
	})
}

package workflow

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this instrumentation scope.
const tracerName = "github.com/flowkit-dev/flowkit/workflow"

// startStageSpan opens a child span for one stage. With no tracer configured
// the global provider's noop tracer is used, so instrumentation stays free.
func (rt *runtime) startStageSpan(ctx context.Context, kind, name string) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "workflow."+kind,
		trace.WithAttributes(
			attribute.String("workflow.stage.kind", kind),
			attribute.String("workflow.stage.name", name),
		))
}

func endStageSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

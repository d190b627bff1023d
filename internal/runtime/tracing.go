package runtime

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/lambdaflow/internal/runtime/invocation"
)

// TracerName identifies spans started by the invocation loop.
const TracerName = "github.com/drblury/lambdaflow"

const (
	attrInvocationID = attribute.Key("faas.invocation_id")
	attrFunctionARN  = attribute.Key("faas.function_arn")
	attrXRayTraceID  = attribute.Key("aws.xray.trace_id")
	attrFunctionName = attribute.Key("faas.name")
)

func startInvokeSpan(ctx context.Context, tracer trace.Tracer, ec *invocation.ExecutionContext) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Invoke",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attrInvocationID.String(ec.RequestID),
			attrFunctionARN.String(ec.InvokedFunctionARN),
			attrXRayTraceID.String(ec.XRayTraceID),
			attrFunctionName.String(ec.FunctionName()),
		),
	)
}

func endInvokeSpan(span trace.Span, outcome Outcome, err error) {
	span.SetAttributes(attribute.String("lambdaflow.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

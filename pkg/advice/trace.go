package advice

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"able/aspect-go/pkg/aspect"
)

const (
	attrInvocation = attribute.Key("aspect.invocation")
	attrArgCount   = attribute.Key("aspect.args")
	attrClass      = attribute.Key("aspect.class")
	attrVetoed     = attribute.Key("aspect.vetoed")
)

// Trace returns Call advice that opens a span named after the intercepted
// function. The span is a child of the invocation's context and the callable
// runs under it, so join points invoked with that context nest their spans.
// The span ends when the invocation finishes; failures are recorded on it and
// vetoed calls are marked.
func Trace(tracer trace.Tracer) aspect.Advice {
	return aspect.OnCall(func(ctx *aspect.CallContext, _ any) (any, error) {
		attrs := []attribute.KeyValue{
			attrInvocation.String(ctx.ID.String()),
			attrArgCount.Int(len(ctx.Args)),
		}
		if ctx.Class != nil {
			attrs = append(attrs, attrClass.String(ctx.Class.QualifiedName()))
		}
		spanCtx, span := tracer.Start(ctx.Context(), ctx.Name,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		ctx.SetContext(spanCtx)
		ctx.AfterCall(func(_ any, err error) {
			if ctx.Vetoed() {
				span.SetAttributes(attrVetoed.Bool(true))
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		})
		return nil, nil
	})
}

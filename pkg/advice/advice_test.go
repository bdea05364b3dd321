package advice

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"able/aspect-go/pkg/aspect"
	"able/aspect-go/pkg/logger"
	"able/aspect-go/pkg/runtime"
)

func greet(err error) *runtime.FunctionValue {
	return &runtime.FunctionValue{
		Module: "demo",
		Name:   "greet",
		Params: runtime.MustSignature(runtime.Param("name"), runtime.Param("title").WithDefault(nil)),
		Impl: func(args []any, kwargs *runtime.Kwargs) (any, error) {
			if err != nil {
				return nil, err
			}
			return "hello " + args[0].(string), nil
		},
	}
}

func register(t *testing.T, reg *aspect.Registry, pattern string, advice ...aspect.Advice) {
	t.Helper()
	if _, err := reg.Register(pattern, advice...); err != nil {
		t.Fatalf("Register(%q): %v", pattern, err)
	}
}

func TestLogWritesCallAndReturn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := aspect.NewRegistry()
	register(t, reg, `demo`, Log(logger.FromCore(core))...)

	got, err := aspect.Wrap(greet(nil), aspect.WithRegistry(reg)).Call([]any{"ada"}, nil)
	if err != nil || got != "hello ada" {
		t.Fatalf("greet = %v, %v", got, err)
	}
	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Message != "call" || entries[1].Message != "return" {
		t.Fatalf("messages = %q, %q", entries[0].Message, entries[1].Message)
	}
	fields := entries[1].ContextMap()
	if fields["function"] != "demo.greet" || fields["result"] != "hello ada" {
		t.Fatalf("return fields = %v", fields)
	}
	if entries[0].ContextMap()["invocation"] != fields["invocation"] {
		t.Fatal("call and return entries carry different invocation ids")
	}
}

func TestTraceEndsSpanPerInvocation(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := tp.Tracer("aspect-test")

	reg := aspect.NewRegistry()
	register(t, reg, `demo`, Trace(tracer))
	if _, err := aspect.Wrap(greet(nil), aspect.WithRegistry(reg)).Call([]any{"ada"}, nil); err != nil {
		t.Fatalf("greet: %v", err)
	}
	boom := errors.New("boom")
	if _, err := aspect.Wrap(greet(boom), aspect.WithRegistry(reg)).Call([]any{"bob"}, nil); err != boom {
		t.Fatalf("err = %v, want boom", err)
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "demo.greet" {
		t.Fatalf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code == codes.Error {
		t.Fatal("successful call recorded as error")
	}
	if spans[1].Status().Code != codes.Error || len(spans[1].Events()) == 0 {
		t.Fatalf("failed call status = %v events = %d", spans[1].Status(), len(spans[1].Events()))
	}
}

func TestTraceNestsSpansThroughContext(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	reg := aspect.NewRegistry()
	register(t, reg, `demo`, Trace(tp.Tracer("aspect-test")))
	inner := aspect.Wrap(greet(nil), aspect.WithRegistry(reg))
	outer := aspect.Wrap(&runtime.FunctionValue{
		Module: "demo",
		Name:   "welcome",
		Params: runtime.MustSignature(runtime.Param("name")),
		ImplContext: func(ctx context.Context, args []any, _ *runtime.Kwargs) (any, error) {
			return inner.InvokeContext(ctx, args, nil)
		},
	}, aspect.WithRegistry(reg))

	if got, err := outer.Call([]any{"ada"}, nil); err != nil || got != "hello ada" {
		t.Fatalf("welcome = %v, %v", got, err)
	}
	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended %d spans, want 2", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Name() != "demo.greet" || parent.Name() != "demo.welcome" {
		t.Fatalf("span names = %q, %q", child.Name(), parent.Name())
	}
	if parent.Parent().IsValid() {
		t.Fatalf("outer span has parent %v", parent.Parent())
	}
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Fatalf("inner span parent = %v, want %v", child.Parent().SpanID(), parent.SpanContext().SpanID())
	}
	if child.SpanContext().TraceID() != parent.SpanContext().TraceID() {
		t.Fatal("nested spans landed in different traces")
	}
}

func TestTraceMarksVetoedCalls(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	reg := aspect.NewRegistry()
	register(t, reg, `demo`, Trace(tp.Tracer("aspect-test")), Deny())
	got, err := aspect.Wrap(greet(nil), aspect.WithRegistry(reg)).Call([]any{"ada"}, nil)
	if err != nil || got != runtime.None {
		t.Fatalf("vetoed call = %v, %v", got, err)
	}
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended %d spans, want 1", len(spans))
	}
	var vetoed bool
	for _, kv := range spans[0].Attributes() {
		if kv.Key == attrVetoed {
			vetoed = kv.Value.AsBool()
		}
	}
	if !vetoed {
		t.Fatalf("span attributes = %v, want vetoed", spans[0].Attributes())
	}
}

func TestCounterTalliesConcurrentCalls(t *testing.T) {
	counter := NewCounter()
	reg := aspect.NewRegistry()
	register(t, reg, `demo`, counter.Advice())
	fn := aspect.Wrap(greet(nil), aspect.WithRegistry(reg))
	other := aspect.Wrap(&runtime.FunctionValue{
		Module: "demo", Name: "noop",
		Impl: func([]any, *runtime.Kwargs) (any, error) { return nil, nil },
	}, aspect.WithRegistry(reg))

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			for j := 0; j < 25; j++ {
				if _, err := fn.Call([]any{"x"}, nil); err != nil {
					return err
				}
			}
			_, err := other.Call(nil, nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := counter.Count("demo.greet"); got != 400 {
		t.Fatalf("greet count = %d, want 400", got)
	}
	if got := counter.Total(); got != 416 {
		t.Fatalf("total = %d, want 416", got)
	}
	snap := counter.Snapshot()
	snap["demo.noop"] = 0
	if counter.Count("demo.noop") != 16 {
		t.Fatal("snapshot shares storage with the counter")
	}
}

func TestSuffixOnlyTouchesStrings(t *testing.T) {
	reg := aspect.NewRegistry()
	register(t, reg, `demo`, Suffix("!"))
	got, _ := aspect.Wrap(greet(nil), aspect.WithRegistry(reg)).Call([]any{"ada"}, nil)
	if got != "hello ada!" {
		t.Fatalf("result = %q", got)
	}
	num := aspect.Wrap(&runtime.FunctionValue{
		Module: "demo", Name: "n",
		Impl: func([]any, *runtime.Kwargs) (any, error) { return 7, nil },
	}, aspect.WithRegistry(reg))
	if got, _ := num.Call(nil, nil); got != 7 {
		t.Fatalf("non-string result = %v", got)
	}
}

func TestRequireVetoesMissingOrNone(t *testing.T) {
	reg := aspect.NewRegistry()
	register(t, reg, `demo`, Require("title"))
	fn := aspect.Wrap(greet(nil), aspect.WithRegistry(reg))

	if got, err := fn.Call([]any{"ada"}, nil); err != nil || got != runtime.None {
		t.Fatalf("default None title = %v, %v; want vetoed", got, err)
	}
	if got, err := fn.Call([]any{"ada"}, runtime.Kw("title", "dr")); err != nil || got != "hello ada" {
		t.Fatalf("with title = %v, %v", got, err)
	}

	strict := aspect.NewRegistry()
	register(t, strict, `demo`, Require("missing"))
	if got, _ := aspect.Wrap(greet(nil), aspect.WithRegistry(strict)).Call([]any{"ada", "dr"}, nil); got != runtime.None {
		t.Fatalf("unknown parameter = %v, want vetoed", got)
	}
}

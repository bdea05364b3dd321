package aspect

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"able/aspect-go/pkg/runtime"
)

type counterFixture struct {
	reg     *Registry
	class   *runtime.Class
	derived *runtime.Class
	seen    []*CallContext
	mu      sync.Mutex
}

func newCounterFixture(t *testing.T) *counterFixture {
	t.Helper()
	fx := &counterFixture{reg: NewRegistry()}
	fx.class = runtime.NewClass("shop", "Counter", nil)
	fx.derived = runtime.NewClass("shop", "Tally", fx.class)

	bump := &runtime.FunctionValue{
		Module: "shop", Owner: "Counter", Name: "bump",
		Params: runtime.MustSignature(runtime.Param("self"), runtime.Param("by").WithDefault(1)),
		Impl: func(args []any, kwargs *runtime.Kwargs) (any, error) {
			self := args[0].(*runtime.Instance)
			by := 1
			if len(args) > 1 {
				by = args[1].(int)
			} else if v, ok := kwargs.Get("by"); ok {
				by = v.(int)
			}
			n, _ := self.Fields["n"].(int)
			self.Fields["n"] = n + by
			return self, nil
		},
	}
	create := &runtime.FunctionValue{
		Module: "shop", Owner: "Counter", Name: "create",
		Params: runtime.MustSignature(runtime.Param("cls")),
		Impl: func(args []any, _ *runtime.Kwargs) (any, error) {
			return runtime.NewInstance(args[0].(*runtime.Class)), nil
		},
	}
	double := &runtime.FunctionValue{
		Module: "shop", Owner: "Counter", Name: "double",
		Params: runtime.MustSignature(runtime.Param("x")),
		Impl: func(args []any, _ *runtime.Kwargs) (any, error) {
			return args[0].(int) * 2, nil
		},
	}
	fx.class.Define("bump", Wrap(bump, WithRegistry(fx.reg), WithMethodKind(MethodInstance)))
	fx.class.Define("create", Wrap(create, WithRegistry(fx.reg), WithMethodKind(MethodClass)))
	fx.class.Define("double", Wrap(double, WithRegistry(fx.reg), WithMethodKind(MethodStatic)))

	mustRegister(t, fx.reg, `^shop\.Counter\.`, OnCall(func(ctx *CallContext, _ any) (any, error) {
		fx.mu.Lock()
		fx.seen = append(fx.seen, ctx)
		fx.mu.Unlock()
		return nil, nil
	}))
	return fx
}

func (fx *counterFixture) member(t *testing.T, owner interface {
	Member(string) (any, error)
}, name string) runtime.Callable {
	t.Helper()
	m, err := owner.Member(name)
	if err != nil {
		t.Fatalf("Member(%q): %v", name, err)
	}
	fn, ok := m.(runtime.Callable)
	if !ok {
		t.Fatalf("Member(%q) = %T, not callable", name, m)
	}
	return fn
}

func TestInstanceMethodInjectsInstance(t *testing.T) {
	fx := newCounterFixture(t)
	c := runtime.NewInstance(fx.class)
	bump := fx.member(t, c, "bump")
	if _, err := bump.Invoke([]any{5}, nil); err != nil {
		t.Fatalf("bump(5): %v", err)
	}
	if c.Fields["n"] != 5 {
		t.Fatalf("n = %v, want 5", c.Fields["n"])
	}
	ctx := fx.seen[0]
	if ctx.Instance != c || ctx.Class != fx.class {
		t.Fatalf("ctx instance/class = %v/%v", ctx.Instance, ctx.Class)
	}
	if len(ctx.Args) != 2 || ctx.Args[0] != c {
		t.Fatalf("ctx.Args = %v, want instance first", ctx.Args)
	}
	if d, _ := ctx.Descriptor("self"); d.Value != c {
		t.Fatalf("self descriptor = %#v", d)
	}
	if ctx.Name != "shop.Counter.bump" {
		t.Fatalf("ctx.Name = %q", ctx.Name)
	}
}

func TestUnboundInstanceMethodRequiresInstance(t *testing.T) {
	fx := newCounterFixture(t)
	bump := fx.member(t, fx.class, "bump")

	_, err := bump.Invoke(nil, nil)
	var uerr *UnboundCallError
	if !errors.As(err, &uerr) || !errors.Is(err, ErrUnboundCall) {
		t.Fatalf("err = %v, want *UnboundCallError", err)
	}
	if _, err := bump.Invoke([]any{"not an instance"}, nil); !errors.Is(err, ErrUnboundCall) {
		t.Fatalf("err = %v, want unbound error for non-instance", err)
	}
	stranger := runtime.NewInstance(runtime.NewClass("shop", "Other", nil))
	if _, err := bump.Invoke([]any{stranger}, nil); !errors.Is(err, ErrUnboundCall) {
		t.Fatalf("err = %v, want unbound error for foreign instance", err)
	}

	c := runtime.NewInstance(fx.class)
	if _, err := bump.Invoke([]any{c}, runtime.Kw("by", 3)); err != nil {
		t.Fatalf("explicit instance call: %v", err)
	}
	if c.Fields["n"] != 3 {
		t.Fatalf("n = %v, want 3", c.Fields["n"])
	}
	if len(fx.seen) != 1 || fx.seen[0].Instance != c {
		t.Fatalf("advice saw %v", fx.seen)
	}
}

func TestClassMethodInjectsAccessedClass(t *testing.T) {
	fx := newCounterFixture(t)
	viaClass, err := fx.member(t, fx.class, "create").Invoke(nil, nil)
	if err != nil {
		t.Fatalf("Counter.create(): %v", err)
	}
	if viaClass.(*runtime.Instance).Class != fx.class {
		t.Fatalf("create through class built %v", viaClass)
	}

	tally := runtime.NewInstance(fx.derived)
	viaInstance, err := fx.member(t, tally, "create").Invoke(nil, nil)
	if err != nil {
		t.Fatalf("tally.create(): %v", err)
	}
	if viaInstance.(*runtime.Instance).Class != fx.derived {
		t.Fatalf("create through derived instance built %v", viaInstance)
	}
	last := fx.seen[len(fx.seen)-1]
	if last.Class != fx.derived || last.Instance != tally || last.Args[0] != fx.derived {
		t.Fatalf("ctx = class %v instance %v args %v", last.Class, last.Instance, last.Args)
	}

	raw, _ := fx.class.Lookup("create")
	unbound := raw.(*JoinPoint)
	if _, err := unbound.Call(nil, nil); !errors.Is(err, ErrUnboundCall) {
		t.Fatalf("class method without class: err = %v", err)
	}
}

func TestStaticMethodInjectsNothing(t *testing.T) {
	fx := newCounterFixture(t)
	c := runtime.NewInstance(fx.class)
	got, err := fx.member(t, c, "double").Invoke([]any{21}, nil)
	if err != nil || got != 42 {
		t.Fatalf("double(21) = %v, %v", got, err)
	}
	ctx := fx.seen[0]
	if len(ctx.Args) != 1 || ctx.Instance != c || ctx.Class != fx.class {
		t.Fatalf("static ctx = args %v instance %v class %v", ctx.Args, ctx.Instance, ctx.Class)
	}
	got, err = fx.member(t, fx.class, "double").Invoke([]any{4}, nil)
	if err != nil || got != 8 {
		t.Fatalf("Counter.double(4) = %v, %v", got, err)
	}
}

func TestRebindingYieldsFreshBinding(t *testing.T) {
	fx := newCounterFixture(t)
	a := runtime.NewInstance(fx.class)
	b := runtime.NewInstance(fx.class)

	boundA := fx.member(t, a, "bump").(*BoundJoinPoint)
	boundB := boundA.Get(b, fx.class).(*BoundJoinPoint)
	if boundA == boundB {
		t.Fatal("re-access returned the same binding")
	}
	if boundA.Binding().Instance != a || boundB.Binding().Instance != b {
		t.Fatalf("bindings = %v / %v", boundA.Binding().Instance, boundB.Binding().Instance)
	}
	if boundA.JoinPoint() != boundB.JoinPoint() {
		t.Fatal("bindings should share one definition")
	}
	if _, err := boundA.Invoke(nil, nil); err != nil {
		t.Fatalf("boundA(): %v", err)
	}
	if a.Fields["n"] != 1 || b.Fields["n"] != nil {
		t.Fatalf("a.n=%v b.n=%v after boundA()", a.Fields["n"], b.Fields["n"])
	}
}

func TestConcurrentBindingsDoNotLeakInstances(t *testing.T) {
	fx := newCounterFixture(t)
	leaks := make(chan string, 1)
	mustRegister(t, fx.reg, `^shop\.Counter\.bump$`, OnCall(func(ctx *CallContext, _ any) (any, error) {
		if ctx.Args[0] != ctx.Instance {
			select {
			case leaks <- fmt.Sprintf("args[0]=%v instance=%v", ctx.Args[0], ctx.Instance):
			default:
			}
		}
		return nil, nil
	}))

	instances := make([]*runtime.Instance, 8)
	for i := range instances {
		instances[i] = runtime.NewInstance(fx.class)
	}
	var g errgroup.Group
	for _, inst := range instances {
		inst := inst
		g.Go(func() error {
			for i := 0; i < 100; i++ {
				m, err := inst.Member("bump")
				if err != nil {
					return err
				}
				ret, err := m.(runtime.Callable).Invoke(nil, nil)
				if err != nil {
					return err
				}
				if ret != inst {
					return fmt.Errorf("bump returned %v, want %v", ret, inst)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	select {
	case leak := <-leaks:
		t.Fatalf("binding leaked across calls: %s", leak)
	default:
	}
	for _, inst := range instances {
		if inst.Fields["n"] != 100 {
			t.Fatalf("%v n = %v, want 100", inst, inst.Fields["n"])
		}
	}
}

func TestPlainMethodsBindWithoutInterception(t *testing.T) {
	cls := runtime.NewClass("shop", "Plain", nil)
	cls.Define("id", &runtime.FunctionValue{
		Module: "shop", Owner: "Plain", Name: "id",
		Impl: func(args []any, _ *runtime.Kwargs) (any, error) { return args[0], nil },
	})
	inst := runtime.NewInstance(cls)
	got, err := inst.Call("id", nil, nil)
	if err != nil || got != inst {
		t.Fatalf("inst.id() = %v, %v", got, err)
	}
}

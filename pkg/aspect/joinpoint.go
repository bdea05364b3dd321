package aspect

import (
	"context"

	"able/aspect-go/pkg/logger"
	"able/aspect-go/pkg/runtime"
)

// Option configures Wrap.
type Option func(*wrapConfig)

type wrapConfig struct {
	kind     MethodKind
	kindSet  bool
	registry *Registry
	override *bool
	log      *logger.Logger
}

// WithMethodKind declares the calling convention of the wrapped callable.
func WithMethodKind(kind MethodKind) Option {
	return func(c *wrapConfig) {
		c.kind = kind
		c.kindSet = true
	}
}

// WithRegistry matches against registry instead of the process-wide one.
func WithRegistry(registry *Registry) Option {
	return func(c *wrapConfig) { c.registry = registry }
}

// WithOptimized pins optimized mode for this JoinPoint, ignoring SetOptimized.
func WithOptimized(on bool) Option {
	return func(c *wrapConfig) { c.override = &on }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *wrapConfig) { c.log = l }
}

// JoinPoint is the interception-capable form of a callable. It holds only
// immutable definition data; all per-call state is built inside Call.
type JoinPoint struct {
	target  runtime.Callable
	inner   runtime.Callable
	kind    MethodKind
	bound   *Binding
	matcher *Matcher
}

// Wrap turns c into a JoinPoint. When c is itself wrapped, the Unwrap chain is
// followed to the original callable, which provides the qualified name and
// signature and is the callable finally invoked. Without WithMethodKind a
// wrapped JoinPoint keeps the method kind of the one it wraps, and wrapping a
// bound JoinPoint keeps its access path, so the result is called like the
// bound value itself.
func Wrap(c runtime.Callable, opts ...Option) *JoinPoint {
	if c == nil {
		panic("aspect.Wrap: nil callable")
	}
	cfg := wrapConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var bound *Binding
	if !cfg.kindSet {
		switch prev := c.(type) {
		case *JoinPoint:
			cfg.kind = prev.kind
			bound = prev.bound
		case *BoundJoinPoint:
			cfg.kind = prev.jp.kind
			b := prev.binding
			bound = &b
		}
	}
	if cfg.log == nil {
		cfg.log = logger.Nop()
	}
	m := NewMatcher(cfg.registry, cfg.log)
	m.override = cfg.override
	return &JoinPoint{
		target:  c,
		inner:   runtime.Innermost(c),
		kind:    cfg.kind,
		bound:   bound,
		matcher: m,
	}
}

func (jp *JoinPoint) QualifiedName() string { return jp.inner.QualifiedName() }

// Signature is the signature callers see: the receiver slot is hidden when a
// kept access path supplies it.
func (jp *JoinPoint) Signature() *runtime.Signature {
	if jp.bound != nil && jp.bound.injects() {
		return jp.inner.Signature().WithoutReceiver()
	}
	return jp.inner.Signature()
}

// Unwrap returns the callable given to Wrap.
func (jp *JoinPoint) Unwrap() runtime.Callable { return jp.target }

func (jp *JoinPoint) MethodKind() MethodKind { return jp.kind }

func (jp *JoinPoint) Matcher() *Matcher { return jp.matcher }

// Bind produces a fresh binding of the JoinPoint for one access path. instance
// is nil when accessed through owner alone.
func (jp *JoinPoint) Bind(instance *runtime.Instance, owner *runtime.Class) *BoundJoinPoint {
	return &BoundJoinPoint{jp: jp, binding: resolveBinding(jp.kind, instance, owner)}
}

// Get implements runtime.Descriptor so class member access re-binds.
func (jp *JoinPoint) Get(instance *runtime.Instance, owner *runtime.Class) runtime.Callable {
	return jp.Bind(instance, owner)
}

// Call invokes the JoinPoint without an access path.
func (jp *JoinPoint) Call(args []any, kwargs *runtime.Kwargs) (any, error) {
	return jp.InvokeContext(context.Background(), args, kwargs)
}

func (jp *JoinPoint) Invoke(args []any, kwargs *runtime.Kwargs) (any, error) {
	return jp.Call(args, kwargs)
}

// InvokeContext is Call with a caller context. Advice sees it through
// CallContext.Context and the callable receives it when it accepts one.
func (jp *JoinPoint) InvokeContext(ctx context.Context, args []any, kwargs *runtime.Kwargs) (any, error) {
	b := Binding{Kind: jp.kind}
	if jp.bound != nil {
		b = *jp.bound
	}
	return jp.call(ctx, b, args, kwargs)
}

func (jp *JoinPoint) call(parent context.Context, b Binding, args []any, kwargs *runtime.Kwargs) (result any, err error) {
	if parent == nil {
		parent = context.Background()
	}
	name := jp.inner.QualifiedName()
	effective, cls, inst, err := b.apply(name, args)
	if err != nil {
		return nil, err
	}
	if jp.matcher.Optimized() {
		return runtime.InvokeContext(parent, jp.inner, effective, kwargs)
	}

	descriptors, err := BindArguments(name, jp.inner.Signature(), effective, kwargs)
	if err != nil {
		return nil, err
	}
	ctx := newCallContext(parent, jp.inner, cls, inst, effective, kwargs, descriptors, jp.matcher.registry.snapshot())
	defer func() { ctx.finish(result, err) }()

	proceed, err := jp.matcher.HandleCall(ctx)
	if err != nil {
		return nil, err
	}
	if !proceed {
		ctx.vetoed = true
		return runtime.None, nil
	}

	ret, err := runtime.InvokeContext(ctx.Context(), jp.inner, ctx.Args, ctx.Kwargs)
	if err != nil {
		return nil, err
	}
	return jp.matcher.HandleReturn(ctx, ret)
}

// BoundJoinPoint is a JoinPoint seen through one access path.
type BoundJoinPoint struct {
	jp      *JoinPoint
	binding Binding
}

func (b *BoundJoinPoint) QualifiedName() string { return b.jp.QualifiedName() }

// Signature omits the receiver the binding injects.
func (b *BoundJoinPoint) Signature() *runtime.Signature {
	if b.binding.injects() {
		return b.jp.inner.Signature().WithoutReceiver()
	}
	return b.jp.inner.Signature()
}

// Unwrap returns the definition this binding was produced from.
func (b *BoundJoinPoint) Unwrap() runtime.Callable { return b.jp }

// JoinPoint returns the definition this binding was produced from.
func (b *BoundJoinPoint) JoinPoint() *JoinPoint { return b.jp }

// Binding returns the access path this value was produced for.
func (b *BoundJoinPoint) Binding() Binding { return b.binding }

// Get re-binds the underlying JoinPoint for a new access path; the receiver is
// left untouched.
func (b *BoundJoinPoint) Get(instance *runtime.Instance, owner *runtime.Class) runtime.Callable {
	return b.jp.Bind(instance, owner)
}

func (b *BoundJoinPoint) Call(args []any, kwargs *runtime.Kwargs) (any, error) {
	return b.InvokeContext(context.Background(), args, kwargs)
}

func (b *BoundJoinPoint) Invoke(args []any, kwargs *runtime.Kwargs) (any, error) {
	return b.Call(args, kwargs)
}

func (b *BoundJoinPoint) InvokeContext(ctx context.Context, args []any, kwargs *runtime.Kwargs) (any, error) {
	return b.jp.call(ctx, b.binding, args, kwargs)
}

package aspect

import (
	"context"

	"github.com/google/uuid"

	"able/aspect-go/pkg/runtime"
)

// CallContext is the record of one invocation handed to advice. It is created
// per call and never shared between calls. Call advice may rewrite Args and
// Kwargs; the callable is invoked with whatever they hold once Call advice has
// run. Descriptors always describe the arguments as supplied by the caller.
type CallContext struct {
	ID          uuid.UUID
	Name        string
	Class       *runtime.Class
	Instance    *runtime.Instance
	Function    runtime.Callable
	Args        []any
	Kwargs      *runtime.Kwargs
	Descriptors []ParameterDescriptor

	ctx      context.Context
	snapshot []*Aspect
	matches  []*Aspect
	matched  bool
	vetoed   bool
	attrs    map[string]any
	after    []func(result any, err error)
}

func newCallContext(ctx context.Context, fn runtime.Callable, cls *runtime.Class, inst *runtime.Instance, args []any, kwargs *runtime.Kwargs, descriptors []ParameterDescriptor, snapshot []*Aspect) *CallContext {
	own := make([]any, len(args))
	copy(own, args)
	return &CallContext{
		ID:          uuid.New(),
		Name:        fn.QualifiedName(),
		Class:       cls,
		Instance:    inst,
		Function:    fn,
		Args:        own,
		Kwargs:      kwargs.Clone(),
		Descriptors: descriptors,
		ctx:         ctx,
		snapshot:    snapshot,
	}
}

// Context returns the context the invocation was started with, or the one
// advice last installed with SetContext. The callable runs with it.
func (c *CallContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// SetContext replaces the invocation's context, e.g. with one carrying a span.
func (c *CallContext) SetContext(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
}

// Set stores an invocation-local attribute, visible to later advice of the
// same call only.
func (c *CallContext) Set(key string, value any) {
	if c.attrs == nil {
		c.attrs = make(map[string]any)
	}
	c.attrs[key] = value
}

func (c *CallContext) Get(key string) (any, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// AfterCall registers fn to run once the invocation has finished, whether it
// returned, failed or was vetoed. Callbacks run in reverse registration order
// and see the final result and error.
func (c *CallContext) AfterCall(fn func(result any, err error)) {
	c.after = append(c.after, fn)
}

// Vetoed reports whether Call advice suppressed the invocation. It is only
// meaningful from AfterCall callbacks.
func (c *CallContext) Vetoed() bool { return c.vetoed }

func (c *CallContext) finish(result any, err error) {
	for i := len(c.after) - 1; i >= 0; i-- {
		c.after[i](result, err)
	}
}

// Descriptor finds a parameter descriptor by name.
func (c *CallContext) Descriptor(name string) (ParameterDescriptor, bool) {
	for _, d := range c.Descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return ParameterDescriptor{}, false
}

// Aspects returns the aspects matching this call, computed once from the
// registry snapshot taken when the call started.
func (c *CallContext) Aspects() []*Aspect {
	if !c.matched {
		c.matches = matchAspects(c.snapshot, c.Name)
		c.matched = true
	}
	return c.matches
}

package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNone Kind = iota
	KindFunction
	KindBoundMethod
	KindClass
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFunction:
		return "function"
	case KindBoundMethod:
		return "bound_method"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for the runtime's own object types. Plain Go
// values (ints, strings, slices) travel through calls untouched as `any`.
type Value interface {
	Kind() Kind
}

// NoneValue is the "no defined value" sentinel.
type NoneValue struct{}

func (NoneValue) Kind() Kind { return KindNone }

func (NoneValue) String() string { return "None" }

// None is the singleton sentinel returned when a call produced no value.
var None = NoneValue{}

// IsNone reports whether v is nil or the None sentinel.
func IsNone(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NoneValue)
	return ok
}

//-----------------------------------------------------------------------------
// Callables
//-----------------------------------------------------------------------------

// NativeFunc implements a callable body. It receives the positional and keyword
// arguments exactly as the caller supplied them.
type NativeFunc func(args []any, kwargs *Kwargs) (any, error)

// Callable is anything the runtime can invoke with positional and keyword
// arguments.
type Callable interface {
	QualifiedName() string
	Signature() *Signature
	Invoke(args []any, kwargs *Kwargs) (any, error)
}

// ContextFunc is a callable body that also receives the caller's context, so
// nested calls can carry it on.
type ContextFunc func(ctx context.Context, args []any, kwargs *Kwargs) (any, error)

// ContextInvoker is implemented by callables that accept a context.
type ContextInvoker interface {
	InvokeContext(ctx context.Context, args []any, kwargs *Kwargs) (any, error)
}

// InvokeContext calls c with ctx when it accepts one, and plainly otherwise.
func InvokeContext(ctx context.Context, c Callable, args []any, kwargs *Kwargs) (any, error) {
	if ci, ok := c.(ContextInvoker); ok {
		return ci.InvokeContext(ctx, args, kwargs)
	}
	return c.Invoke(args, kwargs)
}

// Unwrapper is implemented by callables that decorate another callable.
type Unwrapper interface {
	Unwrap() Callable
}

// maxUnwrapDepth bounds Innermost so a cyclic chain cannot spin forever.
const maxUnwrapDepth = 1024

// Innermost follows the Unwrap chain of c to the original callable.
func Innermost(c Callable) Callable {
	for depth := 0; c != nil && depth < maxUnwrapDepth; depth++ {
		u, ok := c.(Unwrapper)
		if !ok {
			return c
		}
		next := u.Unwrap()
		if next == nil {
			return c
		}
		c = next
	}
	return c
}

// FunctionValue is a native function or method definition. One of Impl or
// ImplContext provides the body; ImplContext wins when both are set.
type FunctionValue struct {
	Module      string
	Owner       string // declaring class name, empty for free functions
	Name        string
	Params      *Signature
	Impl        NativeFunc
	ImplContext ContextFunc
}

func (f *FunctionValue) Kind() Kind { return KindFunction }

// QualifiedName renders module.[Owner.]name.
func (f *FunctionValue) QualifiedName() string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if f.Module != "" {
		parts = append(parts, f.Module)
	}
	if f.Owner != "" {
		parts = append(parts, f.Owner)
	}
	parts = append(parts, f.Name)
	return strings.Join(parts, ".")
}

func (f *FunctionValue) Signature() *Signature {
	if f == nil || f.Params == nil {
		return emptySignature
	}
	return f.Params
}

func (f *FunctionValue) Invoke(args []any, kwargs *Kwargs) (any, error) {
	return f.InvokeContext(context.Background(), args, kwargs)
}

func (f *FunctionValue) InvokeContext(ctx context.Context, args []any, kwargs *Kwargs) (any, error) {
	switch {
	case f == nil:
		return nil, fmt.Errorf("nil function has no implementation")
	case f.ImplContext != nil:
		return f.ImplContext(ctx, args, kwargs)
	case f.Impl != nil:
		return f.Impl(args, kwargs)
	default:
		return nil, fmt.Errorf("function %q has no implementation", f.QualifiedName())
	}
}

func (f *FunctionValue) String() string {
	return fmt.Sprintf("<function %s%s>", f.QualifiedName(), f.Signature())
}

// BoundMethodValue captures a receiver and a plain method. The receiver is
// prepended to the positional arguments on every invocation.
type BoundMethodValue struct {
	Receiver any
	Method   Callable
}

func (v *BoundMethodValue) Kind() Kind { return KindBoundMethod }

func (v *BoundMethodValue) QualifiedName() string { return v.Method.QualifiedName() }

// Signature describes the parameters left for the caller once the receiver
// has been supplied.
func (v *BoundMethodValue) Signature() *Signature { return v.Method.Signature().WithoutReceiver() }

func (v *BoundMethodValue) Invoke(args []any, kwargs *Kwargs) (any, error) {
	return v.InvokeContext(context.Background(), args, kwargs)
}

func (v *BoundMethodValue) InvokeContext(ctx context.Context, args []any, kwargs *Kwargs) (any, error) {
	full := make([]any, 0, len(args)+1)
	full = append(full, v.Receiver)
	full = append(full, args...)
	return InvokeContext(ctx, v.Method, full, kwargs)
}

// Descriptor is implemented by class members that produce a fresh binding on
// every attribute access. instance is nil when the member is read through the
// class.
type Descriptor interface {
	Get(instance *Instance, owner *Class) Callable
}

//-----------------------------------------------------------------------------
// Classes and instances
//-----------------------------------------------------------------------------

// Class is a named type with a method table and optional single base.
type Class struct {
	Module string
	Name   string
	Base   *Class

	mu      sync.RWMutex
	members map[string]any
}

// NewClass constructs an empty class.
func NewClass(module, name string, base *Class) *Class {
	return &Class{Module: module, Name: name, Base: base, members: make(map[string]any)}
}

func (c *Class) Kind() Kind { return KindClass }

func (c *Class) QualifiedName() string {
	if c.Module == "" {
		return c.Name
	}
	return c.Module + "." + c.Name
}

func (c *Class) String() string { return "<class " + c.QualifiedName() + ">" }

// Define installs a member on the class, replacing any previous definition.
func (c *Class) Define(name string, member any) {
	c.mu.Lock()
	if c.members == nil {
		c.members = make(map[string]any)
	}
	c.members[name] = member
	c.mu.Unlock()
}

// Lookup finds a member on the class or its bases without binding it.
func (c *Class) Lookup(name string) (any, bool) {
	for cls := c; cls != nil; cls = cls.Base {
		cls.mu.RLock()
		member, ok := cls.members[name]
		cls.mu.RUnlock()
		if ok {
			return member, true
		}
	}
	return nil, false
}

// Member reads an attribute through the class.
func (c *Class) Member(name string) (any, error) {
	member, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("class %s has no member '%s'", c.QualifiedName(), name)
	}
	if d, ok := member.(Descriptor); ok {
		return d.Get(nil, c), nil
	}
	return member, nil
}

// IsSubclassOf reports whether c is other or derives from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cls := c; cls != nil; cls = cls.Base {
		if cls == other {
			return true
		}
	}
	return false
}

// Instance is a value of a Class.
type Instance struct {
	Class  *Class
	Fields map[string]any
}

// NewInstance allocates an instance with no fields set.
func NewInstance(cls *Class) *Instance {
	return &Instance{Class: cls, Fields: make(map[string]any)}
}

func (i *Instance) Kind() Kind { return KindInstance }

func (i *Instance) String() string {
	if i.Class == nil {
		return "<instance>"
	}
	return "<" + i.Class.QualifiedName() + " instance>"
}

// Member reads an attribute through the instance. Fields shadow class members;
// plain callables become bound methods and descriptors are re-bound on every
// access.
func (i *Instance) Member(name string) (any, error) {
	if v, ok := i.Fields[name]; ok {
		return v, nil
	}
	if i.Class == nil {
		return nil, fmt.Errorf("instance has no class")
	}
	member, ok := i.Class.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s has no member '%s'", i.Class.QualifiedName(), name)
	}
	switch m := member.(type) {
	case Descriptor:
		return m.Get(i, i.Class), nil
	case Callable:
		return &BoundMethodValue{Receiver: i, Method: m}, nil
	default:
		return member, nil
	}
}

// Call looks up a method through the instance and invokes it.
func (i *Instance) Call(name string, args []any, kwargs *Kwargs) (any, error) {
	member, err := i.Member(name)
	if err != nil {
		return nil, err
	}
	fn, ok := member.(Callable)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not callable", i.Class.QualifiedName(), name)
	}
	return fn.Invoke(args, kwargs)
}

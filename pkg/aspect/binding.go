package aspect

import (
	"fmt"

	"able/aspect-go/pkg/runtime"
)

// MethodKind is the declared calling convention of a wrapped callable.
type MethodKind int

const (
	// MethodNone is a free function: nothing is ever injected.
	MethodNone MethodKind = iota
	// MethodInstance receives the owning instance as first argument.
	MethodInstance
	// MethodClass receives the class it was accessed through as first argument.
	MethodClass
	// MethodStatic receives no implicit argument.
	MethodStatic
)

func (k MethodKind) String() string {
	switch k {
	case MethodNone:
		return "function"
	case MethodInstance:
		return "instance"
	case MethodClass:
		return "class"
	case MethodStatic:
		return "static"
	default:
		return fmt.Sprintf("unknown_method_kind_%d", int(k))
	}
}

// Binding is the immutable result of accessing a wrapped callable through a
// class or an instance. A new Binding is produced on every access; nothing
// about one access is ever visible to another.
type Binding struct {
	Kind     MethodKind
	Class    *runtime.Class
	Instance *runtime.Instance
}

// resolveBinding records what an access path supplies. instance may be nil
// (access through the class); owner falls back to the instance's class.
func resolveBinding(kind MethodKind, instance *runtime.Instance, owner *runtime.Class) Binding {
	if owner == nil && instance != nil {
		owner = instance.Class
	}
	return Binding{Kind: kind, Class: owner, Instance: instance}
}

// injects reports whether apply prepends an implicit first argument.
func (b Binding) injects() bool {
	switch b.Kind {
	case MethodInstance:
		return b.Instance != nil
	case MethodClass:
		return b.Class != nil
	default:
		return false
	}
}

// apply computes the effective positional arguments for one invocation and the
// class/instance to report in its call context. args is never modified.
func (b Binding) apply(name string, args []any) ([]any, *runtime.Class, *runtime.Instance, error) {
	switch b.Kind {
	case MethodClass:
		if b.Class == nil {
			return nil, nil, nil, &UnboundCallError{Function: name, Reason: "class method called without an owning class"}
		}
		return prepend(b.Class, args), b.Class, b.Instance, nil
	case MethodInstance:
		if b.Instance != nil {
			return prepend(b.Instance, args), b.Class, b.Instance, nil
		}
		if len(args) == 0 {
			return nil, nil, nil, &UnboundCallError{Function: name}
		}
		inst, ok := args[0].(*runtime.Instance)
		if !ok || inst == nil {
			return nil, nil, nil, &UnboundCallError{
				Function: name,
				Reason:   fmt.Sprintf("first argument must be an instance, got %T", args[0]),
			}
		}
		if b.Class != nil && inst.Class != nil && !inst.Class.IsSubclassOf(b.Class) {
			return nil, nil, nil, &UnboundCallError{
				Function: name,
				Reason:   fmt.Sprintf("first argument must be a %s instance, got %s", b.Class.QualifiedName(), inst.Class.QualifiedName()),
			}
		}
		cls := b.Class
		if cls == nil {
			cls = inst.Class
		}
		return args, cls, inst, nil
	default:
		// Static methods and free functions: class and instance are diagnostic only.
		return args, b.Class, b.Instance, nil
	}
}

func prepend(first any, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, first)
	return append(out, args...)
}

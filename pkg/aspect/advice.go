package aspect

import (
	"errors"
	"fmt"
	"strings"
)

// Event selects the phase of an intercepted call an advice runs in.
type Event int

const (
	EventCall Event = iota
	EventReturn
)

func (e Event) String() string {
	switch e {
	case EventCall:
		return "call"
	case EventReturn:
		return "return"
	default:
		return fmt.Sprintf("unknown_event_%d", int(e))
	}
}

// ParseEvent accepts "call" or "return", case-insensitively.
func ParseEvent(s string) (Event, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return EventCall, nil
	case "return":
		return EventReturn, nil
	default:
		return EventCall, fmt.Errorf("unknown advice event %q (expected call or return)", s)
	}
}

// AdviceFunc is the plain-function form of advice. For Call advice ret is nil
// and an explicit false result vetoes the call. For Return advice ret is the
// current return value and the result replaces it.
type AdviceFunc func(ctx *CallContext, ret any) (any, error)

// AdviceHandler is the object form of advice: constructed per call by a
// HandlerFactory, then asked for its result.
type AdviceHandler interface {
	Aspect() (any, error)
}

// HandlerFactory constructs an AdviceHandler for one invocation.
type HandlerFactory func(ctx *CallContext, ret any) (AdviceHandler, error)

// Capability is the callback of an advice: exactly one of a function or a
// handler factory. Build one with Function or Handler.
type Capability struct {
	fn      AdviceFunc
	factory HandlerFactory
}

// Function wraps a plain advice function.
func Function(fn AdviceFunc) Capability { return Capability{fn: fn} }

// Handler wraps a handler factory.
func Handler(factory HandlerFactory) Capability { return Capability{factory: factory} }

// IsHandler reports whether the capability is the handler variant.
func (c Capability) IsHandler() bool { return c.factory != nil }

func (c Capability) valid() bool { return (c.fn == nil) != (c.factory == nil) }

func (c Capability) invoke(ctx *CallContext, ret any) (any, error) {
	if c.fn != nil {
		return c.fn(ctx, ret)
	}
	h, err := c.factory(ctx, ret)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("aspect: handler factory for %s returned nil", ctx.Name)
	}
	return h.Aspect()
}

// Advice binds a capability to one event.
type Advice struct {
	Event      Event
	Capability Capability
}

// OnCall builds Call advice from a function.
func OnCall(fn AdviceFunc) Advice {
	return Advice{Event: EventCall, Capability: Function(fn)}
}

// OnReturn builds Return advice from a function.
func OnReturn(fn AdviceFunc) Advice {
	return Advice{Event: EventReturn, Capability: Function(fn)}
}

func (a Advice) validate() error {
	if a.Event != EventCall && a.Event != EventReturn {
		return fmt.Errorf("aspect: advice has unknown event %d", int(a.Event))
	}
	if !a.Capability.valid() {
		return errors.New("aspect: advice must have exactly one of a function or a handler")
	}
	return nil
}

// Aspect pairs a point-cut with ordered advice. Aspects are immutable once
// constructed.
type Aspect struct {
	Name    string
	pattern *Pattern
	advice  []Advice
}

// NewAspect compiles pattern and validates advice. The advice slice is copied.
func NewAspect(pattern string, advice ...Advice) (*Aspect, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	for i, a := range advice {
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("%w (advice %d of %q)", err, i, pattern)
		}
	}
	out := make([]Advice, len(advice))
	copy(out, advice)
	return &Aspect{pattern: p, advice: out}, nil
}

// Named returns a copy of the aspect carrying a label for diagnostics.
func (a *Aspect) Named(name string) *Aspect {
	cp := *a
	cp.Name = name
	return &cp
}

func (a *Aspect) Pattern() *Pattern { return a.pattern }

// Advice returns a copy of the advice list.
func (a *Aspect) Advice() []Advice {
	out := make([]Advice, len(a.advice))
	copy(out, a.advice)
	return out
}

// Matches reports whether the aspect's point-cut selects qualifiedName.
func (a *Aspect) Matches(qualifiedName string) bool {
	return a.pattern.Match(qualifiedName)
}

func (a *Aspect) String() string {
	label := a.Name
	if label == "" {
		label = "aspect"
	}
	return fmt.Sprintf("%s(%s, %d advice)", label, a.pattern, len(a.advice))
}

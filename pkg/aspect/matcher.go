package aspect

import (
	"sync/atomic"

	"able/aspect-go/pkg/logger"
)

var optimized atomic.Bool

// SetOptimized flips the process-wide optimized mode. While it is on, matching
// is skipped and wrapped callables run unintercepted, unless a JoinPoint was
// built WithOptimized.
func SetOptimized(on bool) { optimized.Store(on) }

// Optimized reports the process-wide optimized mode.
func Optimized() bool { return optimized.Load() }

// Matcher evaluates the advice of matching aspects for one event.
type Matcher struct {
	registry *Registry
	override *bool
	log      *logger.Logger
}

// NewMatcher builds a matcher over registry (the process-wide one when nil).
func NewMatcher(registry *Registry, log *logger.Logger) *Matcher {
	if registry == nil {
		registry = defaultRegistry
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Matcher{registry: registry, log: log}
}

// Registry returns the registry the matcher reads.
func (m *Matcher) Registry() *Registry { return m.registry }

// Optimized reports whether matching is disabled for this matcher.
func (m *Matcher) Optimized() bool {
	if m.override != nil {
		return *m.override
	}
	return Optimized()
}

// HandleCall runs every Call advice of every matching aspect, in registry then
// advice order. It returns false when any advice returned an explicit false;
// the remaining advice still runs. The first advice error stops the chain and
// is returned unchanged.
func (m *Matcher) HandleCall(ctx *CallContext) (bool, error) {
	if m.Optimized() {
		return true, nil
	}
	proceed := true
	for _, a := range ctx.Aspects() {
		for _, adv := range a.advice {
			if adv.Event != EventCall {
				continue
			}
			result, err := adv.Capability.invoke(ctx, nil)
			if err != nil {
				return false, err
			}
			if veto, ok := result.(bool); ok && !veto {
				proceed = false
			}
		}
	}
	if !proceed {
		m.log.Debug("call vetoed", "function", ctx.Name, "invocation", ctx.ID.String())
	}
	return proceed, nil
}

// HandleReturn folds ret through every Return advice of every matching aspect,
// left to right in registry then advice order.
func (m *Matcher) HandleReturn(ctx *CallContext, ret any) (any, error) {
	if m.Optimized() {
		return ret, nil
	}
	current := ret
	for _, a := range ctx.Aspects() {
		for _, adv := range a.advice {
			if adv.Event != EventReturn {
				continue
			}
			next, err := adv.Capability.invoke(ctx, current)
			if err != nil {
				return nil, err
			}
			current = next
		}
	}
	return current, nil
}

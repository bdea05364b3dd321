package aspect

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"able/aspect-go/pkg/logger"
)

// Registry is an ordered, append-only list of aspects. Registration order is
// evaluation order. Reads are lock-free: every append publishes a new slice,
// so a snapshot returned by All never changes.
type Registry struct {
	mu      sync.Mutex
	aspects atomic.Pointer[[]*Aspect]
	log     atomic.Pointer[logger.Logger]
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := []*Aspect{}
	r.aspects.Store(&empty)
	r.log.Store(logger.Nop())
	return r
}

// SetLogger routes registration diagnostics to l.
func (r *Registry) SetLogger(l *logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	r.log.Store(l)
}

// Register compiles pattern and appends a new aspect. Pattern errors surface
// here as *MatchPatternError.
func (r *Registry) Register(pattern string, advice ...Advice) (*Aspect, error) {
	a, err := NewAspect(pattern, advice...)
	if err != nil {
		return nil, err
	}
	if err := r.Add(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Add appends a constructed aspect.
func (r *Registry) Add(a *Aspect) error {
	if a == nil || a.pattern == nil {
		return errors.New("aspect: cannot register an aspect without a pattern")
	}
	r.mu.Lock()
	old := *r.aspects.Load()
	next := make([]*Aspect, len(old), len(old)+1)
	copy(next, old)
	next = append(next, a)
	r.aspects.Store(&next)
	r.mu.Unlock()

	r.log.Load().Debug("aspect registered",
		"name", a.Name,
		"pattern", a.pattern.String(),
		"advice", len(a.advice),
		"position", len(next)-1,
	)
	return nil
}

// All returns a copy of the current snapshot in registration order.
func (r *Registry) All() []*Aspect {
	return slices.Clone(r.snapshot())
}

// snapshot returns the shared published slice; callers must not modify it.
func (r *Registry) snapshot() []*Aspect {
	return *r.aspects.Load()
}

func (r *Registry) Len() int {
	return len(r.snapshot())
}

// Matching returns, in registration order, the aspects of the current
// snapshot whose point-cut selects qualifiedName.
func (r *Registry) Matching(qualifiedName string) []*Aspect {
	return matchAspects(r.snapshot(), qualifiedName)
}

func matchAspects(snapshot []*Aspect, qualifiedName string) []*Aspect {
	var out []*Aspect
	for _, a := range snapshot {
		if a.Matches(qualifiedName) {
			out = append(out, a)
		}
	}
	return out
}

var defaultRegistry = NewRegistry()

// Default is the process-wide registry used by Wrap unless WithRegistry is
// given.
func Default() *Registry { return defaultRegistry }

// RegisterAspect registers an aspect on the process-wide registry.
func RegisterAspect(pattern string, advice ...Advice) (*Aspect, error) {
	return defaultRegistry.Register(pattern, advice...)
}

package driver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"able/aspect-go/pkg/advice"
	"able/aspect-go/pkg/aspect"
	"able/aspect-go/pkg/logger"
)

const tracerName = "able/aspect-go"

// BuildFunc produces the advice for one manifest entry. The event has already
// been validated against the entry's accepted events.
type BuildFunc func(event aspect.Event, arg string) ([]aspect.Advice, error)

// CatalogEntry describes one named advice a manifest may use.
type CatalogEntry struct {
	Name        string
	Events      []aspect.Event
	ArgRequired bool
	Build       BuildFunc
}

func (e CatalogEntry) accepts(event aspect.Event) bool {
	for _, ev := range e.Events {
		if ev == event {
			return true
		}
	}
	return false
}

// Catalog maps manifest advice names to constructors.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]CatalogEntry
	counter *advice.Counter
}

// CatalogOptions supplies the collaborators of the built-in entries. Zero
// values fall back to a discarding logger, the global tracer provider and a
// fresh counter.
type CatalogOptions struct {
	Logger  *logger.Logger
	Tracer  trace.Tracer
	Counter *advice.Counter
}

// NewCatalog returns a catalog holding the built-in entries: log, trace,
// count, deny, suffix and require.
func NewCatalog(opts CatalogOptions) *Catalog {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Counter == nil {
		opts.Counter = advice.NewCounter()
	}
	c := &Catalog{entries: make(map[string]CatalogEntry), counter: opts.Counter}
	logAdvice := advice.Log(opts.Logger)

	c.Register(CatalogEntry{
		Name:   "log",
		Events: []aspect.Event{aspect.EventCall, aspect.EventReturn},
		Build: func(event aspect.Event, _ string) ([]aspect.Advice, error) {
			for _, adv := range logAdvice {
				if adv.Event == event {
					return []aspect.Advice{adv}, nil
				}
			}
			return nil, fmt.Errorf("log has no %s advice", event)
		},
	})
	c.Register(CatalogEntry{
		Name:   "trace",
		Events: []aspect.Event{aspect.EventCall},
		Build: func(aspect.Event, string) ([]aspect.Advice, error) {
			return []aspect.Advice{advice.Trace(opts.Tracer)}, nil
		},
	})
	c.Register(CatalogEntry{
		Name:   "count",
		Events: []aspect.Event{aspect.EventCall},
		Build: func(aspect.Event, string) ([]aspect.Advice, error) {
			return []aspect.Advice{opts.Counter.Advice()}, nil
		},
	})
	c.Register(CatalogEntry{
		Name:   "deny",
		Events: []aspect.Event{aspect.EventCall},
		Build: func(aspect.Event, string) ([]aspect.Advice, error) {
			return []aspect.Advice{advice.Deny()}, nil
		},
	})
	c.Register(CatalogEntry{
		Name:        "suffix",
		Events:      []aspect.Event{aspect.EventReturn},
		ArgRequired: true,
		Build: func(_ aspect.Event, arg string) ([]aspect.Advice, error) {
			return []aspect.Advice{advice.Suffix(arg)}, nil
		},
	})
	c.Register(CatalogEntry{
		Name:        "require",
		Events:      []aspect.Event{aspect.EventCall},
		ArgRequired: true,
		Build: func(_ aspect.Event, arg string) ([]aspect.Advice, error) {
			return []aspect.Advice{advice.Require(strings.TrimSpace(arg))}, nil
		},
	})
	return c
}

// Register adds or replaces an entry.
func (c *Catalog) Register(entry CatalogEntry) {
	name := strings.ToLower(strings.TrimSpace(entry.Name))
	entry.Name = name
	c.mu.Lock()
	c.entries[name] = entry
	c.mu.Unlock()
}

func (c *Catalog) lookup(name string) (CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[name]
	return entry, ok
}

// Names lists the registered entries in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Counter returns the counter behind the count entry.
func (c *Catalog) Counter() *advice.Counter { return c.counter }

func (c *Catalog) check(spec AdviceSpec) string {
	entry, ok := c.lookup(spec.Use)
	if !ok {
		return fmt.Sprintf("unknown advice %q (known: %s)", spec.Use, strings.Join(c.Names(), ", "))
	}
	event, err := aspect.ParseEvent(spec.Event)
	if err != nil {
		return ""
	}
	if !entry.accepts(event) {
		return fmt.Sprintf("advice %q cannot run on %s", spec.Use, event)
	}
	if entry.ArgRequired && strings.TrimSpace(spec.Arg) == "" {
		return fmt.Sprintf("advice %q requires an arg", spec.Use)
	}
	return ""
}

// Build constructs the advice for one manifest entry.
func (c *Catalog) Build(spec AdviceSpec) ([]aspect.Advice, error) {
	if issue := c.check(spec); issue != "" {
		return nil, errors.New(issue)
	}
	event, err := aspect.ParseEvent(spec.Event)
	if err != nil {
		return nil, err
	}
	entry, _ := c.lookup(spec.Use)
	return entry.Build(event, spec.Arg)
}

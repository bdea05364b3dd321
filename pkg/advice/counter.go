package advice

import (
	"sync"

	"able/aspect-go/pkg/aspect"
)

// Counter tallies intercepted invocations per qualified function name. It is
// safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Advice returns the Call advice that feeds the counter. Vetoed calls are
// counted too, since Call advice runs before the veto is known.
func (c *Counter) Advice() aspect.Advice {
	return aspect.OnCall(func(ctx *aspect.CallContext, _ any) (any, error) {
		c.mu.Lock()
		c.counts[ctx.Name]++
		c.mu.Unlock()
		return nil, nil
	})
}

func (c *Counter) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Snapshot copies the current tallies.
func (c *Counter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for name, n := range c.counts {
		out[name] = n
	}
	return out
}

package runtime

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Kwargs is an insertion-ordered keyword argument mapping. A nil *Kwargs is a
// valid empty mapping for every read operation.
type Kwargs struct {
	entries *linkedhashmap.Map
}

// NewKwargs returns an empty mapping.
func NewKwargs() *Kwargs {
	return &Kwargs{entries: linkedhashmap.New()}
}

// Kw builds a mapping from alternating name/value pairs.
func Kw(pairs ...any) *Kwargs {
	if len(pairs)%2 != 0 {
		panic("runtime.Kw: odd number of arguments")
	}
	k := NewKwargs()
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("runtime.Kw: keyword %d is %T, want string", i/2, pairs[i]))
		}
		k.Set(name, pairs[i+1])
	}
	return k
}

// Set stores a value. Re-setting an existing name keeps its original position.
func (k *Kwargs) Set(name string, value any) {
	if k.entries == nil {
		k.entries = linkedhashmap.New()
	}
	k.entries.Put(name, value)
}

func (k *Kwargs) Get(name string) (any, bool) {
	if k == nil || k.entries == nil {
		return nil, false
	}
	return k.entries.Get(name)
}

func (k *Kwargs) Has(name string) bool {
	_, ok := k.Get(name)
	return ok
}

func (k *Kwargs) Delete(name string) {
	if k == nil || k.entries == nil {
		return
	}
	k.entries.Remove(name)
}

func (k *Kwargs) Len() int {
	if k == nil || k.entries == nil {
		return 0
	}
	return k.entries.Size()
}

// Keys returns the names in insertion order.
func (k *Kwargs) Keys() []string {
	if k.Len() == 0 {
		return nil
	}
	out := make([]string, 0, k.entries.Size())
	it := k.entries.Iterator()
	for it.Next() {
		out = append(out, it.Key().(string))
	}
	return out
}

// Each visits entries in insertion order.
func (k *Kwargs) Each(fn func(name string, value any)) {
	if k.Len() == 0 {
		return
	}
	it := k.entries.Iterator()
	for it.Next() {
		fn(it.Key().(string), it.Value())
	}
}

// Clone returns an independent copy. Cloning nil yields an empty mapping.
func (k *Kwargs) Clone() *Kwargs {
	out := NewKwargs()
	k.Each(func(name string, value any) {
		out.Set(name, value)
	})
	return out
}

// Map copies the entries into a plain map, losing order.
func (k *Kwargs) Map() map[string]any {
	out := make(map[string]any, k.Len())
	k.Each(func(name string, value any) {
		out[name] = value
	})
	return out
}

func (k *Kwargs) String() string {
	parts := make([]string, 0, k.Len())
	k.Each(func(name string, value any) {
		parts = append(parts, fmt.Sprintf("%s=%v", name, value))
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

package engine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Registry is an immutable, ordered table of engine descriptors.
// The first descriptor is the default engine.
type Registry struct {
	descs  []Descriptor
	byName map[string]int
}

// NewRegistry builds a registry from descs in order. Names are matched
// case-insensitively and must be unique.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	if len(descs) == 0 {
		return nil, ErrNoEngines
	}

	r := &Registry{
		descs:  make([]Descriptor, len(descs)),
		byName: make(map[string]int, len(descs)),
	}
	for i, d := range descs {
		if d.Name == "" || d.Engine == nil {
			return nil, fmt.Errorf("engine descriptor %d: name and engine are required", i)
		}
		key := strings.ToLower(d.Name)
		if _, ok := r.byName[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEngine, d.Name)
		}
		r.byName[key] = i
		r.descs[i] = d
	}
	return r, nil
}

// Lookup returns the descriptor called name. An empty name selects the
// default engine.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	if name == "" {
		return r.Default(), nil
	}
	i, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s (choices are: %s)",
			ErrUnknownEngine, name, strings.Join(r.Names(), " "))
	}
	return r.descs[i], nil
}

// Default returns the first registered descriptor.
func (r *Registry) Default() Descriptor {
	return r.descs[0]
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return lo.Map(r.descs, func(d Descriptor, _ int) string { return d.Name })
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	return len(r.descs)
}

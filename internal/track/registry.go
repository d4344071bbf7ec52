// Package track implements the turn-by-turn tracking engine. Elements are
// dispatched to integrator kernels looked up by pass method name in a
// registry.
package track

import (
	"fmt"
	"log/slog"

	"github.com/vk/latticego/internal/element"
)

// Params carries the ring-wide quantities made available to every kernel.
type Params struct {
	// RingLength is the total path length of the compiled ring.
	RingLength float64
	// T0 is the revolution time of the compiled ring.
	T0 float64
	// Turn is the zero-based index of the current turn.
	Turn int
}

// Kernel advances one particle's phase-space 6-vector (x, px, y, py, dp, ct)
// in place.
type Kernel func(r []float64, p *Params)

// Builder compiles an element into a kernel. Builders snapshot the element
// attributes they need, so later attribute changes are not observed until
// the lattice is recompiled.
type Builder func(el element.Element) (Kernel, error)

// Module is the interface integrator packages implement to register their
// pass methods.
type Module interface {
	Register(r *Registry)
}

// Registry maps pass method names to kernel builders for a single engine
// instance.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates and initializes a new Registry instance.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	for _, mod := range modules {
		mod.Register(r)
	}
	return r
}

// Register registers a kernel builder for a pass method name.
func (r *Registry) Register(name string, b Builder) {
	if _, exists := r.builders[name]; exists {
		panic(fmt.Sprintf("pass method '%s' already registered", name))
	}
	slog.Debug("Registering pass method.", "name", name)
	r.builders[name] = b
}

// Lookup returns the builder registered for a pass method name.
func (r *Registry) Lookup(name string) (Builder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

// Names returns the registered pass method names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

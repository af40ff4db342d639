package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// priority lists engine names from most to least preferred.
var priority = []string{"libwebp", "wasm", "cwebp", "native"}

// Registry holds all available engines and selects one by name.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates a registry, probing all engines for availability.
func NewRegistry() *Registry {
	return NewRegistryWith(
		&LibwebpEngine{},
		&WasmEngine{},
		&CwebpEngine{},
		&NativeEngine{},
	)
}

// NewRegistryWith builds a registry from the given engines. Only available
// ones are kept.
func NewRegistryWith(all ...Engine) *Registry {
	r := &Registry{
		engines: make(map[string]Engine),
	}
	for _, e := range all {
		if !e.Available() {
			log.Debug().Str("engine", e.Name()).Msg("engine not available")
			continue
		}
		log.Debug().Str("engine", e.Name()).Msg("engine available")
		r.engines[e.Name()] = e
	}
	return r
}

// Get returns the engine with the given name, or nil if unavailable.
func (r *Registry) Get(name string) Engine {
	return r.engines[strings.ToLower(name)]
}

// Default returns the most preferred available engine, or nil.
func (r *Registry) Default() Engine {
	for _, name := range r.Available() {
		return r.engines[name]
	}
	return nil
}

// Available returns all available engine names in priority order.
func (r *Registry) Available() []string {
	var result []string
	seen := map[string]bool{}
	for _, name := range priority {
		if _, ok := r.engines[name]; ok {
			result = append(result, name)
			seen[name] = true
		}
	}
	// Engines registered under names outside the priority list go last.
	var extra []string
	for name := range r.engines {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(result, extra...)
}

// Resolve returns the named engine, or the default one when name is empty.
func (r *Registry) Resolve(name string) (Engine, error) {
	if name == "" || strings.EqualFold(name, "auto") {
		if e := r.Default(); e != nil {
			return e, nil
		}
		return nil, fmt.Errorf("no webp engine available")
	}
	if e := r.Get(name); e != nil {
		return e, nil
	}
	return nil, fmt.Errorf("webp engine %q not available (have: %s)", name, strings.Join(r.Available(), ", "))
}

// String returns a summary of available engines.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no engines available"
	}
	return fmt.Sprintf("engines: %s", strings.Join(avail, ", "))
}

package saga

import (
	"encoding/json"
	"fmt"
	"sync"
)

// RunnerFunc is a type-erased saga runner that accepts raw JSON input.
// The typed Definition[T] is converted to a RunnerFunc at registration
// time by closing over JSON unmarshal + the typed handler.
type RunnerFunc func(sg *Saga, input []byte) error

// Registry maps saga kinds to runner functions. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	runners map[Kind]RunnerFunc
}

// NewRegistry creates an empty saga registry.
func NewRegistry() *Registry {
	return &Registry{
		runners: make(map[Kind]RunnerFunc),
	}
}

// RegisterDefinition registers a typed saga definition. The generic
// handler is wrapped in a closure that JSON-unmarshals the input into T
// before calling the typed handler. Re-registering a kind replaces it.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	runner := func(sg *Saga, input []byte) error {
		var t T
		if len(input) > 0 {
			if err := json.Unmarshal(input, &t); err != nil {
				return fmt.Errorf("unmarshal input for saga %q: %w", def.Kind, err)
			}
		}
		return def.Handler(sg, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[def.Kind] = runner
}

// Get returns the runner for the given saga kind.
// Returns false if no runner is registered.
func (r *Registry) Get(kind Kind) (RunnerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[kind]
	return runner, ok
}

// Kinds returns all registered saga kinds.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.runners))
	for kind := range r.runners {
		kinds = append(kinds, kind)
	}
	return kinds
}

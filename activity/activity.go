// Package activity defines named, typed, side-effecting units of work
// invoked by sagas. Activities are registered once and invoked through
// the registry with JSON-serialized inputs and outputs, which is what
// makes their results recordable in the step log.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xraph/onboard"
)

// Definition is a typed activity definition with a handler function.
// I is the input type, O the output type; both must be JSON-serializable
// so results can be stored in the step log and replayed.
type Definition[I, O any] struct {
	// Name is the unique identifier for this activity.
	Name string

	// Handler executes the activity. It should be idempotent by intent:
	// the engine never re-invokes a recorded activity during replay, but
	// at-least-once delivery of resumption triggers means the same
	// logical call can race a crash between execution and recording.
	Handler func(ctx context.Context, input I) (O, error)
}

// NewActivity creates a typed activity definition.
func NewActivity[I, O any](name string, handler func(ctx context.Context, input I) (O, error)) *Definition[I, O] {
	return &Definition[I, O]{
		Name:    name,
		Handler: handler,
	}
}

// HandlerFunc is a type-erased activity handler over raw JSON.
type HandlerFunc func(ctx context.Context, input []byte) ([]byte, error)

// Registry maps activity names to type-erased handler functions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty activity registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register registers a typed activity definition. The generic handler is
// wrapped in a closure that JSON-unmarshals the input into I and
// marshals the output, so the registry itself stays untyped.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Register[I, O any](r *Registry, def *Definition[I, O]) {
	handler := func(ctx context.Context, input []byte) ([]byte, error) {
		var in I
		if len(input) > 0 {
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, fmt.Errorf("unmarshal input for activity %q: %w", def.Name, err)
			}
		}

		out, err := def.Handler(ctx, in)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("marshal output for activity %q: %w", def.Name, err)
		}
		return data, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[def.Name] = handler
}

// RegisterFunc registers a raw handler under the given name.
func (r *Registry) RegisterFunc(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Invoke executes the named activity with a raw JSON input.
func (r *Registry) Invoke(ctx context.Context, name string, input []byte) ([]byte, error) {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", onboard.ErrActivityNotFound, name)
	}
	return fn(ctx, input)
}

// Names returns all registered activity names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

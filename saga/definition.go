package saga

// Definition is a typed saga definition with a handler function.
// T is the input type (must be JSON-serializable for Instance.Input
// storage). The handler must be deterministic given its input and the
// recorded results the execution context returns: no wall-clock reads,
// random values, or iteration over unordered maps that feed into
// durable operations.
type Definition[T any] struct {
	// Kind is the unique identifier for this saga type.
	Kind Kind

	// Handler executes the saga logic. It receives a *Saga which
	// provides Do and AwaitEvent.
	Handler func(sg *Saga, input T) error
}

// NewSaga creates a typed saga definition.
func NewSaga[T any](kind Kind, handler func(sg *Saga, input T) error) *Definition[T] {
	return &Definition[T]{
		Kind:    kind,
		Handler: handler,
	}
}

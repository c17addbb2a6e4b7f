// Package middleware provides composable middleware for activity
// execution. Middleware wraps activity invocations synchronously and
// can modify execution (recover from panics, log, add tracing, etc.).
package middleware

import (
	"context"

	"github.com/xraph/onboard/id"
)

// Call describes one activity invocation flowing through the chain.
type Call struct {
	InstanceID id.SagaID
	Name       string
	Input      []byte
}

// Handler is the terminal function that executes the activity.
type Handler func(ctx context.Context) ([]byte, error)

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the call being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, call *Call, next Handler) ([]byte, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, call *Call, next Handler) ([]byte, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) ([]byte, error) {
				return mw(ctx, call, prev)
			}
		}
		return h(ctx)
	}
}

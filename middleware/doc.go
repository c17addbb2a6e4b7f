// Package middleware provides composable middleware for activity execution.
//
// A [Middleware] is a function that wraps an activity handler. Middleware
// are composed into a chain using [Chain] and applied before each activity
// executes. They are applied right-to-left: the first middleware in the
// slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs activity name, instance, duration, and outcome
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — cancels the activity context after a configured duration
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-activity duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, call *middleware.Call, next middleware.Handler) ([]byte, error) {
//	        // pre-processing
//	        out, err := next(ctx)
//	        // post-processing
//	        return out, err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, call *Call, next Handler) (out []byte, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("activity handler panicked",
					slog.String("activity", call.Name),
					slog.String("instance_id", call.InstanceID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				out = nil
				retErr = fmt.Errorf("panic in activity %s: %v", call.Name, r)
			}
		}()
		return next(ctx)
	}
}

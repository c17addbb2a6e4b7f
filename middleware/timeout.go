package middleware

import (
	"context"
	"time"
)

// Timeout returns middleware that enforces a per-activity execution
// deadline. When the deadline is exceeded the context is cancelled and
// the handler should return context.DeadlineExceeded. A non-positive
// duration disables the deadline.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, call *Call, next Handler) ([]byte, error) {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}

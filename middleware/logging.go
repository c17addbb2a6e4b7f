package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs activity start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, call *Call, next Handler) ([]byte, error) {
		logger.Info("activity started",
			slog.String("activity", call.Name),
			slog.String("instance_id", call.InstanceID.String()),
		)

		start := time.Now()
		out, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("activity failed",
				slog.String("activity", call.Name),
				slog.String("instance_id", call.InstanceID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("activity completed",
				slog.String("activity", call.Name),
				slog.String("instance_id", call.InstanceID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return out, err
	}
}

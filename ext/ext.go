// Package ext defines the extension system for the onboarding engine.
// Extensions are notified of lifecycle events (saga started, step
// completed, event correlated, etc.) and can react to them — logging,
// metrics, audit trails.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/saga"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Saga lifecycle hooks
// ──────────────────────────────────────────────────

// SagaStarted is called after a saga instance is created.
type SagaStarted interface {
	OnSagaStarted(ctx context.Context, inst *saga.Instance) error
}

// SagaStepCompleted is called after a durable step completes and is
// recorded in the step log.
type SagaStepCompleted interface {
	OnSagaStepCompleted(ctx context.Context, inst *saga.Instance, stepName string, elapsed time.Duration) error
}

// SagaStepFailed is called when a durable step fails.
type SagaStepFailed interface {
	OnSagaStepFailed(ctx context.Context, inst *saga.Instance, stepName string, err error) error
}

// SagaCompleted is called after a saga instance completes successfully.
type SagaCompleted interface {
	OnSagaCompleted(ctx context.Context, inst *saga.Instance) error
}

// SagaAbandoned is called when a saga instance reaches the abandoned
// terminal status, whether by wait exhaustion or handler error.
type SagaAbandoned interface {
	OnSagaAbandoned(ctx context.Context, inst *saga.Instance, reason string) error
}

// ──────────────────────────────────────────────────
// Event correlation hooks
// ──────────────────────────────────────────────────

// EventCorrelated is called when a published event is matched to a
// waiting saga instance.
type EventCorrelated interface {
	OnEventCorrelated(ctx context.Context, evt *event.Event) error
}

// EventOrphaned is called when a published event has no waiting
// instance at delivery time.
type EventOrphaned interface {
	OnEventOrphaned(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// StatusDegraded is called when a status projection write fails and the
// read model may lag behind saga truth.
type StatusDegraded interface {
	OnStatusDegraded(ctx context.Context, subjectID, onboardingType string, err error) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}

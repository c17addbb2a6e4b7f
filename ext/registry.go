package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/saga"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type sagaStartedEntry struct {
	name string
	hook SagaStarted
}

type sagaStepCompletedEntry struct {
	name string
	hook SagaStepCompleted
}

type sagaStepFailedEntry struct {
	name string
	hook SagaStepFailed
}

type sagaCompletedEntry struct {
	name string
	hook SagaCompleted
}

type sagaAbandonedEntry struct {
	name string
	hook SagaAbandoned
}

type eventCorrelatedEntry struct {
	name string
	hook EventCorrelated
}

type eventOrphanedEntry struct {
	name string
	hook EventOrphaned
}

type statusDegradedEntry struct {
	name string
	hook StatusDegraded
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	sagaStarted       []sagaStartedEntry
	sagaStepCompleted []sagaStepCompletedEntry
	sagaStepFailed    []sagaStepFailedEntry
	sagaCompleted     []sagaCompletedEntry
	sagaAbandoned     []sagaAbandonedEntry
	eventCorrelated   []eventCorrelatedEntry
	eventOrphaned     []eventOrphanedEntry
	statusDegraded    []statusDegradedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(SagaStarted); ok {
		r.sagaStarted = append(r.sagaStarted, sagaStartedEntry{name, h})
	}
	if h, ok := e.(SagaStepCompleted); ok {
		r.sagaStepCompleted = append(r.sagaStepCompleted, sagaStepCompletedEntry{name, h})
	}
	if h, ok := e.(SagaStepFailed); ok {
		r.sagaStepFailed = append(r.sagaStepFailed, sagaStepFailedEntry{name, h})
	}
	if h, ok := e.(SagaCompleted); ok {
		r.sagaCompleted = append(r.sagaCompleted, sagaCompletedEntry{name, h})
	}
	if h, ok := e.(SagaAbandoned); ok {
		r.sagaAbandoned = append(r.sagaAbandoned, sagaAbandonedEntry{name, h})
	}
	if h, ok := e.(EventCorrelated); ok {
		r.eventCorrelated = append(r.eventCorrelated, eventCorrelatedEntry{name, h})
	}
	if h, ok := e.(EventOrphaned); ok {
		r.eventOrphaned = append(r.eventOrphaned, eventOrphanedEntry{name, h})
	}
	if h, ok := e.(StatusDegraded); ok {
		r.statusDegraded = append(r.statusDegraded, statusDegradedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Saga event emitters
// ──────────────────────────────────────────────────

// EmitSagaStarted notifies all extensions that implement SagaStarted.
func (r *Registry) EmitSagaStarted(ctx context.Context, inst *saga.Instance) {
	for _, e := range r.sagaStarted {
		if err := e.hook.OnSagaStarted(ctx, inst); err != nil {
			r.logHookError("OnSagaStarted", e.name, err)
		}
	}
}

// EmitSagaStepCompleted notifies all extensions that implement SagaStepCompleted.
func (r *Registry) EmitSagaStepCompleted(ctx context.Context, inst *saga.Instance, stepName string, elapsed time.Duration) {
	for _, e := range r.sagaStepCompleted {
		if err := e.hook.OnSagaStepCompleted(ctx, inst, stepName, elapsed); err != nil {
			r.logHookError("OnSagaStepCompleted", e.name, err)
		}
	}
}

// EmitSagaStepFailed notifies all extensions that implement SagaStepFailed.
func (r *Registry) EmitSagaStepFailed(ctx context.Context, inst *saga.Instance, stepName string, stepErr error) {
	for _, e := range r.sagaStepFailed {
		if err := e.hook.OnSagaStepFailed(ctx, inst, stepName, stepErr); err != nil {
			r.logHookError("OnSagaStepFailed", e.name, err)
		}
	}
}

// EmitSagaCompleted notifies all extensions that implement SagaCompleted.
func (r *Registry) EmitSagaCompleted(ctx context.Context, inst *saga.Instance) {
	for _, e := range r.sagaCompleted {
		if err := e.hook.OnSagaCompleted(ctx, inst); err != nil {
			r.logHookError("OnSagaCompleted", e.name, err)
		}
	}
}

// EmitSagaAbandoned notifies all extensions that implement SagaAbandoned.
func (r *Registry) EmitSagaAbandoned(ctx context.Context, inst *saga.Instance, reason string) {
	for _, e := range r.sagaAbandoned {
		if err := e.hook.OnSagaAbandoned(ctx, inst, reason); err != nil {
			r.logHookError("OnSagaAbandoned", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Event correlation emitters
// ──────────────────────────────────────────────────

// EmitEventCorrelated notifies all extensions that implement EventCorrelated.
func (r *Registry) EmitEventCorrelated(ctx context.Context, evt *event.Event) {
	for _, e := range r.eventCorrelated {
		if err := e.hook.OnEventCorrelated(ctx, evt); err != nil {
			r.logHookError("OnEventCorrelated", e.name, err)
		}
	}
}

// EmitEventOrphaned notifies all extensions that implement EventOrphaned.
func (r *Registry) EmitEventOrphaned(ctx context.Context, evt *event.Event) {
	for _, e := range r.eventOrphaned {
		if err := e.hook.OnEventOrphaned(ctx, evt); err != nil {
			r.logHookError("OnEventOrphaned", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitStatusDegraded notifies all extensions that implement StatusDegraded.
func (r *Registry) EmitStatusDegraded(ctx context.Context, subjectID, onboardingType string, degradeErr error) {
	for _, e := range r.statusDegraded {
		if err := e.hook.OnStatusDegraded(ctx, subjectID, onboardingType, degradeErr); err != nil {
			r.logHookError("OnStatusDegraded", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the saga.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}

package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/ext"
	"github.com/xraph/onboard/saga"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*Extension)(nil)
	_ ext.SagaStarted       = (*Extension)(nil)
	_ ext.SagaStepCompleted = (*Extension)(nil)
	_ ext.SagaStepFailed    = (*Extension)(nil)
	_ ext.SagaCompleted     = (*Extension)(nil)
	_ ext.SagaAbandoned     = (*Extension)(nil)
	_ ext.EventCorrelated   = (*Extension)(nil)
	_ ext.EventOrphaned     = (*Extension)(nil)
	_ ext.StatusDegraded    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
// Callers provide a RecorderFunc adapter that bridges to their audit backend.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants (mirror chronicle/audit).
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants (mirror chronicle/audit).
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges onboarding lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Saga lifecycle hooks ────────────────────────────

// OnSagaStarted implements ext.SagaStarted.
func (e *Extension) OnSagaStarted(ctx context.Context, inst *saga.Instance) error {
	return e.record(ctx, ActionSagaStarted, SeverityInfo, OutcomeSuccess,
		ResourceSaga, inst.ID.String(), CategorySaga, nil,
		"kind", string(inst.Kind),
		"subject_id", inst.SubjectID,
	)
}

// OnSagaStepCompleted implements ext.SagaStepCompleted.
func (e *Extension) OnSagaStepCompleted(ctx context.Context, inst *saga.Instance, stepName string, elapsed time.Duration) error {
	return e.record(ctx, ActionSagaStepCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSaga, inst.ID.String(), CategorySaga, nil,
		"kind", string(inst.Kind),
		"step_name", stepName,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnSagaStepFailed implements ext.SagaStepFailed.
func (e *Extension) OnSagaStepFailed(ctx context.Context, inst *saga.Instance, stepName string, stepErr error) error {
	return e.record(ctx, ActionSagaStepFailed, SeverityWarning, OutcomeFailure,
		ResourceSaga, inst.ID.String(), CategorySaga, stepErr,
		"kind", string(inst.Kind),
		"step_name", stepName,
	)
}

// OnSagaCompleted implements ext.SagaCompleted.
func (e *Extension) OnSagaCompleted(ctx context.Context, inst *saga.Instance) error {
	return e.record(ctx, ActionSagaCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSaga, inst.ID.String(), CategorySaga, nil,
		"kind", string(inst.Kind),
		"subject_id", inst.SubjectID,
		"resource_id", inst.ResourceID,
		"resource_type", inst.ResourceType,
	)
}

// OnSagaAbandoned implements ext.SagaAbandoned.
func (e *Extension) OnSagaAbandoned(ctx context.Context, inst *saga.Instance, reason string) error {
	return e.record(ctx, ActionSagaAbandoned, SeverityCritical, OutcomeFailure,
		ResourceSaga, inst.ID.String(), CategorySaga, nil,
		"kind", string(inst.Kind),
		"subject_id", inst.SubjectID,
		"reason", reason,
	)
}

// ── Event correlation hooks ─────────────────────────

// OnEventCorrelated implements ext.EventCorrelated.
func (e *Extension) OnEventCorrelated(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionEventCorrelated, SeverityInfo, OutcomeSuccess,
		ResourceEvent, evt.ID.String(), CategoryEvent, nil,
		"event_name", evt.Name,
		"instance_id", evt.InstanceID.String(),
	)
}

// OnEventOrphaned implements ext.EventOrphaned.
func (e *Extension) OnEventOrphaned(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionEventOrphaned, SeverityWarning, OutcomeSuccess,
		ResourceEvent, evt.ID.String(), CategoryEvent, nil,
		"event_name", evt.Name,
		"instance_id", evt.InstanceID.String(),
	)
}

// ── Status projection hooks ─────────────────────────

// OnStatusDegraded implements ext.StatusDegraded.
func (e *Extension) OnStatusDegraded(ctx context.Context, subjectID, onboardingType string, degradeErr error) error {
	return e.record(ctx, ActionStatusDegraded, SeverityWarning, OutcomeFailure,
		ResourceStatus, subjectID, CategoryStatus, degradeErr,
		"onboarding_type", onboardingType,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

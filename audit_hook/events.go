package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionSagaStarted       = "saga.started"
	ActionSagaStepCompleted = "saga.step_completed"
	ActionSagaStepFailed    = "saga.step_failed"
	ActionSagaCompleted     = "saga.completed"
	ActionSagaAbandoned     = "saga.abandoned"
	ActionEventCorrelated   = "event.correlated"
	ActionEventOrphaned     = "event.orphaned"
	ActionStatusDegraded    = "status.degraded"
)

// Audit event categories group related actions.
const (
	CategorySaga   = "onboard.saga"
	CategoryEvent  = "onboard.event"
	CategoryStatus = "onboard.status"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceSaga   = "saga_instance"
	ResourceEvent  = "platform_event"
	ResourceStatus = "status_projection"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionSagaStarted,
		ActionSagaStepCompleted,
		ActionSagaStepFailed,
		ActionSagaCompleted,
		ActionSagaAbandoned,
		ActionEventCorrelated,
		ActionEventOrphaned,
		ActionStatusDegraded,
	}
}

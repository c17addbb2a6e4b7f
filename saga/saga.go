package saga

import (
	"time"

	"github.com/xraph/onboard/id"
)

// Kind identifies which onboarding flow a saga instance runs.
type Kind string

const (
	// KindInvite onboards a user who accepted an invitation.
	KindInvite Kind = "invite"
	// KindNewWorkspace onboards a user provisioning a new workspace.
	KindNewWorkspace Kind = "new_workspace"
	// KindNewProject onboards a user provisioning a new project.
	KindNewProject Kind = "new_project"
)

// Status represents the lifecycle state of a saga instance.
type Status string

const (
	// StatusInProgress means the saga is executing or suspended on a wait.
	StatusInProgress Status = "in_progress"
	// StatusCompleted means the saga finished successfully. Terminal.
	StatusCompleted Status = "completed"
	// StatusAbandoned means the saga gave up: retry exhaustion, a failed
	// activity, or a validation error. Terminal.
	StatusAbandoned Status = "abandoned"
)

// Instance represents a single execution of a saga.
//
// The correlation id for external signals is Instance.ID; it is
// immutable after creation. Instance state is mutated only by the
// runner's scheduling decisions, which are driven deterministically by
// re-executing the saga handler against the step log.
type Instance struct {
	ID        id.SagaID `json:"id"`
	Kind      Kind      `json:"kind"`
	SubjectID string    `json:"subject_id"`
	Input     []byte    `json:"input,omitempty"`
	Status    Status    `json:"status"`

	// ResourceID and ResourceType identify the platform resource the
	// saga resolved mid-flight (the created workspace or project).
	ResourceID   string `json:"resource_id,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`

	Error       string     `json:"error,omitempty"`
	ScopeAppID  string     `json:"scope_app_id,omitempty"`
	ScopeOrgID  string     `json:"scope_org_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the instance reached a terminal status.
func (i *Instance) Terminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusAbandoned
}

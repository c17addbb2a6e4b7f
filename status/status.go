// Package status maintains customer-facing onboarding status
// projections. Projections are a denormalized read model written as a
// side channel of saga execution: best-effort, idempotent, and never
// authoritative for saga control flow.
package status

import (
	"time"

	"github.com/xraph/onboard/id"
)

// Milestone states.
const (
	MilestonePending   = "pending"
	MilestoneCompleted = "completed"
	MilestoneFailed    = "failed"
)

// Milestone is one named step of a projection's progress timeline.
type Milestone struct {
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Details   string     `json:"details,omitempty"`
}

// Projection is the customer-facing view of one onboarding attempt.
// Status values mirror saga terminality: in_progress, completed,
// abandoned.
type Projection struct {
	ID           id.StatusID `json:"id"`
	SubjectID    string      `json:"subjectId"`
	Type         string      `json:"type"`
	Status       string      `json:"status"`
	ResourceID   string      `json:"resourceId,omitempty"`
	ResourceType string      `json:"resourceType,omitempty"`
	Steps        []Milestone `json:"steps"`
	StartedAt    time.Time   `json:"startedAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`
}

package api

import (
	"time"

	"github.com/xraph/onboard/onboarding"
	"github.com/xraph/onboard/status"
)

// defaultPageLimit caps list responses when the caller sends no limit.
const defaultPageLimit = 50

func defaultLimit(limit int) int {
	if limit <= 0 || limit > defaultPageLimit {
		return defaultPageLimit
	}
	return limit
}

// StartOnboardingRequest starts a new onboarding saga.
type StartOnboardingRequest struct {
	Kind         string `json:"kind"`
	SubjectID    string `json:"subjectId"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	ResourceID   string `json:"resourceId,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	WorkspaceID  string `json:"workspaceId,omitempty"`
	MembershipID string `json:"membershipId,omitempty"`
}

// StartOnboardingResponse returns the created instance handle.
type StartOnboardingResponse struct {
	InstanceID string `json:"instanceId"`
	StatusURL  string `json:"statusUrl"`
}

// NotifyEventRequest delivers an external event to a waiting saga.
type NotifyEventRequest struct {
	EventType    string `json:"eventType"`
	InstanceID   string `json:"instanceId"`
	ResourceID   string `json:"resourceId,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	MembershipID string `json:"membershipId,omitempty"`
}

// NotifyEventResponse reports whether a saga was waiting for the event.
type NotifyEventResponse struct {
	EventID   string `json:"eventId"`
	Delivered bool   `json:"delivered"`
}

// ValidationErrorResponse is the 400 body enumerating every failing field.
type ValidationErrorResponse struct {
	Error  string                  `json:"error"`
	Fields []onboarding.FieldError `json:"fields"`
}

// ListOnboardingRequest filters the run list.
type ListOnboardingRequest struct {
	Status string `json:"status,omitempty" query:"status"`
	Kind   string `json:"kind,omitempty"   query:"kind"`
	Limit  int    `json:"limit,omitempty"  query:"limit"`
	Offset int    `json:"offset,omitempty" query:"offset"`
}

// GetOnboardingRequest fetches one instance by path parameter.
type GetOnboardingRequest struct{}

// GetStatusRequest fetches the status projection by path parameter.
type GetStatusRequest struct{}

// StatusResponse is the externally queryable view of one run.
type StatusResponse struct {
	ID              string             `json:"id"`
	Status          string             `json:"status"`
	CreatedTime     time.Time          `json:"createdTime"`
	LastUpdatedTime time.Time          `json:"lastUpdatedTime"`
	Output          *StatusOutput      `json:"output,omitempty"`
	CustomStatus    *status.Projection `json:"customStatus,omitempty"`
}

// StatusOutput carries the terminal result of a run.
type StatusOutput struct {
	ResourceID   string `json:"resourceId,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	Error        string `json:"error,omitempty"`
}

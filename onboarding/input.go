// Package onboarding defines the three onboarding saga flows (invite,
// new workspace, new project), their activities, and the external
// notification schema that resumes them.
package onboarding

import (
	"fmt"
	"strings"

	"github.com/xraph/onboard/saga"
)

// Input is the payload an onboarding saga is started with. Which
// fields are required depends on the saga kind, see Validate.
type Input struct {
	SubjectID    string `json:"subjectId"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	ResourceID   string `json:"resourceId,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	WorkspaceID  string `json:"workspaceId,omitempty"`
	MembershipID string `json:"membershipId,omitempty"`
}

// FieldError names one invalid input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every failing field of a request, not just
// the first.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed:")
	for _, f := range e.Fields {
		fmt.Fprintf(&b, " %s (%s);", f.Field, f.Reason)
	}
	return strings.TrimSuffix(b.String(), ";")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() *ValidationError {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks the input against the requirements of the given saga
// kind and returns a ValidationError enumerating every failing field,
// or nil if the input is acceptable.
func (in *Input) Validate(kind saga.Kind) *ValidationError {
	ve := &ValidationError{}

	if in.SubjectID == "" {
		ve.add("subjectId", "required")
	}
	if in.Email == "" {
		ve.add("email", "required")
	}

	switch kind {
	case saga.KindInvite:
		if in.ResourceID == "" {
			ve.add("resourceId", "required for invite")
		}
		switch in.ResourceType {
		case "workspace", "project":
		case "":
			ve.add("resourceType", "required for invite")
		default:
			ve.add("resourceType", "must be workspace or project")
		}
		if in.MembershipID == "" {
			ve.add("membershipId", "required for invite")
		}
	case saga.KindNewWorkspace:
		// No extra fields beyond subject and email.
	case saga.KindNewProject:
		if in.WorkspaceID == "" {
			ve.add("workspaceId", "required for new_project")
		}
	default:
		ve.add("kind", "must be invite, new_workspace, or new_project")
	}

	return ve.orNil()
}

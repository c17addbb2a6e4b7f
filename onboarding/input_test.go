package onboarding_test

import (
	"strings"
	"testing"

	"github.com/xraph/onboard/onboarding"
	"github.com/xraph/onboard/saga"
)

func fieldNames(ve *onboarding.ValidationError) []string {
	if ve == nil {
		return nil
	}
	names := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		names = append(names, f.Field)
	}
	return names
}

func hasField(ve *onboarding.ValidationError, field string) bool {
	for _, f := range ve.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestInputValidate_CollectsAllFailures(t *testing.T) {
	in := onboarding.Input{}
	ve := in.Validate(saga.KindInvite)
	if ve == nil {
		t.Fatal("expected validation error")
	}

	// Every failing field is reported, not just the first.
	for _, want := range []string{"subjectId", "email", "resourceId", "resourceType", "membershipId"} {
		if !hasField(ve, want) {
			t.Errorf("missing field %q in %v", want, fieldNames(ve))
		}
	}
	if !strings.Contains(ve.Error(), "subjectId") {
		t.Errorf("Error() = %q, want subjectId mentioned", ve.Error())
	}
}

func TestInputValidate_Invite(t *testing.T) {
	in := onboarding.Input{
		SubjectID:    "user_1",
		Email:        "u@example.com",
		ResourceID:   "ws_1",
		ResourceType: "workspace",
		MembershipID: "mem_1",
	}
	if ve := in.Validate(saga.KindInvite); ve != nil {
		t.Fatalf("unexpected validation error: %v", ve)
	}

	in.ResourceType = "billing-account"
	ve := in.Validate(saga.KindInvite)
	if ve == nil || !hasField(ve, "resourceType") {
		t.Errorf("expected resourceType rejection, got %v", fieldNames(ve))
	}
}

func TestInputValidate_NewWorkspace(t *testing.T) {
	in := onboarding.Input{SubjectID: "user_1", Email: "u@example.com"}
	if ve := in.Validate(saga.KindNewWorkspace); ve != nil {
		t.Fatalf("unexpected validation error: %v", ve)
	}
}

func TestInputValidate_NewProjectRequiresWorkspace(t *testing.T) {
	in := onboarding.Input{SubjectID: "user_1", Email: "u@example.com"}
	ve := in.Validate(saga.KindNewProject)
	if ve == nil || !hasField(ve, "workspaceId") {
		t.Fatalf("expected workspaceId requirement, got %v", fieldNames(ve))
	}

	in.WorkspaceID = "ws_1"
	if ve := in.Validate(saga.KindNewProject); ve != nil {
		t.Fatalf("unexpected validation error: %v", ve)
	}
}

func TestInputValidate_UnknownKind(t *testing.T) {
	in := onboarding.Input{SubjectID: "user_1", Email: "u@example.com"}
	ve := in.Validate("churn-winback")
	if ve == nil || !hasField(ve, "kind") {
		t.Fatalf("expected kind rejection, got %v", fieldNames(ve))
	}
}

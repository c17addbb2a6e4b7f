package onboarding

import (
	"encoding/json"
	"fmt"

	"github.com/xraph/onboard/id"
)

// Event types the correlation endpoint accepts. Each type is the wait
// name a saga subscribes to.
const (
	EventResourceCreated     = "resource.created"
	EventResourceInitialized = "resource.initialized"
	EventInvitationAccepted  = "invitation.accepted"
)

// ResourceCreated is the payload delivered to a "resource.created" wait.
type ResourceCreated struct {
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType"`
}

// ResourceInitialized is the payload delivered to a
// "resource.initialized" wait.
type ResourceInitialized struct {
	ResourceID string `json:"resourceId"`
}

// InvitationAccepted is the payload delivered to an
// "invitation.accepted" wait.
type InvitationAccepted struct {
	MembershipID string `json:"membershipId"`
}

// Notification is the raw inbound shape of the event correlation
// endpoint. Which fields are required depends on EventType.
type Notification struct {
	EventType    string `json:"eventType"`
	InstanceID   string `json:"instanceId"`
	ResourceID   string `json:"resourceId,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	MembershipID string `json:"membershipId,omitempty"`
}

// Validate checks the notification against the schema for its declared
// event type, collecting every failing field. A nil return means the
// notification is well formed; the saga instance ID it targets is also
// returned.
func (n *Notification) Validate() (id.SagaID, *ValidationError) {
	ve := &ValidationError{}

	instanceID := id.Nil
	if n.InstanceID == "" {
		ve.add("instanceId", "required")
	} else {
		parsed, err := id.ParseSagaID(n.InstanceID)
		if err != nil {
			ve.add("instanceId", "not a valid saga instance id")
		} else {
			instanceID = parsed
		}
	}

	switch n.EventType {
	case EventResourceCreated:
		if n.ResourceID == "" {
			ve.add("resourceId", "required for resource.created")
		}
		if n.ResourceType == "" {
			ve.add("resourceType", "required for resource.created")
		}
	case EventResourceInitialized:
		if n.ResourceID == "" {
			ve.add("resourceId", "required for resource.initialized")
		}
	case EventInvitationAccepted:
		if n.MembershipID == "" {
			ve.add("membershipId", "required for invitation.accepted")
		}
	case "":
		ve.add("eventType", "required")
	default:
		ve.add("eventType", fmt.Sprintf("unrecognized event type %q", n.EventType))
	}

	if err := ve.orNil(); err != nil {
		return id.Nil, err
	}
	return instanceID, nil
}

// Payload marshals the variant body delivered to the waiting saga.
// The instance ID is correlation metadata and is excluded.
func (n *Notification) Payload() ([]byte, error) {
	var body any
	switch n.EventType {
	case EventResourceCreated:
		body = ResourceCreated{ResourceID: n.ResourceID, ResourceType: n.ResourceType}
	case EventResourceInitialized:
		body = ResourceInitialized{ResourceID: n.ResourceID}
	case EventInvitationAccepted:
		body = InvitationAccepted{MembershipID: n.MembershipID}
	default:
		return nil, fmt.Errorf("onboarding: unrecognized event type %q", n.EventType)
	}
	return json.Marshal(body)
}

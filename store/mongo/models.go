package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/saga"
	"github.com/xraph/onboard/status"
)

// ── Instance model ────────────────────────────────────────────────

type instanceModel struct {
	grove.BaseModel `grove:"table:onboard_instances"`

	ID           string     `grove:"id,pk"            bson:"_id"`
	Kind         string     `grove:"kind,notnull"     bson:"kind"`
	SubjectID    string     `grove:"subject_id,notnull" bson:"subject_id"`
	Input        []byte     `grove:"input"            bson:"input,omitempty"`
	Status       string     `grove:"status,notnull"   bson:"status"`
	ResourceID   string     `grove:"resource_id"      bson:"resource_id"`
	ResourceType string     `grove:"resource_type"    bson:"resource_type"`
	Error        string     `grove:"error"            bson:"error"`
	ScopeAppID   string     `grove:"scope_app_id"     bson:"scope_app_id"`
	ScopeOrgID   string     `grove:"scope_org_id"     bson:"scope_org_id"`
	StartedAt    time.Time  `grove:"started_at,notnull" bson:"started_at"`
	UpdatedAt    time.Time  `grove:"updated_at,notnull" bson:"updated_at"`
	CompletedAt  *time.Time `grove:"completed_at"     bson:"completed_at,omitempty"`
}

func toInstanceModel(inst *saga.Instance) *instanceModel {
	return &instanceModel{
		ID:           inst.ID.String(),
		Kind:         string(inst.Kind),
		SubjectID:    inst.SubjectID,
		Input:        inst.Input,
		Status:       string(inst.Status),
		ResourceID:   inst.ResourceID,
		ResourceType: inst.ResourceType,
		Error:        inst.Error,
		ScopeAppID:   inst.ScopeAppID,
		ScopeOrgID:   inst.ScopeOrgID,
		StartedAt:    inst.StartedAt,
		UpdatedAt:    inst.UpdatedAt,
		CompletedAt:  inst.CompletedAt,
	}
}

func fromInstanceModel(m *instanceModel) (*saga.Instance, error) {
	parsedID, err := id.ParseSagaID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: parse instance id %q: %w", m.ID, err)
	}

	return &saga.Instance{
		ID:           parsedID,
		Kind:         saga.Kind(m.Kind),
		SubjectID:    m.SubjectID,
		Input:        m.Input,
		Status:       saga.Status(m.Status),
		ResourceID:   m.ResourceID,
		ResourceType: m.ResourceType,
		Error:        m.Error,
		ScopeAppID:   m.ScopeAppID,
		ScopeOrgID:   m.ScopeOrgID,
		StartedAt:    m.StartedAt,
		UpdatedAt:    m.UpdatedAt,
		CompletedAt:  m.CompletedAt,
	}, nil
}

// ── Step log model ────────────────────────────────────────────────

type stepModel struct {
	grove.BaseModel `grove:"table:onboard_steps"`

	ID          string    `grove:"id,pk"              bson:"_id"`
	InstanceID  string    `grove:"instance_id,notnull" bson:"instance_id"`
	StepIndex   int       `grove:"step_index,notnull" bson:"step_index"`
	Kind        string    `grove:"kind,notnull"       bson:"kind"`
	Name        string    `grove:"name,notnull"       bson:"name"`
	Result      []byte    `grove:"result"             bson:"result,omitempty"`
	Error       string    `grove:"error"              bson:"error"`
	CompletedAt time.Time `grove:"completed_at,notnull" bson:"completed_at"`
}

func toStepModel(e *saga.StepEntry) *stepModel {
	return &stepModel{
		ID:          e.ID.String(),
		InstanceID:  e.InstanceID.String(),
		StepIndex:   e.StepIndex,
		Kind:        string(e.Kind),
		Name:        e.Name,
		Result:      e.Result,
		Error:       e.Error,
		CompletedAt: e.CompletedAt,
	}
}

func fromStepModel(m *stepModel) (*saga.StepEntry, error) {
	parsedID, err := id.ParseStepID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: parse step id %q: %w", m.ID, err)
	}
	parsedInstance, err := id.ParseSagaID(m.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: parse step instance id %q: %w", m.InstanceID, err)
	}

	return &saga.StepEntry{
		ID:          parsedID,
		InstanceID:  parsedInstance,
		StepIndex:   m.StepIndex,
		Kind:        saga.StepKind(m.Kind),
		Name:        m.Name,
		Result:      m.Result,
		Error:       m.Error,
		CompletedAt: m.CompletedAt,
	}, nil
}

// ── Event model ───────────────────────────────────────────────────

type eventModel struct {
	grove.BaseModel `grove:"table:onboard_events"`

	ID         string    `grove:"id,pk"              bson:"_id"`
	InstanceID string    `grove:"instance_id,notnull" bson:"instance_id"`
	Name       string    `grove:"name,notnull"       bson:"name"`
	Payload    []byte    `grove:"payload"            bson:"payload,omitempty"`
	Acked      bool      `grove:"acked,notnull"      bson:"acked"`
	CreatedAt  time.Time `grove:"created_at,notnull" bson:"created_at"`
}

func toEventModel(evt *event.Event) *eventModel {
	return &eventModel{
		ID:         evt.ID.String(),
		InstanceID: evt.InstanceID.String(),
		Name:       evt.Name,
		Payload:    evt.Payload,
		Acked:      evt.Acked,
		CreatedAt:  evt.CreatedAt,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	parsedID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: parse event id %q: %w", m.ID, err)
	}
	parsedInstance, err := id.ParseSagaID(m.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: parse event instance id %q: %w", m.InstanceID, err)
	}

	return &event.Event{
		ID:         parsedID,
		InstanceID: parsedInstance,
		Name:       m.Name,
		Payload:    m.Payload,
		Acked:      m.Acked,
		CreatedAt:  m.CreatedAt,
	}, nil
}

// ── Status projection model ───────────────────────────────────────

type milestoneModel struct {
	Name      string     `bson:"name"`
	Status    string     `bson:"status"`
	Timestamp *time.Time `bson:"timestamp,omitempty"`
	Details   string     `bson:"details,omitempty"`
}

type projectionModel struct {
	grove.BaseModel `grove:"table:onboard_status"`

	ID           string           `grove:"id,pk"            bson:"_id"`
	SubjectID    string           `grove:"subject_id,notnull" bson:"subject_id"`
	Type         string           `grove:"type,notnull"     bson:"type"`
	Status       string           `grove:"status,notnull"   bson:"status"`
	ResourceID   string           `grove:"resource_id"      bson:"resource_id"`
	ResourceType string           `grove:"resource_type"    bson:"resource_type"`
	Steps        []milestoneModel `grove:"steps"            bson:"steps"`
	StartedAt    time.Time        `grove:"started_at,notnull" bson:"started_at"`
	UpdatedAt    time.Time        `grove:"updated_at,notnull" bson:"updated_at"`
	CompletedAt  *time.Time       `grove:"completed_at"     bson:"completed_at,omitempty"`
}

func toProjectionModel(p *status.Projection) *projectionModel {
	steps := make([]milestoneModel, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = milestoneModel{
			Name:      s.Name,
			Status:    s.Status,
			Timestamp: s.Timestamp,
			Details:   s.Details,
		}
	}
	return &projectionModel{
		ID:           p.ID.String(),
		SubjectID:    p.SubjectID,
		Type:         p.Type,
		Status:       p.Status,
		ResourceID:   p.ResourceID,
		ResourceType: p.ResourceType,
		Steps:        steps,
		StartedAt:    p.StartedAt,
		UpdatedAt:    p.UpdatedAt,
		CompletedAt:  p.CompletedAt,
	}
}

func fromProjectionModel(m *projectionModel) (*status.Projection, error) {
	parsedID, err := id.ParseStatusID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: parse status id %q: %w", m.ID, err)
	}

	steps := make([]status.Milestone, len(m.Steps))
	for i, s := range m.Steps {
		steps[i] = status.Milestone{
			Name:      s.Name,
			Status:    s.Status,
			Timestamp: s.Timestamp,
			Details:   s.Details,
		}
	}

	return &status.Projection{
		ID:           parsedID,
		SubjectID:    m.SubjectID,
		Type:         m.Type,
		Status:       m.Status,
		ResourceID:   m.ResourceID,
		ResourceType: m.ResourceType,
		Steps:        steps,
		StartedAt:    m.StartedAt,
		UpdatedAt:    m.UpdatedAt,
		CompletedAt:  m.CompletedAt,
	}, nil
}

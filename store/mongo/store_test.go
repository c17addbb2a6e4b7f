package mongo_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/saga"
	"github.com/xraph/onboard/status"
	"github.com/xraph/onboard/store/mongo"
)

// newTestStore connects to the MongoDB instance named by
// ONBOARD_MONGO_URI, skipping the test when unset. Collections are
// shared; every test uses fresh TypeIDs so runs never collide.
func newTestStore(t *testing.T) *mongo.Store {
	t.Helper()

	uri := os.Getenv("ONBOARD_MONGO_URI")
	if uri == "" {
		t.Skip("ONBOARD_MONGO_URI not set, skipping mongo integration test")
	}

	ctx := context.Background()
	drv, err := grove.OpenDriver(ctx, "mongo", uri)
	if err != nil {
		t.Fatalf("open grove driver: %v", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatalf("open grove: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := mongo.New(db)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestMongoStore_InstanceRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	inst := &saga.Instance{
		ID:        id.NewSagaID(),
		Kind:      "invite",
		SubjectID: "user_mongo",
		Input:     []byte(`{"email":"a@b.test"}`),
		Status:    saga.StatusInProgress,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateInstance(ctx, inst); err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	got, err := s.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got.Kind != "invite" || got.SubjectID != "user_mongo" {
		t.Fatalf("GetInstance returned %+v", got)
	}

	got.Status = saga.StatusCompleted
	got.ResourceID = "ws_1"
	got.ResourceType = "workspace"
	if err := s.UpdateInstance(ctx, got); err != nil {
		t.Fatalf("UpdateInstance: %v", err)
	}
	again, err := s.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetInstance after update: %v", err)
	}
	if again.Status != saga.StatusCompleted || again.ResourceID != "ws_1" {
		t.Fatalf("update not persisted: %+v", again)
	}

	if _, err := s.GetInstance(ctx, id.NewSagaID()); !errors.Is(err, onboard.ErrInstanceNotFound) {
		t.Fatalf("missing instance err = %v, want ErrInstanceNotFound", err)
	}
}

func TestMongoStore_AppendStepUniqueIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	instanceID := id.NewSagaID()

	entry := &saga.StepEntry{
		ID:          id.NewStepID(),
		InstanceID:  instanceID,
		StepIndex:   0,
		Kind:        saga.StepActivity,
		Name:        "send-welcome-email",
		Result:      []byte(`{"sent":true}`),
		CompletedAt: time.Now().UTC(),
	}
	if err := s.AppendStep(ctx, entry); err != nil {
		t.Fatalf("AppendStep: %v", err)
	}

	dup := *entry
	dup.ID = id.NewStepID()
	if err := s.AppendStep(ctx, &dup); !errors.Is(err, onboard.ErrStepConflict) {
		t.Fatalf("duplicate AppendStep err = %v, want ErrStepConflict", err)
	}

	next := *entry
	next.ID = id.NewStepID()
	next.StepIndex = 1
	next.Kind = saga.StepTimer
	next.Name = "resource.created"
	if err := s.AppendStep(ctx, &next); err != nil {
		t.Fatalf("AppendStep index 1: %v", err)
	}

	steps, err := s.ListSteps(ctx, instanceID)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	if len(steps) != 2 || steps[0].StepIndex != 0 || steps[1].StepIndex != 1 {
		t.Fatalf("ListSteps returned %d entries out of order", len(steps))
	}
}

func TestMongoStore_EventSubscribeAndAck(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	instanceID := id.NewSagaID()

	evt := &event.Event{
		ID:         id.NewEventID(),
		InstanceID: instanceID,
		Name:       "resource.created",
		Payload:    []byte(`{"resourceId":"ws_9"}`),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.PublishEvent(ctx, evt); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}

	got, err := s.SubscribeEvent(ctx, instanceID, "resource.created", 2*time.Second)
	if err != nil {
		t.Fatalf("SubscribeEvent: %v", err)
	}
	if got == nil || got.ID != evt.ID {
		t.Fatalf("SubscribeEvent returned %+v", got)
	}

	if err := s.AckEvent(ctx, evt.ID); err != nil {
		t.Fatalf("AckEvent: %v", err)
	}
	got, err = s.SubscribeEvent(ctx, instanceID, "resource.created", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("SubscribeEvent after ack: %v", err)
	}
	if got != nil {
		t.Fatalf("acked event redelivered: %+v", got)
	}
}

func TestMongoStore_ProjectionFinders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subjectID := "user_" + id.NewSagaID().String()

	older := &status.Projection{
		ID:        id.NewStatusID(),
		SubjectID: subjectID,
		Type:      "new_workspace",
		Status:    "abandoned",
		StartedAt: time.Now().UTC().Add(-time.Hour),
		UpdatedAt: time.Now().UTC().Add(-time.Hour),
	}
	active := &status.Projection{
		ID:        id.NewStatusID(),
		SubjectID: subjectID,
		Type:      "new_workspace",
		Status:    "in_progress",
		StartedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Steps: []status.Milestone{
			{Name: "input_validated", Status: status.MilestoneCompleted},
		},
	}
	for _, p := range []*status.Projection{older, active} {
		if err := s.CreateProjection(ctx, p); err != nil {
			t.Fatalf("CreateProjection: %v", err)
		}
	}

	got, err := s.FindInProgress(ctx, subjectID, "new_workspace")
	if err != nil {
		t.Fatalf("FindInProgress: %v", err)
	}
	if got.ID != active.ID {
		t.Fatalf("FindInProgress returned %s, want %s", got.ID, active.ID)
	}

	latest, err := s.FindLatest(ctx, subjectID, "new_workspace")
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if latest.ID != active.ID {
		t.Fatalf("FindLatest returned %s, want most recently started", latest.ID)
	}

	if _, err := s.FindInProgress(ctx, subjectID, "invite"); !errors.Is(err, onboard.ErrStatusNotFound) {
		t.Fatalf("FindInProgress err = %v, want ErrStatusNotFound", err)
	}
}

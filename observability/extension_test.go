package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/observability"
	"github.com/xraph/onboard/saga"
)

func newTestExtension() *observability.MetricsExtension {
	return observability.NewMetricsExtensionWithFactory(gu.NewMetricsCollector("test"))
}

func newTestInstance() *saga.Instance {
	return &saga.Instance{
		ID:        id.NewSagaID(),
		Kind:      saga.KindNewWorkspace,
		SubjectID: "user_1",
	}
}

func newTestEvent() *event.Event {
	return &event.Event{
		ID:         id.NewEventID(),
		InstanceID: id.NewSagaID(),
		Name:       "resource.created",
	}
}

func TestMetricsExtension_Name(t *testing.T) {
	e := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_SagaStarted(t *testing.T) {
	e := newTestExtension()
	if err := e.OnSagaStarted(context.Background(), newTestInstance()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.SagaStarted.Value() != 1 {
		t.Errorf("SagaStarted: want 1, got %v", e.SagaStarted.Value())
	}
}

func TestMetricsExtension_SagaCompleted(t *testing.T) {
	e := newTestExtension()
	if err := e.OnSagaCompleted(context.Background(), newTestInstance()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.SagaCompleted.Value() != 1 {
		t.Errorf("SagaCompleted: want 1, got %v", e.SagaCompleted.Value())
	}
}

func TestMetricsExtension_SagaAbandoned(t *testing.T) {
	e := newTestExtension()
	if err := e.OnSagaAbandoned(context.Background(), newTestInstance(), "wait exhausted"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.SagaAbandoned.Value() != 1 {
		t.Errorf("SagaAbandoned: want 1, got %v", e.SagaAbandoned.Value())
	}
}

func TestMetricsExtension_StepOutcomes(t *testing.T) {
	e := newTestExtension()
	if err := e.OnSagaStepCompleted(context.Background(), newTestInstance(), "send-welcome-email", 100*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.OnSagaStepFailed(context.Background(), newTestInstance(), "grant-workspace-access", errors.New("boom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.StepCompleted.Value() != 1 {
		t.Errorf("StepCompleted: want 1, got %v", e.StepCompleted.Value())
	}
	if e.StepFailed.Value() != 1 {
		t.Errorf("StepFailed: want 1, got %v", e.StepFailed.Value())
	}
}

func TestMetricsExtension_EventCorrelation(t *testing.T) {
	e := newTestExtension()
	if err := e.OnEventCorrelated(context.Background(), newTestEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.OnEventOrphaned(context.Background(), newTestEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.EventCorrelated.Value() != 1 {
		t.Errorf("EventCorrelated: want 1, got %v", e.EventCorrelated.Value())
	}
	if e.EventOrphaned.Value() != 1 {
		t.Errorf("EventOrphaned: want 1, got %v", e.EventOrphaned.Value())
	}
}

func TestMetricsExtension_StatusDegraded(t *testing.T) {
	e := newTestExtension()
	if err := e.OnStatusDegraded(context.Background(), "user_1", "invite", errors.New("db down")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.StatusDegraded.Value() != 1 {
		t.Errorf("StatusDegraded: want 1, got %v", e.StatusDegraded.Value())
	}
}

func TestMetricsExtension_AccumulatesAcrossCalls(t *testing.T) {
	e := newTestExtension()
	for range 3 {
		if err := e.OnSagaStarted(context.Background(), newTestInstance()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if e.SagaStarted.Value() != 3 {
		t.Errorf("SagaStarted: want 3, got %v", e.SagaStarted.Value())
	}
}

package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/ext"
	"github.com/xraph/onboard/saga"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnSagaStarted(_ context.Context, _ *saga.Instance) error {
	e.calls = append(e.calls, "OnSagaStarted")
	return nil
}

func (e *allHooksExt) OnSagaStepCompleted(_ context.Context, _ *saga.Instance, _ string, _ time.Duration) error {
	e.calls = append(e.calls, "OnSagaStepCompleted")
	return nil
}

func (e *allHooksExt) OnSagaStepFailed(_ context.Context, _ *saga.Instance, _ string, _ error) error {
	e.calls = append(e.calls, "OnSagaStepFailed")
	return nil
}

func (e *allHooksExt) OnSagaCompleted(_ context.Context, _ *saga.Instance) error {
	e.calls = append(e.calls, "OnSagaCompleted")
	return nil
}

func (e *allHooksExt) OnSagaAbandoned(_ context.Context, _ *saga.Instance, _ string) error {
	e.calls = append(e.calls, "OnSagaAbandoned")
	return nil
}

func (e *allHooksExt) OnEventCorrelated(_ context.Context, _ *event.Event) error {
	e.calls = append(e.calls, "OnEventCorrelated")
	return nil
}

func (e *allHooksExt) OnEventOrphaned(_ context.Context, _ *event.Event) error {
	e.calls = append(e.calls, "OnEventOrphaned")
	return nil
}

func (e *allHooksExt) OnStatusDegraded(_ context.Context, _, _ string, _ error) error {
	e.calls = append(e.calls, "OnStatusDegraded")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// sagaOnlyExt only implements saga lifecycle hooks.
type sagaOnlyExt struct {
	calls []string
}

func (e *sagaOnlyExt) Name() string { return "saga-only" }

func (e *sagaOnlyExt) OnSagaStarted(_ context.Context, _ *saga.Instance) error {
	e.calls = append(e.calls, "OnSagaStarted")
	return nil
}

func (e *sagaOnlyExt) OnSagaCompleted(_ context.Context, _ *saga.Instance) error {
	e.calls = append(e.calls, "OnSagaCompleted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnSagaStarted(_ context.Context, _ *saga.Instance) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&allHooksExt{})

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	so := &sagaOnlyExt{}
	r.Register(all)
	r.Register(so)

	ctx := context.Background()
	inst := &saga.Instance{Kind: saga.KindInvite}

	// Both implement OnSagaStarted → both called.
	r.EmitSagaStarted(ctx, inst)
	if len(all.calls) != 1 || all.calls[0] != "OnSagaStarted" {
		t.Fatalf("all: expected [OnSagaStarted], got %v", all.calls)
	}
	if len(so.calls) != 1 || so.calls[0] != "OnSagaStarted" {
		t.Fatalf("so: expected [OnSagaStarted], got %v", so.calls)
	}

	// Only all implements OnSagaStepCompleted → so not called.
	r.EmitSagaStepCompleted(ctx, inst, "send-welcome-email", time.Second)
	if len(all.calls) != 2 || all.calls[1] != "OnSagaStepCompleted" {
		t.Fatalf("all: expected OnSagaStepCompleted as 2nd, got %v", all.calls)
	}
	if len(so.calls) != 1 {
		t.Fatalf("so: should still have 1 call, got %v", so.calls)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	inst := &saga.Instance{Kind: saga.KindNewWorkspace}
	evt := &event.Event{Name: "resource.created"}

	r.EmitSagaStarted(ctx, inst)
	r.EmitSagaStepCompleted(ctx, inst, "step", time.Second)
	r.EmitSagaStepFailed(ctx, inst, "step", errors.New("fail"))
	r.EmitSagaCompleted(ctx, inst)
	r.EmitSagaAbandoned(ctx, inst, "wait exhausted")
	r.EmitEventCorrelated(ctx, evt)
	r.EmitEventOrphaned(ctx, evt)
	r.EmitStatusDegraded(ctx, "user_1", "invite", errors.New("db down"))
	r.EmitShutdown(ctx)

	expected := []string{
		"OnSagaStarted", "OnSagaStepCompleted", "OnSagaStepFailed",
		"OnSagaCompleted", "OnSagaAbandoned",
		"OnEventCorrelated", "OnEventOrphaned",
		"OnStatusDegraded", "OnShutdown",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(&failingExt{})
	r.Register(all)

	ctx := context.Background()
	inst := &saga.Instance{Kind: saga.KindInvite}

	// No panic, no error propagation. allHooksExt should still fire.
	r.EmitSagaStarted(ctx, inst)

	if len(all.calls) != 1 || all.calls[0] != "OnSagaStarted" {
		t.Fatalf("all: expected [OnSagaStarted] despite failing ext, got %v", all.calls)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ctx := context.Background()

	// None of these should panic or error.
	r.EmitSagaStarted(ctx, &saga.Instance{})
	r.EmitSagaStepCompleted(ctx, &saga.Instance{}, "s", time.Second)
	r.EmitSagaStepFailed(ctx, &saga.Instance{}, "s", errors.New("x"))
	r.EmitSagaCompleted(ctx, &saga.Instance{})
	r.EmitSagaAbandoned(ctx, &saga.Instance{}, "x")
	r.EmitEventCorrelated(ctx, &event.Event{})
	r.EmitEventOrphaned(ctx, &event.Event{})
	r.EmitStatusDegraded(ctx, "s", "t", errors.New("x"))
	r.EmitShutdown(ctx)
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ext1 := &allHooksExt{}
	ext2 := &allHooksExt{}
	r.Register(ext1)
	r.Register(ext2)

	r.EmitSagaStarted(context.Background(), &saga.Instance{})

	// Both should be called.
	if len(ext1.calls) != 1 {
		t.Errorf("ext1: expected 1 call, got %d", len(ext1.calls))
	}
	if len(ext2.calls) != 1 {
		t.Errorf("ext2: expected 1 call, got %d", len(ext2.calls))
	}
}

package saga_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/onboard/saga"
)

func waitPolicy(timeout time.Duration, attempts int) saga.RetryPolicy {
	return saga.RetryPolicy{TimeoutPerAttempt: timeout, MaxAttempts: attempts}
}

func TestAwaitEvent_EventAlreadyPersisted(t *testing.T) {
	runner, reg, _, bus, inv := newTestRunner()

	var result *saga.WaitResult
	saga.RegisterDefinition(reg, saga.NewSaga("await", func(sg *saga.Saga, _ struct{}) error {
		r, err := sg.AwaitEvent("resource.created", waitPolicy(200*time.Millisecond, 3),
			&saga.SideEffect{Activity: "send-reminder"},
			&saga.SideEffect{Activity: "send-abandoned"},
		)
		result = r
		return err
	}))

	inst, err := runner.Create(context.Background(), "await", "user_1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Event arrives before the saga starts waiting. It must still
	// resolve the wait: deliveries accumulate, they are not dropped.
	if _, _, pubErr := bus.Publish(context.Background(), inst.ID, "resource.created", []byte(`{"resourceId":"ws_1"}`)); pubErr != nil {
		t.Fatalf("Publish: %v", pubErr)
	}

	if _, resErr := runner.Resume(context.Background(), inst.ID); resErr != nil {
		t.Fatalf("Resume: %v", resErr)
	}

	if result == nil || !result.Succeeded {
		t.Fatalf("result = %+v, want succeeded", result)
	}
	if result.Outcome != saga.WaitCompleted {
		t.Errorf("outcome = %q, want %q", result.Outcome, saga.WaitCompleted)
	}
	if result.AttemptsUsed != 0 {
		t.Errorf("AttemptsUsed = %d, want 0 (event beat the first timer)", result.AttemptsUsed)
	}
	if string(result.Payload) != `{"resourceId":"ws_1"}` {
		t.Errorf("payload = %q", string(result.Payload))
	}
	if inv.count("send-reminder") != 0 || inv.count("send-abandoned") != 0 {
		t.Errorf("side effects fired on success: reminder=%d abandoned=%d",
			inv.count("send-reminder"), inv.count("send-abandoned"))
	}
}

func TestAwaitEvent_Exhaustion(t *testing.T) {
	runner, reg, _, _, inv := newTestRunner()

	var result *saga.WaitResult
	saga.RegisterDefinition(reg, saga.NewSaga("exhaust", func(sg *saga.Saga, _ struct{}) error {
		r, err := sg.AwaitEvent("resource.created", waitPolicy(30*time.Millisecond, 3),
			&saga.SideEffect{Activity: "send-reminder"},
			&saga.SideEffect{Activity: "send-abandoned"},
		)
		result = r
		return err
	}))

	// No event is ever published. Exhaustion is not an error.
	inst, err := saga.Start(context.Background(), runner, "exhaust", "user_1", struct{}{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if inst.Status != saga.StatusCompleted {
		t.Errorf("status = %q, want %q (handler accepted the abandoned wait)", inst.Status, saga.StatusCompleted)
	}

	if result == nil || result.Succeeded {
		t.Fatalf("result = %+v, want abandoned", result)
	}
	if result.Outcome != saga.WaitAbandoned {
		t.Errorf("outcome = %q, want %q", result.Outcome, saga.WaitAbandoned)
	}
	if result.AttemptsUsed != 3 {
		t.Errorf("AttemptsUsed = %d, want 3", result.AttemptsUsed)
	}

	// Reminders fire between attempts, never after the last one;
	// the exhaustion effect fires exactly once.
	if inv.count("send-reminder") != 2 {
		t.Errorf("reminder invocations = %d, want 2", inv.count("send-reminder"))
	}
	if inv.count("send-abandoned") != 1 {
		t.Errorf("abandoned invocations = %d, want 1", inv.count("send-abandoned"))
	}
}

func TestAwaitEvent_EventAfterTimeouts(t *testing.T) {
	runner, reg, _, bus, inv := newTestRunner()

	var result *saga.WaitResult
	saga.RegisterDefinition(reg, saga.NewSaga("late-event", func(sg *saga.Saga, _ struct{}) error {
		r, err := sg.AwaitEvent("resource.created", waitPolicy(100*time.Millisecond, 5),
			&saga.SideEffect{Activity: "send-reminder"},
			&saga.SideEffect{Activity: "send-abandoned"},
		)
		result = r
		return err
	}))

	inst, err := runner.Create(context.Background(), "late-event", "user_1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Publish mid-way through the third attempt window.
	go func() {
		time.Sleep(250 * time.Millisecond)
		_, _, _ = bus.Publish(context.Background(), inst.ID, "resource.created", nil)
	}()

	if _, resErr := runner.Resume(context.Background(), inst.ID); resErr != nil {
		t.Fatalf("Resume: %v", resErr)
	}

	if result == nil || !result.Succeeded {
		t.Fatalf("result = %+v, want succeeded", result)
	}
	if result.AttemptsUsed != 2 {
		t.Errorf("AttemptsUsed = %d, want 2 (two timeouts elapsed first)", result.AttemptsUsed)
	}
	if inv.count("send-reminder") != 2 {
		t.Errorf("reminder invocations = %d, want 2", inv.count("send-reminder"))
	}
	if inv.count("send-abandoned") != 0 {
		t.Errorf("abandoned invocations = %d, want 0", inv.count("send-abandoned"))
	}
}

func TestAwaitEvent_AckedEventCannotResolveLaterWait(t *testing.T) {
	runner, reg, _, bus, _ := newTestRunner()

	var first, second *saga.WaitResult
	saga.RegisterDefinition(reg, saga.NewSaga("double-wait", func(sg *saga.Saga, _ struct{}) error {
		r1, err := sg.AwaitEvent("resource.created", waitPolicy(40*time.Millisecond, 1), nil, nil)
		if err != nil {
			return err
		}
		first = r1
		r2, err := sg.AwaitEvent("resource.created", waitPolicy(40*time.Millisecond, 1), nil, nil)
		if err != nil {
			return err
		}
		second = r2
		return nil
	}))

	inst, err := runner.Create(context.Background(), "double-wait", "user_1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, pubErr := bus.Publish(context.Background(), inst.ID, "resource.created", nil); pubErr != nil {
		t.Fatalf("Publish: %v", pubErr)
	}

	if _, resErr := runner.Resume(context.Background(), inst.ID); resErr != nil {
		t.Fatalf("Resume: %v", resErr)
	}

	if first == nil || !first.Succeeded {
		t.Fatalf("first wait = %+v, want succeeded", first)
	}
	if second == nil || second.Succeeded {
		t.Fatalf("second wait = %+v, want abandoned (event was acked by the first)", second)
	}
}

func TestAwaitEvent_RejectsInvalidArguments(t *testing.T) {
	runner, reg, _, _, _ := newTestRunner()

	saga.RegisterDefinition(reg, saga.NewSaga("no-name", func(sg *saga.Saga, _ struct{}) error {
		_, err := sg.AwaitEvent("", waitPolicy(time.Second, 1), nil, nil)
		return err
	}))
	saga.RegisterDefinition(reg, saga.NewSaga("bad-policy", func(sg *saga.Saga, _ struct{}) error {
		_, err := sg.AwaitEvent("resource.created", waitPolicy(0, 0), nil, nil)
		return err
	}))

	if _, err := saga.Start(context.Background(), runner, "no-name", "user_1", struct{}{}); err == nil {
		t.Error("expected error for empty event name")
	}
	if _, err := saga.Start(context.Background(), runner, "bad-policy", "user_1", struct{}{}); err == nil {
		t.Error("expected error for invalid retry policy")
	}
}

func TestRetryPolicy_Validate(t *testing.T) {
	if err := waitPolicy(time.Second, 1).Validate(); err != nil {
		t.Errorf("valid policy rejected: %v", err)
	}
	if err := waitPolicy(time.Second, 0).Validate(); err == nil {
		t.Error("expected error for zero attempts")
	}
	if err := waitPolicy(0, 3).Validate(); err == nil {
		t.Error("expected error for zero timeout")
	}
	if err := waitPolicy(-time.Second, 3).Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}
}

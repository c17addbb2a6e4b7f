package event_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/store/memory"
)

func newTestBus() *event.Bus {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return event.NewBus(memory.New(), logger)
}

func TestBus_PublishThenSubscribe(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()
	instID := id.NewSagaID()

	// Publish before anyone is waiting: the delivery is orphaned but
	// the event is persisted for the next subscription.
	evt, delivered, err := bus.Publish(ctx, instID, "resource.created", []byte(`{"resourceId":"ws_1"}`))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if delivered {
		t.Error("expected orphaned delivery with no waiters")
	}
	if evt.Name != "resource.created" {
		t.Errorf("Name = %q, want %q", evt.Name, "resource.created")
	}

	got, err := bus.Subscribe(ctx, instID, "resource.created", time.Second)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got == nil {
		t.Fatal("expected event, got nil")
	}
	if got.ID != evt.ID {
		t.Errorf("event ID = %s, want %s", got.ID, evt.ID)
	}
	if string(got.Payload) != `{"resourceId":"ws_1"}` {
		t.Errorf("Payload = %q", string(got.Payload))
	}
}

func TestBus_SubscribeThenPublish(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()
	instID := id.NewSagaID()

	type result struct {
		evt *event.Event
		err error
	}
	ch := make(chan result, 1)
	go func() {
		evt, err := bus.Subscribe(ctx, instID, "resource.created", 2*time.Second)
		ch <- result{evt, err}
	}()

	// Give the subscription time to register as a waiter.
	time.Sleep(50 * time.Millisecond)
	_, delivered, err := bus.Publish(ctx, instID, "resource.created", nil)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !delivered {
		t.Error("expected correlated delivery with an active waiter")
	}

	r := <-ch
	if r.err != nil {
		t.Fatalf("Subscribe: %v", r.err)
	}
	if r.evt == nil {
		t.Fatal("expected event, got nil")
	}
}

func TestBus_SubscribeTimeout(t *testing.T) {
	bus := newTestBus()

	got, err := bus.Subscribe(context.Background(), id.NewSagaID(), "never", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil event on timeout, got %+v", got)
	}
}

func TestBus_AckPreventsRedelivery(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()
	instID := id.NewSagaID()

	evt, _, err := bus.Publish(ctx, instID, "resource.created", nil)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ackErr := bus.Ack(ctx, evt.ID); ackErr != nil {
		t.Fatalf("Ack: %v", ackErr)
	}

	got, err := bus.Subscribe(ctx, instID, "resource.created", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Subscribe after ack: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after ack, got %+v", got)
	}
}

func TestBus_FIFOWithinPair(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()
	instID := id.NewSagaID()

	first, _, err := bus.Publish(ctx, instID, "resource.created", []byte(`1`))
	if err != nil {
		t.Fatalf("Publish 1: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, _, err := bus.Publish(ctx, instID, "resource.created", []byte(`2`))
	if err != nil {
		t.Fatalf("Publish 2: %v", err)
	}

	got1, err := bus.Subscribe(ctx, instID, "resource.created", time.Second)
	if err != nil {
		t.Fatalf("Subscribe 1: %v", err)
	}
	if got1 == nil || got1.ID != first.ID {
		t.Fatalf("first delivery = %+v, want %s", got1, first.ID)
	}
	if ackErr := bus.Ack(ctx, got1.ID); ackErr != nil {
		t.Fatalf("Ack: %v", ackErr)
	}

	got2, err := bus.Subscribe(ctx, instID, "resource.created", time.Second)
	if err != nil {
		t.Fatalf("Subscribe 2: %v", err)
	}
	if got2 == nil || got2.ID != second.ID {
		t.Fatalf("second delivery = %+v, want %s", got2, second.ID)
	}
}

func TestBus_PairIsolation(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()
	instA := id.NewSagaID()
	instB := id.NewSagaID()

	if _, _, err := bus.Publish(ctx, instA, "resource.created", nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Same event name, different instance: no delivery.
	got, err := bus.Subscribe(ctx, instB, "resource.created", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unrelated instance, got %+v", got)
	}
}

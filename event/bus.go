// Package event provides the correlation bus between external triggers
// and waiting sagas: publish/subscribe over a durable event store, keyed
// by (instance, event name).
package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/onboard/id"
)

// Bus provides high-level publish/subscribe operations over an event
// Store. Sagas wait on it through AwaitEvent; the event-notify endpoint
// publishes through it to resume them.
//
// The Bus tracks in-process waiters so Publish can report orphaned
// deliveries (a valid signal that no saga is currently waiting for).
// Orphaned events are still persisted and satisfy the next subscription
// on the same pair.
type Bus struct {
	store  Store
	logger *slog.Logger

	mu      sync.Mutex
	waiters map[string]int // "instanceID/name" → active subscription count
}

// NewBus creates an event bus backed by the given store.
func NewBus(store Store, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		store:   store,
		logger:  logger,
		waiters: make(map[string]int),
	}
}

// Publish creates and persists a new event for the given saga instance.
// The returned bool reports whether a saga is currently waiting on the
// (instance, name) pair; false means the delivery is orphaned, which is
// logged but not an error — the event stays available for a later wait.
func (b *Bus) Publish(ctx context.Context, instanceID id.SagaID, name string, payload []byte) (*Event, bool, error) {
	evt := &Event{
		ID:         id.NewEventID(),
		InstanceID: instanceID,
		Name:       name,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	if err := b.store.PublishEvent(ctx, evt); err != nil {
		return nil, false, err
	}

	delivered := b.waiting(instanceID, name)
	if !delivered {
		b.logger.Info("orphaned event delivery",
			slog.String("instance_id", instanceID.String()),
			slog.String("event", name),
			slog.String("event_id", evt.ID.String()),
		)
	}
	return evt, delivered, nil
}

// Subscribe waits for an unacked event on the (instance, name) pair.
// Blocks until available, timeout, or ctx cancellation. Returns nil on
// timeout. The waiter is registered for the duration of the call so
// Publish can distinguish correlated from orphaned deliveries.
func (b *Bus) Subscribe(ctx context.Context, instanceID id.SagaID, name string, timeout time.Duration) (*Event, error) {
	key := waiterKey(instanceID, name)

	b.mu.Lock()
	b.waiters[key]++
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.waiters[key]--
		if b.waiters[key] <= 0 {
			delete(b.waiters, key)
		}
		b.mu.Unlock()
	}()

	return b.store.SubscribeEvent(ctx, instanceID, name, timeout)
}

// Ack acknowledges an event, marking it as consumed.
func (b *Bus) Ack(ctx context.Context, eventID id.EventID) error {
	return b.store.AckEvent(ctx, eventID)
}

// Store returns the underlying event store.
func (b *Bus) Store() Store { return b.store }

// waiting reports whether any subscription is active for the pair.
func (b *Bus) waiting(instanceID id.SagaID, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiters[waiterKey(instanceID, name)] > 0
}

func waiterKey(instanceID id.SagaID, name string) string {
	return instanceID.String() + "/" + name
}

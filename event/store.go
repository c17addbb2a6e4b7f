package event

import (
	"context"
	"time"

	"github.com/xraph/onboard/id"
)

// Store defines the persistence contract for external events.
type Store interface {
	// PublishEvent persists a new event and makes it available for
	// subscribers on its (instance, name) pair.
	PublishEvent(ctx context.Context, evt *Event) error

	// SubscribeEvent waits for an unacked event matching the given
	// (instance, name) pair. Blocks until an event is available, the
	// timeout expires, or ctx is cancelled. Events are delivered FIFO
	// by creation time. Returns nil if no event arrives within the
	// timeout.
	SubscribeEvent(ctx context.Context, instanceID id.SagaID, name string, timeout time.Duration) (*Event, error)

	// AckEvent acknowledges an event, marking it as consumed so it can
	// never resolve a later, unrelated wait on the same pair.
	AckEvent(ctx context.Context, eventID id.EventID) error
}

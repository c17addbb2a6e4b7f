package event

import (
	"time"

	"github.com/xraph/onboard/id"
)

// Event represents an external signal correlated to a single saga
// instance. Sagas wait for events by (instance, name) pair; events for
// pairs nobody is waiting on remain unacked and satisfy the next wait
// on the same pair.
type Event struct {
	ID         id.EventID `json:"id"`
	InstanceID id.SagaID  `json:"instance_id"`
	Name       string     `json:"name"`
	Payload    []byte     `json:"payload,omitempty"`
	Acked      bool       `json:"acked"`
	CreatedAt  time.Time  `json:"created_at"`
}

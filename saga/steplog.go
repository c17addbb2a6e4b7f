package saga

import (
	"time"

	"github.com/xraph/onboard/id"
)

// StepKind classifies a step log entry by the kind of work it records.
type StepKind string

const (
	// StepActivity records an activity invocation and its result or error.
	StepActivity StepKind = "activity"
	// StepTimer records a timer that fired (a wait attempt that timed out).
	StepTimer StepKind = "timer"
	// StepEvent records an external event that resolved a wait.
	StepEvent StepKind = "event"
)

// StepEntry is one record in a saga instance's append-only step log.
//
// Entries are dense: StepIndex runs 0,1,2,… in the exact order the
// engine issued the operations. Replay walks the log from index zero and
// short-circuits any recorded step by returning its result instead of
// re-executing it. Entries are never mutated after append.
type StepEntry struct {
	ID          id.StepID `json:"id"`
	InstanceID  id.SagaID `json:"instance_id"`
	StepIndex   int       `json:"step_index"`
	Kind        StepKind  `json:"kind"`
	Name        string    `json:"name"`
	Result      []byte    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

package saga

import (
	"errors"
	"fmt"
	"time"
)

// RetryPolicy bounds a wait for an external event: each attempt races a
// timer of TimeoutPerAttempt against the event, and the wait is
// exhausted after MaxAttempts timeouts without the event arriving.
type RetryPolicy struct {
	TimeoutPerAttempt time.Duration
	MaxAttempts       int
}

// Validate checks the policy invariants.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy: max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.TimeoutPerAttempt <= 0 {
		return fmt.Errorf("retry policy: timeout per attempt must be positive, got %s", p.TimeoutPerAttempt)
	}
	return nil
}

// WaitOutcome is the terminal disposition of an AwaitEvent call.
type WaitOutcome string

const (
	// WaitCompleted means the event arrived before the policy was exhausted.
	WaitCompleted WaitOutcome = "completed"
	// WaitAbandoned means every attempt timed out. Not an error: callers
	// decide whether to treat exhaustion as saga failure.
	WaitAbandoned WaitOutcome = "abandoned"
)

// WaitResult reports how an AwaitEvent call resolved.
type WaitResult struct {
	// Succeeded is true when the event arrived in time.
	Succeeded bool
	// Payload is the event payload, nil when abandoned.
	Payload []byte
	// AttemptsUsed is the number of timeouts that elapsed before the
	// event arrived (0 if it beat the first timer), or MaxAttempts when
	// the wait was abandoned.
	AttemptsUsed int
	// Outcome is WaitCompleted or WaitAbandoned.
	Outcome WaitOutcome
}

// SideEffect describes a durable activity invoked by AwaitEvent on
// timeout or exhaustion. Input builds the activity input from the
// current attempt count; a nil Input sends no payload.
type SideEffect struct {
	Activity string
	Input    func(attempt, maxAttempts int) any
}

// errEmptyEventName is returned when AwaitEvent is called without a name.
var errEmptyEventName = errors.New("await event: event name must not be empty")

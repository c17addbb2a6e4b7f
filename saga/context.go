package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/id"
)

// ActivityInvoker executes a named activity with a raw JSON input.
// This interface is satisfied by activity.Registry (wrapped in the
// engine's middleware chain) to break the import cycle between saga
// and the engine layer.
type ActivityInvoker interface {
	Invoke(ctx context.Context, instanceID id.SagaID, name string, input []byte) ([]byte, error)
}

// StepEmitter is called by the Saga to emit step lifecycle events.
// Satisfied by ext.Registry via an adapter in the engine package.
type StepEmitter interface {
	EmitStepCompleted(ctx context.Context, inst *Instance, stepName string, elapsed time.Duration)
	EmitStepFailed(ctx context.Context, inst *Instance, stepName string, err error)
}

// Saga is the execution context passed to saga handler functions.
// It provides durable activity invocation (Do) and the bounded
// retry-until-event wait (AwaitEvent).
//
// The context holds a cursor over the instance's step log. Every
// durable operation consumes exactly one log position: if an entry is
// recorded there, the operation replays it without side effects;
// otherwise the operation executes for real and appends the entry
// before advancing. A recorded entry whose kind or name does not match
// the operation consuming it means the handler diverged from the log,
// which is a hard error.
type Saga struct {
	ctx     context.Context
	inst    *Instance
	store   Store
	bus     *event.Bus
	invoker ActivityInvoker
	emitter StepEmitter
	logger  *slog.Logger

	log    []*StepEntry
	cursor int
}

// NewContext creates a Saga execution context over an already-loaded
// step log. This is called by the saga runner, not by users.
func NewContext(
	ctx context.Context,
	inst *Instance,
	store Store,
	bus *event.Bus,
	invoker ActivityInvoker,
	emitter StepEmitter,
	logger *slog.Logger,
	log []*StepEntry,
) *Saga {
	return &Saga{
		ctx:     ctx,
		inst:    inst,
		store:   store,
		bus:     bus,
		invoker: invoker,
		emitter: emitter,
		logger:  logger,
		log:     log,
	}
}

// Context returns the underlying context.Context.
func (sg *Saga) Context() context.Context { return sg.ctx }

// InstanceID returns the saga instance ID.
func (sg *Saga) InstanceID() id.SagaID { return sg.inst.ID }

// Instance returns the saga instance.
func (sg *Saga) Instance() *Instance { return sg.inst }

// SetResource records the platform resource the saga resolved and
// persists the instance immediately so the correlation survives a
// restart before the terminal write.
func (sg *Saga) SetResource(resourceID, resourceType string) error {
	sg.inst.ResourceID = resourceID
	sg.inst.ResourceType = resourceType
	sg.inst.UpdatedAt = time.Now().UTC()
	if err := sg.store.UpdateInstance(sg.ctx, sg.inst); err != nil {
		return fmt.Errorf("saga %s: persist resolved resource: %w", sg.inst.Kind, err)
	}
	return nil
}

// Do executes a named activity with a typed input and decodes its
// typed output. If the next step log entry records this activity, the
// recorded result (or recorded failure) is returned without invoking
// the activity again.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Do[I, O any](sg *Saga, name string, input I) (O, error) {
	var zero O

	data, err := json.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("saga %s: marshal input for activity %q: %w", sg.inst.Kind, name, err)
	}

	out, err := sg.do(name, data)
	if err != nil {
		return zero, err
	}

	var result O
	if len(out) > 0 {
		if decErr := json.Unmarshal(out, &result); decErr != nil {
			return zero, fmt.Errorf("saga %s: decode output of activity %q: %w", sg.inst.Kind, name, decErr)
		}
	}
	return result, nil
}

// do is the untyped core of Do: replay if recorded, else invoke and record.
func (sg *Saga) do(name string, input []byte) ([]byte, error) {
	if entry, ok := sg.peek(); ok {
		if entry.Kind != StepActivity || entry.Name != name {
			return nil, sg.divergence(entry, StepActivity, name)
		}
		sg.cursor++
		sg.logger.Debug("replaying recorded activity",
			slog.String("instance_id", sg.inst.ID.String()),
			slog.String("activity", name),
			slog.Int("step_index", entry.StepIndex),
		)
		if entry.Error != "" {
			return nil, fmt.Errorf("saga %s activity %q: %s", sg.inst.Kind, name, entry.Error)
		}
		return entry.Result, nil
	}

	start := time.Now()
	out, actErr := sg.invoker.Invoke(sg.ctx, sg.inst.ID, name, input)
	elapsed := time.Since(start)

	if actErr != nil {
		sg.emitter.EmitStepFailed(sg.ctx, sg.inst, name, actErr)
		if recErr := sg.record(StepActivity, name, nil, actErr.Error()); recErr != nil {
			return nil, recErr
		}
		return nil, fmt.Errorf("saga %s activity %q: %w", sg.inst.Kind, name, actErr)
	}

	if recErr := sg.record(StepActivity, name, out, ""); recErr != nil {
		return nil, recErr
	}
	sg.emitter.EmitStepCompleted(sg.ctx, sg.inst, name, elapsed)
	return out, nil
}

// AwaitEvent waits for a named external event, bounded by the retry
// policy. Each attempt races a timer of policy.TimeoutPerAttempt
// against the event subscription for (instance, name); the losing side
// is cancelled. If the timer wins and attempts remain, the onTimeout
// side effect runs durably (its failure aborts the wait); after the
// final timeout, the onExhausted side effect runs and the wait resolves
// to WaitAbandoned. Exhaustion is a result, not an error — the caller
// decides what it means for the saga.
func (sg *Saga) AwaitEvent(name string, policy RetryPolicy, onTimeout, onExhausted *SideEffect) (*WaitResult, error) {
	if name == "" {
		return nil, errEmptyEventName
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("saga %s await %q: %w", sg.inst.Kind, name, err)
	}

	attempt := 0
	for attempt < policy.MaxAttempts {
		payload, arrived, err := sg.raceStep(name, policy.TimeoutPerAttempt)
		if err != nil {
			return nil, err
		}

		if arrived {
			return &WaitResult{
				Succeeded:    true,
				Payload:      payload,
				AttemptsUsed: attempt,
				Outcome:      WaitCompleted,
			}, nil
		}

		attempt++
		if attempt < policy.MaxAttempts && onTimeout != nil {
			if effErr := sg.runSideEffect(onTimeout, attempt, policy.MaxAttempts); effErr != nil {
				return nil, effErr
			}
		}
	}

	if onExhausted != nil {
		if effErr := sg.runSideEffect(onExhausted, policy.MaxAttempts, policy.MaxAttempts); effErr != nil {
			return nil, effErr
		}
	}

	return &WaitResult{
		Succeeded:    false,
		AttemptsUsed: policy.MaxAttempts,
		Outcome:      WaitAbandoned,
	}, nil
}

// raceStep resolves one attempt of an event wait: replay the recorded
// outcome if present, otherwise race a real timer against a real
// subscription and record whichever won.
func (sg *Saga) raceStep(name string, timeout time.Duration) (payload []byte, arrived bool, err error) {
	if entry, ok := sg.peek(); ok {
		if entry.Name != name || (entry.Kind != StepTimer && entry.Kind != StepEvent) {
			return nil, false, sg.divergence(entry, StepEvent, name)
		}
		sg.cursor++
		return entry.Result, entry.Kind == StepEvent, nil
	}

	evt, raceErr := sg.race(name, timeout)
	if raceErr != nil {
		return nil, false, fmt.Errorf("saga %s await %q: %w", sg.inst.Kind, name, raceErr)
	}

	if evt == nil {
		if recErr := sg.record(StepTimer, name, nil, ""); recErr != nil {
			return nil, false, recErr
		}
		return nil, false, nil
	}

	// Ack so the event can never resolve a later wait on the same pair.
	if ackErr := sg.bus.Ack(sg.ctx, evt.ID); ackErr != nil {
		sg.logger.Warn("failed to ack event",
			slog.String("event_id", evt.ID.String()),
			slog.String("error", ackErr.Error()),
		)
	}

	if recErr := sg.record(StepEvent, name, evt.Payload, ""); recErr != nil {
		return nil, false, recErr
	}
	sg.emitter.EmitStepCompleted(sg.ctx, sg.inst, name, 0)
	return evt.Payload, true, nil
}

// race concurrently awaits a timer and the event subscription for
// (instance, name), returning the event if it wins and nil on timeout.
// Whichever side loses is cancelled before race returns: the timer is
// stopped, and the subscription's context is cancelled so it cannot
// consume an event meant for a later wait.
func (sg *Saga) race(name string, timeout time.Duration) (*event.Event, error) {
	subCtx, cancel := context.WithCancel(sg.ctx)
	defer cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	type subResult struct {
		evt *event.Event
		err error
	}
	ch := make(chan subResult, 1)

	go func() {
		evt, err := sg.bus.Subscribe(subCtx, sg.inst.ID, name, timeout)
		ch <- subResult{evt, err}
	}()

	select {
	case <-timer.C:
		cancel() // unsubscribe the losing branch
		return nil, nil
	case r := <-ch:
		if r.err != nil {
			if sg.ctx.Err() != nil {
				return nil, sg.ctx.Err()
			}
			return nil, r.err
		}
		// A nil event means the subscription hit its own deadline.
		return r.evt, nil
	case <-sg.ctx.Done():
		return nil, sg.ctx.Err()
	}
}

// runSideEffect durably invokes a timeout/exhaustion side-effect
// activity. Failures propagate and abort the surrounding wait.
func (sg *Saga) runSideEffect(effect *SideEffect, attempt, maxAttempts int) error {
	var input any
	if effect.Input != nil {
		input = effect.Input(attempt, maxAttempts)
	}

	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("saga %s: marshal input for activity %q: %w", sg.inst.Kind, effect.Activity, err)
	}

	_, err = sg.do(effect.Activity, data)
	return err
}

// peek returns the step log entry at the cursor, if any.
func (sg *Saga) peek() (*StepEntry, bool) {
	if sg.cursor < len(sg.log) {
		return sg.log[sg.cursor], true
	}
	return nil, false
}

// record appends a step entry at the cursor position and advances.
func (sg *Saga) record(kind StepKind, name string, result []byte, errMsg string) error {
	entry := &StepEntry{
		ID:          id.NewStepID(),
		InstanceID:  sg.inst.ID,
		StepIndex:   sg.cursor,
		Kind:        kind,
		Name:        name,
		Result:      result,
		Error:       errMsg,
		CompletedAt: time.Now().UTC(),
	}
	if err := sg.store.AppendStep(sg.ctx, entry); err != nil {
		return fmt.Errorf("saga %s: append step %d (%s %q): %w", sg.inst.Kind, sg.cursor, kind, name, err)
	}
	sg.log = append(sg.log, entry)
	sg.cursor++
	return nil
}

// divergence builds the nondeterminism error for a replay mismatch.
func (sg *Saga) divergence(entry *StepEntry, wantKind StepKind, wantName string) error {
	return fmt.Errorf("%w: instance %s step %d recorded %s %q, handler expected %s %q",
		onboard.ErrNondeterministicReplay,
		sg.inst.ID, entry.StepIndex, entry.Kind, entry.Name, wantKind, wantName)
}

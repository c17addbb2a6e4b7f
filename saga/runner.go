package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/scope"
)

// RunEmitter is called by the Runner to emit saga lifecycle events.
// Satisfied by ext.Registry via an adapter in the engine package.
type RunEmitter interface {
	EmitSagaStarted(ctx context.Context, inst *Instance)
	EmitSagaCompleted(ctx context.Context, inst *Instance)
	EmitSagaAbandoned(ctx context.Context, inst *Instance, reason string)
}

// Runner starts and resumes saga instances against a registry of
// definitions. Execution is synchronous: Start and Resume return when
// the instance reaches a terminal status or its handler errors out.
type Runner struct {
	registry *Registry
	store    Store
	bus      *event.Bus
	invoker  ActivityInvoker
	stepEmit StepEmitter
	runEmit  RunEmitter
	logger   *slog.Logger

	resumeConcurrency int
}

// NewRunner creates a Runner. resumeConcurrency bounds how many
// instances ResumeAll drives in parallel; values below 1 mean 1.
func NewRunner(
	registry *Registry,
	store Store,
	bus *event.Bus,
	invoker ActivityInvoker,
	stepEmit StepEmitter,
	runEmit RunEmitter,
	logger *slog.Logger,
	resumeConcurrency int,
) *Runner {
	if resumeConcurrency < 1 {
		resumeConcurrency = 1
	}
	return &Runner{
		registry:          registry,
		store:             store,
		bus:               bus,
		invoker:           invoker,
		stepEmit:          stepEmit,
		runEmit:           runEmit,
		logger:            logger,
		resumeConcurrency: resumeConcurrency,
	}
}

// Start creates and synchronously executes a new saga instance with a
// typed input. The returned instance reflects the terminal status.
func Start[T any](ctx context.Context, r *Runner, kind Kind, subjectID string, input T) (*Instance, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("saga %s: marshal input: %w", kind, err)
	}
	return r.StartRaw(ctx, kind, subjectID, data)
}

// StartRaw creates and synchronously executes a new saga instance with
// a raw JSON input. Callers that must not block across the saga's waits
// should use Create and drive execution with Resume on their own
// goroutine instead.
func (r *Runner) StartRaw(ctx context.Context, kind Kind, subjectID string, input []byte) (*Instance, error) {
	runner, ok := r.registry.Get(kind)
	if !ok {
		return nil, fmt.Errorf("saga: no definition registered for kind %q", kind)
	}

	inst, err := r.Create(ctx, kind, subjectID, input)
	if err != nil {
		return nil, err
	}
	return r.executeInstance(ctx, runner, inst, nil)
}

// Create persists a new in-progress saga instance without executing it.
// The caller's tenant scope is captured into the instance so resumption
// after a restart runs under the same tenant.
func (r *Runner) Create(ctx context.Context, kind Kind, subjectID string, input []byte) (*Instance, error) {
	if _, ok := r.registry.Get(kind); !ok {
		return nil, fmt.Errorf("saga: no definition registered for kind %q", kind)
	}

	appID, orgID := scope.Capture(ctx)
	now := time.Now().UTC()
	inst := &Instance{
		ID:         id.NewSagaID(),
		Kind:       kind,
		SubjectID:  subjectID,
		Input:      input,
		Status:     StatusInProgress,
		ScopeAppID: appID,
		ScopeOrgID: orgID,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.store.CreateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("saga %s: create instance: %w", kind, err)
	}

	r.runEmit.EmitSagaStarted(ctx, inst)
	r.logger.Info("saga started",
		slog.String("instance_id", inst.ID.String()),
		slog.String("kind", string(kind)),
		slog.String("subject_id", subjectID),
	)
	return inst, nil
}

// Resume loads an in-progress instance and re-executes its handler
// over the recorded step log. Recorded steps replay without side
// effects; execution continues live past the end of the log. Resuming
// a terminal instance is a no-op.
func (r *Runner) Resume(ctx context.Context, instanceID id.SagaID) (*Instance, error) {
	inst, err := r.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Terminal() {
		return inst, nil
	}

	runner, ok := r.registry.Get(inst.Kind)
	if !ok {
		return nil, fmt.Errorf("saga: no definition registered for kind %q", inst.Kind)
	}

	log, err := r.store.ListSteps(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("saga %s: load step log: %w", inst.Kind, err)
	}

	ctx = scope.Restore(ctx, inst.ScopeAppID, inst.ScopeOrgID)
	r.logger.Info("resuming saga",
		slog.String("instance_id", inst.ID.String()),
		slog.String("kind", string(inst.Kind)),
		slog.Int("recorded_steps", len(log)),
	)

	return r.executeInstance(ctx, runner, inst, log)
}

// ResumeAll resumes every in-progress instance, driving up to the
// configured concurrency in parallel. It returns the first resumption
// error after all started resumptions finish.
func (r *Runner) ResumeAll(ctx context.Context) error {
	var resumed int
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.resumeConcurrency)

	opts := ListOpts{Status: StatusInProgress, Limit: 100}
	for {
		page, err := r.store.ListInstances(ctx, opts)
		if err != nil {
			return fmt.Errorf("saga: list in-progress instances: %w", err)
		}
		for _, inst := range page {
			g.Go(func() error {
				if _, err := r.Resume(gctx, inst.ID); err != nil {
					r.logger.Error("saga resumption failed",
						slog.String("instance_id", inst.ID.String()),
						slog.String("error", err.Error()),
					)
					return err
				}
				return nil
			})
		}
		resumed += len(page)
		if len(page) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}

	err := g.Wait()
	r.logger.Info("resumption sweep finished", slog.Int("instances", resumed))
	return err
}

// executeInstance runs the handler to completion and writes the
// terminal status. A handler error abandons the instance; the error is
// recorded on it and returned.
func (r *Runner) executeInstance(ctx context.Context, runner RunnerFunc, inst *Instance, log []*StepEntry) (*Instance, error) {
	sg := NewContext(ctx, inst, r.store, r.bus, r.invoker, r.stepEmit, r.logger, log)

	if err := runner(sg, inst.Input); err != nil {
		now := time.Now().UTC()
		inst.Status = StatusAbandoned
		inst.Error = err.Error()
		inst.UpdatedAt = now
		inst.CompletedAt = &now
		if upErr := r.store.UpdateInstance(ctx, inst); upErr != nil {
			r.logger.Error("failed to persist abandoned saga",
				slog.String("instance_id", inst.ID.String()),
				slog.String("error", upErr.Error()),
			)
		}
		r.runEmit.EmitSagaAbandoned(ctx, inst, err.Error())
		r.logger.Warn("saga abandoned",
			slog.String("instance_id", inst.ID.String()),
			slog.String("kind", string(inst.Kind)),
			slog.String("error", err.Error()),
		)
		return inst, fmt.Errorf("saga %s: %w", inst.Kind, err)
	}

	now := time.Now().UTC()
	inst.Status = StatusCompleted
	inst.UpdatedAt = now
	inst.CompletedAt = &now
	if err := r.store.UpdateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("saga %s: persist completed instance: %w", inst.Kind, err)
	}
	r.runEmit.EmitSagaCompleted(ctx, inst)
	r.logger.Info("saga completed",
		slog.String("instance_id", inst.ID.String()),
		slog.String("kind", string(inst.Kind)),
	)
	return inst, nil
}

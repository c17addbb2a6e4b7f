// Package engine wires all onboarding subsystems together. It creates
// the extension registry, activity and saga registries, middleware
// chain, event bus, and status writer, and provides the start, resume,
// and event-publish operations the API layer consumes.
//
// This package sits above all subsystem packages and below the
// application layer, which is what lets it adapt ext.Registry to the
// emitter interfaces the saga and status packages define without
// creating import cycles.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	gu "github.com/xraph/go-utils/metrics"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/activity"
	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/ext"
	"github.com/xraph/onboard/id"
	mw "github.com/xraph/onboard/middleware"
	"github.com/xraph/onboard/observability"
	"github.com/xraph/onboard/saga"
	"github.com/xraph/onboard/status"
	"github.com/xraph/onboard/store"
)

// extStepEmitter adapts *ext.Registry to satisfy saga.StepEmitter.
type extStepEmitter struct {
	r *ext.Registry
}

func (a *extStepEmitter) EmitStepCompleted(ctx context.Context, inst *saga.Instance, stepName string, elapsed time.Duration) {
	a.r.EmitSagaStepCompleted(ctx, inst, stepName, elapsed)
}

func (a *extStepEmitter) EmitStepFailed(ctx context.Context, inst *saga.Instance, stepName string, err error) {
	a.r.EmitSagaStepFailed(ctx, inst, stepName, err)
}

// extRunEmitter adapts *ext.Registry to satisfy saga.RunEmitter.
type extRunEmitter struct {
	r *ext.Registry
}

func (a *extRunEmitter) EmitSagaStarted(ctx context.Context, inst *saga.Instance) {
	a.r.EmitSagaStarted(ctx, inst)
}

func (a *extRunEmitter) EmitSagaCompleted(ctx context.Context, inst *saga.Instance) {
	a.r.EmitSagaCompleted(ctx, inst)
}

func (a *extRunEmitter) EmitSagaAbandoned(ctx context.Context, inst *saga.Instance, reason string) {
	a.r.EmitSagaAbandoned(ctx, inst, reason)
}

// extDegradedReporter adapts *ext.Registry to satisfy status.DegradedReporter.
type extDegradedReporter struct {
	r *ext.Registry
}

func (a *extDegradedReporter) EmitStatusDegraded(ctx context.Context, subjectID, typ string, err error) {
	a.r.EmitStatusDegraded(ctx, subjectID, typ, err)
}

// chainInvoker runs activities through the middleware chain. Satisfies
// saga.ActivityInvoker.
type chainInvoker struct {
	registry *activity.Registry
	chain    mw.Middleware
}

func (c *chainInvoker) Invoke(ctx context.Context, instanceID id.SagaID, name string, input []byte) ([]byte, error) {
	call := &mw.Call{InstanceID: instanceID, Name: name, Input: input}
	return c.chain(ctx, call, func(ctx context.Context) ([]byte, error) {
		return c.registry.Invoke(ctx, name, input)
	})
}

// Engine is the assembled onboarding orchestrator.
type Engine struct {
	config     onboard.Config
	logger     *slog.Logger
	store      store.Store
	extensions *ext.Registry
	activities *activity.Registry
	sagas      *saga.Registry
	bus        *event.Bus
	writer     *status.Writer
	runner     *saga.Runner
	mws        []mw.Middleware

	// pendingExts holds extensions passed via WithExtension until the
	// registry exists with the final logger.
	pendingExts []ext.Extension

	// OpenTelemetry tracer provider (optional; nil means use global).
	tracerProvider trace.TracerProvider
	// go-utils metric factory (optional; nil means a fresh collector).
	metricFactory gu.MetricFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(eng *Engine) {
		eng.logger = logger
	}
}

// WithConfig sets the engine's configuration.
func WithConfig(cfg onboard.Config) Option {
	return func(eng *Engine) {
		eng.config = cfg
	}
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.pendingExts = append(eng.pendingExts, e)
	}
}

// WithMiddleware adds middleware to the engine's activity chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the
// global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMetricFactory sets the go-utils MetricFactory backing the
// observability extension. Use fapp.Metrics() in forge applications.
func WithMetricFactory(f gu.MetricFactory) Option {
	return func(eng *Engine) {
		eng.metricFactory = f
	}
}

// Build assembles an Engine over the given store.
func Build(st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, onboard.ErrNoStore
	}

	eng := &Engine{
		config: onboard.DefaultConfig(),
		logger: slog.Default(),
		store:  st,
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	eng.activities = activity.NewRegistry()
	eng.sagas = saga.NewRegistry()
	for _, e := range eng.pendingExts {
		eng.extensions.Register(e)
	}

	// Register the observability metrics extension.
	factory := eng.metricFactory
	if factory == nil {
		factory = gu.NewMetricsCollector("onboard/observability")
	}
	eng.extensions.Register(observability.NewMetricsExtensionWithFactory(factory))

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/xraph/onboard")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build default middleware stack: recover → tracing → metrics → logging.
	defaultMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		mw.Metrics(),
		mw.Logging(eng.logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	invoker := &chainInvoker{
		registry: eng.activities,
		chain:    mw.Chain(allMws...),
	}

	eng.bus = event.NewBus(st, eng.logger)
	eng.writer = status.NewWriter(st, eng.logger, &extDegradedReporter{r: eng.extensions})
	eng.runner = saga.NewRunner(
		eng.sagas,
		st,
		eng.bus,
		invoker,
		&extStepEmitter{r: eng.extensions},
		&extRunEmitter{r: eng.extensions},
		eng.logger,
		eng.config.ResumeConcurrency,
	)

	return eng, nil
}

// ── Accessors ───────────────────────────────────────

// Logger returns the engine's logger.
func (eng *Engine) Logger() *slog.Logger { return eng.logger }

// Config returns a copy of the engine's configuration.
func (eng *Engine) Config() onboard.Config { return eng.config }

// Store returns the engine's store.
func (eng *Engine) Store() store.Store { return eng.store }

// Extensions returns the engine's extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Activities returns the engine's activity registry.
func (eng *Engine) Activities() *activity.Registry { return eng.activities }

// Sagas returns the engine's saga registry.
func (eng *Engine) Sagas() *saga.Registry { return eng.sagas }

// Bus returns the engine's event bus.
func (eng *Engine) Bus() *event.Bus { return eng.bus }

// StatusWriter returns the engine's status projection writer.
func (eng *Engine) StatusWriter() *status.Writer { return eng.writer }

// Runner returns the engine's saga runner.
func (eng *Engine) Runner() *saga.Runner { return eng.runner }

// ── Lifecycle ───────────────────────────────────────

// Start verifies store connectivity and resumes every in-progress
// instance on a background goroutine. Resumption errors abandon the
// affected instances and are logged, never fatal to startup.
func (eng *Engine) Start(ctx context.Context) error {
	if err := eng.store.Ping(ctx); err != nil {
		return fmt.Errorf("onboard: store ping: %w", err)
	}

	resumeCtx := context.WithoutCancel(ctx)
	go func() {
		if err := eng.runner.ResumeAll(resumeCtx); err != nil {
			eng.logger.Error("resumption sweep error", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Stop notifies extensions of shutdown and closes the store. In-flight
// instances suspend at their next durable step and are picked up by the
// resumption sweep on the next start.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.extensions.EmitShutdown(ctx)
	return eng.store.Close()
}

// ── Operations ──────────────────────────────────────

// StartSaga creates a saga instance with a typed input and drives it on
// a background goroutine. The returned instance is the freshly created
// in-progress record; poll the status projection or GetInstance for
// progress.
func StartSaga[T any](ctx context.Context, eng *Engine, kind saga.Kind, subjectID string, input T) (*saga.Instance, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("onboard: marshal input for saga %q: %w", kind, err)
	}
	return eng.StartSagaRaw(ctx, kind, subjectID, data)
}

// StartSagaRaw is the untyped variant of StartSaga.
func (eng *Engine) StartSagaRaw(ctx context.Context, kind saga.Kind, subjectID string, input []byte) (*saga.Instance, error) {
	inst, err := eng.runner.Create(ctx, kind, subjectID, input)
	if err != nil {
		return nil, err
	}

	runCtx := context.WithoutCancel(ctx)
	go func() {
		if _, runErr := eng.runner.Resume(runCtx, inst.ID); runErr != nil {
			eng.logger.Warn("saga run ended with error",
				slog.String("instance_id", inst.ID.String()),
				slog.String("error", runErr.Error()),
			)
		}
	}()
	return inst, nil
}

// RunSaga creates and synchronously executes a saga instance with a
// typed input, returning the terminal instance. Intended for tests and
// batch callers that want to block across the saga's waits.
func RunSaga[T any](ctx context.Context, eng *Engine, kind saga.Kind, subjectID string, input T) (*saga.Instance, error) {
	return saga.Start(ctx, eng.runner, kind, subjectID, input)
}

// GetInstance returns a saga instance by ID.
func (eng *Engine) GetInstance(ctx context.Context, instanceID id.SagaID) (*saga.Instance, error) {
	return eng.store.GetInstance(ctx, instanceID)
}

// ListInstances returns saga instances matching the given options.
func (eng *Engine) ListInstances(ctx context.Context, opts saga.ListOpts) ([]*saga.Instance, error) {
	return eng.store.ListInstances(ctx, opts)
}

// PublishEvent persists an external event for the given instance and
// reports whether a saga was waiting for it. Orphaned deliveries are
// not errors: the event stays available for the next wait on the same
// pair, and the orphan hook fires so operators can alert on it.
func (eng *Engine) PublishEvent(ctx context.Context, instanceID id.SagaID, name string, payload []byte) (*event.Event, bool, error) {
	evt, delivered, err := eng.bus.Publish(ctx, instanceID, name, payload)
	if err != nil {
		return nil, false, err
	}
	if delivered {
		eng.extensions.EmitEventCorrelated(ctx, evt)
	} else {
		eng.extensions.EmitEventOrphaned(ctx, evt)
	}
	return evt, delivered, nil
}

// RegisterSaga registers a typed saga definition with the engine.
func RegisterSaga[T any](eng *Engine, def *saga.Definition[T]) {
	saga.RegisterDefinition(eng.sagas, def)
}

// RegisterActivity registers a typed activity definition with the engine.
func RegisterActivity[I, O any](eng *Engine, def *activity.Definition[I, O]) {
	activity.Register(eng.activities, def)
}

package observability

import (
	"context"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/ext"
	"github.com/xraph/onboard/saga"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.SagaStarted       = (*MetricsExtension)(nil)
	_ ext.SagaStepCompleted = (*MetricsExtension)(nil)
	_ ext.SagaStepFailed    = (*MetricsExtension)(nil)
	_ ext.SagaCompleted     = (*MetricsExtension)(nil)
	_ ext.SagaAbandoned     = (*MetricsExtension)(nil)
	_ ext.EventCorrelated   = (*MetricsExtension)(nil)
	_ ext.EventOrphaned     = (*MetricsExtension)(nil)
	_ ext.StatusDegraded    = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via go-utils
// MetricFactory. Register it as an engine extension to automatically
// track saga start rates, completion counts, abandonment rates, step
// outcomes, event correlation, and status projection degradation.
type MetricsExtension struct {
	SagaStarted     gu.Counter
	SagaCompleted   gu.Counter
	SagaAbandoned   gu.Counter
	StepCompleted   gu.Counter
	StepFailed      gu.Counter
	EventCorrelated gu.Counter
	EventOrphaned   gu.Counter
	StatusDegraded  gu.Counter
}

// NewMetricsExtension creates a MetricsExtension using a default metrics collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("onboard/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension with the provided MetricFactory.
// Use fapp.Metrics() in forge extensions, or gu.NewMetricsCollector for testing.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		SagaStarted:     factory.Counter("onboard.saga.started"),
		SagaCompleted:   factory.Counter("onboard.saga.completed"),
		SagaAbandoned:   factory.Counter("onboard.saga.abandoned"),
		StepCompleted:   factory.Counter("onboard.step.completed"),
		StepFailed:      factory.Counter("onboard.step.failed"),
		EventCorrelated: factory.Counter("onboard.event.correlated"),
		EventOrphaned:   factory.Counter("onboard.event.orphaned"),
		StatusDegraded:  factory.Counter("onboard.status.degraded"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Saga lifecycle hooks ────────────────────────────

// OnSagaStarted implements ext.SagaStarted.
func (m *MetricsExtension) OnSagaStarted(_ context.Context, _ *saga.Instance) error {
	m.SagaStarted.Inc()
	return nil
}

// OnSagaStepCompleted implements ext.SagaStepCompleted.
func (m *MetricsExtension) OnSagaStepCompleted(_ context.Context, _ *saga.Instance, _ string, _ time.Duration) error {
	m.StepCompleted.Inc()
	return nil
}

// OnSagaStepFailed implements ext.SagaStepFailed.
func (m *MetricsExtension) OnSagaStepFailed(_ context.Context, _ *saga.Instance, _ string, _ error) error {
	m.StepFailed.Inc()
	return nil
}

// OnSagaCompleted implements ext.SagaCompleted.
func (m *MetricsExtension) OnSagaCompleted(_ context.Context, _ *saga.Instance) error {
	m.SagaCompleted.Inc()
	return nil
}

// OnSagaAbandoned implements ext.SagaAbandoned.
func (m *MetricsExtension) OnSagaAbandoned(_ context.Context, _ *saga.Instance, _ string) error {
	m.SagaAbandoned.Inc()
	return nil
}

// ── Event correlation hooks ─────────────────────────

// OnEventCorrelated implements ext.EventCorrelated.
func (m *MetricsExtension) OnEventCorrelated(_ context.Context, _ *event.Event) error {
	m.EventCorrelated.Inc()
	return nil
}

// OnEventOrphaned implements ext.EventOrphaned.
func (m *MetricsExtension) OnEventOrphaned(_ context.Context, _ *event.Event) error {
	m.EventOrphaned.Inc()
	return nil
}

// ── Status projection hooks ─────────────────────────

// OnStatusDegraded implements ext.StatusDegraded.
func (m *MetricsExtension) OnStatusDegraded(_ context.Context, _, _ string, _ error) error {
	m.StatusDegraded.Inc()
	return nil
}

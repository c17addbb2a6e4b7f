package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/id"
)

// DegradedReporter is notified when a projection write fails and the
// read model may lag behind saga truth. Satisfied by ext.Registry via
// an adapter in the engine package.
type DegradedReporter interface {
	EmitStatusDegraded(ctx context.Context, subjectID, typ string, err error)
}

// NopReporter is a DegradedReporter that does nothing.
type NopReporter struct{}

func (NopReporter) EmitStatusDegraded(context.Context, string, string, error) {}

// Writer maintains status projections on behalf of saga flows. All
// writes are best-effort: a failure is logged, reported, and returned
// wrapped in onboard.ErrStatusDegraded, but callers are expected to
// continue the saga regardless.
//
// The writer rank-orders milestone states (pending < failed <
// completed) and never downgrades a milestone, so replayed saga steps
// that re-issue projection writes are harmless.
type Writer struct {
	store    Store
	logger   *slog.Logger
	reporter DegradedReporter
}

// NewWriter creates a Writer. A nil reporter is replaced by NopReporter.
func NewWriter(store Store, logger *slog.Logger, reporter DegradedReporter) *Writer {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Writer{store: store, logger: logger, reporter: reporter}
}

// Begin ensures an in-progress projection exists for (subjectID, typ)
// with the given milestone names, all pending. If one already exists
// it is reused, preserving any progress it has recorded.
func (w *Writer) Begin(ctx context.Context, subjectID, typ string, milestones []string) error {
	existing, err := w.store.FindInProgress(ctx, subjectID, typ)
	if err == nil && existing != nil {
		return nil
	}
	if err != nil && !errors.Is(err, onboard.ErrStatusNotFound) {
		return w.degraded(ctx, subjectID, typ, fmt.Errorf("find projection: %w", err))
	}

	now := time.Now().UTC()
	p := &Projection{
		ID:        id.NewStatusID(),
		SubjectID: subjectID,
		Type:      typ,
		Status:    "in_progress",
		Steps:     make([]Milestone, 0, len(milestones)),
		StartedAt: now,
		UpdatedAt: now,
	}
	for _, name := range milestones {
		p.Steps = append(p.Steps, Milestone{Name: name, Status: MilestonePending})
	}
	if err := w.store.CreateProjection(ctx, p); err != nil {
		return w.degraded(ctx, subjectID, typ, fmt.Errorf("create projection: %w", err))
	}
	return nil
}

// Milestone transitions the named milestone of the in-progress
// projection for (subjectID, typ). Downgrades are ignored; an unknown
// milestone name is appended.
func (w *Writer) Milestone(ctx context.Context, subjectID, typ, name, state, details string) error {
	return w.patch(ctx, subjectID, typ, func(p *Projection) {
		now := time.Now().UTC()
		for i := range p.Steps {
			if p.Steps[i].Name != name {
				continue
			}
			if milestoneRank(state) <= milestoneRank(p.Steps[i].Status) {
				return
			}
			p.Steps[i].Status = state
			p.Steps[i].Timestamp = &now
			p.Steps[i].Details = details
			return
		}
		p.Steps = append(p.Steps, Milestone{Name: name, Status: state, Timestamp: &now, Details: details})
	})
}

// SetResource records the resolved platform resource on the
// in-progress projection.
func (w *Writer) SetResource(ctx context.Context, subjectID, typ, resourceID, resourceType string) error {
	return w.patch(ctx, subjectID, typ, func(p *Projection) {
		p.ResourceID = resourceID
		p.ResourceType = resourceType
	})
}

// Complete marks the in-progress projection terminal with the given
// status ("completed" or "abandoned"). Details, when non-empty, are
// attached to every milestone still pending, which is also marked
// failed on abandonment.
func (w *Writer) Complete(ctx context.Context, subjectID, typ, terminalStatus, details string) error {
	return w.patch(ctx, subjectID, typ, func(p *Projection) {
		now := time.Now().UTC()
		p.Status = terminalStatus
		p.CompletedAt = &now
		if terminalStatus != "abandoned" {
			return
		}
		for i := range p.Steps {
			if p.Steps[i].Status == MilestonePending {
				p.Steps[i].Status = MilestoneFailed
				p.Steps[i].Timestamp = &now
				p.Steps[i].Details = details
			}
		}
	})
}

func (w *Writer) patch(ctx context.Context, subjectID, typ string, mutate func(*Projection)) error {
	p, err := w.store.FindInProgress(ctx, subjectID, typ)
	if err != nil {
		return w.degraded(ctx, subjectID, typ, fmt.Errorf("find projection: %w", err))
	}
	mutate(p)
	p.UpdatedAt = time.Now().UTC()
	if err := w.store.UpdateProjection(ctx, p); err != nil {
		return w.degraded(ctx, subjectID, typ, fmt.Errorf("update projection: %w", err))
	}
	return nil
}

func (w *Writer) degraded(ctx context.Context, subjectID, typ string, err error) error {
	w.logger.Warn("status projection write failed",
		slog.String("subject_id", subjectID),
		slog.String("type", typ),
		slog.String("error", err.Error()),
	)
	w.reporter.EmitStatusDegraded(ctx, subjectID, typ, err)
	return fmt.Errorf("%w: %v", onboard.ErrStatusDegraded, err)
}

func milestoneRank(state string) int {
	switch state {
	case MilestoneCompleted:
		return 2
	case MilestoneFailed:
		return 1
	default:
		return 0
	}
}

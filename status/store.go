package status

import (
	"context"

	"github.com/xraph/onboard/id"
)

// Store persists onboarding status projections.
type Store interface {
	// CreateProjection inserts a new projection.
	CreateProjection(ctx context.Context, p *Projection) error

	// GetProjection returns a projection by ID, or
	// onboard.ErrStatusNotFound if absent.
	GetProjection(ctx context.Context, statusID id.StatusID) (*Projection, error)

	// FindInProgress returns the in-progress projection for
	// (subjectID, typ), or onboard.ErrStatusNotFound if none exists.
	// At most one in-progress projection per pair is maintained.
	FindInProgress(ctx context.Context, subjectID, typ string) (*Projection, error)

	// FindLatest returns the most recently started projection for
	// (subjectID, typ) regardless of status, or
	// onboard.ErrStatusNotFound if none exists.
	FindLatest(ctx context.Context, subjectID, typ string) (*Projection, error)

	// UpdateProjection replaces an existing projection, or returns
	// onboard.ErrStatusNotFound.
	UpdateProjection(ctx context.Context, p *Projection) error
}

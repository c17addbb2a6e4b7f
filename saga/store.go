package saga

import (
	"context"

	"github.com/xraph/onboard/id"
)

// ListOpts controls filtering and pagination for instance list queries.
type ListOpts struct {
	// Limit is the maximum number of instances to return. Zero means no limit.
	Limit int
	// Offset is the number of instances to skip.
	Offset int
	// Status filters by instance status. Empty means all statuses.
	Status Status
	// Kind filters by saga kind. Empty means all kinds.
	Kind Kind
}

// Store defines the persistence contract for saga instances and their
// step logs.
type Store interface {
	// CreateInstance persists a new saga instance.
	CreateInstance(ctx context.Context, inst *Instance) error

	// GetInstance retrieves a saga instance by ID.
	GetInstance(ctx context.Context, instanceID id.SagaID) (*Instance, error)

	// UpdateInstance persists changes to an existing saga instance.
	UpdateInstance(ctx context.Context, inst *Instance) error

	// ListInstances returns instances matching the given options.
	ListInstances(ctx context.Context, opts ListOpts) ([]*Instance, error)

	// AppendStep appends an entry to an instance's step log. The log is
	// append-only: a second entry for the same (instance, step index)
	// is rejected with onboard.ErrStepConflict.
	AppendStep(ctx context.Context, entry *StepEntry) error

	// ListSteps returns an instance's step log ordered by step index.
	ListSteps(ctx context.Context, instanceID id.SagaID) ([]*StepEntry, error)
}

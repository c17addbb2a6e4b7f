// Package memory provides a fully in-memory store backend. Safe for
// concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/saga"
	"github.com/xraph/onboard/status"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ saga.Store   = (*Store)(nil)
	_ event.Store  = (*Store)(nil)
	_ status.Store = (*Store)(nil)
)

// Store is a fully in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	instances   map[string]*saga.Instance
	steps       map[string][]*saga.StepEntry // key: instance ID
	events      map[string]*event.Event
	projections map[string]*status.Projection
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		instances:   make(map[string]*saga.Instance),
		steps:       make(map[string][]*saga.StepEntry),
		events:      make(map[string]*event.Event),
		projections: make(map[string]*status.Projection),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Saga Store
// ──────────────────────────────────────────────────

// CreateInstance persists a new saga instance.
func (m *Store) CreateInstance(_ context.Context, inst *saga.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := inst.ID.String()
	if _, exists := m.instances[key]; exists {
		return fmt.Errorf("instance %s already exists", key)
	}
	cp := *inst
	m.instances[key] = &cp
	return nil
}

// GetInstance retrieves a saga instance by ID.
func (m *Store) GetInstance(_ context.Context, instanceID id.SagaID) (*saga.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instances[instanceID.String()]
	if !ok {
		return nil, onboard.ErrInstanceNotFound
	}
	cp := *inst
	return &cp, nil
}

// UpdateInstance persists changes to an existing saga instance.
func (m *Store) UpdateInstance(_ context.Context, inst *saga.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := inst.ID.String()
	if _, ok := m.instances[key]; !ok {
		return onboard.ErrInstanceNotFound
	}
	cp := *inst
	m.instances[key] = &cp
	return nil
}

// ListInstances returns instances matching the given options, ordered
// by start time ascending.
func (m *Store) ListInstances(_ context.Context, opts saga.ListOpts) ([]*saga.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*saga.Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		if opts.Status != "" && inst.Status != opts.Status {
			continue
		}
		if opts.Kind != "" && inst.Kind != opts.Kind {
			continue
		}
		cp := *inst
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].StartedAt.Before(result[k].StartedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []*saga.Instance{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// AppendStep appends an entry to an instance's step log. A second
// entry for the same (instance, step index) is rejected.
func (m *Store) AppendStep(_ context.Context, entry *saga.StepEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entry.InstanceID.String()
	for _, existing := range m.steps[key] {
		if existing.StepIndex == entry.StepIndex {
			return fmt.Errorf("%w: instance %s step %d", onboard.ErrStepConflict, key, entry.StepIndex)
		}
	}
	cp := *entry
	m.steps[key] = append(m.steps[key], &cp)
	return nil
}

// ListSteps returns an instance's step log ordered by step index.
func (m *Store) ListSteps(_ context.Context, instanceID id.SagaID) ([]*saga.StepEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.steps[instanceID.String()]
	result := make([]*saga.StepEntry, len(entries))
	for i, e := range entries {
		cp := *e
		result[i] = &cp
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].StepIndex < result[k].StepIndex
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Event Store
// ──────────────────────────────────────────────────

// PublishEvent persists a new event.
func (m *Store) PublishEvent(_ context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *evt
	m.events[evt.ID.String()] = &cp
	return nil
}

// SubscribeEvent waits for an unacked event matching the given
// (instance, name) pair. Poll-based: loops with 10ms sleep until an
// event is available or timeout. Events are matched FIFO by creation
// time.
func (m *Store) SubscribeEvent(ctx context.Context, instanceID id.SagaID, name string, timeout time.Duration) (*event.Event, error) {
	deadline := time.Now().Add(timeout)

	for {
		// Check context cancellation.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		if evt := m.oldestUnacked(instanceID, name); evt != nil {
			return evt, nil
		}

		// Brief sleep to avoid busy-waiting.
		time.Sleep(10 * time.Millisecond)
	}
}

func (m *Store) oldestUnacked(instanceID id.SagaID, name string) *event.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var oldest *event.Event
	for _, evt := range m.events {
		if evt.Acked || evt.Name != name || evt.InstanceID != instanceID {
			continue
		}
		if oldest == nil || evt.CreatedAt.Before(oldest.CreatedAt) {
			oldest = evt
		}
	}
	if oldest == nil {
		return nil
	}
	cp := *oldest
	return &cp
}

// AckEvent acknowledges an event, marking it as consumed.
func (m *Store) AckEvent(_ context.Context, eventID id.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	evt, ok := m.events[eventID.String()]
	if !ok {
		return onboard.ErrEventNotFound
	}
	evt.Acked = true
	return nil
}

// ──────────────────────────────────────────────────
// Status Store
// ──────────────────────────────────────────────────

// CreateProjection inserts a new projection.
func (m *Store) CreateProjection(_ context.Context, p *status.Projection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := clone(p)
	m.projections[p.ID.String()] = cp
	return nil
}

// GetProjection returns a projection by ID.
func (m *Store) GetProjection(_ context.Context, statusID id.StatusID) (*status.Projection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projections[statusID.String()]
	if !ok {
		return nil, onboard.ErrStatusNotFound
	}
	return clone(p), nil
}

// FindInProgress returns the in-progress projection for (subjectID, typ).
func (m *Store) FindInProgress(_ context.Context, subjectID, typ string) (*status.Projection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.projections {
		if p.SubjectID == subjectID && p.Type == typ && p.Status == "in_progress" {
			return clone(p), nil
		}
	}
	return nil, onboard.ErrStatusNotFound
}

// FindLatest returns the most recently started projection for
// (subjectID, typ) regardless of status.
func (m *Store) FindLatest(_ context.Context, subjectID, typ string) (*status.Projection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *status.Projection
	for _, p := range m.projections {
		if p.SubjectID != subjectID || p.Type != typ {
			continue
		}
		if latest == nil || p.StartedAt.After(latest.StartedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, onboard.ErrStatusNotFound
	}
	return clone(latest), nil
}

// UpdateProjection replaces an existing projection.
func (m *Store) UpdateProjection(_ context.Context, p *status.Projection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := p.ID.String()
	if _, ok := m.projections[key]; !ok {
		return onboard.ErrStatusNotFound
	}
	m.projections[key] = clone(p)
	return nil
}

// clone deep-copies a projection so callers never share the stored
// Steps slice.
func clone(p *status.Projection) *status.Projection {
	cp := *p
	cp.Steps = make([]status.Milestone, len(p.Steps))
	copy(cp.Steps, p.Steps)
	return &cp
}

// Package access defines the resource access boundary used by
// onboarding activities, plus the permission check applied at the API
// surface. Implementations wrap the host platform's membership and
// authorization services.
package access

import (
	"context"
	"sync"
)

// Grant describes one access grant to apply.
type Grant struct {
	SubjectID    string `json:"subjectId"`
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType"`
	MembershipID string `json:"membershipId,omitempty"`
	Guest        bool   `json:"guest,omitempty"`
}

// Granter applies access grants against the platform's membership
// store. Grants are expected to be idempotent per (subject, resource).
type Granter interface {
	Grant(ctx context.Context, g *Grant) error
}

// Evaluator checks whether the caller in ctx holds a permission.
// It is consulted at the API boundary before onboarding operations.
type Evaluator interface {
	Allow(ctx context.Context, permission string) (bool, error)
}

// AllowAll is an Evaluator that permits everything. Default when the
// host application wires no authorization.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, string) (bool, error) { return true, nil }

// MemoryGranter records grants in memory. Test double.
type MemoryGranter struct {
	mu     sync.Mutex
	grants []*Grant
}

func (g *MemoryGranter) Grant(_ context.Context, grant *Grant) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grants = append(g.grants, grant)
	return nil
}

// Grants returns a copy of all grants applied so far.
func (g *MemoryGranter) Grants() []*Grant {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Grant, len(g.grants))
	copy(out, g.grants)
	return out
}

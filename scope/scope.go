// Package scope captures and restores multi-tenant execution context
// (app and org identity) across the durable boundary.
//
// Scope is carried in-process via forge.WithScope / forge.ScopeFrom.
// When a saga instance is created, the caller's scope is captured into
// the instance's ScopeAppID/ScopeOrgID fields; when the instance is
// resumed after a restart, the scope is restored onto the resumption
// context so activities run under the tenant that started the saga.
package scope

import (
	"context"

	"github.com/xraph/forge"
)

// Capture extracts the app and org identifiers from the context.
// Returns empty strings if no scope is present.
func Capture(ctx context.Context) (appID, orgID string) {
	s, ok := forge.ScopeFrom(ctx)
	if !ok {
		return "", ""
	}
	return s.AppID(), s.OrgID()
}

// Restore attaches a scope to the context using the given app and org
// IDs. If both are empty, the context is returned unchanged.
func Restore(ctx context.Context, appID, orgID string) context.Context {
	if appID == "" && orgID == "" {
		return ctx
	}
	var s forge.Scope
	if orgID != "" {
		s = forge.NewOrgScope(appID, orgID)
	} else {
		s = forge.NewAppScope(appID)
	}
	return forge.WithScope(ctx, s)
}

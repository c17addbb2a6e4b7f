// Package store defines the aggregate persistence interface. Each
// subsystem (saga, event, status) defines its own store interface. The
// composite Store composes them all. Backends: MongoDB and Memory.
package store

import (
	"context"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/saga"
	"github.com/xraph/onboard/status"
)

// Store is the aggregate persistence interface.
// Each subsystem store is a composable interface; a single backend
// (mongo, memory) implements all of them.
type Store interface {
	saga.Store
	event.Store
	status.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// Package onboard provides a durable saga orchestration engine for
// multi-tenant platform onboarding flows: inviting a user, provisioning
// a new workspace, and provisioning a new project.
//
// Onboard is designed as a library, not a service. Import it, configure
// a store, register saga definitions, and start instances from your HTTP
// layer. Each saga instance executes as a single logical thread that can
// suspend for hours or days waiting on an external signal, survive host
// restarts, and resume without repeating already-completed side effects.
//
// # Quick Start
//
//	eng, err := engine.Build(memory.New(),
//	    engine.WithLogger(logger),
//	)
//
// # Architecture
//
// Each subsystem (saga, event, status) defines its own store interface.
// A single backend implements all of them; store/memory and store/mongo
// ship with the module. Resumability comes from the step log: every
// activity call, timer, and event receipt is appended to a durable
// ordered log, and re-executing a saga replays the log from index zero,
// short-circuiting recorded steps instead of re-running them.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package onboard

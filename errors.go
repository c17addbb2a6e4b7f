package onboard

import "errors"

var (
	// Store errors.
	ErrNoStore = errors.New("onboard: no store configured")

	// Not found errors.
	ErrInstanceNotFound = errors.New("onboard: saga instance not found")
	ErrEventNotFound    = errors.New("onboard: event not found")
	ErrStatusNotFound   = errors.New("onboard: status projection not found")
	ErrActivityNotFound = errors.New("onboard: activity not registered")

	// Conflict errors.
	ErrStepConflict = errors.New("onboard: step log entry already exists at index")

	// Replay errors.
	ErrNondeterministicReplay = errors.New("onboard: step log does not match saga logic during replay")

	// Degraded-mode errors.
	ErrStatusDegraded = errors.New("onboard: status projection persistence degraded")
)

package onboard

import "time"

// Config holds configuration for the onboarding engine.
type Config struct {
	// CreatedTimeout is the per-attempt timeout while waiting for the
	// resource.created event in provisioning flows.
	CreatedTimeout time.Duration

	// CreatedAttempts is the number of timeout attempts allowed for the
	// resource.created wait before the saga is abandoned.
	CreatedAttempts int

	// InitializedTimeout is the per-attempt timeout while waiting for the
	// resource.initialized event.
	InitializedTimeout time.Duration

	// InitializedAttempts is the number of timeout attempts allowed for
	// the resource.initialized wait.
	InitializedAttempts int

	// ResumeConcurrency is the number of interrupted instances resumed
	// in parallel at startup.
	ResumeConcurrency int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CreatedTimeout:      24 * time.Hour,
		CreatedAttempts:     5,
		InitializedTimeout:  12 * time.Hour,
		InitializedAttempts: 3,
		ResumeConcurrency:   4,
	}
}

package core

import (
	"time"
)

// TimeoutConfig configures timeouts for component callbacks.
type TimeoutConfig struct {
	// ComponentMount is the timeout for component Mount() calls.
	ComponentMount time.Duration

	// ComponentRender is the timeout for component Render() calls.
	ComponentRender time.Duration

	// ComponentEvent is the timeout for HandleEvent() and HandleInfo() calls.
	ComponentEvent time.Duration

	// ComponentTerminate is the timeout for Terminate() calls.
	ComponentTerminate time.Duration
}

// DefaultTimeoutConfig returns default timeout configuration.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentMount:     5 * time.Second,
		ComponentRender:    2 * time.Second,
		ComponentEvent:     3 * time.Second,
		ComponentTerminate: 2 * time.Second,
	}
}

// RelaxedTimeoutConfig is used in development, where a paused debugger
// should not end the session.
func RelaxedTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentMount:     30 * time.Second,
		ComponentRender:    10 * time.Second,
		ComponentEvent:     30 * time.Second,
		ComponentTerminate: 10 * time.Second,
	}
}

package gate

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrAlphaOutOfRange is returned when a smoothing factor falls
	// outside [0,1]. Out-of-range values are rejected, never clamped.
	ErrAlphaOutOfRange = errors.New("gate: smoothing alpha must be in [0,1]")

	// ErrInvalidThreshold is returned for a persistence threshold < 1.
	ErrInvalidThreshold = errors.New("gate: persistence threshold must be >= 1")

	// ErrInvalidInterval is returned for a sample interval < 1.
	ErrInvalidInterval = errors.New("gate: sample interval must be >= 1")
)

package gate

// Config holds the tunable parameters for detection stabilization.
type Config struct {
	// PersistenceThreshold is how many consecutive misses a channel
	// tolerates before its detection state clears.
	PersistenceThreshold int

	// SampleInterval forwards every Nth frame to the secondary channel.
	SampleInterval int

	// SmoothingAlpha is the exponential smoothing factor (0-1, higher =
	// more weight on new readings).
	SmoothingAlpha float64
}

// DefaultConfig returns the recommended configuration for live camera
// input: short persistence so a removed marker drops the gate quickly.
func DefaultConfig() Config {
	return Config{
		PersistenceThreshold: 3,   // Clear after 3 consecutive misses
		SampleInterval:       3,   // Classify every 3rd frame
		SmoothingAlpha:       0.6, // 60% new, 40% old
	}
}

// DesktopConfig returns the configuration used by the desktop variant,
// which runs at a higher frame rate and tolerates longer occlusions.
func DesktopConfig() Config {
	cfg := DefaultConfig()
	cfg.PersistenceThreshold = 5
	return cfg
}

// Validate checks parameter ranges, rejecting rather than clamping so
// misconfiguration is visible.
func (c Config) Validate() error {
	if c.PersistenceThreshold < 1 {
		return ErrInvalidThreshold
	}
	if c.SampleInterval < 1 {
		return ErrInvalidInterval
	}
	if c.SmoothingAlpha < 0 || c.SmoothingAlpha > 1 {
		return ErrAlphaOutOfRange
	}
	return nil
}

package alert

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned for an unusable alert configuration.
var ErrInvalidConfig = errors.New("alert: invalid config")

// Config controls alert playback.
type Config struct {
	// Muted is the initial mute state.
	Muted bool `yaml:"muted" json:"muted"`

	// Cooldown is the minimum time between two triggers while drowsy.
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`

	// Command is the player invocation, e.g. ["aplay", "sounds/alarm.wav"].
	// Empty disables audible playback.
	Command []string `yaml:"command" json:"command"`

	// Timeout bounds a single playback.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns an unmuted, silent configuration.
func DefaultConfig() Config {
	return Config{
		Cooldown: 2 * time.Second,
		Timeout:  5 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must not be negative", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

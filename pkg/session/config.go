package session

import (
	"fmt"
	"time"
)

// Config controls where a session is persisted and how often time is flushed.
type Config struct {
	// Dir is the base directory; event logs go to Dir/logs and reports to Dir/reports.
	Dir string `yaml:"dir" json:"dir"`

	// TickInterval bounds how stale on-disk durations can get.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`

	// Chart also writes an HTML bar chart next to the CSV report.
	Chart bool `yaml:"chart" json:"chart"`
}

// DefaultConfig writes into the working directory and ticks once a second.
func DefaultConfig() Config {
	return Config{
		Dir:          ".",
		TickInterval: time.Second,
		Chart:        false,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive, got %v", ErrInvalidConfig, c.TickInterval)
	}
	if c.Dir == "" {
		return fmt.Errorf("%w: dir is required", ErrInvalidConfig)
	}
	return nil
}

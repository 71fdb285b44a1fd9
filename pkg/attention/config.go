package attention

import (
	"fmt"
	"time"
)

// Config holds the decision thresholds. It is passed by value at
// construction; there is no process-wide instance.
type Config struct {
	// Eye aspect ratio
	EARDrowsy float64 `yaml:"ear_drowsy" json:"ear_drowsy"` // Below this a frame counts as drowsy
	EARBlink  float64 `yaml:"ear_blink" json:"ear_blink"`   // Reserved for blink detection, not used by decisions

	// DrowsyConsecFrames is a frame-count debounce, not a duration.
	// The default of 15 was tuned for a 30 FPS camera (~0.5s).
	DrowsyConsecFrames int `yaml:"drowsy_consec_frames" json:"drowsy_consec_frames"`

	// Gaze deadzone, as a fraction of the normalized eye box
	CenterToleranceX float64 `yaml:"center_tolerance_x" json:"center_tolerance_x"`
	CenterToleranceY float64 `yaml:"center_tolerance_y" json:"center_tolerance_y"`

	// DistractionGrace is how long gaze must stay off-center before it counts
	DistractionGrace time.Duration `yaml:"distraction_grace" json:"distraction_grace"`
}

// DefaultConfig returns thresholds tuned for a laptop webcam at 30 FPS.
func DefaultConfig() Config {
	return Config{
		EARDrowsy:          0.21,
		EARBlink:           0.20,
		DrowsyConsecFrames: 15,
		CenterToleranceX:   0.20,
		CenterToleranceY:   0.25,
		DistractionGrace:   time.Second,
	}
}

// SensitiveConfig flags drowsiness and distraction sooner.
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.EARDrowsy = 0.23
	cfg.DrowsyConsecFrames = 10
	cfg.CenterToleranceX = 0.15
	cfg.CenterToleranceY = 0.20
	cfg.DistractionGrace = 500 * time.Millisecond
	return cfg
}

// RelaxedConfig tolerates longer glances and heavier eyelids.
func RelaxedConfig() Config {
	cfg := DefaultConfig()
	cfg.EARDrowsy = 0.18
	cfg.DrowsyConsecFrames = 30
	cfg.CenterToleranceX = 0.30
	cfg.CenterToleranceY = 0.35
	cfg.DistractionGrace = 2 * time.Second
	return cfg
}

// Validate rejects thresholds the machine cannot run with.
func (c Config) Validate() error {
	if c.DrowsyConsecFrames <= 0 {
		return fmt.Errorf("%w: drowsy_consec_frames must be positive, got %d", ErrInvalidConfig, c.DrowsyConsecFrames)
	}
	if c.DistractionGrace <= 0 {
		return fmt.Errorf("%w: distraction_grace must be positive, got %v", ErrInvalidConfig, c.DistractionGrace)
	}
	if c.CenterToleranceX <= 0 || c.CenterToleranceY <= 0 {
		return fmt.Errorf("%w: center tolerances must be positive, got %v/%v",
			ErrInvalidConfig, c.CenterToleranceX, c.CenterToleranceY)
	}
	if c.EARDrowsy <= 0 {
		return fmt.Errorf("%w: ear_drowsy must be positive, got %v", ErrInvalidConfig, c.EARDrowsy)
	}
	return nil
}

package attention

import "errors"

// ErrInvalidConfig is returned when thresholds are rejected at construction.
var ErrInvalidConfig = errors.New("attention: invalid config")

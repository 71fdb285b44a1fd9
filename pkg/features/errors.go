package features

import (
	"fmt"

	"github.com/teslashibe/go-attention/pkg/landmarks"
)

// ErrDegenerateEye is returned when an eye box has collapsed to a point.
// It wraps landmarks.ErrInvalidInput so callers can skip the frame.
var ErrDegenerateEye = fmt.Errorf("%w: degenerate eye box", landmarks.ErrInvalidInput)

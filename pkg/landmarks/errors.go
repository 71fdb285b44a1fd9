package landmarks

import "errors"

// ErrInvalidInput is returned for landmark data the pipeline cannot index.
// The frame is skipped and no state transition is emitted.
var ErrInvalidInput = errors.New("landmarks: invalid input")

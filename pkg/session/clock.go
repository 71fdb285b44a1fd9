package session

import "time"

// Clock abstracts wall-clock reads so tests can drive time explicitly.
type Clock interface {
	Now() time.Time
}

// RealClock reads time.Now. Its readings carry a monotonic component, so
// elapsed intervals never go negative across wall-clock adjustments.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

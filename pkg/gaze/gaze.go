// Package gaze buckets a normalized gaze offset into nine coarse directions.
package gaze

import (
	"fmt"
	"math"
)

// Direction is a coarse gaze bucket.
type Direction int

const (
	Center Direction = iota
	Up
	Down
	Left
	Right
	UpLeft
	UpRight
	DownLeft
	DownRight
)

var directionNames = [...]string{
	Center:    "CENTER",
	Up:        "UP",
	Down:      "DOWN",
	Left:      "LEFT",
	Right:     "RIGHT",
	UpLeft:    "UP_LEFT",
	UpRight:   "UP_RIGHT",
	DownLeft:  "DOWN_LEFT",
	DownRight: "DOWN_RIGHT",
}

// String returns the bucket label, e.g. "UP_LEFT".
func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "UNKNOWN"
	}
	return directionNames[d]
}

// MarshalText encodes the label for JSON and logs.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a label written by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	dir, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = dir
	return nil
}

// ParseDirection parses a bucket label.
func ParseDirection(label string) (Direction, error) {
	for i, name := range directionNames {
		if name == label {
			return Direction(i), nil
		}
	}
	return Center, fmt.Errorf("gaze: unknown direction %q", label)
}

// Directions lists every bucket in declaration order.
func Directions() []Direction {
	return []Direction{Center, Up, Down, Left, Right, UpLeft, UpRight, DownLeft, DownRight}
}

// Classify maps an offset to a bucket. Offsets inside the tolerance box are
// Center; offsets beyond tolerance on both axes are diagonal; anything else
// takes the dominant axis. Tolerances are strict: |x| == tolX is not "beyond".
func Classify(x, y, tolX, tolY float64) Direction {
	ax, ay := math.Abs(x), math.Abs(y)

	if ax <= tolX && ay <= tolY {
		return Center
	}

	if ax > tolX && ay > tolY {
		switch {
		case x < 0 && y < 0:
			return UpLeft
		case x > 0 && y < 0:
			return UpRight
		case x < 0 && y > 0:
			return DownLeft
		case x > 0 && y > 0:
			return DownRight
		}
	}

	if ax > ay {
		if x < 0 {
			return Left
		}
		return Right
	}
	if y < 0 {
		return Up
	}
	return Down
}

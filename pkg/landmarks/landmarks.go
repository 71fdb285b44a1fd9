// Package landmarks defines the per-frame face mesh consumed by the attention pipeline.
//
// Points follow the MediaPipe Face Mesh ordering with refined iris landmarks
// (478 points). The detector that produces them is an external collaborator;
// this package only names the indices the pipeline reads.
package landmarks

import (
	"fmt"
	"time"
)

// NumPoints is the size of a refined face mesh (468 mesh + 10 iris points).
const NumPoints = 478

// Eye reference indices used for the eye aspect ratio, in EAR order:
// p1 outer corner, p2/p3 upper lid, p4 inner corner, p5/p6 lower lid.
var (
	LeftEAR  = [6]int{33, 160, 158, 133, 153, 144}
	RightEAR = [6]int{362, 387, 385, 263, 380, 373}
)

// Eye box references for gaze.
const (
	LeftOuterCorner  = 33
	LeftInnerCorner  = 133
	LeftUpperLid     = 159
	LeftLowerLid     = 145
	RightOuterCorner = 362
	RightInnerCorner = 263
	RightUpperLid    = 386
	RightLowerLid    = 374
)

// Iris points averaged into the iris centroid.
var (
	LeftIris  = [4]int{468, 469, 470, 471}
	RightIris = [4]int{473, 474, 475, 476}
)

// Point3D is a single landmark in pixel coordinates (z is detector depth).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY returns the point projected to the image plane.
func (p Point3D) XY() []float64 {
	return []float64{p.X, p.Y}
}

// Set is the landmark array for one frame. It must not be modified after
// it is handed to the pipeline.
type Set struct {
	Points []Point3D
}

// NewSet validates the point count and wraps the points.
func NewSet(points []Point3D) (*Set, error) {
	if len(points) < NumPoints {
		return nil, fmt.Errorf("%w: got %d points, need %d", ErrInvalidInput, len(points), NumPoints)
	}
	return &Set{Points: points}, nil
}

// Validate reports ErrInvalidInput when the set cannot be indexed.
func (s *Set) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil landmark set", ErrInvalidInput)
	}
	if len(s.Points) < NumPoints {
		return fmt.Errorf("%w: got %d points, need %d", ErrInvalidInput, len(s.Points), NumPoints)
	}
	return nil
}

// At returns the point at index i. Callers validate the set first.
func (s *Set) At(i int) Point3D {
	return s.Points[i]
}

// FromNormalized scales detector output in [0,1] image units to pixels.
// Z is left untouched.
func FromNormalized(points [][3]float64, width, height int) []Point3D {
	out := make([]Point3D, len(points))
	w, h := float64(width), float64(height)
	for i, p := range points {
		out[i] = Point3D{X: p[0] * w, Y: p[1] * h, Z: p[2]}
	}
	return out
}

// Frame is one detector result. A nil Set means no face was found. A zero
// At means the detector sent no timestamp.
type Frame struct {
	ID  uint64
	At  time.Time
	Set *Set
}

// HasFace reports whether the detector found a face in this frame.
func (f Frame) HasFace() bool {
	return f.Set != nil
}

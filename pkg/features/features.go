// Package features computes per-frame eye geometry from a face mesh:
// the eye aspect ratio (EAR) used for drowsiness and the normalized iris
// offset used for gaze direction.
package features

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-attention/pkg/landmarks"
)

// Epsilon guards every division against degenerate eye geometry.
const Epsilon = 1e-6

// EyeMetrics holds the eye aspect ratio per eye and their mean.
type EyeMetrics struct {
	Mean  float64 `json:"mean"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// GazeOffset is the iris position inside each eye box, normalized to
// roughly [-1,1]. Negative X is left, negative Y is up (image coordinates).
type GazeOffset struct {
	LeftX  float64 `json:"left_x"`
	LeftY  float64 `json:"left_y"`
	RightX float64 `json:"right_x"`
	RightY float64 `json:"right_y"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Features is everything the state machine needs from one frame.
type Features struct {
	Eyes EyeMetrics `json:"eyes"`
	Gaze GazeOffset `json:"gaze"`
}

// Extract computes eye metrics and gaze for a validated mesh.
func Extract(set *landmarks.Set) (Features, error) {
	if err := set.Validate(); err != nil {
		return Features{}, err
	}

	gaze, err := Gaze(set)
	if err != nil {
		return Features{}, err
	}

	return Features{Eyes: EyeAspectRatio(set), Gaze: gaze}, nil
}

// EyeAspectRatio returns the EAR of both eyes. The set must be valid.
func EyeAspectRatio(set *landmarks.Set) EyeMetrics {
	left := earFor(set, landmarks.LeftEAR)
	right := earFor(set, landmarks.RightEAR)
	return EyeMetrics{
		Mean:  (left + right) / 2,
		Left:  left,
		Right: right,
	}
}

// earFor computes (|p2-p6| + |p3-p5|) / (2|p1-p4| + eps) in the image plane.
func earFor(set *landmarks.Set, idx [6]int) float64 {
	p1, p2, p3 := set.At(idx[0]).XY(), set.At(idx[1]).XY(), set.At(idx[2]).XY()
	p4, p5, p6 := set.At(idx[3]).XY(), set.At(idx[4]).XY(), set.At(idx[5]).XY()

	vert1 := floats.Distance(p2, p6, 2)
	vert2 := floats.Distance(p3, p5, 2)
	horiz := floats.Distance(p1, p4, 2)
	return (vert1 + vert2) / (2*horiz + Epsilon)
}

// Gaze returns the normalized iris offsets for both eyes and their average.
func Gaze(set *landmarks.Set) (GazeOffset, error) {
	lx, ly, err := eyeOffset(set, landmarks.LeftOuterCorner, landmarks.LeftInnerCorner,
		landmarks.LeftUpperLid, landmarks.LeftLowerLid, landmarks.LeftIris)
	if err != nil {
		return GazeOffset{}, fmt.Errorf("left eye: %w", err)
	}
	rx, ry, err := eyeOffset(set, landmarks.RightOuterCorner, landmarks.RightInnerCorner,
		landmarks.RightUpperLid, landmarks.RightLowerLid, landmarks.RightIris)
	if err != nil {
		return GazeOffset{}, fmt.Errorf("right eye: %w", err)
	}

	return GazeOffset{
		LeftX:  lx,
		LeftY:  ly,
		RightX: rx,
		RightY: ry,
		X:      (lx + rx) / 2,
		Y:      (ly + ry) / 2,
	}, nil
}

// Box is an axis-aligned eye box in pixels.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Degenerate reports a box collapsed on both axes.
func (b Box) Degenerate() bool {
	return b.Width() <= Epsilon && b.Height() <= Epsilon
}

// Normalize maps (x, y) inside the box to [-1,1] on each axis.
func (b Box) Normalize(x, y float64) (float64, float64) {
	w := max(b.Width(), Epsilon)
	h := max(b.Height(), Epsilon)
	return 2*(x-b.MinX)/w - 1, 2*(y-b.MinY)/h - 1
}

// EyeBox builds the box from the horizontal corners and the vertical lids,
// independent of which of each pair comes first.
func EyeBox(set *landmarks.Set, cornerA, cornerB, upper, lower int) Box {
	a, b := set.At(cornerA), set.At(cornerB)
	top, bottom := set.At(upper), set.At(lower)
	return Box{
		MinX: min(a.X, b.X),
		MaxX: max(a.X, b.X),
		MinY: min(top.Y, bottom.Y),
		MaxY: max(top.Y, bottom.Y),
	}
}

// IrisCenter returns the centroid of the iris points.
func IrisCenter(set *landmarks.Set, iris [4]int) (float64, float64) {
	xs := make([]float64, len(iris))
	ys := make([]float64, len(iris))
	for i, idx := range iris {
		p := set.At(idx)
		xs[i], ys[i] = p.X, p.Y
	}
	return stat.Mean(xs, nil), stat.Mean(ys, nil)
}

func eyeOffset(set *landmarks.Set, cornerA, cornerB, upper, lower int, iris [4]int) (float64, float64, error) {
	box := EyeBox(set, cornerA, cornerB, upper, lower)
	if box.Degenerate() {
		return 0, 0, ErrDegenerateEye
	}
	cx, cy := IrisCenter(set, iris)
	nx, ny := box.Normalize(cx, cy)
	return nx, ny, nil
}

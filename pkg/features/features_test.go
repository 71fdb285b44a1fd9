package features

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-attention/internal/testutil"
	"github.com/teslashibe/go-attention/pkg/landmarks"
)

const tolerance = 1e-4

func near(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestEyeAspectRatio_MatchesOpenness(t *testing.T) {
	tests := []struct {
		name     string
		openness float64
	}{
		{"wide open", 0.35},
		{"normal", 0.28},
		{"drowsy", 0.10},
		{"closed", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := EyeAspectRatio(testutil.Face(tt.openness, 0, 0))
			if !near(m.Left, tt.openness) || !near(m.Right, tt.openness) {
				t.Errorf("EAR left=%v right=%v, want %v", m.Left, m.Right, tt.openness)
			}
			if !near(m.Mean, (m.Left+m.Right)/2) {
				t.Errorf("Mean=%v is not the average of %v and %v", m.Mean, m.Left, m.Right)
			}
		})
	}
}

func TestEyeAspectRatio_FiniteAndNonNegative(t *testing.T) {
	for _, openness := range []float64{0, 0.01, 0.2, 0.5, 1, 3} {
		m := EyeAspectRatio(testutil.Face(openness, 0.3, -0.2))
		for _, v := range []float64{m.Left, m.Right, m.Mean} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				t.Errorf("openness %v: EAR %v is not finite and >= 0", openness, v)
			}
		}
	}
}

func TestEyeAspectRatio_ZeroWidthEyeStaysFinite(t *testing.T) {
	set := testutil.Face(0.3, 0, 0)
	// Collapse the left corners onto each other.
	set.Points[landmarks.LeftEAR[3]] = set.Points[landmarks.LeftEAR[0]]

	m := EyeAspectRatio(set)
	if math.IsNaN(m.Left) || math.IsInf(m.Left, 0) {
		t.Errorf("Left EAR should be finite with epsilon guard, got %v", m.Left)
	}
}

func TestGaze_CenteredIrisIsZero(t *testing.T) {
	g, err := Gaze(testutil.Face(0.3, 0, 0))
	if err != nil {
		t.Fatalf("Gaze failed: %v", err)
	}
	for name, v := range map[string]float64{
		"LeftX": g.LeftX, "LeftY": g.LeftY, "RightX": g.RightX, "RightY": g.RightY, "X": g.X, "Y": g.Y,
	} {
		if !near(v, 0) {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestGaze_Offsets(t *testing.T) {
	tests := []struct {
		name   string
		gx, gy float64
	}{
		{"left", -0.6, 0},
		{"right", 0.5, 0},
		{"up", 0, -0.7},
		{"down right", 0.4, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Gaze(testutil.Face(0.3, tt.gx, tt.gy))
			if err != nil {
				t.Fatalf("Gaze failed: %v", err)
			}
			if !near(g.X, tt.gx) || !near(g.Y, tt.gy) {
				t.Errorf("Gaze = (%v, %v), want (%v, %v)", g.X, g.Y, tt.gx, tt.gy)
			}
		})
	}
}

func TestEyeBox_OrderIndependent(t *testing.T) {
	set := testutil.Face(0.3, 0, 0)
	a := EyeBox(set, landmarks.LeftOuterCorner, landmarks.LeftInnerCorner, landmarks.LeftUpperLid, landmarks.LeftLowerLid)
	b := EyeBox(set, landmarks.LeftInnerCorner, landmarks.LeftOuterCorner, landmarks.LeftLowerLid, landmarks.LeftUpperLid)
	if a != b {
		t.Errorf("EyeBox depends on point order: %+v vs %+v", a, b)
	}
	if !near(a.Width(), testutil.EyeWidth) {
		t.Errorf("Width = %v, want %v", a.Width(), testutil.EyeWidth)
	}
}

func TestExtract_ShortSet(t *testing.T) {
	set := &landmarks.Set{Points: make([]landmarks.Point3D, 100)}

	_, err := Extract(set)
	if !errors.Is(err, landmarks.ErrInvalidInput) {
		t.Errorf("Extract error = %v, want ErrInvalidInput", err)
	}
}

func TestExtract_DegenerateEye(t *testing.T) {
	set := testutil.Face(0.3, 0, 0)
	for _, idx := range []int{landmarks.RightOuterCorner, landmarks.RightInnerCorner, landmarks.RightUpperLid, landmarks.RightLowerLid} {
		set.Points[idx] = landmarks.Point3D{X: 10, Y: 10}
	}

	_, err := Extract(set)
	if !errors.Is(err, ErrDegenerateEye) {
		t.Errorf("Extract error = %v, want ErrDegenerateEye", err)
	}
	if !errors.Is(err, landmarks.ErrInvalidInput) {
		t.Error("ErrDegenerateEye should wrap ErrInvalidInput")
	}
}

func TestExtract_ClosedEyeIsNotDegenerate(t *testing.T) {
	// Zero height but real width still yields a usable gaze.
	f, err := Extract(testutil.Face(0, 0.2, 0))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !near(f.Gaze.X, 0.2) {
		t.Errorf("Gaze.X = %v, want 0.2", f.Gaze.X)
	}
	if !near(f.Eyes.Mean, 0) {
		t.Errorf("EAR = %v, want 0", f.Eyes.Mean)
	}
}

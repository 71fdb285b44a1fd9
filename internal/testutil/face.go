// Package testutil builds synthetic face meshes for tests.
package testutil

import "github.com/teslashibe/go-attention/pkg/landmarks"

// Eye geometry of the synthetic face, in pixels.
const (
	EyeWidth   = 60.0
	EyeCenterY = 200.0
	LeftEyeX   = 200.0
	RightEyeX  = 320.0
	IrisRadius = 4.0
)

// Face returns a full mesh whose eyes have the given aspect ratio (eye
// height / eye width, which is also the EAR) and whose irises sit at the
// normalized gaze offset (gx, gy) inside each eye box. All other points
// are at the origin.
func Face(openness, gx, gy float64) *landmarks.Set {
	pts := make([]landmarks.Point3D, landmarks.NumPoints)
	placeEye(pts, LeftEyeX, openness, gx, gy,
		landmarks.LeftEAR, landmarks.LeftUpperLid, landmarks.LeftLowerLid, landmarks.LeftIris)
	placeEye(pts, RightEyeX, openness, gx, gy,
		landmarks.RightEAR, landmarks.RightUpperLid, landmarks.RightLowerLid, landmarks.RightIris)
	return &landmarks.Set{Points: pts}
}

// OpenFace is an open-eyed face looking straight ahead.
func OpenFace() *landmarks.Set {
	return Face(0.30, 0, 0)
}

func placeEye(pts []landmarks.Point3D, cx, openness, gx, gy float64, ear [6]int, upper, lower int, iris [4]int) {
	h := openness * EyeWidth
	left, right := cx-EyeWidth/2, cx+EyeWidth/2
	top, bottom := EyeCenterY-h/2, EyeCenterY+h/2

	// p1 outer, p2/p3 upper, p4 inner, p5/p6 lower
	pts[ear[0]] = landmarks.Point3D{X: left, Y: EyeCenterY}
	pts[ear[1]] = landmarks.Point3D{X: cx - EyeWidth/6, Y: top}
	pts[ear[2]] = landmarks.Point3D{X: cx + EyeWidth/6, Y: top}
	pts[ear[3]] = landmarks.Point3D{X: right, Y: EyeCenterY}
	pts[ear[4]] = landmarks.Point3D{X: cx + EyeWidth/6, Y: bottom}
	pts[ear[5]] = landmarks.Point3D{X: cx - EyeWidth/6, Y: bottom}

	pts[upper] = landmarks.Point3D{X: cx, Y: top}
	pts[lower] = landmarks.Point3D{X: cx, Y: bottom}

	ix := cx + gx*EyeWidth/2
	iy := EyeCenterY + gy*h/2
	pts[iris[0]] = landmarks.Point3D{X: ix - IrisRadius, Y: iy}
	pts[iris[1]] = landmarks.Point3D{X: ix, Y: iy - IrisRadius}
	pts[iris[2]] = landmarks.Point3D{X: ix + IrisRadius, Y: iy}
	pts[iris[3]] = landmarks.Point3D{X: ix, Y: iy + IrisRadius}
}

package main

import "math"

// angleFromPivot returns the angle of (x, y) around the pivot (cx, cy) in
// degrees, range (-180, 180]. atan2(0, 0) is 0, so a pointer exactly on the
// pivot reads as 0 degrees.
func angleFromPivot(x, y, cx, cy float64) float64 {
	return math.Atan2(y-cy, x-cx) * 180 / math.Pi
}

// offsetFromPivot returns the Euclidean distance in pixels from the pivot to
// (x, y).
func offsetFromPivot(x, y, cx, cy float64) float64 {
	return math.Hypot(x-cx, y-cy)
}

// wrapAngleDelta folds a difference of two angles back into [-180, 180] so
// that crossing the +/-180 seam takes the short way around: 179 followed by
// -179 is a delta of +2, not -358.
func wrapAngleDelta(delta float64) float64 {
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return delta
}

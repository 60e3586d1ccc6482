package main

import (
	"math"
	"testing"
)

// almostEqual compares floats with a tolerance tight enough for exact-math
// expectations but immune to representation noise.
func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestAngleFromPivot_CardinalDirections verifies the screen-coordinate
// convention: angles grow clockwise because Y grows downward.
func TestAngleFromPivot_CardinalDirections(t *testing.T) {
	cases := []struct {
		name   string
		x, y   float64
		expect float64
	}{
		{"right", 600, 500, 0},
		{"below", 500, 600, 90},
		{"left", 400, 500, 180},
		{"above", 500, 400, -90},
	}

	for _, c := range cases {
		got := angleFromPivot(c.x, c.y, 500, 500)
		if !almostEqual(got, c.expect) {
			t.Errorf("%s: expected %v, got %v", c.name, c.expect, got)
		}
	}
}

// TestAngleFromPivot_Diagonals checks the four quadrant diagonals.
func TestAngleFromPivot_Diagonals(t *testing.T) {
	cases := []struct {
		name   string
		x, y   float64
		expect float64
	}{
		{"lower-right", 600, 600, 45},
		{"lower-left", 400, 600, 135},
		{"upper-left", 400, 400, -135},
		{"upper-right", 600, 400, -45},
	}

	for _, c := range cases {
		got := angleFromPivot(c.x, c.y, 500, 500)
		if !almostEqual(got, c.expect) {
			t.Errorf("%s: expected %v, got %v", c.name, c.expect, got)
		}
	}
}

// TestAngleFromPivot_OnPivot pins the degenerate case: a pointer exactly on
// the pivot reads as 0 degrees, not NaN or an error.
func TestAngleFromPivot_OnPivot(t *testing.T) {
	got := angleFromPivot(500, 500, 500, 500)
	if got != 0 {
		t.Errorf("expected 0 on pivot, got %v", got)
	}
}

// TestAngleFromPivot_HalfOpenRange verifies that straight left is +180, never
// -180: the range is half-open (-180, 180].
func TestAngleFromPivot_HalfOpenRange(t *testing.T) {
	got := angleFromPivot(0, 500, 500, 500)
	if !almostEqual(got, 180) {
		t.Errorf("expected +180 for straight left, got %v", got)
	}
}

// TestOffsetFromPivot checks the Euclidean distance on a 3-4-5 triangle.
func TestOffsetFromPivot(t *testing.T) {
	got := offsetFromPivot(503, 504, 500, 500)
	if !almostEqual(got, 5) {
		t.Errorf("expected offset 5, got %v", got)
	}

	if got := offsetFromPivot(500, 500, 500, 500); got != 0 {
		t.Errorf("expected offset 0 on pivot, got %v", got)
	}
}

// TestWrapAngleDelta verifies seam crossings take the short way around.
func TestWrapAngleDelta(t *testing.T) {
	cases := []struct {
		name   string
		delta  float64
		expect float64
	}{
		{"cw across seam", -179 - 179, 2},   // 179 -> -179
		{"ccw across seam", 179 - -179, -2}, // -179 -> 179
		{"small positive", 5, 5},
		{"small negative", -5, -5},
		{"exactly +180", 180, 180},
		{"exactly -180", -180, -180},
		{"just over +180", 181, -179},
		{"just under -180", -181, 179},
	}

	for _, c := range cases {
		got := wrapAngleDelta(c.delta)
		if !almostEqual(got, c.expect) {
			t.Errorf("%s: wrapAngleDelta(%v) expected %v, got %v", c.name, c.delta, c.expect, got)
		}
	}
}

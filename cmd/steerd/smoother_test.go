package main

import "testing"

// TestAngleSmoother_WarmUpMean verifies that before the window fills, the
// mean covers only the samples pushed so far.
func TestAngleSmoother_WarmUpMean(t *testing.T) {
	s := newAngleSmoother(5)

	s.push(10)
	if got := s.mean(); !almostEqual(got, 10) {
		t.Errorf("after 1 sample: expected mean 10, got %v", got)
	}

	s.push(20)
	if got := s.mean(); !almostEqual(got, 15) {
		t.Errorf("after 2 samples: expected mean 15, got %v", got)
	}

	s.push(30)
	if got := s.mean(); !almostEqual(got, 20) {
		t.Errorf("after 3 samples: expected mean 20, got %v", got)
	}
}

// TestAngleSmoother_EvictsOldestAtCapacity verifies ring behavior once full.
func TestAngleSmoother_EvictsOldestAtCapacity(t *testing.T) {
	s := newAngleSmoother(3)

	s.push(1)
	s.push(2)
	s.push(3)
	if got := s.mean(); !almostEqual(got, 2) {
		t.Errorf("full window: expected mean 2, got %v", got)
	}

	// Fourth push evicts the 1.
	s.push(4)
	if got := s.mean(); !almostEqual(got, 3) {
		t.Errorf("after eviction: expected mean 3, got %v", got)
	}

	s.push(5)
	if got := s.mean(); !almostEqual(got, 4) {
		t.Errorf("after second eviction: expected mean 4, got %v", got)
	}
}

// TestAngleSmoother_SeedFillsWindow verifies that seed discards history and
// the next push only nudges the mean by one window slot.
func TestAngleSmoother_SeedFillsWindow(t *testing.T) {
	s := newAngleSmoother(5)
	s.push(-170)
	s.push(160)

	s.seed(42)
	if got := s.mean(); !almostEqual(got, 42) {
		t.Errorf("after seed: expected mean 42, got %v", got)
	}

	s.push(52)
	want := (42.0*4 + 52.0) / 5
	if got := s.mean(); !almostEqual(got, want) {
		t.Errorf("after seed+push: expected mean %v, got %v", want, got)
	}
}

// TestAngleSmoother_EmptyMean pins the before-first-push value.
func TestAngleSmoother_EmptyMean(t *testing.T) {
	s := newAngleSmoother(5)
	if got := s.mean(); got != 0 {
		t.Errorf("expected mean 0 before any push, got %v", got)
	}
}

// TestAngleSmoother_WindowClampedToOne verifies a degenerate window acts as
// pass-through.
func TestAngleSmoother_WindowClampedToOne(t *testing.T) {
	s := newAngleSmoother(0)
	if got := s.window(); got != 1 {
		t.Fatalf("expected window 1, got %d", got)
	}

	s.push(7)
	if got := s.mean(); !almostEqual(got, 7) {
		t.Errorf("expected mean 7, got %v", got)
	}

	s.push(9)
	if got := s.mean(); !almostEqual(got, 9) {
		t.Errorf("expected pass-through mean 9, got %v", got)
	}
}

// TestAngleSmoother_DampsStepChange documents the damping a seeded window
// applies to a sudden jump: one new sample moves the mean by jump/window.
func TestAngleSmoother_DampsStepChange(t *testing.T) {
	s := newAngleSmoother(5)
	s.seed(0)

	s.push(100)
	if got := s.mean(); !almostEqual(got, 20) {
		t.Errorf("expected damped mean 20, got %v", got)
	}
}

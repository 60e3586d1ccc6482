package main

// angleSmoother keeps a fixed-capacity ring of recent raw angles and produces
// their arithmetic mean. During warm-up the mean covers only the samples held
// so far; once full, each push evicts the oldest sample.
type angleSmoother struct {
	samples []float64
	next    int // Insertion index
	count   int // Samples held, grows to cap and stays
}

// newAngleSmoother returns a smoother averaging up to window samples.
// A window below 1 is treated as 1.
func newAngleSmoother(window int) *angleSmoother {
	if window < 1 {
		window = 1
	}
	return &angleSmoother{samples: make([]float64, window)}
}

// push adds a raw angle, evicting the oldest sample at capacity.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (a *angleSmoother) push(angle float64) {
	a.samples[a.next] = angle
	a.next = (a.next + 1) % len(a.samples)
	if a.count < len(a.samples) {
		a.count++
	}
}

// mean returns the arithmetic mean of the samples currently held, or 0 when
// none have been pushed yet.
func (a *angleSmoother) mean() float64 {
	if a.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < a.count; i++ {
		sum += a.samples[i]
	}
	return sum / float64(a.count)
}

// seed discards history and fills the whole window with angle. Arming and
// recentering seed with the current angle so the first real event after a
// discontinuity does not see a transient large delta.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (a *angleSmoother) seed(angle float64) {
	for i := range a.samples {
		a.samples[i] = angle
	}
	a.next = 0
	a.count = len(a.samples)
}

// window returns the smoother's capacity.
func (a *angleSmoother) window() int {
	return len(a.samples)
}

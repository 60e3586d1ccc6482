package main

import (
	"math"
	"time"
)

// Direction classifies the rotational sense of pointer motion between two
// consecutive smoothed samples.
type Direction string

const (
	DirectionClockwise        Direction = "clockwise"
	DirectionCounterClockwise Direction = "counterclockwise"
	DirectionNeutral          Direction = "neutral"
)

// TimeDeltaMode selects the dt used for angular velocity and acceleration.
//
// per_event treats every pointer sample as one time unit, so velocity is
// degrees per event and independent of the device's report rate. real_time
// measures the wall-clock interval between samples, yielding degrees per
// second. Accumulation is dt-independent either way.
type TimeDeltaMode string

const (
	TimeDeltaPerEvent TimeDeltaMode = "per_event"
	TimeDeltaRealTime TimeDeltaMode = "real_time"
)

// SessionPhase is the lifecycle phase of the steering session.
type SessionPhase string

const (
	PhaseIdle   SessionPhase = "idle"
	PhaseArmed  SessionPhase = "armed"
	PhaseActive SessionPhase = "active"
)

// SteeringConfig contains all tunable parameters for the steering pipeline.
type SteeringConfig struct {
	MaxDegrees        float64 // Accumulator bound: total rotation stays within +/-MaxDegrees
	SmoothingWindow   int     // Raw angles averaged per smoothed sample
	CenterThresholdPx float64 // Inside this pivot radius motion classifies as neutral
	HysteresisDeg     float64 // Minimum |delta| to register a direction
	Sensitivity       float64 // Reported multiplier; never scales accumulation

	// Axis range of the output sink
	MinAxis int
	MaxAxis int

	DtMode TimeDeltaMode

	// Robustness
	SinkRetry time.Duration // Minimum gap between sink acquisition attempts
}

// centerAxis is the forced-center write value: the integer midpoint of the
// axis range. Note this is not necessarily mapAxis(0): round-to-nearest of
// the exact midpoint can land one step above (16384 vs 16383 with defaults).
func (c SteeringConfig) centerAxis() int {
	return (c.MinAxis + c.MaxAxis) / 2
}

// SteeringState is the reducer-owned state of the motion-to-rotation
// pipeline. It is mutated only on the daemon goroutine; every other layer
// sees immutable snapshots.
type SteeringState struct {
	Phase SessionPhase

	// Pivot is the angular reference origin, screen coordinates.
	PivotX   float64
	PivotY   float64
	PivotSet bool

	history *angleSmoother

	RawAngle          float64 // Last extracted angle, degrees in (-180, 180]
	SmoothedAngle     float64 // Moving average over the history window
	PrevSmoothedAngle float64 // Prior event's smoothed angle, for the delta
	Offset            float64 // Pixels from pivot to the current position

	// TotalRotation is the signed accumulated rotation in degrees, clamped
	// to +/-MaxDegrees. It survives stop/start; only recenter zeroes it.
	TotalRotation float64

	Direction       Direction
	AngularVelocity float64 // Degrees per event, or per second in real_time mode
	AngularAccel    float64

	// AxisValue is the last value computed for the sink, always within
	// [MinAxis, MaxAxis]. Computed once per event or lifecycle command and
	// reused for both the sink write and the snapshot.
	AxisValue int

	Sensitivity float64

	// LastEventAt is the previous pointer event's arrival time (real_time
	// mode only).
	LastEventAt time.Time
}

// newSteeringState creates the initial pipeline state for the given
// configuration. The axis starts at center.
func newSteeringState(cfg SteeringConfig) SteeringState {
	return SteeringState{
		Phase:       PhaseIdle,
		history:     newAngleSmoother(cfg.SmoothingWindow),
		Direction:   DirectionNeutral,
		AxisValue:   cfg.centerAxis(),
		Sensitivity: cfg.Sensitivity,
	}
}

// classifyDirection applies the center override, then hysteresis, to a
// wrap-corrected delta. Inside the center threshold the pointer counts as
// parked at the pivot and classifies neutral regardless of delta, so jitter
// near center never accumulates.
func classifyDirection(delta, offset float64, cfg SteeringConfig) Direction {
	switch {
	case offset < cfg.CenterThresholdPx:
		return DirectionNeutral
	case delta > cfg.HysteresisDeg:
		return DirectionClockwise
	case delta < -cfg.HysteresisDeg:
		return DirectionCounterClockwise
	default:
		return DirectionNeutral
	}
}

// accumulateRotation integrates a classified delta into the running total
// and clamps it to +/-MaxDegrees. Neutral leaves the total untouched:
// passing through center is sticky, only an explicit recenter zeroes it.
func accumulateRotation(total, delta float64, dir Direction, cfg SteeringConfig) float64 {
	switch dir {
	case DirectionClockwise:
		total += math.Abs(delta)
	case DirectionCounterClockwise:
		total -= math.Abs(delta)
	}
	if total > cfg.MaxDegrees {
		total = cfg.MaxDegrees
	}
	if total < -cfg.MaxDegrees {
		total = -cfg.MaxDegrees
	}
	return total
}

// mapAxis rescales total rotation from +/-MaxDegrees onto the integer axis
// range. Round-to-nearest is the only place rounding happens, so the
// endpoints land exactly on MinAxis and MaxAxis. MaxDegrees of 0 is a
// degenerate configuration and pins the axis at the midpoint.
func mapAxis(total float64, cfg SteeringConfig) int {
	normalized := 0.5
	if cfg.MaxDegrees != 0 {
		normalized = (total + cfg.MaxDegrees) / (2 * cfg.MaxDegrees)
	}
	v := int(math.Round(normalized*float64(cfg.MaxAxis-cfg.MinAxis) + float64(cfg.MinAxis)))
	if v < cfg.MinAxis {
		v = cfg.MinAxis
	}
	if v > cfg.MaxAxis {
		v = cfg.MaxAxis
	}
	return v
}

// eventDt returns the dt for a pointer event arriving at the given time and
// advances LastEventAt in real_time mode. per_event mode always yields 1.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (st *SteeringState) eventDt(at time.Time, cfg SteeringConfig) float64 {
	if cfg.DtMode != TimeDeltaRealTime {
		return 1
	}
	dt := at.Sub(st.LastEventAt).Seconds()
	st.LastEventAt = at
	if dt <= 0 {
		// Same-tick events and clock skew both land here.
		dt = timeDeltaEpsilon
	}
	return dt
}

// stepPointer runs one pointer sample through the full pipeline: extract,
// smooth, classify, accumulate, map. O(window). The axis value is computed
// exactly once here; callers reuse it for both the sink write and the
// published snapshot.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (st *SteeringState) stepPointer(x, y, dt float64, cfg SteeringConfig) {
	st.Offset = offsetFromPivot(x, y, st.PivotX, st.PivotY)
	st.RawAngle = angleFromPivot(x, y, st.PivotX, st.PivotY)

	st.history.push(st.RawAngle)
	st.SmoothedAngle = st.history.mean()

	delta := wrapAngleDelta(st.SmoothedAngle - st.PrevSmoothedAngle)

	newVelocity := delta / dt
	st.AngularAccel = (newVelocity - st.AngularVelocity) / dt
	st.AngularVelocity = newVelocity

	st.Direction = classifyDirection(delta, st.Offset, cfg)
	st.TotalRotation = accumulateRotation(st.TotalRotation, delta, st.Direction, cfg)
	st.PrevSmoothedAngle = st.SmoothedAngle

	st.AxisValue = mapAxis(st.TotalRotation, cfg)
}

// reseed points the smoothing window at the pointer's current angle around
// the pivot, per the smoother's reset contract. With no pivot the angle
// falls back to 0.
func (st *SteeringState) reseed(px, py float64) {
	angle := 0.0
	offset := 0.0
	if st.PivotSet {
		angle = angleFromPivot(px, py, st.PivotX, st.PivotY)
		offset = offsetFromPivot(px, py, st.PivotX, st.PivotY)
	}
	st.history.seed(angle)
	st.RawAngle = angle
	st.SmoothedAngle = angle
	st.PrevSmoothedAngle = angle
	st.Offset = offset
}

// applyArm sets a new pivot and re-seeds smoothing at the pointer's current
// position. Total rotation is deliberately untouched.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (st *SteeringState) applyArm(cx, cy, px, py float64) {
	st.PivotX = cx
	st.PivotY = cy
	st.PivotSet = true
	st.Phase = PhaseArmed
	st.reseed(px, py)
	st.AngularVelocity = 0
	st.AngularAccel = 0
	st.Direction = DirectionNeutral
}

// applyStart enters Active and re-seeds smoothing from the current pointer
// position. Preconditions (pivot set, sink available) are the reducer's job.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (st *SteeringState) applyStart(px, py float64, now time.Time) {
	st.Phase = PhaseActive
	st.reseed(px, py)
	st.AngularVelocity = 0
	st.AngularAccel = 0
	st.Direction = DirectionNeutral
	st.LastEventAt = now
}

// applyStop leaves Active, retaining the pivot so a later start needs no
// re-arm. The axis is pinned at the forced-center value; the caller writes
// that same value to the sink exactly once.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (st *SteeringState) applyStop(center int) {
	st.Phase = PhaseIdle
	st.AngularVelocity = 0
	st.AngularAccel = 0
	st.AxisValue = center
}

// applyRecenter zeroes accumulated rotation and motion derivatives and
// re-seeds smoothing at the current pointer position. The axis is pinned at
// the forced-center value; while Active the caller also writes it to the
// sink.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (st *SteeringState) applyRecenter(px, py float64, center int) {
	st.TotalRotation = 0
	st.AngularVelocity = 0
	st.AngularAccel = 0
	st.reseed(px, py)
	st.AxisValue = center
}

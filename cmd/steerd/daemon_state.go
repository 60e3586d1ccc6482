package main

import "time"

// DaemonState is the top-level, daemon-owned state container.
//
// Goals:
//   - Keep all reducer-owned state in one place (pure reducer, no external
//     mutation).
//   - Keep observed state (pointer position, sink health) next to the
//     steering pipeline state so snapshots stay coherent.
//   - Publish immutable snapshots to other layers (IPC/WS); nothing shares
//     this struct by identity.
type DaemonState struct {
	// Steering is the reducer-owned motion-to-rotation pipeline state.
	Steering SteeringState

	// Pointer is the last observed pointer position, integrated from
	// relative motion by the input layer. Tracked in every phase so arming
	// at the current position works before a session starts.
	Pointer PointerState

	// Sink is the observed health of the analog output.
	Sink SinkState
}

// PointerState is the daemon's cached view of the pointer.
type PointerState struct {
	X     float64
	Y     float64
	Known bool
	At    time.Time // when the position was last reported
}

// SinkState is the daemon's cached view of the output sink.
type SinkState struct {
	Available bool
	Name      string
	LastError string
	At        time.Time // when availability last changed

	// LastAttemptAt paces the tick-driven reacquisition policy.
	LastAttemptAt time.Time
}

// NewDaemonState returns the initial daemon state for the configuration.
func NewDaemonState(cfg SteeringConfig) *DaemonState {
	return &DaemonState{Steering: newSteeringState(cfg)}
}

// SetObservedPointer records the position reported by the input layer.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetObservedPointer(x, y float64, now time.Time) {
	s.Pointer.X = x
	s.Pointer.Y = y
	s.Pointer.Known = true
	s.Pointer.At = now
}

// SetSinkAvailable records a successful sink acquisition.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetSinkAvailable(name string, now time.Time) {
	s.Sink.Available = true
	s.Sink.Name = name
	s.Sink.LastError = ""
	s.Sink.At = now
}

// SetSinkUnavailable records a failed sink operation.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) SetSinkUnavailable(errText string, now time.Time) {
	s.Sink.Available = false
	s.Sink.LastError = errText
	s.Sink.At = now
}

// StateSnapshot is the immutable view published to observers after each
// processed pointer event and each lifecycle command. AxisValue is the same
// value the sink was (or would be) driven with, never recomputed.
type StateSnapshot struct {
	Phase    SessionPhase `json:"phase"`
	IsActive bool         `json:"is_active"`

	PivotSet bool    `json:"pivot_set"`
	PivotX   float64 `json:"pivot_x"`
	PivotY   float64 `json:"pivot_y"`

	Offset        float64 `json:"offset"`
	RawAngle      float64 `json:"raw_angle"`
	SmoothedAngle float64 `json:"smoothed_angle"`

	TotalRotation   float64   `json:"total_rotation"`
	Direction       Direction `json:"direction"`
	AngularVelocity float64   `json:"angular_velocity"`
	AngularAccel    float64   `json:"angular_acceleration"`

	AxisValue   int     `json:"axis_value"`
	Sensitivity float64 `json:"sensitivity"`

	SinkAvailable bool   `json:"sink_available"`
	SinkName      string `json:"sink_name,omitempty"`
}

// BuildSnapshot copies the publishable state.
//
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) BuildSnapshot() StateSnapshot {
	st := &s.Steering
	return StateSnapshot{
		Phase:           st.Phase,
		IsActive:        st.Phase == PhaseActive,
		PivotSet:        st.PivotSet,
		PivotX:          st.PivotX,
		PivotY:          st.PivotY,
		Offset:          st.Offset,
		RawAngle:        st.RawAngle,
		SmoothedAngle:   st.SmoothedAngle,
		TotalRotation:   st.TotalRotation,
		Direction:       st.Direction,
		AngularVelocity: st.AngularVelocity,
		AngularAccel:    st.AngularAccel,
		AxisValue:       st.AxisValue,
		Sensitivity:     st.Sensitivity,
		SinkAvailable:   s.Sink.Available,
		SinkName:        s.Sink.Name,
	}
}

package main

import (
	"fmt"
	"time"
)

// ============================================================================
// Broadcasts
// ============================================================================
// Broadcasts are notifications fanned out to state observers (the WebSocket
// hub). The reducer emits them alongside commands; the daemon loop publishes
// them strictly after the state mutation they describe.
// ============================================================================

// StateBroadcast is the marker interface for observer notifications.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastSnapshot carries a full state snapshot.
type BroadcastSnapshot struct {
	Snapshot StateSnapshot
	At       time.Time
}

func (BroadcastSnapshot) broadcastMarker() {}

// BroadcastStatus carries a discrete status transition.
type BroadcastStatus struct {
	Kind   StatusKind
	Detail string
	At     time.Time
}

func (BroadcastStatus) broadcastMarker() {}

// StatusKind labels a status broadcast.
type StatusKind string

const (
	StatusArmed              StatusKind = "armed"
	StatusStarted            StatusKind = "started"
	StatusStopped            StatusKind = "stopped"
	StatusRecentered         StatusKind = "recentered"
	StatusSensitivityChanged StatusKind = "sensitivity_changed"
	StatusPreconditionFailed StatusKind = "precondition_failed"
	StatusSinkUnavailable    StatusKind = "sink_unavailable"
	StatusSinkAcquired       StatusKind = "sink_acquired"
	StatusSourceFailed       StatusKind = "source_failed"
	StatusIgnored            StatusKind = "ignored"
)

// ReduceResult is what a single reduction produces: the next state plus the
// side effects and notifications it implies.
type ReduceResult struct {
	State      *DaemonState
	Commands   []Command
	Broadcasts []StateBroadcast
}

// Reduce applies one event to the daemon state.
//
// Rules:
//   - Must not perform I/O.
//   - Must not block.
//   - Must not mutate anything outside the returned state.
//
// The daemon loop owns the state and calls Reduce sequentially, which is the
// single mutual-exclusion boundary: lifecycle commands, pointer samples,
// observations, and ticks are totally ordered against each other.
func Reduce(s *DaemonState, e Event, cfg SteeringConfig) ReduceResult {
	rr := ReduceResult{State: s}
	if s == nil {
		return rr
	}

	var at time.Time
	if te, ok := e.(TimedEvent); ok {
		at = te.At
		e = te.Event
	}

	switch ev := e.(type) {
	case ArmRequested:
		if s.Steering.Phase == PhaseActive {
			rr.ignore(s, "arm ignored: session active", at)
			return rr
		}
		cx, cy := ev.X, ev.Y
		if ev.AtPointer {
			if !s.Pointer.Known {
				rr.ignore(s, "arm ignored: pointer position unknown", at)
				return rr
			}
			cx, cy = s.Pointer.X, s.Pointer.Y
		}
		px, py := seedPos(s, cx, cy)
		s.Steering.applyArm(cx, cy, px, py)
		rr.status(StatusArmed, fmt.Sprintf("pivot set to (%.0f, %.0f)", cx, cy), at)
		rr.snapshot(s, at)

	case StartRequested:
		switch {
		case s.Steering.Phase == PhaseActive:
			rr.ignore(s, "start ignored: already active", at)
		case !s.Steering.PivotSet:
			rr.status(StatusPreconditionFailed, "start rejected: no pivot armed", at)
			rr.snapshot(s, at)
		case !s.Sink.Available:
			rr.status(StatusPreconditionFailed, "start rejected: sink unavailable", at)
			rr.snapshot(s, at)
		default:
			px, py := seedPos(s, s.Steering.PivotX, s.Steering.PivotY)
			s.Steering.applyStart(px, py, at)
			rr.status(StatusStarted, "", at)
			rr.snapshot(s, at)
		}

	case StopRequested:
		if s.Steering.Phase != PhaseActive {
			rr.ignore(s, "stop ignored: not active", at)
			return rr
		}
		center := cfg.centerAxis()
		s.Steering.applyStop(center)
		if s.Sink.Available {
			rr.Commands = append(rr.Commands, CmdWriteAxis{Value: center})
		}
		rr.status(StatusStopped, "", at)
		rr.snapshot(s, at)

	case RecenterRequested:
		if s.Steering.Phase == PhaseIdle {
			rr.ignore(s, "recenter ignored: no session", at)
			return rr
		}
		center := cfg.centerAxis()
		px, py := seedPos(s, s.Steering.PivotX, s.Steering.PivotY)
		wasActive := s.Steering.Phase == PhaseActive
		s.Steering.applyRecenter(px, py, center)
		if wasActive && s.Sink.Available {
			rr.Commands = append(rr.Commands, CmdWriteAxis{Value: center})
		}
		rr.status(StatusRecentered, "", at)
		rr.snapshot(s, at)

	case ToggleRequested:
		// Resolved by phase so one button binding drives the whole session.
		if s.Steering.Phase == PhaseActive {
			return Reduce(s, TimedEvent{Event: StopRequested{}, At: at}, cfg)
		}
		return Reduce(s, TimedEvent{Event: StartRequested{}, At: at}, cfg)

	case SetSensitivityRequested:
		v := ev.Value
		if v < minSensitivity {
			v = minSensitivity
		}
		if v > maxSensitivity {
			v = maxSensitivity
		}
		// Stored and reported only: sensitivity never scales accumulation.
		s.Steering.Sensitivity = v
		rr.status(StatusSensitivityChanged, fmt.Sprintf("sensitivity: %.2f", v), at)
		rr.snapshot(s, at)

	case PointerMoved:
		x, y := float64(ev.X), float64(ev.Y)
		s.SetObservedPointer(x, y, at)
		if s.Steering.Phase != PhaseActive {
			// Position tracking only. Pointer events queued behind a stop
			// land here and are discarded without touching steering state.
			return rr
		}
		dt := s.Steering.eventDt(at, cfg)
		s.Steering.stepPointer(x, y, dt, cfg)
		if s.Sink.Available {
			rr.Commands = append(rr.Commands, CmdWriteAxis{Value: s.Steering.AxisValue})
		}
		rr.snapshot(s, at)

	case SinkAcquired:
		s.SetSinkAvailable(ev.Name, ev.At)
		// Resync the device with the held axis value so output resumes
		// exactly where internal state left off.
		rr.Commands = append(rr.Commands, CmdWriteAxis{Value: s.Steering.AxisValue})
		rr.status(StatusSinkAcquired, ev.Name, ev.At)
		rr.snapshot(s, ev.At)

	case SinkCommandFailed:
		s.SetSinkUnavailable(ev.Err, ev.At)
		rr.status(StatusSinkUnavailable, ev.Err, ev.At)
		rr.snapshot(s, ev.At)

	case SourceFailed:
		if s.Steering.Phase == PhaseActive {
			center := cfg.centerAxis()
			s.Steering.applyStop(center)
			if s.Sink.Available {
				rr.Commands = append(rr.Commands, CmdWriteAxis{Value: center})
			}
		} else {
			s.Steering.Phase = PhaseIdle
		}
		rr.status(StatusSourceFailed, ev.Err, ev.At)
		rr.snapshot(s, ev.At)

	case Tick:
		if !s.Sink.Available {
			if s.Sink.LastAttemptAt.IsZero() || ev.Now.Sub(s.Sink.LastAttemptAt) >= cfg.SinkRetry {
				s.Sink.LastAttemptAt = ev.Now
				rr.Commands = append(rr.Commands, CmdAcquireSink{})
			}
		}

	case RequestStateSnapshot:
		rr.Commands = append(rr.Commands, CmdPublishSnapshot{Snapshot: s.BuildSnapshot(), Reply: ev.Reply})
	}

	return rr
}

// seedPos is the position smoothing re-seeds from: the tracked pointer, or
// the given fallback (the pivot itself, which reads as angle 0) when no
// pointer sample has been observed yet.
func seedPos(s *DaemonState, fx, fy float64) (float64, float64) {
	if s.Pointer.Known {
		return s.Pointer.X, s.Pointer.Y
	}
	return fx, fy
}

func (rr *ReduceResult) status(kind StatusKind, detail string, at time.Time) {
	rr.Broadcasts = append(rr.Broadcasts, BroadcastStatus{Kind: kind, Detail: detail, At: at})
}

func (rr *ReduceResult) snapshot(s *DaemonState, at time.Time) {
	rr.Broadcasts = append(rr.Broadcasts, BroadcastSnapshot{Snapshot: s.BuildSnapshot(), At: at})
}

// ignore records a benign no-op command: a status plus an unchanged-state
// snapshot, so every lifecycle command produces an observable snapshot.
func (rr *ReduceResult) ignore(s *DaemonState, detail string, at time.Time) {
	rr.status(StatusIgnored, detail, at)
	rr.snapshot(s, at)
}

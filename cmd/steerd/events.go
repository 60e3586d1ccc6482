package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Event Types
// ============================================================================
// Events are everything the daemon loop can reduce: operator requests (IPC,
// command hook, button bindings), pointer samples from the input layer,
// observations fed back by the effects layer, and loop housekeeping. The
// central daemon loop consumes them one at a time and applies policy.
// ============================================================================

// Event is the marker interface for everything the reducer accepts.
type Event interface {
	eventMarker()
}

// TimedEvent wraps an event with its arrival time. The daemon loop stamps
// every event taken off the channel so the reducer never reads the clock.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// ============================================================================
// Request events (operator intent)
// ============================================================================

// ArmRequested sets the pivot. With AtPointer set, the current tracked
// pointer position becomes the pivot and X/Y are ignored.
type ArmRequested struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	AtPointer bool    `json:"at_pointer,omitempty"`
}

func (ArmRequested) eventMarker() {}

// StartRequested begins processing pointer motion. Requires an armed pivot
// and an available sink.
type StartRequested struct{}

func (StartRequested) eventMarker() {}

// StopRequested ends the active session and drives the sink to center.
type StopRequested struct{}

func (StopRequested) eventMarker() {}

// RecenterRequested zeroes accumulated rotation and re-seeds smoothing.
type RecenterRequested struct{}

func (RecenterRequested) eventMarker() {}

// ToggleRequested starts or stops depending on the current phase, so a
// single mouse button can drive the whole session without leaving the game.
type ToggleRequested struct{}

func (ToggleRequested) eventMarker() {}

// SetSensitivityRequested updates the stored sensitivity multiplier. The
// value is clamped, reported in snapshots, and never scales accumulation.
type SetSensitivityRequested struct {
	Value float64 `json:"value"`
}

func (SetSensitivityRequested) eventMarker() {}

// ============================================================================
// Input events
// ============================================================================

// PointerMoved is one integrated pointer sample from the input layer,
// absolute screen coordinates.
type PointerMoved struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (PointerMoved) eventMarker() {}

// ============================================================================
// Observed events (fed back by the effects and input layers)
// ============================================================================

// SinkAcquired reports a successful sink acquisition.
type SinkAcquired struct {
	Name string
	At   time.Time
}

func (SinkAcquired) eventMarker() {}

// SinkCommandFailed reports a failed sink operation. Command is the
// command's String() form, for logs and status payloads.
type SinkCommandFailed struct {
	Command string
	Err     string
	At      time.Time
}

func (SinkCommandFailed) eventMarker() {}

// SourceFailed reports a fatal input-reader error. The session is forced out
// of Active; the daemon itself keeps serving IPC and WebSocket clients.
type SourceFailed struct {
	Err string
	At  time.Time
}

func (SourceFailed) eventMarker() {}

// ============================================================================
// Loop events
// ============================================================================

// Tick drives time-based housekeeping, currently sink reacquisition pacing.
type Tick struct {
	Now time.Time
}

func (Tick) eventMarker() {}

// RequestStateSnapshot asks the loop for a fresh snapshot. The reply is
// served with a non-blocking send; requesters use a buffered channel plus a
// timeout.
type RequestStateSnapshot struct {
	Reply chan StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// EventEnvelope is the wire form used by the IPC socket and the command
// hook. Only request and input events have a wire form; observations and
// loop events are internal.
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "arm":
		// A bare arm means "arm at the current pointer position".
		if len(env.Data) == 0 {
			return ArmRequested{AtPointer: true}, nil
		}
		var e ArmRequested
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ArmRequested: %w", err)
		}
		return e, nil

	case "start":
		return StartRequested{}, nil

	case "stop":
		return StopRequested{}, nil

	case "recenter":
		return RecenterRequested{}, nil

	case "toggle":
		return ToggleRequested{}, nil

	case "set_sensitivity":
		var e SetSensitivityRequested
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal SetSensitivityRequested: %w", err)
		}
		return e, nil

	case "pointer_moved":
		var e PointerMoved
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal PointerMoved: %w", err)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope

	switch e := e.(type) {
	case ArmRequested:
		env.Type = "arm"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ArmRequested: %w", err)
		}
		env.Data = data

	case StartRequested:
		env.Type = "start"

	case StopRequested:
		env.Type = "stop"

	case RecenterRequested:
		env.Type = "recenter"

	case ToggleRequested:
		env.Type = "toggle"

	case SetSensitivityRequested:
		env.Type = "set_sensitivity"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal SetSensitivityRequested: %w", err)
		}
		env.Data = data

	case PointerMoved:
		env.Type = "pointer_moved"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal PointerMoved: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	return json.Marshal(env)
}

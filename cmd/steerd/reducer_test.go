package main

import (
	"testing"
	"time"
)

func wantStatus(t *testing.T, rr ReduceResult, kind StatusKind) BroadcastStatus {
	t.Helper()
	for _, b := range rr.Broadcasts {
		if st, ok := b.(BroadcastStatus); ok && st.Kind == kind {
			return st
		}
	}
	t.Fatalf("expected %s status broadcast, got %v", kind, rr.Broadcasts)
	return BroadcastStatus{}
}

func wantSnapshot(t *testing.T, rr ReduceResult) StateSnapshot {
	t.Helper()
	for i := len(rr.Broadcasts) - 1; i >= 0; i-- {
		if bs, ok := rr.Broadcasts[i].(BroadcastSnapshot); ok {
			return bs.Snapshot
		}
	}
	t.Fatalf("expected snapshot broadcast, got %v", rr.Broadcasts)
	return StateSnapshot{}
}

func wantWriteAxis(t *testing.T, rr ReduceResult) CmdWriteAxis {
	t.Helper()
	for _, c := range rr.Commands {
		if w, ok := c.(CmdWriteAxis); ok {
			return w
		}
	}
	t.Fatalf("expected CmdWriteAxis command, got %v", rr.Commands)
	return CmdWriteAxis{}
}

func wantNoCommands(t *testing.T, rr ReduceResult) {
	t.Helper()
	if len(rr.Commands) != 0 {
		t.Fatalf("expected no commands, got %v", rr.Commands)
	}
}

// TestReduce_FullLifecycle walks arm -> acquire -> start -> move -> stop ->
// restart and checks state, commands, and broadcasts at each step. The axis
// value carried by CmdWriteAxis must always equal the snapshot's axis value:
// it is computed once per event.
func TestReduce_FullLifecycle(t *testing.T) {
	cfg := testSteeringConfig()
	t0 := time.Unix(1000, 0).UTC()

	s := NewDaemonState(cfg)

	// Arm with explicit coordinates; no pointer sample seen yet, so smoothing
	// seeds at the pivot itself (angle 0).
	rr := Reduce(s, TimedEvent{Event: ArmRequested{X: 500, Y: 500}, At: t0}, cfg)
	if rr.State.Steering.Phase != PhaseArmed {
		t.Fatalf("expected Armed, got %s", rr.State.Steering.Phase)
	}
	st := wantStatus(t, rr, StatusArmed)
	if st.Detail != "pivot set to (500, 500)" {
		t.Fatalf("expected pivot detail, got %q", st.Detail)
	}
	if snap := wantSnapshot(t, rr); snap.Phase != PhaseArmed || !snap.PivotSet {
		t.Fatalf("expected armed snapshot with pivot, got %+v", snap)
	}
	wantNoCommands(t, rr)

	// Sink comes up: the reducer resyncs the device with the held value.
	rr = Reduce(rr.State, SinkAcquired{Name: "uinput:steerd wheel", At: t0}, cfg)
	if got := wantWriteAxis(t, rr).Value; got != 16383 {
		t.Fatalf("expected resync write 16383, got %d", got)
	}
	wantStatus(t, rr, StatusSinkAcquired)

	rr = Reduce(rr.State, TimedEvent{Event: StartRequested{}, At: t0.Add(time.Second)}, cfg)
	if rr.State.Steering.Phase != PhaseActive {
		t.Fatalf("expected Active, got %s", rr.State.Steering.Phase)
	}
	wantStatus(t, rr, StatusStarted)
	if snap := wantSnapshot(t, rr); !snap.IsActive {
		t.Fatalf("expected is_active snapshot, got %+v", snap)
	}

	// First sample at the seed angle: neutral, zero rotation, axis at
	// mapAxis(0) = 16384 (one above the forced-center 16383).
	rr = Reduce(rr.State, TimedEvent{Event: PointerMoved{X: 520, Y: 500}, At: t0.Add(2 * time.Second)}, cfg)
	cmd := wantWriteAxis(t, rr)
	snap := wantSnapshot(t, rr)
	if cmd.Value != 16384 || snap.AxisValue != 16384 {
		t.Fatalf("expected axis 16384, got cmd=%d snap=%d", cmd.Value, snap.AxisValue)
	}
	if snap.Direction != DirectionNeutral || snap.TotalRotation != 0 {
		t.Fatalf("expected neutral zero-rotation snapshot, got %+v", snap)
	}

	// Quarter-turn clockwise: window-damped delta 18.
	rr = Reduce(rr.State, TimedEvent{Event: PointerMoved{X: 500, Y: 520}, At: t0.Add(3 * time.Second)}, cfg)
	cmd = wantWriteAxis(t, rr)
	snap = wantSnapshot(t, rr)
	if snap.Direction != DirectionClockwise {
		t.Fatalf("expected clockwise, got %s", snap.Direction)
	}
	if snap.TotalRotation != 18 {
		t.Fatalf("expected total 18, got %v", snap.TotalRotation)
	}
	if snap.AngularVelocity != 18 {
		t.Fatalf("expected velocity 18, got %v", snap.AngularVelocity)
	}
	if cmd.Value != snap.AxisValue {
		t.Fatalf("expected command and snapshot to share one axis value, got %d vs %d", cmd.Value, snap.AxisValue)
	}
	if cmd.Value != 16657 {
		t.Fatalf("expected axis 16657 for total 18, got %d", cmd.Value)
	}

	// Stop drives center exactly once and retains the rotation.
	rr = Reduce(rr.State, TimedEvent{Event: StopRequested{}, At: t0.Add(4 * time.Second)}, cfg)
	if got := wantWriteAxis(t, rr).Value; got != 16383 {
		t.Fatalf("expected center write 16383, got %d", got)
	}
	wantStatus(t, rr, StatusStopped)
	snap = wantSnapshot(t, rr)
	if snap.Phase != PhaseIdle || snap.IsActive {
		t.Fatalf("expected idle snapshot, got %+v", snap)
	}
	if snap.TotalRotation != 18 {
		t.Fatalf("expected rotation retained at 18, got %v", snap.TotalRotation)
	}
	if snap.AxisValue != 16383 {
		t.Fatalf("expected axis pinned at center, got %d", snap.AxisValue)
	}

	// Pivot survived the stop: start again without re-arming.
	rr = Reduce(rr.State, TimedEvent{Event: StartRequested{}, At: t0.Add(5 * time.Second)}, cfg)
	wantStatus(t, rr, StatusStarted)
	if snap := wantSnapshot(t, rr); snap.TotalRotation != 18 {
		t.Fatalf("expected rotation carried into new session, got %v", snap.TotalRotation)
	}
}

// TestReduce_StartPreconditions verifies the two rejection reasons are
// reported in order: pivot first, then sink.
func TestReduce_StartPreconditions(t *testing.T) {
	cfg := testSteeringConfig()
	s := NewDaemonState(cfg)

	rr := Reduce(s, StartRequested{}, cfg)
	if rr.State.Steering.Phase != PhaseIdle {
		t.Fatalf("expected Idle after rejected start, got %s", rr.State.Steering.Phase)
	}
	st := wantStatus(t, rr, StatusPreconditionFailed)
	if st.Detail != "start rejected: no pivot armed" {
		t.Fatalf("expected pivot rejection, got %q", st.Detail)
	}
	wantSnapshot(t, rr)
	wantNoCommands(t, rr)

	rr = Reduce(rr.State, ArmRequested{X: 100, Y: 100}, cfg)
	rr = Reduce(rr.State, StartRequested{}, cfg)
	st = wantStatus(t, rr, StatusPreconditionFailed)
	if st.Detail != "start rejected: sink unavailable" {
		t.Fatalf("expected sink rejection, got %q", st.Detail)
	}

	rr = Reduce(rr.State, SinkAcquired{Name: "null"}, cfg)
	rr = Reduce(rr.State, StartRequested{}, cfg)
	wantStatus(t, rr, StatusStarted)
}

// TestReduce_IgnoredRequests verifies benign no-ops report an ignored status
// and still publish a snapshot, so callers always observe an outcome.
func TestReduce_IgnoredRequests(t *testing.T) {
	cfg := testSteeringConfig()
	s := NewDaemonState(cfg)

	cases := []struct {
		name   string
		ev     Event
		detail string
	}{
		{"stop while idle", StopRequested{}, "stop ignored: not active"},
		{"recenter while idle", RecenterRequested{}, "recenter ignored: no session"},
		{"arm at unknown pointer", ArmRequested{AtPointer: true}, "arm ignored: pointer position unknown"},
	}
	for _, c := range cases {
		rr := Reduce(s, c.ev, cfg)
		st := wantStatus(t, rr, StatusIgnored)
		if st.Detail != c.detail {
			t.Errorf("%s: expected %q, got %q", c.name, c.detail, st.Detail)
		}
		wantSnapshot(t, rr)
		wantNoCommands(t, rr)
	}

	// Arm and start are refused while a session is active.
	rr := Reduce(s, ArmRequested{X: 500, Y: 500}, cfg)
	rr = Reduce(rr.State, SinkAcquired{Name: "null"}, cfg)
	rr = Reduce(rr.State, StartRequested{}, cfg)

	rr = Reduce(rr.State, ArmRequested{X: 1, Y: 1}, cfg)
	if st := wantStatus(t, rr, StatusIgnored); st.Detail != "arm ignored: session active" {
		t.Errorf("expected active-arm rejection, got %q", st.Detail)
	}
	if rr.State.Steering.PivotX != 500 {
		t.Errorf("expected pivot untouched, got %v", rr.State.Steering.PivotX)
	}

	rr = Reduce(rr.State, StartRequested{}, cfg)
	if st := wantStatus(t, rr, StatusIgnored); st.Detail != "start ignored: already active" {
		t.Errorf("expected double-start rejection, got %q", st.Detail)
	}
}

// TestReduce_RecenterWritesOnlyWhenActive verifies recenter zeroes rotation
// in both non-idle phases but drives the sink only during an active session.
func TestReduce_RecenterWritesOnlyWhenActive(t *testing.T) {
	cfg := testSteeringConfig()
	s := NewDaemonState(cfg)

	rr := Reduce(s, ArmRequested{X: 500, Y: 500}, cfg)
	rr = Reduce(rr.State, SinkAcquired{Name: "null"}, cfg)

	// Armed but not active: state resets, no device write.
	rr.State.Steering.TotalRotation = 200
	rr = Reduce(rr.State, RecenterRequested{}, cfg)
	wantStatus(t, rr, StatusRecentered)
	wantNoCommands(t, rr)
	if snap := wantSnapshot(t, rr); snap.TotalRotation != 0 || snap.AxisValue != 16383 {
		t.Fatalf("expected zeroed armed recenter, got %+v", snap)
	}

	// Active: same reset plus a center write.
	rr = Reduce(rr.State, StartRequested{}, cfg)
	rr.State.Steering.TotalRotation = 300
	rr = Reduce(rr.State, RecenterRequested{}, cfg)
	wantStatus(t, rr, StatusRecentered)
	if got := wantWriteAxis(t, rr).Value; got != 16383 {
		t.Fatalf("expected center write 16383, got %d", got)
	}
	if snap := wantSnapshot(t, rr); snap.TotalRotation != 0 {
		t.Fatalf("expected zeroed rotation, got %v", snap.TotalRotation)
	}
}

// TestReduce_ToggleResolvesByPhase verifies toggle maps to start when not
// active and stop when active, inheriting start's precondition reporting.
func TestReduce_ToggleResolvesByPhase(t *testing.T) {
	cfg := testSteeringConfig()
	s := NewDaemonState(cfg)

	// No pivot yet: toggle resolves to start, which rejects.
	rr := Reduce(s, ToggleRequested{}, cfg)
	if st := wantStatus(t, rr, StatusPreconditionFailed); st.Detail != "start rejected: no pivot armed" {
		t.Fatalf("expected start rejection through toggle, got %q", st.Detail)
	}

	rr = Reduce(rr.State, ArmRequested{X: 500, Y: 500}, cfg)
	rr = Reduce(rr.State, SinkAcquired{Name: "null"}, cfg)

	rr = Reduce(rr.State, ToggleRequested{}, cfg)
	wantStatus(t, rr, StatusStarted)
	if rr.State.Steering.Phase != PhaseActive {
		t.Fatalf("expected Active after toggle, got %s", rr.State.Steering.Phase)
	}

	rr = Reduce(rr.State, ToggleRequested{}, cfg)
	wantStatus(t, rr, StatusStopped)
	if rr.State.Steering.Phase != PhaseIdle {
		t.Fatalf("expected Idle after second toggle, got %s", rr.State.Steering.Phase)
	}
}

// TestReduce_SetSensitivity verifies clamping, the reported detail string,
// and that accumulation stays unscaled.
func TestReduce_SetSensitivity(t *testing.T) {
	cfg := testSteeringConfig()
	s := NewDaemonState(cfg)

	rr := Reduce(s, SetSensitivityRequested{Value: 0.01}, cfg)
	if st := wantStatus(t, rr, StatusSensitivityChanged); st.Detail != "sensitivity: 0.10" {
		t.Errorf("expected clamp to 0.10, got %q", st.Detail)
	}
	if rr.State.Steering.Sensitivity != 0.1 {
		t.Errorf("expected 0.1, got %v", rr.State.Steering.Sensitivity)
	}

	rr = Reduce(rr.State, SetSensitivityRequested{Value: 25}, cfg)
	if st := wantStatus(t, rr, StatusSensitivityChanged); st.Detail != "sensitivity: 10.00" {
		t.Errorf("expected clamp to 10.00, got %q", st.Detail)
	}

	rr = Reduce(rr.State, SetSensitivityRequested{Value: 5}, cfg)
	if snap := wantSnapshot(t, rr); snap.Sensitivity != 5 {
		t.Errorf("expected reported sensitivity 5, got %v", snap.Sensitivity)
	}

	// Sensitivity 5 must not scale the accumulated delta.
	rr = Reduce(rr.State, ArmRequested{X: 500, Y: 500}, cfg)
	rr = Reduce(rr.State, SinkAcquired{Name: "null"}, cfg)
	rr = Reduce(rr.State, StartRequested{}, cfg)
	rr = Reduce(rr.State, PointerMoved{X: 520, Y: 500}, cfg)
	rr = Reduce(rr.State, PointerMoved{X: 500, Y: 520}, cfg)
	if got := rr.State.Steering.TotalRotation; got != 18 {
		t.Fatalf("expected unscaled total 18, got %v", got)
	}
}

// TestReduce_PointerMovedInactive verifies inactive pointer samples update
// only the tracked position: no commands, no broadcasts, steering untouched.
// The tracked position then serves arm-at-pointer.
func TestReduce_PointerMovedInactive(t *testing.T) {
	cfg := testSteeringConfig()
	s := NewDaemonState(cfg)

	rr := Reduce(s, PointerMoved{X: 100, Y: 200}, cfg)
	wantNoCommands(t, rr)
	if len(rr.Broadcasts) != 0 {
		t.Fatalf("expected no broadcasts for inactive pointer, got %v", rr.Broadcasts)
	}
	if !rr.State.Pointer.Known || rr.State.Pointer.X != 100 || rr.State.Pointer.Y != 200 {
		t.Fatalf("expected tracked pointer (100,200), got %+v", rr.State.Pointer)
	}
	if rr.State.Steering.TotalRotation != 0 || rr.State.Steering.RawAngle != 0 {
		t.Fatalf("expected steering untouched, got %+v", rr.State.Steering)
	}

	rr = Reduce(rr.State, ArmRequested{AtPointer: true}, cfg)
	if st := wantStatus(t, rr, StatusArmed); st.Detail != "pivot set to (100, 200)" {
		t.Fatalf("expected arm at tracked pointer, got %q", st.Detail)
	}
}

// TestReduce_SinkFailureDegradesThenResyncs verifies write failures flip the
// sink unavailable, steering keeps integrating without device writes, and a
// reacquisition resyncs the device with the held axis value.
func TestReduce_SinkFailureDegradesThenResyncs(t *testing.T) {
	cfg := testSteeringConfig()
	t0 := time.Unix(1000, 0).UTC()
	s := NewDaemonState(cfg)

	rr := Reduce(s, ArmRequested{X: 500, Y: 500}, cfg)
	rr = Reduce(rr.State, SinkAcquired{Name: "uinput:steerd wheel", At: t0}, cfg)
	rr = Reduce(rr.State, StartRequested{}, cfg)

	rr = Reduce(rr.State, PointerMoved{X: 500, Y: 520}, cfg)
	wantWriteAxis(t, rr)
	if got := rr.State.Steering.TotalRotation; got != 18 {
		t.Fatalf("expected total 18, got %v", got)
	}

	rr = Reduce(rr.State, SinkCommandFailed{Command: "CmdWriteAxis(value=16657)", Err: "write /dev/uinput: broken pipe", At: t0}, cfg)
	if st := wantStatus(t, rr, StatusSinkUnavailable); st.Detail != "write /dev/uinput: broken pipe" {
		t.Fatalf("expected failure detail, got %q", st.Detail)
	}
	if snap := wantSnapshot(t, rr); snap.SinkAvailable {
		t.Fatalf("expected sink down in snapshot")
	}

	// Degraded: state advances, observers still see it, device does not.
	rr = Reduce(rr.State, PointerMoved{X: 480, Y: 500}, cfg)
	wantNoCommands(t, rr)
	snap := wantSnapshot(t, rr)
	if snap.TotalRotation != 54 {
		t.Fatalf("expected total 54 while degraded, got %v", snap.TotalRotation)
	}

	// Reacquisition resyncs the device with exactly the held value.
	rr = Reduce(rr.State, SinkAcquired{Name: "uinput:steerd wheel", At: t0.Add(time.Second)}, cfg)
	if got := wantWriteAxis(t, rr).Value; got != rr.State.Steering.AxisValue {
		t.Fatalf("expected resync with held axis %d, got %d", rr.State.Steering.AxisValue, got)
	}
	if snap := wantSnapshot(t, rr); !snap.SinkAvailable || snap.SinkName != "uinput:steerd wheel" {
		t.Fatalf("expected sink restored in snapshot, got %+v", snap)
	}
}

// TestReduce_TickPacesAcquisition verifies the housekeeping tick issues
// CmdAcquireSink only while the sink is down and at most once per retry
// interval.
func TestReduce_TickPacesAcquisition(t *testing.T) {
	cfg := testSteeringConfig()
	t0 := time.Unix(1000, 0).UTC()
	s := NewDaemonState(cfg)

	rr := Reduce(s, Tick{Now: t0}, cfg)
	if len(rr.Commands) != 1 {
		t.Fatalf("expected first tick to acquire, got %v", rr.Commands)
	}
	if _, ok := rr.Commands[0].(CmdAcquireSink); !ok {
		t.Fatalf("expected CmdAcquireSink, got %T", rr.Commands[0])
	}

	// Inside the retry window: no attempt.
	rr = Reduce(rr.State, Tick{Now: t0.Add(500 * time.Millisecond)}, cfg)
	wantNoCommands(t, rr)

	// At the interval boundary: attempt again.
	rr = Reduce(rr.State, Tick{Now: t0.Add(time.Second)}, cfg)
	if len(rr.Commands) != 1 {
		t.Fatalf("expected retry at interval boundary, got %v", rr.Commands)
	}

	// Once the sink is up, ticks are quiet.
	rr = Reduce(rr.State, SinkAcquired{Name: "null", At: t0.Add(time.Second)}, cfg)
	rr = Reduce(rr.State, Tick{Now: t0.Add(10 * time.Second)}, cfg)
	wantNoCommands(t, rr)
}

// TestReduce_SourceFailedForcesStop verifies a dead input source ends an
// active session with a center write, and is a state-preserving report
// otherwise.
func TestReduce_SourceFailedForcesStop(t *testing.T) {
	cfg := testSteeringConfig()
	t0 := time.Unix(1000, 0).UTC()
	s := NewDaemonState(cfg)

	rr := Reduce(s, ArmRequested{X: 500, Y: 500}, cfg)
	rr = Reduce(rr.State, SinkAcquired{Name: "null", At: t0}, cfg)
	rr = Reduce(rr.State, StartRequested{}, cfg)

	rr = Reduce(rr.State, SourceFailed{Err: "read /dev/input/event3: no such device", At: t0}, cfg)
	if rr.State.Steering.Phase != PhaseIdle {
		t.Fatalf("expected forced Idle, got %s", rr.State.Steering.Phase)
	}
	if got := wantWriteAxis(t, rr).Value; got != 16383 {
		t.Fatalf("expected center write, got %d", got)
	}
	if st := wantStatus(t, rr, StatusSourceFailed); st.Detail != "read /dev/input/event3: no such device" {
		t.Fatalf("expected failure detail, got %q", st.Detail)
	}
	if !rr.State.Steering.PivotSet {
		t.Fatalf("expected pivot retained after source failure")
	}

	// Already idle: report only, no device writes.
	rr = Reduce(rr.State, SourceFailed{Err: "read /dev/input/event3: no such device", At: t0}, cfg)
	wantNoCommands(t, rr)
	wantStatus(t, rr, StatusSourceFailed)
	wantSnapshot(t, rr)
}

// TestReduce_RequestStateSnapshot verifies snapshot requests turn into a
// publish command carrying the requester's reply channel, with no broadcast
// traffic.
func TestReduce_RequestStateSnapshot(t *testing.T) {
	cfg := testSteeringConfig()
	s := NewDaemonState(cfg)
	reply := make(chan StateSnapshot, 1)

	rr := Reduce(s, RequestStateSnapshot{Reply: reply}, cfg)
	if len(rr.Broadcasts) != 0 {
		t.Fatalf("expected no broadcasts, got %v", rr.Broadcasts)
	}
	if len(rr.Commands) != 1 {
		t.Fatalf("expected one command, got %v", rr.Commands)
	}
	pub, ok := rr.Commands[0].(CmdPublishSnapshot)
	if !ok {
		t.Fatalf("expected CmdPublishSnapshot, got %T", rr.Commands[0])
	}
	if pub.Reply != reply {
		t.Fatalf("expected the requester's reply channel")
	}
	if pub.Snapshot.Phase != PhaseIdle || pub.Snapshot.AxisValue != 16383 {
		t.Fatalf("unexpected snapshot %+v", pub.Snapshot)
	}
}

package main

import "fmt"

// Command describes a side effect requested by the reducer. Commands are
// executed by the effects layer, one at a time, on the daemon goroutine;
// their outcomes come back as observed events.
type Command interface {
	commandMarker()
	String() string
}

// CmdWriteAxis writes a pre-clamped axis value to the sink.
type CmdWriteAxis struct {
	Value int
}

func (CmdWriteAxis) commandMarker() {}

func (c CmdWriteAxis) String() string {
	return fmt.Sprintf("CmdWriteAxis(value=%d)", c.Value)
}

// CmdAcquireSink (re)acquires the output device.
type CmdAcquireSink struct{}

func (CmdAcquireSink) commandMarker() {}

func (CmdAcquireSink) String() string {
	return "CmdAcquireSink"
}

// CmdPublishSnapshot serves a state snapshot to a requester's reply channel.
type CmdPublishSnapshot struct {
	Snapshot StateSnapshot
	Reply    chan StateSnapshot
}

func (CmdPublishSnapshot) commandMarker() {}

func (CmdPublishSnapshot) String() string {
	return "CmdPublishSnapshot"
}

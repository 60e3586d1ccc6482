package main

import (
	"log/slog"
	"time"
)

// runEffect executes a single reducer-emitted Command (side effect) against
// the output sink and emits observation Events via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced
//   by the daemon loop.
// - The daemon loop is responsible for sequencing: Reduce -> Commands ->
//   runEffect -> Events -> Reduce.
func runEffect(
	sink AxisSink,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		// No place to report observations/errors; nothing sensible to do.
		return
	}

	now := time.Now()

	switch c := cmd.(type) {
	case CmdWriteAxis:
		if sink == nil {
			onEvent(SinkCommandFailed{Command: c.String(), Err: errNoSink{}.Error(), At: now})
			return
		}
		if err := sink.WriteAxis(c.Value); err != nil {
			logger.Error("sink write failed", "sink", sink.Name(), "value", c.Value, "error", err)
			onEvent(SinkCommandFailed{Command: c.String(), Err: err.Error(), At: now})
			return
		}

	case CmdAcquireSink:
		if sink == nil {
			onEvent(SinkCommandFailed{Command: c.String(), Err: errNoSink{}.Error(), At: now})
			return
		}
		if err := sink.Acquire(); err != nil {
			logger.Warn("sink acquisition failed", "sink", sink.Name(), "error", err)
			onEvent(SinkCommandFailed{Command: c.String(), Err: err.Error(), At: now})
			return
		}
		onEvent(SinkAcquired{Name: sink.Name(), At: now})

	case CmdPublishSnapshot:
		// Deliver the reducer-produced snapshot to the requester. The
		// channel send lives here to keep the reducer pure.
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the daemon loop.
		select {
		case c.Reply <- c.Snapshot:
			// delivered
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	default:
		// Unknown command: record failure so the reducer can react.
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(SinkCommandFailed{
			Command: cmd.String(),
			Err:     errUnknownCommand{cmd: cmd}.Error(),
			At:      now,
		})
	}
}

// errNoSink indicates the daemon was asked to drive an axis without a sink.
type errNoSink struct{}

func (errNoSink) Error() string { return "no output sink" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }

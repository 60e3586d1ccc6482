package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop - Reducer-driven "Daemon Brain"
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands +
//     broadcasts.
//   - The daemon loop is the only place that executes side effects (sink
//     writes, acquisition).
//   - Sink outcomes are turned into Events and fed back into the reducer.
//   - Broadcasts are handed to the observer layer strictly after the state
//     mutation they describe.
//
// The loop uses explicit event and command queues (no nested/re-entrant
// execution). Because one goroutine drains both queues, lifecycle commands
// and pointer samples are totally ordered: a pointer event queued behind a
// stop is reduced after it and sees the inactive phase.
//
// ============================================================================

// runDaemon is the main daemon loop that:
//   - Receives Events from all producers (IPC, hooks, input, WS snapshot
//     requests)
//   - Emits Tick events on a fixed cadence for sink reacquisition pacing
//   - Reduces events into (state, commands, broadcasts)
//   - Executes commands against the sink and feeds observations back into
//     the reducer
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	broadcasts chan<- StateBroadcast,
	sink AxisSink,
	cfg SteeringConfig,
	state *DaemonState,
	logger *slog.Logger,
) {
	// Guard: reducer-driven daemon expects a state container.
	if state == nil {
		logger.Error("daemon state is nil")
		return
	}

	ticker := time.NewTicker(time.Second / defaultTickHz)
	defer ticker.Stop()

	// Explicit queues:
	// - eventQueue holds events awaiting reduction
	// - cmdQueue holds commands awaiting execution
	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}
	enqueueCommands := func(cmds []Command) {
		if len(cmds) == 0 {
			return
		}
		cmdQueue = append(cmdQueue, cmds...)
	}

	publish := func(bcs []StateBroadcast) {
		if broadcasts == nil {
			return
		}
		for _, bc := range bcs {
			select {
			case broadcasts <- bc:
			default:
				// The broadcaster coalesces; a full channel only costs an
				// intermediate frame.
				logger.Debug("dropping broadcast: channel full")
			}
		}
	}

	// Reduce all queued events, enqueuing any resulting commands.
	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			enqueueCommands(rr.Commands)
			publish(rr.Broadcasts)
		}
	}

	// Execute all queued commands, enqueuing observation events.
	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			runEffect(sink, cmd, logger, func(obs Event) {
				enqueueEvent(obs)
			})

			// Observations should be reduced promptly to keep state coherent
			// and allow the reducer to emit follow-up commands (if any).
			flushEvents()
		}
	}

	// Initial sink acquisition: the first Tick finds the sink unavailable
	// with no prior attempt and emits CmdAcquireSink. A failure here is a
	// status, not an exit; the tick cadence keeps retrying.
	enqueueEvent(Tick{Now: time.Now()})
	flushEvents()
	flushCommands()

	// Main loop
	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			enqueueEvent(TimedEvent{Event: ev, At: time.Now()})
			flushEvents()
			flushCommands()

		case now := <-ticker.C:
			enqueueEvent(Tick{Now: now})
			flushEvents()
			flushCommands()
		}
	}
}

// NOTE:
// Command execution is implemented in `effects.go` as `runEffect(...)`.
// This file is only responsible for orchestrating event/command queues and
// reducer invocation.

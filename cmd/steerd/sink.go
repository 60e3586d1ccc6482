package main

import (
	"fmt"
	"log/slog"
)

// AxisSink is the analog output the steering axis is driven through. The
// effects layer is the only caller at runtime. Acquire may be called
// repeatedly: after a write failure the reducer marks the sink unavailable
// and the tick-driven policy calls Acquire again until it succeeds.
type AxisSink interface {
	// Acquire (re)opens the underlying device or connection. Must be safe
	// to call when already acquired.
	Acquire() error

	// WriteAxis drives the axis. The value is pre-clamped by the mapper.
	WriteAxis(value int) error

	// Close releases the device or connection.
	Close() error

	// Name identifies the sink in logs and snapshots.
	Name() string
}

// Sink driver identifiers accepted by the sink.driver config key.
const (
	SinkDriverUinput = "uinput"
	SinkDriverBridge = "bridge"
	SinkDriverNull   = "null"
)

// newAxisSink builds the configured sink. Construction never touches the
// device; the first CmdAcquireSink does.
func newAxisSink(cfg SinkConfig, logger *slog.Logger) (AxisSink, error) {
	switch cfg.Driver {
	case SinkDriverUinput, "":
		return newUinputSink(cfg.Device, cfg.DeviceName, cfg.AxisMin, cfg.AxisMax, logger), nil
	case SinkDriverBridge:
		return newBridgeSink(cfg.BridgeURL, logger)
	case SinkDriverNull:
		return &nullSink{}, nil
	default:
		return nil, fmt.Errorf("unknown sink driver: %q", cfg.Driver)
	}
}

// nullSink accepts and discards writes. Useful for dry runs and for driving
// the daemon on machines without /dev/uinput access.
type nullSink struct{}

func (*nullSink) Acquire() error      { return nil }
func (*nullSink) WriteAxis(int) error { return nil }
func (*nullSink) Close() error        { return nil }
func (*nullSink) Name() string        { return "null" }

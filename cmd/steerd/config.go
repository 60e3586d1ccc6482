package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the steerd daemon.
//
// This is intentionally user-facing and stable-ish. Keep defaults and validation
// centralized so the rest of the code can assume a well-formed config.
//
// Design goals:
// - Make config file the primary configuration surface.
// - Keep flags for small overrides and for environments where a file is awkward.
// - Keep steering tunables in one place so the engine never re-validates them.
type Config struct {
	// Pointer input configuration
	Input InputConfig `yaml:"input"`

	// Steering engine configuration
	Steering SteeringFileConfig `yaml:"steering"`

	// Axis output configuration
	Sink SinkConfig `yaml:"sink"`

	// IPC configuration (used by the steer-ctl companion)
	IPC IPCConfig `yaml:"ipc"`

	// State/webhooks server configuration
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type InputConfig struct {
	// Devices lists evdev nodes to monitor for relative motion and buttons.
	// Devices are never grabbed; the desktop keeps seeing the mouse.
	Devices []string `yaml:"devices"`

	// Screen bounds the integrated absolute pointer position is clamped to.
	ScreenWidth  int `yaml:"screen_width"`
	ScreenHeight int `yaml:"screen_height"`
}

// SteeringFileConfig is the user-facing steering configuration as represented
// in YAML. It maps 1:1 to SteeringConfig used by the engine, but uses
// YAML-friendly types.
type SteeringFileConfig struct {
	// Accumulator clamp, degrees either side of center.
	MaxDegrees float64 `yaml:"max_degrees"`

	// Raw angles averaged per smoothed sample.
	SmoothingWindow int `yaml:"smoothing_window"`

	// Inside this pivot radius (pixels) motion is classified neutral.
	CenterThresholdPx float64 `yaml:"center_threshold_px"`

	// Minimum smoothed delta (degrees) to register a direction.
	HysteresisDeg float64 `yaml:"hysteresis_deg"`

	// Reported multiplier, clamped to [0.1, 10.0].
	Sensitivity float64 `yaml:"sensitivity"`

	// "per_event" or "real_time"
	TimeDeltaMode string `yaml:"time_delta_mode"`
}

type SinkConfig struct {
	// "uinput", "bridge" or "null"
	Driver string `yaml:"driver"`

	// uinput node, default /dev/uinput.
	Device string `yaml:"device,omitempty"`

	// Advertised name of the virtual device.
	DeviceName string `yaml:"device_name,omitempty"`

	// WebSocket endpoint for the bridge driver.
	BridgeURL string `yaml:"bridge_url,omitempty"`

	// Axis range advertised to consumers.
	AxisMin int `yaml:"axis_min"`
	AxisMax int `yaml:"axis_max"`

	// Minimum gap between sink acquisition attempts.
	RetryMS int `yaml:"retry_ms"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type ServerConfig struct {
	// host:port for /ws and /hooks/command. Empty disables the server.
	Listen string `yaml:"listen,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and current CLI defaults.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Devices:      []string{"/dev/input/event3"},
			ScreenWidth:  defaultScreenWidth,
			ScreenHeight: defaultScreenHeight,
		},
		Steering: SteeringFileConfig{
			MaxDegrees:        defaultMaxDegrees,
			SmoothingWindow:   defaultSmoothingWindow,
			CenterThresholdPx: defaultCenterThresholdPx,
			HysteresisDeg:     defaultHysteresisDeg,
			Sensitivity:       defaultSensitivity,
			TimeDeltaMode:     string(TimeDeltaPerEvent),
		},
		Sink: SinkConfig{
			Driver:     SinkDriverUinput,
			Device:     "/dev/uinput",
			DeviceName: defaultSinkDeviceName,
			AxisMin:    minAxisValue,
			AxisMax:    maxAxisValue,
			RetryMS:    defaultSinkRetryMS,
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/steerd.sock",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8787",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
//   - Paths inside the config (devices, socket) are not rewritten here;
//     handle that in validation or in the call site as needed.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// This is designed so you can keep a config file as the primary configuration
// source, but still do ad-hoc overrides for debugging/systemd overrides.
//
// Flags should pass pointers; each override is only applied if set.
//
// NOTE: This file only defines the mechanism; main.go should decide what flags
// exist. Keeping the override mechanism separate makes it easy to evolve flags
// without proliferating conditionals all over the code.
type FlagOverrides struct {
	// Comma-separated list of input device paths.
	InputDevices *string

	SinkDriver *string
	BridgeURL  *string

	IPCSocketPath *string
	ServerListen  *string

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is
// ignored. If the pointer is non-nil, the value is applied (even if it is a
// zero value).
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.InputDevices != nil {
		var devices []string
		for _, d := range strings.Split(*o.InputDevices, ",") {
			if d = strings.TrimSpace(d); d != "" {
				devices = append(devices, d)
			}
		}
		cfg.Input.Devices = devices
	}

	if o.SinkDriver != nil {
		cfg.Sink.Driver = *o.SinkDriver
	}
	if o.BridgeURL != nil {
		cfg.Sink.BridgeURL = *o.BridgeURL
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.ServerListen != nil {
		cfg.Server.Listen = *o.ServerListen
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Input
	if len(c.Input.Devices) == 0 {
		return errors.New("input.devices must not be empty")
	}
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if c.Input.ScreenWidth <= 0 {
		return errors.New("input.screen_width must be > 0")
	}
	if c.Input.ScreenHeight <= 0 {
		return errors.New("input.screen_height must be > 0")
	}

	// Steering
	if c.Steering.MaxDegrees < 0 {
		return errors.New("steering.max_degrees must be >= 0")
	}
	if c.Steering.SmoothingWindow < 1 {
		return errors.New("steering.smoothing_window must be >= 1")
	}
	if c.Steering.CenterThresholdPx < 0 {
		return errors.New("steering.center_threshold_px must be >= 0")
	}
	if c.Steering.HysteresisDeg < 0 {
		return errors.New("steering.hysteresis_deg must be >= 0")
	}
	if c.Steering.Sensitivity < minSensitivity || c.Steering.Sensitivity > maxSensitivity {
		return fmt.Errorf("steering.sensitivity must be between %.1f and %.1f", minSensitivity, maxSensitivity)
	}
	mode := c.Steering.TimeDeltaMode
	if mode == "" {
		mode = string(TimeDeltaPerEvent)
	}
	if mode != string(TimeDeltaPerEvent) && mode != string(TimeDeltaRealTime) {
		return fmt.Errorf("steering.time_delta_mode must be %q or %q", TimeDeltaPerEvent, TimeDeltaRealTime)
	}

	// Sink
	driver := c.Sink.Driver
	if driver == "" {
		driver = SinkDriverUinput
	}
	switch driver {
	case SinkDriverUinput, SinkDriverBridge, SinkDriverNull:
	default:
		return fmt.Errorf("sink.driver must be %q, %q or %q", SinkDriverUinput, SinkDriverBridge, SinkDriverNull)
	}
	if driver == SinkDriverBridge && c.Sink.BridgeURL == "" {
		return errors.New("sink.driver is \"bridge\" but sink.bridge_url is empty")
	}
	if c.Sink.AxisMin >= c.Sink.AxisMax {
		return errors.New("sink.axis_min must be < sink.axis_max")
	}
	if c.Sink.RetryMS <= 0 {
		return errors.New("sink.retry_ms must be > 0")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ToSteeringConfig converts file config + sink axis bounds into the internal
// engine config.
func (c *Config) ToSteeringConfig() SteeringConfig {
	mode := TimeDeltaMode(c.Steering.TimeDeltaMode)
	if mode == "" {
		mode = TimeDeltaPerEvent
	}

	return SteeringConfig{
		MaxDegrees:        c.Steering.MaxDegrees,
		SmoothingWindow:   c.Steering.SmoothingWindow,
		CenterThresholdPx: c.Steering.CenterThresholdPx,
		HysteresisDeg:     c.Steering.HysteresisDeg,
		Sensitivity:       c.Steering.Sensitivity,

		MinAxis: c.Sink.AxisMin,
		MaxAxis: c.Sink.AxisMax,

		DtMode:    mode,
		SinkRetry: time.Duration(c.Sink.RetryMS) * time.Millisecond,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
// This is handy for config values like ipc.socket_path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}

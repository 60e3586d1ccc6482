package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("steerd v%s\n", version)
	fmt.Println("Mouse steering daemon: circular pointer motion to a virtual analog axis")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  steerd [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that turns circular mouse motion around an armed pivot point")
	fmt.Println("  into the rotation of a virtual steering axis. Pointer motion is read")
	fmt.Println("  from evdev devices, classified into clockwise/counterclockwise sweeps,")
	fmt.Println("  accumulated with clamping, and written to a uinput analog axis that")
	fmt.Println("  games see as a one-axis controller.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (flags below override it)")
	fmt.Println()
	fmt.Println("  -input string")
	fmt.Printf("        Comma-separated evdev nodes to monitor (default \"/dev/input/event3\")\n")
	fmt.Println("        Devices are never grabbed; the desktop keeps seeing the mouse")
	fmt.Println()
	fmt.Println("  -sink string")
	fmt.Printf("        Axis sink driver: uinput, bridge or null (default \"%s\")\n", SinkDriverUinput)
	fmt.Println()
	fmt.Println("  -bridge-url string")
	fmt.Println("        WebSocket URL for the bridge sink (e.g. ws://host:9000/axis)")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default \"/tmp/steerd.sock\")\n")
	fmt.Println()
	fmt.Println("  -listen string")
	fmt.Printf("        State server address for /ws and /hooks/command (default \"127.0.0.1:8787\")\n")
	fmt.Println("        Empty string disables the server")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("CONTROL:")
	fmt.Println("  steer-ctl arm [x y] | start | stop | recenter | sensitivity V | status")
	fmt.Println("  Mouse buttons: middle = arm at pointer, side = recenter, extra = toggle")
	fmt.Println("  HTTP: POST /hooks/command with the same JSON the IPC socket accepts")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with defaults (uinput sink, IPC at /tmp/steerd.sock)")
	fmt.Println("  steerd -input /dev/input/event3")
	fmt.Println()
	fmt.Println("  # Steer a sim on another machine through a WebSocket bridge")
	fmt.Println("  steerd -sink bridge -bridge-url ws://192.168.1.50:9000/axis")
	fmt.Println()
	fmt.Println("  # Dry run without touching /dev/uinput")
	fmt.Println("  steerd -sink null -log-level debug")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to input devices (add user to the 'input' group)")
	fmt.Println("  - The uinput sink requires write access to /dev/uinput")
	fmt.Println("  - Sensitivity is stored and reported but never scales accumulation")
	fmt.Println("  - State streams as JSON frames at ws://LISTEN/ws")
	fmt.Println()
}

func main() {
	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath   = flag.String("config", "", "Path to YAML config file")
		inputDevices = flag.String("input", "", "Comma-separated evdev nodes to monitor")
		sinkDriver   = flag.String("sink", "", "Axis sink driver: uinput, bridge or null")
		bridgeURL    = flag.String("bridge-url", "", "WebSocket URL for the bridge sink")
		ipcSocket    = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		listenAddr   = flag.String("listen", "", "State server listen address (host:port)")
		logLevelStr  = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion  = flag.Bool("version", false, "Print version and exit")
		showHelp     = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Configuration precedence: defaults, then file, then explicit flags.
	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			overrides.InputDevices = inputDevices
		case "sink":
			overrides.SinkDriver = sinkDriver
		case "bridge-url":
			overrides.BridgeURL = bridgeURL
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocket
		case "listen":
			overrides.ServerListen = listenAddr
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	steeringCfg := cfg.ToSteeringConfig()

	sink, err := newAxisSink(cfg.Sink, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer sink.Close()

	// Shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan Event, 256)
	broadcasts := make(chan StateBroadcast, 128)
	state := NewDaemonState(steeringCfg)
	stateSrv := NewStateServer(logger, events, HubConfig{})

	logger.Debug("configuration",
		"input_devices", strings.Join(cfg.Input.Devices, ","),
		"screen", fmt.Sprintf("%dx%d", cfg.Input.ScreenWidth, cfg.Input.ScreenHeight),
		"sink_driver", cfg.Sink.Driver,
		"axis_range", fmt.Sprintf("%d..%d", cfg.Sink.AxisMin, cfg.Sink.AxisMax),
		"max_degrees", steeringCfg.MaxDegrees,
		"smoothing_window", steeringCfg.SmoothingWindow,
		"center_threshold_px", steeringCfg.CenterThresholdPx,
		"hysteresis_deg", steeringCfg.HysteresisDeg,
		"time_delta_mode", string(steeringCfg.DtMode),
		"ipc_socket", cfg.IPC.SocketPath,
		"listen", cfg.Server.Listen)

	logger.Info("starting steerd",
		"version", version,
		"sink", sink.Name(),
		"ipc", cfg.IPC.SocketPath,
		"listen", cfg.Server.Listen)

	g, gctx := errgroup.WithContext(ctx)

	// Daemon brain: owns all state, reduces events, drives the sink.
	g.Go(func() error {
		runDaemon(gctx, events, broadcasts, sink, steeringCfg, state, logger)
		return nil
	})

	// Pointer source: evdev motion and button presses.
	g.Go(func() error {
		return runPointerSource(gctx, cfg.Input, events, logger)
	})

	// IPC socket for steer-ctl and scripts.
	g.Go(func() error {
		return runIPCServer(gctx, ExpandPath(cfg.IPC.SocketPath), events, logger)
	})

	// State fan-out.
	g.Go(func() error {
		stateSrv.Hub().Run(gctx)
		return nil
	})
	g.Go(func() error {
		RunBroadcaster(gctx, stateSrv.Hub(), broadcasts, logger)
		return nil
	})

	// HTTP server carries /ws and /hooks/command when enabled.
	if cfg.Server.Listen != "" {
		mux := http.NewServeMux()
		stateSrv.Register(mux, "/ws")
		registerCommandHook(mux, events, logger)
		g.Go(func() error {
			return runStateServer(gctx, cfg.Server.Listen, mux, logger)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

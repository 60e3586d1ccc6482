package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// ============================================================================
// steer-ctl - Command-line IPC Client
// ============================================================================
// This tool sends steering commands to the steerd daemon via IPC.
//
// Usage:
//   steer-ctl arm 960 540
//   steer-ctl arm
//   steer-ctl start
//   steer-ctl stop
//   steer-ctl recenter
//   steer-ctl sensitivity 2.5
//   steer-ctl status
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/steerd.sock)
// ============================================================================

// Event types (duplicated from the daemon package for a standalone binary)
type Event interface{}

type ArmAt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ArmAtPointer struct{}

type Start struct{}

type Stop struct{}

type Recenter struct{}

type Toggle struct{}

type SetSensitivity struct {
	Value float64 `json:"value"`
}

// EventEnvelope wraps events for JSON
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// stateView mirrors the daemon's snapshot fields worth printing.
type stateView struct {
	Phase         string  `json:"phase"`
	IsActive      bool    `json:"is_active"`
	PivotSet      bool    `json:"pivot_set"`
	PivotX        float64 `json:"pivot_x"`
	PivotY        float64 `json:"pivot_y"`
	Offset        float64 `json:"offset"`
	SmoothedAngle float64 `json:"smoothed_angle"`
	TotalRotation float64 `json:"total_rotation"`
	Direction     string  `json:"direction"`
	Velocity      float64 `json:"angular_velocity"`
	AxisValue     int     `json:"axis_value"`
	Sensitivity   float64 `json:"sensitivity"`
	SinkAvailable bool    `json:"sink_available"`
	SinkName      string  `json:"sink_name"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	State  *stateView `json:"state,omitempty"`
}

func main() {
	socketPath := "/tmp/steerd.sock"

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var ev Event

	switch args[0] {
	case "arm":
		switch len(args) {
		case 1:
			// No coordinates: daemon arms at the current pointer position.
			ev = ArmAtPointer{}
		case 3:
			var x, y float64
			if _, err := fmt.Sscanf(args[1], "%f", &x); err != nil {
				fmt.Fprintf(os.Stderr, "error: invalid x coordinate: %v\n", err)
				os.Exit(1)
			}
			if _, err := fmt.Sscanf(args[2], "%f", &y); err != nil {
				fmt.Fprintf(os.Stderr, "error: invalid y coordinate: %v\n", err)
				os.Exit(1)
			}
			ev = ArmAt{X: x, Y: y}
		default:
			fmt.Fprintf(os.Stderr, "error: arm takes no arguments or x y\n")
			os.Exit(1)
		}

	case "start":
		ev = Start{}

	case "stop":
		ev = Stop{}

	case "recenter":
		ev = Recenter{}

	case "toggle":
		ev = Toggle{}

	case "sensitivity", "sens":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: sensitivity requires a value\n")
			os.Exit(1)
		}
		var v float64
		if _, err := fmt.Sscanf(args[1], "%f", &v); err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid sensitivity value: %v\n", err)
			os.Exit(1)
		}
		ev = SetSensitivity{Value: v}

	case "status":
		if err := printStatus(socketPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err := sendEvent(socketPath, ev); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func sendEvent(socketPath string, ev Event) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := marshalEvent(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Send event (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}

	return nil
}

func marshalEvent(ev Event) ([]byte, error) {
	var env EventEnvelope

	switch e := ev.(type) {
	case ArmAtPointer:
		env.Type = "arm"

	case ArmAt:
		env.Type = "arm"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal ArmAt: %w", err)
		}
		env.Data = data

	case Start:
		env.Type = "start"

	case Stop:
		env.Type = "stop"

	case Recenter:
		env.Type = "recenter"

	case Toggle:
		env.Type = "toggle"

	case SetSensitivity:
		env.Type = "set_sensitivity"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal SetSensitivity: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unknown event type: %T", ev)
	}

	return json.Marshal(env)
}

func printStatus(socketPath string) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, `{"type": "get_state"}`); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}
	if response.State == nil {
		return fmt.Errorf("response missing state")
	}

	s := response.State
	fmt.Printf("phase:          %s\n", s.Phase)
	if s.PivotSet {
		fmt.Printf("pivot:          (%.0f, %.0f)  offset %.1fpx\n", s.PivotX, s.PivotY, s.Offset)
	} else {
		fmt.Printf("pivot:          not set\n")
	}
	fmt.Printf("rotation:       %+.1f deg (%s)\n", s.TotalRotation, s.Direction)
	fmt.Printf("velocity:       %+.1f deg/s\n", s.Velocity)
	fmt.Printf("axis:           %d\n", s.AxisValue)
	fmt.Printf("sensitivity:    %.2f\n", s.Sensitivity)
	if s.SinkAvailable {
		fmt.Printf("sink:           %s\n", s.SinkName)
	} else {
		fmt.Printf("sink:           unavailable\n")
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `steer-ctl - Control the steerd daemon via IPC

Usage:
  steer-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/steerd.sock)

Commands:
  arm [x y]            Arm a pivot at (x, y), or at the current pointer position
  start                Begin steering around the armed pivot
  stop                 Stop steering and center the axis
  recenter             Zero accumulated rotation and center the axis
  toggle               Start if idle, stop if active
  sensitivity <v>      Set reported sensitivity (0.1 to 10.0)
  status               Print the daemon's current state
  help, -h, --help     Show this help message

Examples:
  steer-ctl arm 960 540
  steer-ctl start
  steer-ctl sensitivity 2.5
  steer-ctl -socket /var/run/steerd.sock stop
`)
}

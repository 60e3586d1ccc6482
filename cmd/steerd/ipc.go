package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// The IPC server allows external clients to send JSON events to the daemon
// via a Unix domain socket. This enables:
//   - Remote control via steer-ctl
//   - Desktop keybindings (arm/start/stop bound to hotkeys)
//   - Scripting and automation
//
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "event_name", "data": {...}}
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}
//   - {"type": "get_state"} responds with the current snapshot embedded:
//     {"status": "ok", "state": {...}}
// ============================================================================

// ipcStateTimeout bounds how long a get_state request waits for the daemon.
const ipcStateTimeout = time.Second

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string         `json:"status"`          // "ok" or "error"
	Error  string         `json:"error,omitempty"` // error message if status == "error"
	State  *StateSnapshot `json:"state,omitempty"` // populated for get_state requests
}

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, events chan<- Event, logger *slog.Logger) error {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	// Make socket accessible (consider security implications in production)
	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Exit cleanly on shutdown/close.
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}

			// Some platforms return net.ErrClosed; keep this defensive.
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, events, logger)
	}
}

// handleIPCConnection handles a single IPC connection
func handleIPCConnection(conn net.Conn, events chan<- Event, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("IPC received", "line", line)

		var env EventEnvelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			sendIPCResponse(encoder, logger, IPCResponse{
				Status: "error",
				Error:  fmt.Sprintf("parse request: %v", err),
			})
			continue
		}

		// get_state is request/response, not a fire-and-forget event.
		if env.Type == "get_state" {
			sendIPCResponse(encoder, logger, handleStateRequest(events))
			continue
		}

		// Payload events only; the daemon assigns timestamps via TimedEvent.
		ev, err := UnmarshalEvent([]byte(line))
		if err != nil {
			sendIPCResponse(encoder, logger, IPCResponse{
				Status: "error",
				Error:  fmt.Sprintf("parse event: %v", err),
			})
			continue
		}

		select {
		case events <- ev:
			sendIPCResponse(encoder, logger, IPCResponse{Status: "ok"})
		default:
			// Event channel is full (should rarely happen with buffer)
			sendIPCResponse(encoder, logger, IPCResponse{
				Status: "error",
				Error:  "event queue full",
			})
		}
	}

	logger.Debug("IPC connection closed")
}

// handleStateRequest asks the daemon for a snapshot and waits briefly for the
// reply. The reply channel is buffered so a timed-out request cannot block
// the daemon's publish.
func handleStateRequest(events chan<- Event) IPCResponse {
	reply := make(chan StateSnapshot, 1)

	select {
	case events <- RequestStateSnapshot{Reply: reply}:
	default:
		return IPCResponse{Status: "error", Error: "event queue full"}
	}

	select {
	case snap := <-reply:
		return IPCResponse{Status: "ok", State: &snap}
	case <-time.After(ipcStateTimeout):
		return IPCResponse{Status: "error", Error: "timed out waiting for state"}
	}
}

func sendIPCResponse(encoder *json.Encoder, logger *slog.Logger, resp IPCResponse) {
	if err := encoder.Encode(resp); err != nil {
		logger.Error("IPC failed to send response", "error", err)
	}
}

// ============================================================================
// IPC Client Utility Functions
// ============================================================================
// These functions can be used to send events to the daemon from external
// programs or for testing.
// ============================================================================

// SendIPCEvent sends an event to the daemon via IPC and returns the response
func SendIPCEvent(socketPath string, ev Event) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(data))); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	decoder := json.NewDecoder(conn)
	var resp IPCResponse
	if err := decoder.Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return fmt.Errorf("ipc error: %s", resp.Error)
	}

	return nil
}

// RequestIPCState asks the daemon for its current state snapshot.
func RequestIPCState(socketPath string) (*StateSnapshot, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, `{"type": "get_state"}`); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	decoder := json.NewDecoder(conn)
	var resp IPCResponse
	if err := decoder.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("ipc error: %s", resp.Error)
	}
	if resp.State == nil {
		return nil, fmt.Errorf("ipc response missing state")
	}
	return resp.State, nil
}

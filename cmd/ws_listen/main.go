package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// ws_listen - steerd state stream listener
// ============================================================================
// Debug tool that connects to the daemon's /ws endpoint and prints every
// state and status frame as it arrives. Useful for tuning smoothing and
// hysteresis while watching the live rotation values.
// ============================================================================

// envelope mirrors the daemon's WS wire format.
type envelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// stateData mirrors the snapshot fields worth printing.
type stateData struct {
	Phase         string  `json:"phase"`
	PivotSet      bool    `json:"pivot_set"`
	PivotX        float64 `json:"pivot_x"`
	PivotY        float64 `json:"pivot_y"`
	Offset        float64 `json:"offset"`
	TotalRotation float64 `json:"total_rotation"`
	Direction     string  `json:"direction"`
	Velocity      float64 `json:"angular_velocity"`
	AxisValue     int     `json:"axis_value"`
	SinkAvailable bool    `json:"sink_available"`
}

type statusData struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8787/ws", "steerd state stream URL")
		raw   = flag.Bool("raw", false, "Print raw JSON frames instead of summaries")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	// Handle shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	// Set up ping/pong handlers for connection health
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Start ping ticker to keep connection alive
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				log.Printf("ping failed: %v", err)
				return
			}
		}
	}()

	// Message reading loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			if *raw {
				printRaw(message)
			} else {
				printFrame(message)
			}
		}
	}()

	// Wait for shutdown signal or connection close
	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

func printRaw(message []byte) {
	var jsonData map[string]any
	if err := json.Unmarshal(message, &jsonData); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}
	prettyJSON, _ := json.MarshalIndent(jsonData, "", "  ")
	fmt.Printf("%s\n", string(prettyJSON))
}

// printFrame prints a one-line summary per frame
func printFrame(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	switch env.Type {
	case "state_init", "state":
		var s stateData
		if err := json.Unmarshal(env.Data, &s); err != nil {
			fmt.Printf("[%s] %s\n", env.Type, string(env.Data))
			return
		}

		tag := "STATE"
		if env.Type == "state_init" {
			tag = "INIT"
		}

		pivot := "unset"
		if s.PivotSet {
			pivot = fmt.Sprintf("(%.0f,%.0f) offset=%.0fpx", s.PivotX, s.PivotY, s.Offset)
		}

		line := fmt.Sprintf("[%s] phase=%s rot=%+.1fdeg dir=%s vel=%+.1fdeg/s axis=%d pivot=%s",
			tag, s.Phase, s.TotalRotation, s.Direction, s.Velocity, s.AxisValue, pivot)
		if !s.SinkAvailable {
			line += " sink=down"
		}
		fmt.Println(line)

	case "status":
		var st statusData
		if err := json.Unmarshal(env.Data, &st); err != nil {
			fmt.Printf("[STATUS] %s\n", string(env.Data))
			return
		}
		if st.Detail != "" {
			fmt.Printf("[STATUS] %s: %s\n", st.Kind, st.Detail)
		} else {
			fmt.Printf("[STATUS] %s\n", st.Kind)
		}

	default:
		fmt.Printf("[%s] %s\n", env.Type, string(env.Data))
	}
}

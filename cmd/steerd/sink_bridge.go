package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// bridgeSink forwards axis values as JSON over a WebSocket, for driving a
// visualizer or a sim-side adapter on another machine instead of a local
// virtual device.
type bridgeSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	url    string
	logger *slog.Logger
}

func newBridgeSink(wsURL string, logger *slog.Logger) (*bridgeSink, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("bridge URL must use ws or wss scheme, got %q", u.Scheme)
	}
	return &bridgeSink{url: wsURL, logger: logger}, nil
}

// Acquire dials the bridge. One attempt per call: the daemon's tick policy
// is the retry loop, so there is no internal backoff here.
func (b *bridgeSink) Acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(b.url, nil)
	if err != nil {
		return fmt.Errorf("dial bridge: %w", err)
	}
	b.conn = conn
	b.logger.Info("connected to axis bridge", "url", b.url)
	return nil
}

// WriteAxis sends one axis message. On error the connection is marked
// broken so the next Acquire re-dials; writes never block on reconnection.
func (b *bridgeSink) WriteAxis(value int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return fmt.Errorf("no bridge connection")
	}

	payload, err := json.Marshal(map[string]any{"axis": value})
	if err != nil {
		return fmt.Errorf("marshal axis message: %w", err)
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		b.conn.Close()
		b.conn = nil // Mark connection as broken
		return err
	}
	return nil
}

func (b *bridgeSink) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	return nil
}

func (b *bridgeSink) Name() string {
	return "bridge:" + b.url
}

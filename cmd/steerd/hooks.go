package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ============================================================================
// Command hook + HTTP server
// ============================================================================
// One HTTP server carries both external surfaces: /ws (state stream) and
// /hooks/command (steering commands from scripts, stream decks, overlays).
// ============================================================================

// maxHookBodyBytes bounds command hook request bodies.
const maxHookBodyBytes = 4096

// registerCommandHook registers the POST /hooks/command endpoint.
//
// The body is one event envelope, the same format the IPC socket accepts:
//
//	{"type": "arm", "data": {"x": 960, "y": 540}}
//
// Accepted events are queued for the daemon and answered with 202 Accepted;
// the outcome arrives on the state stream, not in this response.
func registerCommandHook(mux *http.ServeMux, events chan<- Event, logger *slog.Logger) {
	if mux == nil {
		return
	}
	mux.HandleFunc("/hooks/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxHookBodyBytes))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}

		ev, err := UnmarshalEvent(body)
		if err != nil {
			logger.Debug("command hook rejected", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		select {
		case events <- ev:
			w.WriteHeader(http.StatusAccepted)
		default:
			http.Error(w, "event queue full", http.StatusServiceUnavailable)
		}
	})
}

// runStateServer serves mux on the listen address and shuts down gracefully
// when ctx is canceled.
//
// This replaces http.ListenAndServe so we can call Server.Shutdown during
// program shutdown.
func runStateServer(ctx context.Context, listen string, mux *http.ServeMux, logger *slog.Logger) error {
	logger.Info("state server listening", "addr", listen)

	srv := &http.Server{
		Addr:    listen,
		Handler: mux,
	}

	errCh := make(chan error, 1)

	go func() {
		// ListenAndServe returns http.ErrServerClosed on Shutdown; treat that as clean exit.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		// Wait for the ListenAndServe goroutine to return.
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}

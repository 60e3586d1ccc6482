package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// pointerTracker integrates relative mouse motion into an absolute position
// clamped to the screen bounds. Position starts at screen center so a pivot
// armed before the first sweep is reachable in every direction.
type pointerTracker struct {
	x, y          int
	width, height int
}

func newPointerTracker(width, height int) *pointerTracker {
	return &pointerTracker{
		x:      width / 2,
		y:      height / 2,
		width:  width,
		height: height,
	}
}

func (t *pointerTracker) move(dx, dy int) {
	t.x = clampInt(t.x+dx, 0, t.width-1)
	t.y = clampInt(t.y+dy, 0, t.height-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openInputDevices opens all configured evdev nodes read-only. On any
// failure the already-opened files are closed.
func openInputDevices(paths []string) ([]*os.File, error) {
	files := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(ExpandPath(p))
		if err != nil {
			for _, open := range files {
				open.Close()
			}
			return nil, fmt.Errorf("open input device %s: %w", p, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// emit sends ev unless the context is done. Guarded sends keep this goroutine
// from blocking forever if the daemon loop has already exited.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// runPointerSource opens the configured evdev nodes and translates their raw
// events into daemon events: relative motion becomes PointerMoved (one per
// SYN_REPORT frame), button presses become steering requests. Devices are
// never grabbed, so the desktop keeps seeing the mouse.
//
// A read failure emits SourceFailed and returns nil: steering stops, but the
// daemon stays up serving IPC and state clients.
func runPointerSource(ctx context.Context, cfg InputConfig, events chan<- Event, logger *slog.Logger) error {
	files, err := openInputDevices(cfg.Devices)
	if err != nil {
		return err
	}
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for _, f := range files {
		logger.Info("monitoring input device", "device", f.Name())
	}

	raw := make(chan inputEvent, 64)
	readErr := make(chan error, 1)
	go readInputEventsEpoll(files, raw, readErr)

	tracker := newPointerTracker(cfg.ScreenWidth, cfg.ScreenHeight)
	var dx, dy int
	moved := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			logger.Error("input source failed", "error", err)
			emit(ctx, events, SourceFailed{Err: err.Error(), At: time.Now()})
			return nil

		case ev := <-raw:
			switch ev.Type {
			case EV_REL:
				switch ev.Code {
				case REL_X:
					dx += int(ev.Value)
					moved = true
				case REL_Y:
					dy += int(ev.Value)
					moved = true
				}

			case EV_SYN:
				// Motion is frame-buffered: X and Y arrive as separate
				// events and apply together at the SYN_REPORT boundary.
				if ev.Code != SYN_REPORT || !moved {
					break
				}
				tracker.move(dx, dy)
				dx, dy = 0, 0
				moved = false
				if !emit(ctx, events, PointerMoved{X: tracker.x, Y: tracker.y}) {
					return ctx.Err()
				}

			case EV_KEY:
				if ev.Value != evValuePress {
					break
				}
				var out Event
				switch ev.Code {
				case BTN_MIDDLE:
					out = ArmRequested{AtPointer: true}
				case BTN_SIDE:
					out = RecenterRequested{}
				case BTN_EXTRA:
					out = ToggleRequested{}
				}
				if out == nil {
					break
				}
				logger.Debug("input button mapped", "code", ev.Code, "event", fmt.Sprintf("%T", out))
				if !emit(ctx, events, out) {
					return ctx.Err()
				}
			}
		}
	}
}

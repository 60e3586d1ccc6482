package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// uinputUserDev mirrors struct uinput_user_dev from <linux/uinput.h>.
// The legacy setup path writes this struct to the uinput fd before
// UI_DEV_CREATE. Field order and sizes must match the kernel exactly.
type uinputUserDev struct {
	Name [uinputMaxNameSize]byte
	ID   struct {
		Bustype uint16
		Vendor  uint16
		Product uint16
		Version uint16
	}
	FFEffectsMax uint32
	Absmax       [absCnt]int32
	Absmin       [absCnt]int32
	Absfuzz      [absCnt]int32
	Absflat      [absCnt]int32
}

// uinputSink registers a virtual one-axis device through /dev/uinput.
// Games and test rigs enumerate it like any other absolute-axis controller.
type uinputSink struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	name    string
	axisMin int
	axisMax int
	logger  *slog.Logger
}

func newUinputSink(path, name string, axisMin, axisMax int, logger *slog.Logger) *uinputSink {
	if path == "" {
		path = "/dev/uinput"
	}
	if name == "" {
		name = defaultSinkDeviceName
	}
	return &uinputSink{
		path:    path,
		name:    name,
		axisMin: axisMin,
		axisMax: axisMax,
		logger:  logger,
	}
}

// Acquire opens the uinput node and registers the virtual device. Calling
// it while already acquired is a no-op.
func (u *uinputSink) Acquire() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.f != nil {
		return nil
	}

	f, err := os.OpenFile(u.path, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", u.path, err)
	}
	fd := int(f.Fd())

	bits := []struct {
		req  uint
		arg  int
		what string
	}{
		{UI_SET_EVBIT, EV_ABS, "enable EV_ABS"},
		{UI_SET_ABSBIT, ABS_X, "enable ABS_X"},
		{UI_SET_EVBIT, EV_KEY, "enable EV_KEY"},
		{UI_SET_KEYBIT, BTN_TRIGGER, "enable BTN_TRIGGER"},
	}
	for _, b := range bits {
		if err := unix.IoctlSetInt(fd, b.req, b.arg); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", b.what, err)
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], u.name)
	dev.ID.Bustype = busVirtual
	dev.ID.Vendor = sinkVendorID
	dev.ID.Product = sinkProductID
	dev.ID.Version = sinkVersion
	dev.Absmin[ABS_X] = int32(u.axisMin)
	dev.Absmax[ABS_X] = int32(u.axisMax)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &dev); err != nil {
		f.Close()
		return fmt.Errorf("encode device setup: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write device setup: %w", err)
	}
	if err := unix.IoctlSetInt(fd, UI_DEV_CREATE, 0); err != nil {
		f.Close()
		return fmt.Errorf("create device: %w", err)
	}

	u.f = f
	u.logger.Info("virtual axis device created", "path", u.path, "name", u.name)
	return nil
}

// WriteAxis emits one EV_ABS frame followed by a SYN_REPORT. A failed write
// tears the device down so the next Acquire rebuilds it from scratch.
func (u *uinputSink) WriteAxis(value int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.f == nil {
		return fmt.Errorf("uinput device not acquired")
	}

	now := time.Now()
	sec := now.Unix()
	usec := int64(now.Nanosecond() / 1000)
	frames := []inputEvent{
		{Sec: sec, Usec: usec, Type: EV_ABS, Code: ABS_X, Value: int32(value)},
		{Sec: sec, Usec: usec, Type: EV_SYN, Code: SYN_REPORT, Value: 0},
	}

	var buf bytes.Buffer
	for _, ev := range frames {
		if err := binary.Write(&buf, binary.LittleEndian, &ev); err != nil {
			return fmt.Errorf("encode axis event: %w", err)
		}
	}
	if _, err := u.f.Write(buf.Bytes()); err != nil {
		u.release()
		return fmt.Errorf("write axis event: %w", err)
	}
	return nil
}

// release destroys the virtual device and closes the fd. Caller holds mu.
func (u *uinputSink) release() {
	if u.f == nil {
		return
	}
	if err := unix.IoctlSetInt(int(u.f.Fd()), UI_DEV_DESTROY, 0); err != nil {
		u.logger.Warn("destroy virtual device failed", "error", err)
	}
	u.f.Close()
	u.f = nil
}

func (u *uinputSink) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.release()
	return nil
}

func (u *uinputSink) Name() string {
	return "uinput:" + u.name
}

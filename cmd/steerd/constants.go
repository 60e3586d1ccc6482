package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03

	SYN_REPORT = 0

	REL_X = 0x00
	REL_Y = 0x01

	ABS_X = 0x00

	// Mouse buttons
	BTN_LEFT   = 0x110
	BTN_RIGHT  = 0x111
	BTN_MIDDLE = 0x112
	BTN_SIDE   = 0x113
	BTN_EXTRA  = 0x114

	// Reported by the virtual joystick so input stacks that skip
	// button-less devices still enumerate it
	BTN_TRIGGER = 0x120
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// uinput ioctl requests and limits (from <linux/uinput.h>)
const (
	UI_SET_EVBIT  = 0x40045564
	UI_SET_KEYBIT = 0x40045565
	UI_SET_ABSBIT = 0x40045567

	UI_DEV_CREATE  = 0x5501
	UI_DEV_DESTROY = 0x5502

	uinputMaxNameSize = 80
	absCnt            = 0x40 // ABS_MAX + 1

	busVirtual = 0x06
)

// Steering configuration defaults
const (
	defaultMaxDegrees        = 1080.0 // Three full turns either side of center
	defaultSmoothingWindow   = 5      // Raw angles averaged per smoothed sample
	defaultCenterThresholdPx = 15.0   // Inside this pivot radius motion is neutral
	defaultHysteresisDeg     = 1.0    // Minimum smoothed delta to register a direction
	defaultSensitivity       = 1.0

	minAxisValue    = 0
	maxAxisValue    = 32767
	centerAxisValue = (minAxisValue + maxAxisValue) / 2

	minSensitivity = 0.1
	maxSensitivity = 10.0

	// Floor for the measured interval between pointer events in real_time
	// mode. Two events inside one clock tick would otherwise divide by zero.
	timeDeltaEpsilon = 1e-6

	defaultScreenWidth  = 1920
	defaultScreenHeight = 1080

	defaultTickHz      = 1    // Housekeeping tick frequency (Hz)
	defaultSinkRetryMS = 1000 // Minimum gap between sink acquisition attempts (ms)

	defaultSinkDeviceName = "steerd wheel"
	sinkVendorID          = 0x0000
	sinkProductID         = 0x0001
	sinkVersion           = 0x0001
)

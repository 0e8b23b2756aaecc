// Package dial holds the pure geometry and parsing behind the radial timer:
// turning raw input into a duration, splitting a remaining duration into
// concentric 60-minute rings, and resolving each ring's angles for the
// current rotation mode. Nothing here touches the terminal or the clock;
// callers pass "now" in.
package dial

import (
	"fmt"
	"strings"
)

// MaxMinutes caps every parsed duration.
const MaxMinutes = 180

// Mode is the rotational semantics of the dial.
type Mode int

const (
	// ModeCCW shows remaining time as a wedge growing clockwise from 12 o'clock.
	ModeCCW Mode = iota
	// ModeCW shows remaining time as a wedge ending at 12 o'clock.
	ModeCW
	// ModeEnd aligns the wedge with the wall clock, ending at a target minute.
	ModeEnd
)

// String returns the short name used in settings and flags.
func (m Mode) String() string {
	switch m {
	case ModeCCW:
		return "ccw"
	case ModeCW:
		return "cw"
	case ModeEnd:
		return "end"
	default:
		return "unknown"
	}
}

// ParseMode converts a short mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ccw":
		return ModeCCW, nil
	case "cw":
		return ModeCW, nil
	case "end":
		return ModeEnd, nil
	}
	return ModeCCW, fmt.Errorf("parse mode %q: %w", s, ErrInvalidInput)
}

// Display selects between the pie wedge face and the ring-with-countdown face.
type Display int

const (
	DisplayAnalog Display = iota
	DisplayDigital
)

func (d Display) String() string {
	if d == DisplayDigital {
		return "digital"
	}
	return "analog"
}

// ParseDisplay converts "analog" or "digital" to a Display.
func ParseDisplay(s string) (Display, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "analog":
		return DisplayAnalog, nil
	case "digital":
		return DisplayDigital, nil
	}
	return DisplayAnalog, fmt.Errorf("parse display %q: %w", s, ErrInvalidInput)
}

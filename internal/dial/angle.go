package dial

import (
	"math"
	"time"
)

// Angles are in degrees with -90 at 12 o'clock, increasing clockwise.
type Angles struct {
	Start, End float64
}

// Sweep is the clockwise span from Start to End. A full revolution
// reports 360.
func (a Angles) Sweep() float64 {
	d := a.End - a.Start
	if d >= 360 {
		return 360
	}
	return mod360(d)
}

// Contains reports whether deg lies on the clockwise arc from Start to End.
func (a Angles) Contains(deg float64) bool {
	sweep := a.Sweep()
	if sweep >= 360 {
		return true
	}
	return mod360(deg-a.Start) <= sweep
}

// MovingEdge is the boundary that advances as time passes: End in CCW mode,
// Start otherwise.
func (a Angles) MovingEdge(mode Mode) float64 {
	if mode == ModeCCW {
		return a.End
	}
	return a.Start
}

func mod360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// minuteAngle converts a minute of the hour to degrees.
func minuteAngle(m float64) float64 {
	return (m/60)*360 - 90
}

// ClockMinute is the minute of the hour with fractional seconds.
func ClockMinute(now time.Time) float64 {
	return float64(now.Minute()) + float64(now.Second())/60
}

// TimerEndAngle is where full rings start and end, derived from the first
// (outermost) segment.
func TimerEndAngle(first Segment, mode Mode, now time.Time) float64 {
	switch mode {
	case ModeEnd:
		return minuteAngle(ClockMinute(now))
	case ModeCW:
		return minuteAngle(60 - first.Value)
	default:
		return minuteAngle(first.Value)
	}
}

// WedgeAngles resolves seg's angles. target is only read in End mode, where
// both edges follow the live clock and are recomputed on every call.
func WedgeAngles(seg Segment, timerEnd float64, mode Mode, target float64, now time.Time) Angles {
	if seg.Full {
		return Angles{Start: timerEnd, End: timerEnd + 360}
	}
	switch mode {
	case ModeEnd:
		start := minuteAngle(ClockMinute(now))
		end := minuteAngle(target)
		if end < start {
			end += 360
		}
		return Angles{Start: start, End: end}
	case ModeCW:
		return Angles{Start: minuteAngle(60 - seg.Value), End: -90}
	default:
		return Angles{Start: -90, End: minuteAngle(seg.Value)}
	}
}

// LabelPosition places a face label for minute. CW mode mirrors the face so
// labels run anticlockwise.
func LabelPosition(minute int, mode Mode, center, radius float64) (x, y float64) {
	pos := minute % 60
	if mode == ModeCW {
		pos = (60 - pos) % 60
	}
	rad := minuteAngle(float64(pos)) * math.Pi / 180
	return center + radius*math.Cos(rad), center + radius*math.Sin(rad)
}

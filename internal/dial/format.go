package dial

import (
	"fmt"
	"math"
	"time"
)

// FormatRemaining renders minutes as "m:ss", rounding seconds and carrying
// a rounded 60 into the minutes.
func FormatRemaining(minutes float64) string {
	if minutes <= 0 {
		return "0:00"
	}
	m := math.Floor(minutes)
	s := math.Round((minutes - m) * 60)
	if s >= 60 {
		m++
		s = 0
	}
	return fmt.Sprintf("%d:%02d", int(m), int(s))
}

// FormatOvertime renders time past the deadline as "-m:ss".
func FormatOvertime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("-%d:%02d", secs/60, secs%60)
}

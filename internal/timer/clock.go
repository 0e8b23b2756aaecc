// Package timer owns the countdown lifecycle. Machine is the single source of
// truth for phase and remaining time; Watchdog is an independent goroutine
// that notices the deadline even when nobody is ticking the Machine.
package timer

import "time"

// Clock abstracts wall-clock reads so tests can move time by hand.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the system clock.
func Real() Clock { return realClock{} }

// minutes converts fractional minutes to a Duration.
func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

package dial

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput is returned for any input the parser cannot turn into a
// duration. The only recovery is asking the user again.
var ErrInvalidInput = errors.New("invalid time input")

// maxInputLen bounds raw input length.
const maxInputLen = 20

var (
	clockRe  = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})$`)
	digitsRe = regexp.MustCompile(`^\d+$`)
)

// TimeSpec is a parsed duration. Target is the minute of the hour (with
// fractional seconds) the dial must reach, set only when HasTarget is true.
type TimeSpec struct {
	Total     float64
	Target    float64
	HasTarget bool
}

// Parse turns user input into a TimeSpec. In CCW and CW mode the input is a
// number of minutes. In End mode it is a clock time: "h:m", "hhmm" or a bare
// minute of the hour. Durations are capped at maxMinutes.
func Parse(input string, mode Mode, now time.Time, maxMinutes float64) (TimeSpec, error) {
	if input == "" || len(input) > maxInputLen {
		return TimeSpec{}, fmt.Errorf("parse %q: %w", input, ErrInvalidInput)
	}
	s := strings.TrimSpace(input)
	if s == "" {
		return TimeSpec{}, fmt.Errorf("parse %q: %w", input, ErrInvalidInput)
	}

	if mode != ModeEnd {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return TimeSpec{}, fmt.Errorf("parse minutes %q: %w", s, ErrInvalidInput)
		}
		return TimeSpec{Total: math.Min(v, maxMinutes)}, nil
	}

	if strings.Contains(s, ":") {
		return parseClock(s, now, maxMinutes)
	}
	if !digitsRe.MatchString(s) {
		return TimeSpec{}, fmt.Errorf("parse end time %q: %w", s, ErrInvalidInput)
	}
	switch len(s) {
	case 1, 2:
		return parseMinuteOfHour(s, now, maxMinutes)
	case 3, 4:
		return parseCompact(s, now, maxMinutes)
	}
	return TimeSpec{}, fmt.Errorf("parse end time %q: %w", s, ErrInvalidInput)
}

// parseClock handles "h:m".
func parseClock(s string, now time.Time, maxMinutes float64) (TimeSpec, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return TimeSpec{}, fmt.Errorf("parse clock %q: %w", s, ErrInvalidInput)
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	if h > 23 || mi > 59 {
		return TimeSpec{}, fmt.Errorf("parse clock %q: %w", s, ErrInvalidInput)
	}
	return endSpec(nextAt(now, h, mi), now, mi, maxMinutes), nil
}

// parseCompact handles "hmm" and "hhmm". Hours below 12 could mean either
// half of the day; the nearer one that fits under the cap wins, and if
// neither fits the nearer one is used anyway.
func parseCompact(s string, now time.Time, maxMinutes float64) (TimeSpec, error) {
	n, _ := strconv.Atoi(s)
	h, mi := n/100, n%100
	if h > 23 || mi > 59 {
		return TimeSpec{}, fmt.Errorf("parse end time %q: %w", s, ErrInvalidInput)
	}
	if h >= 12 {
		return endSpec(nextAt(now, h, mi), now, mi, maxMinutes), nil
	}

	am := minutesUntil(now, nextAt(now, h, mi))
	pm := minutesUntil(now, nextAt(now, h+12, mi))
	amOK, pmOK := am <= maxMinutes, pm <= maxMinutes

	total := am
	switch {
	case amOK && pmOK:
		total = math.Min(am, pm)
	case pmOK:
		total = pm
	case !amOK:
		total = math.Min(am, pm)
	}
	return TimeSpec{Total: math.Min(total, maxMinutes), Target: float64(mi), HasTarget: true}, nil
}

// parseMinuteOfHour handles a bare minute on the current or next hour.
func parseMinuteOfHour(s string, now time.Time, maxMinutes float64) (TimeSpec, error) {
	mi, _ := strconv.Atoi(s)
	if mi > 59 {
		return TimeSpec{}, fmt.Errorf("parse minute %q: %w", s, ErrInvalidInput)
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), mi, 0, 0, now.Location())
	if !target.After(now) {
		target = target.Add(time.Hour)
	}
	return endSpec(target, now, mi, maxMinutes), nil
}

// nextAt returns the next instant strictly after now showing h:m.
func nextAt(now time.Time, h, m int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !t.After(now) {
		t = time.Date(now.Year(), now.Month(), now.Day()+1, h, m, 0, 0, now.Location())
	}
	return t
}

// minutesUntil rounds up so the dial never stops short of the clock time.
func minutesUntil(now, target time.Time) float64 {
	return math.Ceil(target.Sub(now).Minutes())
}

func endSpec(target, now time.Time, minute int, maxMinutes float64) TimeSpec {
	return TimeSpec{
		Total:     math.Min(minutesUntil(now, target), maxMinutes),
		Target:    float64(minute),
		HasTarget: true,
	}
}

// SuggestsEnd reports whether input being typed in CCW or CW mode looks like
// a clock time, so the caller can flip to End mode.
func SuggestsEnd(input string) bool {
	s := strings.TrimSpace(input)
	return strings.Contains(s, ":") || (len(s) >= 4 && digitsRe.MatchString(s))
}

// EndClock formats now+total minutes as "h:mm".
func EndClock(now time.Time, total float64) string {
	end := now.Add(time.Duration(total * float64(time.Minute)))
	return fmt.Sprintf("%d:%02d", end.Hour(), end.Minute())
}

var unsafeInputRe = regexp.MustCompile(`[^\d:.]`)

// maxPresetLen bounds input restored from outside the input field.
const maxPresetLen = 10

// SanitizeInput keeps only digits, ':' and '.', for input arriving from
// flags or storage rather than the keyboard. Oversized results are dropped.
func SanitizeInput(s string) string {
	s = unsafeInputRe.ReplaceAllString(s, "")
	if len(s) > maxPresetLen {
		return ""
	}
	return s
}

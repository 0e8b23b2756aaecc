package timer

import (
	"math"
	"time"

	"github.com/sadopc/timerpie/internal/dial"
	"github.com/sadopc/timerpie/internal/logger"
)

// Phase is the lifecycle state of the timer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseCompleted
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// endCheckWindow is how close to the deadline End mode starts comparing the
// live clock minute against the target.
const endCheckWindow = 2.0

// Completion describes one Running to Completed transition.
type Completion struct {
	Mode        dial.Mode
	Total       float64
	Deadline    time.Time
	CompletedAt time.Time
	ObservedAt  time.Time
	ByWatchdog  bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithCompletionHook registers fn to run once per completion, synchronously
// inside Tick or WatchdogComplete.
func WithCompletionHook(fn func(Completion)) Option {
	return func(m *Machine) {
		m.onComplete = fn
	}
}

// Machine is the timer state machine. Remaining time is derived from the
// wall clock on every read, never accumulated from tick deltas, so skipped
// frames cost nothing.
//
// Machine is not safe for concurrent use. Drive it from one goroutine and
// feed it watchdog expiries as messages.
type Machine struct {
	clock      Clock
	dog        Arming
	log        *logger.Logger
	onComplete func(Completion)

	phase       Phase
	mode        dial.Mode
	total       float64
	start       time.Time
	target      float64
	hasTarget   bool
	frozen      float64 // remaining captured at pause
	deadline    time.Time
	completedAt time.Time
	gen         uint64
}

// New creates an idle Machine.
func New(clock Clock, dog Arming, log *logger.Logger, opts ...Option) *Machine {
	m := &Machine{
		clock: clock,
		dog:   dog,
		log:   log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins a countdown of spec.Total minutes. It is a no-op while
// already running, so a double trigger never produces two timers.
func (m *Machine) Start(spec dial.TimeSpec, mode dial.Mode, now time.Time) bool {
	if m.phase == PhaseRunning {
		m.log.Debug("timer: start ignored, already running")
		return false
	}
	if spec.Total <= 0 {
		return false
	}

	m.mode = mode
	m.total = spec.Total
	m.start = now
	m.frozen = spec.Total
	m.completedAt = time.Time{}
	m.deadline = now.Add(minutes(spec.Total))
	m.hasTarget = true
	if spec.HasTarget {
		m.target = spec.Target
	} else {
		m.target = dial.ClockMinute(m.deadline)
	}

	m.gen = m.dog.Arm(m.deadline)
	m.phase = PhaseRunning
	m.log.Info("timer: started %.2f min (%s), deadline %s", m.total, m.mode, m.deadline.Format("15:04:05"))
	return true
}

// Pause freezes the remaining time. End-mode timers follow the wall clock
// and cannot be paused.
func (m *Machine) Pause() bool {
	if !m.CanPause() {
		return false
	}
	now := m.clock.Now()
	rem := m.remainingAt(now)
	if rem <= 0 {
		m.complete(now, false)
		return false
	}

	m.frozen = rem
	m.dog.Disarm()
	m.gen = 0
	m.phase = PhasePaused
	m.log.Info("timer: paused with %.2f min left", rem)
	return true
}

// Resume restarts a paused timer. The start anchor is shifted so elapsed
// time math reproduces the frozen remaining value.
func (m *Machine) Resume() bool {
	if m.phase != PhasePaused {
		return false
	}
	now := m.clock.Now()
	m.start = now.Add(-minutes(m.total - m.frozen))
	m.deadline = now.Add(minutes(m.frozen))
	if m.mode == dial.ModeEnd {
		m.target = dial.ClockMinute(m.deadline)
		m.hasTarget = true
	}
	m.gen = m.dog.Arm(m.deadline)
	m.phase = PhaseRunning
	m.log.Info("timer: resumed, deadline %s", m.deadline.Format("15:04:05"))
	return true
}

// Tick is the primary-loop observation. It reports true only on the frame
// that completed the timer.
func (m *Machine) Tick(now time.Time) bool {
	if m.phase != PhaseRunning {
		return false
	}
	rem := m.remainingAt(now)
	if m.mode == dial.ModeEnd && m.hasTarget && rem < endCheckWindow && m.clockReached(now) {
		rem = 0
	}
	if rem > 0 {
		return false
	}
	return m.complete(now, false)
}

// clockReached reports whether the live clock minute sits at or just past
// the target. Only meaningful within endCheckWindow of the deadline.
func (m *Machine) clockReached(now time.Time) bool {
	past := math.Mod(dial.ClockMinute(now)-m.target, 60)
	if past < 0 {
		past += 60
	}
	return past < endCheckWindow
}

// WatchdogComplete handles an expiry from the background watchdog. Expiries
// for a superseded or cancelled arm are dropped.
func (m *Machine) WatchdogComplete(exp Expiry) bool {
	if m.phase != PhaseRunning {
		m.log.Debug("timer: watchdog expiry ignored in phase %s", m.phase)
		return false
	}
	if exp.Gen != m.gen {
		m.log.Debug("timer: stale watchdog expiry gen=%d (current %d)", exp.Gen, m.gen)
		return false
	}
	return m.complete(m.clock.Now(), true)
}

// complete is the single, idempotent entry into PhaseCompleted. Overtime is
// counted from the deadline, not from whichever observer noticed it.
func (m *Machine) complete(now time.Time, byWatchdog bool) bool {
	if m.phase == PhaseCompleted {
		return false
	}
	m.phase = PhaseCompleted
	m.frozen = 0
	m.completedAt = m.deadline
	if now.Before(m.deadline) {
		m.completedAt = now
	}
	m.dog.Disarm()
	m.gen = 0

	source := "tick"
	if byWatchdog {
		source = "watchdog"
	}
	m.log.Info("timer: completed via %s, %s late", source, now.Sub(m.completedAt).Round(time.Millisecond))

	if m.onComplete != nil {
		m.onComplete(Completion{
			Mode:        m.mode,
			Total:       m.total,
			Deadline:    m.deadline,
			CompletedAt: m.completedAt,
			ObservedAt:  now,
			ByWatchdog:  byWatchdog,
		})
	}
	return true
}

// Reset cancels whatever the timer was doing and returns to idle. It
// reports whether there was anything to cancel.
func (m *Machine) Reset() bool {
	m.dog.Disarm()
	if m.phase == PhaseIdle {
		return false
	}
	m.log.Info("timer: reset from %s", m.phase)

	m.phase = PhaseIdle
	m.total = 0
	m.frozen = 0
	m.start = time.Time{}
	m.deadline = time.Time{}
	m.completedAt = time.Time{}
	m.hasTarget = false
	m.gen = 0
	return true
}

// SwitchMode changes rotation while keeping the same remaining time.
// Switching an active timer to End mode pins the target to the clock
// minute at which it will finish. A paused timer is re-pinned on Resume.
func (m *Machine) SwitchMode(mode dial.Mode, now time.Time) {
	if mode == m.mode {
		return
	}
	m.mode = mode
	if m.phase != PhaseRunning && m.phase != PhasePaused {
		return
	}
	if mode == dial.ModeEnd {
		m.target = dial.ClockMinute(now.Add(minutes(m.Remaining(now))))
		m.hasTarget = true
	} else {
		m.hasTarget = false
	}
	m.log.Debug("timer: mode switched to %s", mode)
}

func (m *Machine) remainingAt(now time.Time) float64 {
	elapsed := now.Sub(m.start).Minutes()
	return math.Max(0, m.total-elapsed)
}

// Remaining is the time left in minutes: live while running, frozen while
// paused, zero otherwise.
func (m *Machine) Remaining(now time.Time) float64 {
	switch m.phase {
	case PhaseRunning:
		return m.remainingAt(now)
	case PhasePaused:
		return m.frozen
	}
	return 0
}

// Overtime is how long ago the timer completed. It grows without bound
// until Reset.
func (m *Machine) Overtime(now time.Time) time.Duration {
	if m.phase != PhaseCompleted {
		return 0
	}
	return now.Sub(m.completedAt)
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Mode returns the active rotation mode.
func (m *Machine) Mode() dial.Mode { return m.mode }

// Total returns the duration the timer was started with.
func (m *Machine) Total() float64 { return m.total }

// Target returns the clock minute the dial is anchored to, if any.
func (m *Machine) Target() (float64, bool) { return m.target, m.hasTarget }

// Deadline returns the absolute end time while running.
func (m *Machine) Deadline() (time.Time, bool) {
	return m.deadline, m.phase == PhaseRunning
}

// CompletedAt returns the completion instant while completed.
func (m *Machine) CompletedAt() (time.Time, bool) {
	return m.completedAt, m.phase == PhaseCompleted
}

// CanPause reports whether Pause would take effect.
func (m *Machine) CanPause() bool {
	return m.phase == PhaseRunning && m.mode != dial.ModeEnd
}

package timer

import (
	"context"
	"sync"
	"time"

	"github.com/sadopc/timerpie/internal/logger"
)

// Expiry is the watchdog's completion message. Gen identifies the Arm call
// it answers; receivers drop messages for a generation they no longer hold.
type Expiry struct {
	Gen      uint64
	Deadline time.Time
	At       time.Time
}

// Arming is the part of the watchdog the Machine drives.
type Arming interface {
	Arm(deadline time.Time) uint64
	Disarm()
}

// WatchdogOption configures a Watchdog.
type WatchdogOption func(*Watchdog)

// WithPollInterval sets how often the watchdog compares the clock with the
// armed deadline.
func WithPollInterval(d time.Duration) WatchdogOption {
	return func(w *Watchdog) {
		w.interval = d
	}
}

// Watchdog polls the clock on its own goroutine and posts an Expiry once the
// armed deadline passes. It never touches Machine state directly.
type Watchdog struct {
	clock    Clock
	log      *logger.Logger
	interval time.Duration
	out      chan Expiry

	mu       sync.Mutex
	armed    bool
	deadline time.Time
	gen      uint64
}

// NewWatchdog creates an unarmed watchdog. Call Run to start polling.
func NewWatchdog(clock Clock, log *logger.Logger, opts ...WatchdogOption) *Watchdog {
	w := &Watchdog{
		clock:    clock,
		log:      log,
		interval: 100 * time.Millisecond,
		out:      make(chan Expiry, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// C delivers expiries. At most one is ever pending.
func (w *Watchdog) C() <-chan Expiry {
	return w.out
}

// Arm replaces any previous deadline and returns the new generation.
func (w *Watchdog) Arm(deadline time.Time) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	w.armed = true
	w.deadline = deadline
	w.drain()
	w.log.Debug("watchdog: armed gen=%d deadline=%s", w.gen, deadline.Format("15:04:05.000"))
	return w.gen
}

// Disarm cancels the pending deadline and discards an undelivered expiry,
// so nothing stale fires after the caller moved on.
func (w *Watchdog) Disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.armed {
		w.log.Debug("watchdog: disarmed gen=%d", w.gen)
	}
	w.gen++
	w.armed = false
	w.drain()
}

// Armed reports the current deadline, if any.
func (w *Watchdog) Armed() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deadline, w.armed
}

// Run polls until ctx is cancelled. Intended to be called as a goroutine.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Debug("watchdog started (interval=%s)", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watchdog stopped")
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check fires at most once per Arm.
func (w *Watchdog) check() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed {
		return
	}
	now := w.clock.Now()
	if now.Before(w.deadline) {
		return
	}
	w.armed = false
	w.drain()
	w.out <- Expiry{Gen: w.gen, Deadline: w.deadline, At: now}
	w.log.Debug("watchdog: expired gen=%d late=%s", w.gen, now.Sub(w.deadline))
}

func (w *Watchdog) drain() {
	select {
	case <-w.out:
	default:
	}
}

package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/sadopc/timerpie/internal/logger"
)

// Defaults for the completion alarm: three beeps, one every 1125ms.
const (
	DefaultRepeats  = 3
	DefaultInterval = 1125 * time.Millisecond
)

// Option configures an Alarm.
type Option func(*Alarm)

// WithRepeats sets how many beeps one Ring plays.
func WithRepeats(n int) Option {
	return func(a *Alarm) { a.repeats = n }
}

// WithInterval sets the start-to-start gap between beeps.
func WithInterval(d time.Duration) Option {
	return func(a *Alarm) { a.interval = d }
}

// Alarm rings a repeating beep in the background until it runs out or is
// stopped.
type Alarm struct {
	sound    Sounder
	log      *logger.Logger
	clip     []byte
	repeats  int
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an Alarm that plays through s.
func New(s Sounder, log *logger.Logger, opts ...Option) *Alarm {
	a := &Alarm{
		sound:    s,
		log:      log,
		clip:     Beep(),
		repeats:  DefaultRepeats,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ring starts the beep sequence and returns immediately. Ringing again
// restarts the sequence.
func (a *Alarm) Ring(ctx context.Context) {
	a.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.mu.Lock()
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	a.log.Info("alarm: ringing (%d beeps)", a.repeats)
	go a.loop(ctx, done)
}

func (a *Alarm) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for i := 0; i < a.repeats; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err := a.sound.Play(ctx, a.clip); err != nil {
			a.log.Warn("alarm: play beep: %v", err)
			return
		}
	}
}

// Stop silences the alarm and waits for the sequence goroutine to exit.
func (a *Alarm) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.sound.Stop()
	<-done
	a.log.Debug("alarm: stopped")
}

// Ringing reports whether a sequence is still in progress.
func (a *Alarm) Ringing() bool {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

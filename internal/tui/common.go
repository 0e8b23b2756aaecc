package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/timerpie/internal/store"
	"github.com/sadopc/timerpie/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDial viewState = iota
	viewHistory
	viewSettings
)

var viewNames = []string{"Timer", "History", "Settings"}

const appName = "timerpie"

// frameInterval paces redraws and the primary completion check.
const frameInterval = 100 * time.Millisecond

// --- Messages ---

type frameMsg time.Time

// expiryMsg carries a watchdog expiry into the update loop.
type expiryMsg timer.Expiry

type statusMsg struct {
	text    string
	isError bool
}

type prefsChangedMsg struct {
	prefs store.Preferences
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatMinutes(m float64) string {
	d := time.Duration(m * float64(time.Minute)).Round(time.Second)
	return formatDuration(d)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

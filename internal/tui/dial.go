package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timerpie/internal/alarm"
	"github.com/sadopc/timerpie/internal/dial"
	"github.com/sadopc/timerpie/internal/logger"
	"github.com/sadopc/timerpie/internal/store"
	"github.com/sadopc/timerpie/internal/timer"
)

// expirySource is the watchdog as the dial view sees it.
type expirySource interface {
	timer.Arming
	C() <-chan timer.Expiry
}

// completionSink collects completions reported by the machine's hook. It is
// shared by pointer because Bubble Tea copies the model on every update.
type completionSink struct {
	pending []timer.Completion
}

func (s *completionSink) add(c timer.Completion) {
	s.pending = append(s.pending, c)
}

func (s *completionSink) drain() []timer.Completion {
	out := s.pending
	s.pending = nil
	return out
}

// blinkPeriod is half a cycle of the completion pulse.
const blinkPeriod = 500 * time.Millisecond

type autostartMsg struct{}

type dialModel struct {
	ctx     context.Context
	store   *store.Store
	log     *logger.Logger
	clock   timer.Clock
	dog     expirySource
	alarm   *alarm.Alarm
	machine *timer.Machine
	done    *completionSink

	prefs     store.Preferences
	input     textinput.Model
	runID     int64
	controls  bool
	autostart bool
	title     string

	width  int
	height int
}

func newDialModel(d Deps) dialModel {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	sink := &completionSink{}
	ti := textinput.New()
	ti.Prompt = "⏱ "
	ti.CharLimit = 10
	ti.Width = 12
	ti.SetValue(d.Prefs.LastInput)
	ti.Focus()

	m := dialModel{
		ctx:       d.Ctx,
		store:     d.Store,
		log:       d.Log,
		clock:     d.Clock,
		dog:       d.Watchdog,
		alarm:     d.Alarm,
		done:      sink,
		prefs:     d.Prefs,
		input:     ti,
		controls:  d.Controls,
		autostart: d.Autostart,
	}
	m.machine = timer.New(d.Clock, d.Watchdog, d.Log, timer.WithCompletionHook(sink.add))
	m.setPlaceholder()
	return m
}

func (m *dialModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m dialModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, frameCmd(), waitForExpiry(m.dog)}
	if m.autostart && m.input.Value() != "" {
		cmds = append(cmds, func() tea.Msg { return autostartMsg{} })
	}
	return tea.Batch(cmds...)
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// waitForExpiry blocks on the watchdog channel. Exactly one is in flight;
// it is re-issued after each delivery.
func waitForExpiry(dog expirySource) tea.Cmd {
	return func() tea.Msg {
		return expiryMsg(<-dog.C())
	}
}

func (m dialModel) update(msg tea.Msg) (dialModel, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.machine.Tick(m.clock.Now())
		cmd := m.settle()
		return m, tea.Batch(cmd, frameCmd())

	case expiryMsg:
		m.machine.WatchdogComplete(timer.Expiry(msg))
		cmd := m.settle()
		return m, tea.Batch(cmd, waitForExpiry(m.dog))

	case autostartMsg:
		return m.start()

	case prefsChangedMsg:
		m.applyPrefs(msg.prefs)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m dialModel) handleKey(msg tea.KeyMsg) (dialModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Go):
		switch m.machine.Phase() {
		case timer.PhaseRunning:
			m.machine.Pause()
			cmd := m.settle()
			return m, cmd
		case timer.PhasePaused:
			m.machine.Resume()
			return m, nil
		}
		return m.start()

	case key.Matches(msg, keys.Pause):
		switch m.machine.Phase() {
		case timer.PhaseRunning:
			if !m.machine.CanPause() {
				return m, statusCmd("End mode follows the clock and cannot pause")
			}
			m.machine.Pause()
			cmd := m.settle()
			return m, cmd
		case timer.PhasePaused:
			m.machine.Resume()
		}
		return m, nil

	case key.Matches(msg, keys.Reset):
		cmd := m.reset()
		return m, cmd

	case key.Matches(msg, keys.Mode):
		next := (m.prefs.Mode + 1) % 3
		m.setMode(next)
		return m, saveSetting(m.store, store.KeyMode, next.String())

	case key.Matches(msg, keys.Display):
		m.prefs.Display = (m.prefs.Display + 1) % 2
		return m, saveSetting(m.store, store.KeyDisplay, m.prefs.Display.String())

	case key.Matches(msg, keys.Sound):
		m.prefs.Sound = !m.prefs.Sound
		if !m.prefs.Sound {
			m.stopAlarm()
		}
		return m, saveSetting(m.store, store.KeySound, onOff(m.prefs.Sound))

	case key.Matches(msg, keys.Marks):
		m.prefs.Marks = nextMarks(m.prefs.Marks)
		return m, saveSetting(m.store, store.KeyMarks, strconv.Itoa(m.prefs.Marks))

	case key.Matches(msg, keys.Dark):
		m.prefs.Dark = !m.prefs.Dark
		v := "0"
		if m.prefs.Dark {
			v = "1"
		}
		return m, saveSetting(m.store, store.KeyDark, v)
	}

	if !m.controls || !editingKey(msg) {
		return m, nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	edit := m.edited()
	return m, tea.Batch(cmd, edit)
}

// editingKey accepts cursor movement, deletion and the characters a time
// can be written with.
func editingKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete, tea.KeyLeft, tea.KeyRight, tea.KeyHome, tea.KeyEnd:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if !strings.ContainsRune("0123456789:.", r) {
				return false
			}
		}
		return len(msg.Runes) > 0
	}
	return false
}

// edited runs after the input text changes. Any active timer is cancelled,
// and clock-looking input flips the dial to End mode.
func (m *dialModel) edited() tea.Cmd {
	var cmds []tea.Cmd
	if m.machine.Phase() != timer.PhaseIdle {
		cmds = append(cmds, m.reset())
	}
	if m.prefs.Mode != dial.ModeEnd && dial.SuggestsEnd(m.input.Value()) {
		m.setMode(dial.ModeEnd)
		cmds = append(cmds, saveSetting(m.store, store.KeyMode, dial.ModeEnd.String()))
	}
	return tea.Batch(cmds...)
}

func (m dialModel) start() (dialModel, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	now := m.clock.Now()
	spec, err := dial.Parse(raw, m.prefs.Mode, now, dial.MaxMinutes)
	if err != nil {
		m.log.Debug("dial: rejected input %q: %v", raw, err)
		return m, errorCmd(fmt.Sprintf("Can't read %q as a time", raw))
	}

	m.stopAlarm()
	if m.machine.Phase() == timer.PhaseCompleted {
		m.machine.Reset()
	}
	if !m.machine.Start(spec, m.prefs.Mode, now) {
		return m, nil
	}

	var target *float64
	if spec.HasTarget {
		t := spec.Target
		target = &t
	}
	run, err := m.store.StartRun(m.prefs.Mode.String(), raw, spec.Total, target, now)
	if err != nil {
		m.log.Error("dial: record run start: %v", err)
	} else {
		m.runID = run.ID
	}

	shown := rewriteInput(raw, spec, m.prefs.Mode, now)
	m.input.SetValue(shown)
	m.input.CursorEnd()
	m.prefs.LastInput = shown
	title := m.titleCmd()
	return m, tea.Batch(saveSetting(m.store, store.KeyLastInput, shown), title)
}

// rewriteInput normalises what the field shows once a timer starts. End
// mode shorthand and capped end times become the real end clock, and
// oversized durations show the cap.
func rewriteInput(raw string, spec dial.TimeSpec, mode dial.Mode, now time.Time) string {
	if mode == dial.ModeEnd {
		if !strings.Contains(raw, ":") || spec.Total >= dial.MaxMinutes {
			return dial.EndClock(now, spec.Total)
		}
		return raw
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v > dial.MaxMinutes {
		return strconv.Itoa(dial.MaxMinutes)
	}
	return raw
}

// reset cancels the timer and closes any open run as cancelled.
func (m *dialModel) reset() tea.Cmd {
	m.stopAlarm()
	if !m.machine.Reset() {
		return nil
	}
	if m.runID != 0 {
		if _, err := m.store.FinishRun(m.runID, store.RunCancelled, m.clock.Now(), false); err != nil {
			m.log.Error("dial: record cancel: %v", err)
		}
		m.runID = 0
	}
	return m.titleCmd()
}

// settle handles completions queued by the machine and keeps the window
// title current.
func (m *dialModel) settle() tea.Cmd {
	var cmds []tea.Cmd
	for _, c := range m.done.drain() {
		if m.runID != 0 {
			if _, err := m.store.FinishRun(m.runID, store.RunCompleted, c.CompletedAt, c.ByWatchdog); err != nil {
				m.log.Error("dial: record completion: %v", err)
			}
			m.runID = 0
		}
		if m.prefs.Sound && m.alarm != nil {
			m.alarm.Ring(m.ctx)
		}
		cmds = append(cmds, statusCmd("Time's up"))
	}
	cmds = append(cmds, m.titleCmd())
	return tea.Batch(cmds...)
}

// titleCmd sets the window title when it changes.
func (m *dialModel) titleCmd() tea.Cmd {
	t := m.windowTitle()
	if t == m.title {
		return nil
	}
	m.title = t
	return tea.SetWindowTitle(t)
}

func (m dialModel) windowTitle() string {
	switch m.machine.Phase() {
	case timer.PhaseRunning, timer.PhasePaused:
		return dial.FormatRemaining(m.machine.Remaining(m.clock.Now())) + " - " + appName
	}
	return appName
}

func (m *dialModel) stopAlarm() {
	if m.alarm != nil && m.alarm.Ringing() {
		m.alarm.Stop()
	}
}

func (m *dialModel) setMode(mode dial.Mode) {
	now := m.clock.Now()
	m.prefs.Mode = mode
	m.machine.SwitchMode(mode, now)
	m.setPlaceholder()
	if m.active() {
		m.input.SetValue(modeInput(mode, m.machine.Remaining(now), now))
		m.input.CursorEnd()
	}
}

// modeInput is what the field shows for a running timer after a mode
// switch: the end clock in End mode, whole minutes left otherwise.
func modeInput(mode dial.Mode, remaining float64, now time.Time) string {
	if mode == dial.ModeEnd {
		return dial.EndClock(now, remaining)
	}
	return strconv.Itoa(int(math.Ceil(remaining)))
}

func (m *dialModel) setPlaceholder() {
	if m.prefs.Mode == dial.ModeEnd {
		m.input.Placeholder = "h:mm"
	} else {
		m.input.Placeholder = "minutes"
	}
}

// applyPrefs takes edits from the settings form. The typed input is kept.
func (m *dialModel) applyPrefs(p store.Preferences) {
	p.LastInput = m.prefs.LastInput
	if p.Mode != m.prefs.Mode {
		m.setMode(p.Mode)
	}
	if !p.Sound {
		m.stopAlarm()
	}
	m.prefs = p
}

func nextMarks(n int) int {
	switch n {
	case 5:
		return 15
	case 15:
		return 0
	}
	return 5
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func saveSetting(s *store.Store, k, v string) tea.Cmd {
	return func() tea.Msg {
		if err := s.SetSetting(k, v); err != nil {
			return statusMsg{text: fmt.Sprintf("Save %s: %v", k, err), isError: true}
		}
		return nil
	}
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

// --- View ---

// scene builds what the face should show right now.
func (m dialModel) scene(now time.Time) dialScene {
	s := dialScene{
		mode:    m.prefs.Mode,
		marks:   m.prefs.Marks,
		palette: paletteFor(m.prefs.Dark),
	}
	digital := m.prefs.Display == dial.DisplayDigital
	frame := dial.Frame{
		Mode:    m.prefs.Mode,
		Now:     now,
		Color:   m.prefs.Color,
		Display: m.prefs.Display,
	}

	var remaining float64
	switch m.machine.Phase() {
	case timer.PhaseCompleted:
		over := m.machine.Overtime(now)
		s.done = &doneFace{
			display: m.prefs.Display,
			color:   m.prefs.Color,
			blinkOn: (over/blinkPeriod)%2 == 0,
		}
		if digital {
			s.center = dial.FormatOvertime(over)
		}
		return s

	case timer.PhaseRunning, timer.PhasePaused:
		remaining = m.machine.Remaining(now)
		frame.Target, _ = m.machine.Target()
		frame.Running = m.machine.Phase() == timer.PhaseRunning

	default:
		// Idle preview of whatever is typed, animated against the clock.
		spec, err := dial.Parse(strings.TrimSpace(m.input.Value()), m.prefs.Mode, now, dial.MaxMinutes)
		if err != nil {
			return s
		}
		remaining = spec.Total
		frame.Target = spec.Target
	}

	s.wedges = dial.Compose(remaining, frame)
	if digital {
		s.center = dial.FormatRemaining(remaining)
	}
	return s
}

func (m dialModel) view() string {
	now := m.clock.Now()

	rows := m.height
	if m.controls {
		rows -= 4
	}
	rows = min(rows, m.width/2)
	face := drawDial(rows, m.scene(now))

	if !m.controls {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, face)
	}

	status := m.statusLine(now)
	settings := mutedStyle.Render(fmt.Sprintf("%s · %s · sound %s · marks %d",
		m.prefs.Mode, m.prefs.Display, onOff(m.prefs.Sound), m.prefs.Marks))

	return lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, face),
		"",
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.input.View()+"  "+status),
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, settings),
	)
}

func (m dialModel) statusLine(now time.Time) string {
	switch m.machine.Phase() {
	case timer.PhaseRunning:
		line := dial.FormatRemaining(m.machine.Remaining(now))
		if t, ok := m.machine.Target(); ok && m.machine.Mode() == dial.ModeEnd {
			if deadline, ok := m.machine.Deadline(); ok {
				line += fmt.Sprintf("  until %s (:%02d)", deadline.Format("15:04"), int(t))
			}
		}
		return timerRunningStyle.Render("● " + line)
	case timer.PhasePaused:
		return timerPausedStyle.Render("⏸ " + dial.FormatRemaining(m.machine.Remaining(now)))
	case timer.PhaseCompleted:
		return timerDoneStyle.Render("✕ " + dial.FormatOvertime(m.machine.Overtime(now)))
	}
	return mutedStyle.Render("enter to start")
}

// active reports whether a countdown is running or paused.
func (m dialModel) active() bool {
	p := m.machine.Phase()
	return p == timer.PhaseRunning || p == timer.PhasePaused
}

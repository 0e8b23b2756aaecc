package tui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/timerpie/internal/alarm"
	"github.com/sadopc/timerpie/internal/dial"
	"github.com/sadopc/timerpie/internal/logger"
	"github.com/sadopc/timerpie/internal/store"
	"github.com/sadopc/timerpie/internal/timer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeDog hands out generations without ever firing on its own.
type fakeDog struct {
	gen uint64
	ch  chan timer.Expiry
}

func (d *fakeDog) Arm(time.Time) uint64 { d.gen++; return d.gen }

func (d *fakeDog) Disarm() { d.gen++ }

func (d *fakeDog) C() <-chan timer.Expiry { return d.ch }

// Sunday 18 October 2026, 10:00 UTC.
var testStart = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestDeps(t *testing.T) (Deps, *fakeClock, *fakeDog) {
	t.Helper()
	clock := &fakeClock{now: testStart}
	dog := &fakeDog{ch: make(chan timer.Expiry, 1)}
	a := alarm.New(alarm.Silent{}, logger.Nop(), alarm.WithInterval(time.Hour))
	t.Cleanup(a.Stop)
	return Deps{
		Store:    newTestStore(t),
		Log:      logger.Nop(),
		Clock:    clock,
		Watchdog: dog,
		Alarm:    a,
		Prefs:    store.DefaultPreferences(),
		Controls: true,
	}, clock, dog
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	spaceKey = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeInto(m dialModel, s string) dialModel {
	for _, r := range s {
		m, _ = m.update(runeKey(string(r)))
	}
	return m
}

func startDial(t *testing.T, m dialModel, input string) dialModel {
	t.Helper()
	m = typeInto(m, input)
	m, _ = m.update(enterKey)
	if m.machine.Phase() != timer.PhaseRunning {
		t.Fatalf("phase after start = %s, want running", m.machine.Phase())
	}
	return m
}

// ============================================================
// Raster
// ============================================================

func TestNewCanvasRows(t *testing.T) {
	if c := newCanvas(20); c.h != 19 || c.w != 38 {
		t.Fatalf("newCanvas(20) = %dx%d, want 38x19", c.w, c.h)
	}
	if c := newCanvas(3); c.h != minRows {
		t.Fatalf("newCanvas(3).h = %d, want %d", c.h, minRows)
	}
}

func TestCanvasPointRoundTrip(t *testing.T) {
	c := newCanvas(21)
	for _, p := range [][2]int{{0, 0}, {21, 10}, {41, 20}, {7, 13}} {
		x, y := c.point(p[0], p[1])
		col, row := c.cellAt(x, y)
		if col != p[0] || row != p[1] {
			t.Fatalf("cell %v round-tripped to (%d,%d)", p, col, row)
		}
	}
}

func TestCanvasSetOutOfBounds(t *testing.T) {
	c := newCanvas(9)
	c.set(-1, 0, 'x', "")
	c.set(0, 99, 'x', "")
	if strings.Contains(c.render(), "x") {
		t.Fatal("out of bounds writes should be dropped")
	}
}

func TestBlend(t *testing.T) {
	if got := blend("#ffffff", "#000000", 1); got != "#ffffff" {
		t.Fatalf("opaque blend = %s", got)
	}
	if got := blend("#ffffff", "#000000", 0); got != "#000000" {
		t.Fatalf("transparent blend = %s", got)
	}
	mid := blend("#ffffff", "#000000", 0.5)
	if mid == "#ffffff" || mid == "#000000" {
		t.Fatalf("half blend = %s, want something in between", mid)
	}
	if got := blend("nope", "#000000", 0.5); got != "nope" {
		t.Fatalf("invalid fg should pass through, got %s", got)
	}
}

func TestFaceLabels(t *testing.T) {
	five := faceLabels(5)
	if len(five) != 12 || five[0] != 5 || five[11] != 60 {
		t.Fatalf("faceLabels(5) = %v", five)
	}
	quarter := faceLabels(15)
	want := []int{15, 30, 45, 60}
	if len(quarter) != len(want) {
		t.Fatalf("faceLabels(15) = %v", quarter)
	}
	for i := range want {
		if quarter[i] != want[i] {
			t.Fatalf("faceLabels(15) = %v", quarter)
		}
	}
	if faceLabels(0) != nil {
		t.Fatal("marks 0 should hide labels")
	}
}

func TestFillAtInnermostWins(t *testing.T) {
	full := dial.Angles{Start: -90, End: 270}
	s := dialScene{
		palette: darkFace,
		wedges: []dial.Wedge{
			{Angles: full, Outer: 180, Fill: "#ff0000", Opacity: 1},
			{Angles: full, Outer: 120, Fill: "#00ff00", Opacity: 1},
		},
	}
	if fg, _ := s.fillAt(50, 0); fg != "#00ff00" {
		t.Fatalf("inner fill = %s", fg)
	}
	if fg, _ := s.fillAt(150, 0); fg != "#ff0000" {
		t.Fatalf("outer fill = %s", fg)
	}
	if _, ok := s.fillAt(170, 0); !ok {
		t.Fatal("point inside the outer ring should be filled")
	}
	s.wedges = s.wedges[1:]
	if _, ok := s.fillAt(150, 0); ok {
		t.Fatal("point outside every wedge should be empty")
	}
}

func TestFillAtPreviewFades(t *testing.T) {
	s := dialScene{
		palette: darkFace,
		wedges:  []dial.Wedge{{Angles: dial.Angles{Start: -90, End: 270}, Outer: 180, Fill: "#ff6b35", Opacity: 0.2}},
	}
	fg, ok := s.fillAt(100, 0)
	if !ok || fg == "#ff6b35" {
		t.Fatalf("preview fill = %s, want faded", fg)
	}
}

func TestFillAtDoneFaces(t *testing.T) {
	digital := dialScene{done: &doneFace{display: dial.DisplayDigital, color: "#ff0000", blinkOn: false}}
	if fg, _ := digital.fillAt(50, 0); fg != "#ff0000" {
		t.Fatalf("digital centre = %s", fg)
	}
	if fg, _ := digital.fillAt(150, 0); fg != dial.Darken("#ff0000", 0.7) {
		t.Fatalf("digital ring off-beat = %s", fg)
	}

	analog := dialScene{done: &doneFace{display: dial.DisplayAnalog, color: "#ff0000", blinkOn: true}}
	if fg, _ := analog.fillAt(150, 0); fg != "#ff0000" {
		t.Fatalf("analog on-beat = %s", fg)
	}
}

func TestDrawDialLabelsAndSize(t *testing.T) {
	out := drawDial(21, dialScene{marks: 5, palette: darkFace})
	lines := strings.Split(out, "\n")
	if len(lines) != 21 {
		t.Fatalf("drawDial rows = %d, want 21", len(lines))
	}
	if !strings.Contains(lines[0], "60") {
		t.Fatalf("60 should sit at the top, got %q", lines[0])
	}
	if !strings.Contains(out, "30") {
		t.Fatal("missing 30 label")
	}
	if strings.ContainsRune(out, fillRune) {
		t.Fatal("empty scene should not paint wedges")
	}
}

func TestDrawDialPaintsWedge(t *testing.T) {
	wedges := dial.Compose(30, dial.Frame{Mode: dial.ModeCCW, Now: testStart, Color: "#ff6b35", Running: true})
	out := drawDial(21, dialScene{wedges: wedges, palette: darkFace})
	if !strings.ContainsRune(out, fillRune) {
		t.Fatal("running wedge not painted")
	}
	if !strings.ContainsRune(out, edgeRune) {
		t.Fatal("partial ring should draw its moving edge")
	}
}

func TestDrawDialCentreText(t *testing.T) {
	out := drawDial(21, dialScene{palette: lightFace, center: "12:34"})
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[10], "12:34") {
		t.Fatalf("centre row = %q", lines[10])
	}
}

// ============================================================
// Dial model
// ============================================================

func TestDialTypingFiltersKeys(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := newDialModel(d)

	m = typeInto(m, "a5z")
	if m.input.Value() != "5" {
		t.Fatalf("input = %q, want 5", m.input.Value())
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyBackspace})
	if m.input.Value() != "" {
		t.Fatalf("input after backspace = %q", m.input.Value())
	}
}

func TestDialTypingClockSwitchesToEnd(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := newDialModel(d)

	m = typeInto(m, "10:30")
	if m.prefs.Mode != dial.ModeEnd {
		t.Fatalf("mode = %s, want end", m.prefs.Mode)
	}
	if m.input.Placeholder != "h:mm" {
		t.Fatalf("placeholder = %q", m.input.Placeholder)
	}
}

func TestDialStartRecordsRun(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := startDial(t, newDialModel(d), "10")

	if m.runID == 0 {
		t.Fatal("run should be recorded")
	}
	run, err := d.Store.GetRun(m.runID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != store.RunRunning || run.Input != "10" || run.TotalMinutes != 10 {
		t.Fatalf("run = %+v", run)
	}
	if !run.StartedAt.Equal(testStart) {
		t.Fatalf("started at %v", run.StartedAt)
	}
}

func TestDialRejectsBadInput(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := newDialModel(d)
	m.input.SetValue("..")

	m, cmd := m.update(enterKey)
	if m.machine.Phase() != timer.PhaseIdle {
		t.Fatal("bad input must not start the timer")
	}
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestDialCompletesOnFrame(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	m := startDial(t, newDialModel(d), "1")
	id := m.runID

	clock.Advance(61 * time.Second)
	m, _ = m.update(frameMsg(clock.Now()))

	if m.machine.Phase() != timer.PhaseCompleted {
		t.Fatalf("phase = %s, want completed", m.machine.Phase())
	}
	if m.runID != 0 {
		t.Fatal("run id should be cleared after completion")
	}
	run, err := d.Store.GetRun(id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != store.RunCompleted || run.ByWatchdog {
		t.Fatalf("run = %+v", run)
	}
	if !run.EndedAt.Equal(testStart.Add(time.Minute)) {
		t.Fatalf("ended at %v, want the deadline", run.EndedAt)
	}
}

func TestDialWatchdogExpiry(t *testing.T) {
	d, clock, dog := newTestDeps(t)
	m := startDial(t, newDialModel(d), "1")
	id := m.runID

	clock.Advance(90 * time.Second)
	m, cmd := m.update(expiryMsg(timer.Expiry{Gen: dog.gen}))
	if cmd == nil {
		t.Fatal("expiry should re-issue the watchdog wait")
	}
	if m.machine.Phase() != timer.PhaseCompleted {
		t.Fatalf("phase = %s, want completed", m.machine.Phase())
	}
	run, _ := d.Store.GetRun(id)
	if !run.ByWatchdog {
		t.Fatal("completion should be attributed to the watchdog")
	}
}

func TestDialStaleExpiryIgnored(t *testing.T) {
	d, _, dog := newTestDeps(t)
	m := startDial(t, newDialModel(d), "5")

	m, _ = m.update(expiryMsg(timer.Expiry{Gen: dog.gen + 7}))
	if m.machine.Phase() != timer.PhaseRunning {
		t.Fatalf("phase = %s, want running", m.machine.Phase())
	}
}

func TestDialResetCancelsRun(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	m := startDial(t, newDialModel(d), "10")
	id := m.runID

	clock.Advance(2 * time.Minute)
	m, _ = m.update(escKey)
	if m.machine.Phase() != timer.PhaseIdle {
		t.Fatalf("phase = %s, want idle", m.machine.Phase())
	}
	run, _ := d.Store.GetRun(id)
	if run.Status != store.RunCancelled {
		t.Fatalf("status = %s, want cancelled", run.Status)
	}
	if run.Elapsed() != 2*time.Minute {
		t.Fatalf("elapsed = %v", run.Elapsed())
	}
}

func TestDialEditResetsTimer(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := startDial(t, newDialModel(d), "10")
	id := m.runID

	m = typeInto(m, "5")
	if m.machine.Phase() != timer.PhaseIdle {
		t.Fatalf("phase = %s, want idle after edit", m.machine.Phase())
	}
	run, _ := d.Store.GetRun(id)
	if run.Status != store.RunCancelled {
		t.Fatalf("status = %s, want cancelled", run.Status)
	}
}

func TestDialPauseResume(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	m := startDial(t, newDialModel(d), "10")

	clock.Advance(3 * time.Minute)
	m, _ = m.update(spaceKey)
	if m.machine.Phase() != timer.PhasePaused {
		t.Fatalf("phase = %s, want paused", m.machine.Phase())
	}

	clock.Advance(time.Hour)
	m, _ = m.update(enterKey)
	if m.machine.Phase() != timer.PhaseRunning {
		t.Fatalf("phase = %s, want running", m.machine.Phase())
	}
	if got := m.machine.Remaining(clock.Now()); got != 7 {
		t.Fatalf("remaining = %v, want 7", got)
	}
}

func TestDialEndModeCannotPause(t *testing.T) {
	d, _, _ := newTestDeps(t)
	d.Prefs.Mode = dial.ModeEnd
	m := startDial(t, newDialModel(d), "30")

	if m.input.Value() != "10:30" {
		t.Fatalf("input = %q, want rewritten to 10:30", m.input.Value())
	}
	m, cmd := m.update(spaceKey)
	if m.machine.Phase() != timer.PhaseRunning {
		t.Fatal("end mode must not pause")
	}
	if cmd == nil {
		t.Fatal("expected a status explaining why")
	}
}

func TestDialModeKeyCyclesAndSaves(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := newDialModel(d)

	m, cmd := m.update(runeKey("m"))
	if m.prefs.Mode != dial.ModeCW {
		t.Fatalf("mode = %s, want cw", m.prefs.Mode)
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("save returned %#v", msg)
	}
	v, err := d.Store.GetSetting(store.KeyMode)
	if err != nil || v != "cw" {
		t.Fatalf("stored mode = %q, %v", v, err)
	}

	m, _ = m.update(runeKey("m"))
	m, _ = m.update(runeKey("m"))
	if m.prefs.Mode != dial.ModeCCW {
		t.Fatalf("mode after full cycle = %s", m.prefs.Mode)
	}
}

func TestDialModeSwitchRewritesRunningInput(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	m := startDial(t, newDialModel(d), "20")
	clock.Advance(5*time.Minute + 30*time.Second)

	m, _ = m.update(runeKey("m"))
	m, _ = m.update(runeKey("m"))
	if m.prefs.Mode != dial.ModeEnd {
		t.Fatalf("mode = %s, want end", m.prefs.Mode)
	}
	if m.machine.Phase() != timer.PhaseRunning {
		t.Fatalf("mode switch stopped the timer: %s", m.machine.Phase())
	}
	if got := m.input.Value(); got != "10:20" {
		t.Fatalf("input = %q, want end clock 10:20", got)
	}

	m, _ = m.update(runeKey("m"))
	if got := m.input.Value(); got != "15" {
		t.Fatalf("input = %q, want 15 minutes left", got)
	}
	if m.machine.Phase() != timer.PhaseRunning {
		t.Fatalf("phase = %s, want running", m.machine.Phase())
	}
}

func TestModeInput(t *testing.T) {
	if got := modeInput(dial.ModeCW, 14.2, testStart); got != "15" {
		t.Fatalf("modeInput cw = %q, want 15", got)
	}
	if got := modeInput(dial.ModeEnd, 65, testStart); got != "11:05" {
		t.Fatalf("modeInput end = %q, want 11:05", got)
	}
}

func TestDialToggleKeys(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := newDialModel(d)

	m, _ = m.update(runeKey("d"))
	m, _ = m.update(runeKey("t"))
	m, _ = m.update(runeKey("b"))
	m, _ = m.update(runeKey("s"))

	if m.prefs.Display != dial.DisplayDigital {
		t.Fatal("d should switch to digital")
	}
	if m.prefs.Marks != 15 {
		t.Fatalf("marks = %d, want 15", m.prefs.Marks)
	}
	if !m.prefs.Dark || !m.prefs.Sound {
		t.Fatal("b and s should toggle dark and sound on")
	}
}

func TestDialAlarmRingsAndStops(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	d.Prefs.Sound = true
	m := startDial(t, newDialModel(d), "1")

	clock.Advance(61 * time.Second)
	m, _ = m.update(frameMsg(clock.Now()))
	if !m.alarm.Ringing() {
		t.Fatal("alarm should ring on completion")
	}

	m, _ = m.update(escKey)
	if m.alarm.Ringing() {
		t.Fatal("reset should silence the alarm")
	}
}

func TestDialWindowTitle(t *testing.T) {
	d, _, _ := newTestDeps(t)
	m := newDialModel(d)
	if got := m.windowTitle(); got != appName {
		t.Fatalf("idle title = %q", got)
	}
	m = startDial(t, m, "10")
	if got := m.windowTitle(); got != "10:00 - "+appName {
		t.Fatalf("running title = %q", got)
	}
}

func TestDialScenePreviewIsDimmed(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	m := typeInto(newDialModel(d), "20")

	s := m.scene(clock.Now())
	if len(s.wedges) != 1 || s.wedges[0].Opacity != 0.2 {
		t.Fatalf("preview wedges = %+v", s.wedges)
	}

	m, _ = m.update(enterKey)
	s = m.scene(clock.Now())
	if len(s.wedges) != 1 || s.wedges[0].Opacity != 1 {
		t.Fatalf("running wedges = %+v", s.wedges)
	}
}

func TestDialSceneCompletedDigital(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	d.Prefs.Display = dial.DisplayDigital
	m := startDial(t, newDialModel(d), "1")

	clock.Advance(65 * time.Second)
	m, _ = m.update(frameMsg(clock.Now()))

	s := m.scene(clock.Now())
	if s.done == nil {
		t.Fatal("completed scene should use the done face")
	}
	if s.center != "-0:05" {
		t.Fatalf("overtime = %q, want -0:05", s.center)
	}
	if !strings.Contains(m.view(), "-0:05") {
		t.Fatal("view should show overtime")
	}
}

func TestDialAutostart(t *testing.T) {
	d, _, _ := newTestDeps(t)
	d.Prefs.LastInput = "15"
	d.Autostart = true
	m := newDialModel(d)

	m, _ = m.update(autostartMsg{})
	if m.machine.Phase() != timer.PhaseRunning || m.machine.Total() != 15 {
		t.Fatalf("autostart phase = %s total = %v", m.machine.Phase(), m.machine.Total())
	}
}

func TestRewriteInput(t *testing.T) {
	tests := []struct {
		raw  string
		mode dial.Mode
		spec dial.TimeSpec
		want string
	}{
		{"30", dial.ModeEnd, dial.TimeSpec{Total: 30}, "10:30"},
		{"10:45", dial.ModeEnd, dial.TimeSpec{Total: 45}, "10:45"},
		{"9:30", dial.ModeEnd, dial.TimeSpec{Total: 180}, "13:00"},
		{"500", dial.ModeCCW, dial.TimeSpec{Total: 180}, "180"},
		{"25", dial.ModeCW, dial.TimeSpec{Total: 25}, "25"},
	}
	for _, tt := range tests {
		if got := rewriteInput(tt.raw, tt.spec, tt.mode, testStart); got != tt.want {
			t.Fatalf("rewriteInput(%q, %s) = %q, want %q", tt.raw, tt.mode, got, tt.want)
		}
	}
}

func TestEditingKey(t *testing.T) {
	if !editingKey(runeKey("12:3.")) {
		t.Fatal("time characters should be accepted")
	}
	if editingKey(runeKey("1a")) {
		t.Fatal("letters should be rejected")
	}
	if !editingKey(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("backspace should be accepted")
	}
	if editingKey(tea.KeyMsg{Type: tea.KeyUp}) {
		t.Fatal("up should be rejected")
	}
}

func TestNextMarks(t *testing.T) {
	for in, want := range map[int]int{5: 15, 15: 0, 0: 5} {
		if got := nextMarks(in); got != want {
			t.Fatalf("nextMarks(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCompletionSinkDrain(t *testing.T) {
	s := &completionSink{}
	s.add(timer.Completion{Total: 1})
	s.add(timer.Completion{Total: 2})
	if got := s.drain(); len(got) != 2 {
		t.Fatalf("drain = %d completions", len(got))
	}
	if got := s.drain(); len(got) != 0 {
		t.Fatal("second drain should be empty")
	}
}

// ============================================================
// History
// ============================================================

func TestHistoryDateRange(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	h := newHistoryModel(d.Store, clock)

	from, to := h.dateRange()
	if !from.Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily range = %v..%v", from, to)
	}

	h.mode = historyWeekly
	from, to = h.dateRange()
	if from.Weekday() != time.Monday || to.Sub(from) != 7*24*time.Hour {
		t.Fatalf("weekly range = %v..%v", from, to)
	}

	h.offset = 1
	prev, _ := h.dateRange()
	if !prev.Equal(from.AddDate(0, 0, -7)) {
		t.Fatalf("previous week starts %v", prev)
	}
}

func TestHistoryRefresh(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	start := clock.Now().Add(-time.Hour)
	run, err := d.Store.StartRun("ccw", "10", 10, nil, start)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Store.FinishRun(run.ID, store.RunCompleted, start.Add(10*time.Minute), false); err != nil {
		t.Fatal(err)
	}

	h := newHistoryModel(d.Store, clock)
	h.setSize(120, 40)
	msg := h.refresh()().(historyDataMsg)
	if msg.err != nil {
		t.Fatal(msg.err)
	}
	if len(msg.totals) != 1 || msg.totals[0].Minutes != 10 {
		t.Fatalf("totals = %+v", msg.totals)
	}
	if len(msg.recent) != 1 {
		t.Fatalf("recent = %d runs", len(msg.recent))
	}

	h, _ = h.update(msg)
	out := h.view()
	for _, want := range []string{"History", "1 completed", "1 hour ago"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history view missing %q", want)
		}
	}
}

func TestHistoryEmpty(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	h := newHistoryModel(d.Store, clock)
	h.setSize(120, 40)
	h, _ = h.update(h.refresh()())

	if !strings.Contains(h.view(), "No runs") {
		t.Fatal("empty history should say so")
	}
}

func TestHistoryKeys(t *testing.T) {
	d, clock, _ := newTestDeps(t)
	h := newHistoryModel(d.Store, clock)

	h, _ = h.update(tea.KeyMsg{Type: tea.KeyLeft})
	if h.offset != 1 {
		t.Fatalf("offset = %d, want 1", h.offset)
	}
	h, _ = h.update(tea.KeyMsg{Type: tea.KeyRight})
	h, _ = h.update(tea.KeyMsg{Type: tea.KeyRight})
	if h.offset != 0 {
		t.Fatalf("offset = %d, want 0", h.offset)
	}

	h.offset = 3
	h, _ = h.update(runeKey("m"))
	if h.mode != historyWeekly || h.offset != 0 {
		t.Fatalf("mode = %d offset = %d", h.mode, h.offset)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsCollect(t *testing.T) {
	d, _, _ := newTestDeps(t)
	s := newSettingsModel(d.Store, d.Prefs)
	*s.color = " #00AAFF "
	*s.mode = "end"
	*s.display = "digital"
	*s.marks = "15"
	*s.dark = true
	*s.sound = true

	p, err := s.collect()
	if err != nil {
		t.Fatal(err)
	}
	if p.Color != "#00aaff" || p.Mode != dial.ModeEnd || p.Display != dial.DisplayDigital || p.Marks != 15 || !p.Dark || !p.Sound {
		t.Fatalf("collected %+v", p)
	}
}

func TestSettingsSave(t *testing.T) {
	d, _, _ := newTestDeps(t)
	s := newSettingsModel(d.Store, d.Prefs)
	s, _ = s.showForm()
	*s.mode = "cw"

	msg, ok := s.saveSettings()().(prefsChangedMsg)
	if !ok {
		t.Fatal("save should report the new preferences")
	}
	if msg.prefs.Mode != dial.ModeCW {
		t.Fatalf("mode = %s", msg.prefs.Mode)
	}
	stored, err := d.Store.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if stored.Mode != dial.ModeCW {
		t.Fatalf("stored mode = %s", stored.Mode)
	}
}

func TestSettingsSaveRejectsBadMarks(t *testing.T) {
	d, _, _ := newTestDeps(t)
	s := newSettingsModel(d.Store, d.Prefs)
	s, _ = s.showForm()
	*s.marks = "7"

	msg, ok := s.saveSettings()().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestSettingsFormEscape(t *testing.T) {
	d, _, _ := newTestDeps(t)
	s := newSettingsModel(d.Store, d.Prefs)
	s, _ = s.update(enterKey)
	if !s.formActive || s.form == nil {
		t.Fatal("enter should open the form")
	}
	s, _ = s.update(escKey)
	if s.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestValidateColor(t *testing.T) {
	if validateColor("#ff6b35") != nil {
		t.Fatal("valid colour rejected")
	}
	if validateColor("orange") == nil {
		t.Fatal("named colour accepted")
	}
}

func TestSettingsView(t *testing.T) {
	d, _, _ := newTestDeps(t)
	s := newSettingsModel(d.Store, d.Prefs)
	s.setSize(100, 30)
	out := s.view()
	for _, want := range []string{"Rotation", "ccw", "every 5 min"} {
		if !strings.Contains(out, want) {
			t.Fatalf("settings view missing %q", want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) (App, Deps, *fakeClock) {
	t.Helper()
	d, clock, _ := newTestDeps(t)
	app := NewApp(d)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(App), d, clock
}

func TestNewApp(t *testing.T) {
	d, _, _ := newTestDeps(t)
	app := NewApp(d)

	if app.activeView != viewDial {
		t.Fatal("default view should be the dial")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("help and export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	d, _, _ := newTestDeps(t)
	if out := NewApp(d).View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestAppViewStates(t *testing.T) {
	app, _, _ := newTestApp(t)
	for v := range viewNames {
		app.activeView = viewState(v)
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _, _ := newTestApp(t)
	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _, _ := newTestApp(t)
	model, _ := app.Update(statusMsg{text: "disk full", isError: true})
	app = model.(App)
	if !app.statusError {
		t.Fatal("error status not flagged")
	}
	if !strings.Contains(app.renderFooter(), "disk full") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppTabCycling(t *testing.T) {
	app, _, _ := newTestApp(t)

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(App)
	if app.activeView != viewHistory {
		t.Fatalf("view = %d, want history", app.activeView)
	}
	if cmd == nil {
		t.Fatal("history should refresh on entry")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyF3})
	app = model.(App)
	if app.activeView != viewSettings {
		t.Fatalf("view = %d, want settings", app.activeView)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.(App).activeView != viewDial {
		t.Fatal("tab should wrap to the dial")
	}
}

func TestAppTimerRunsInOtherViews(t *testing.T) {
	app, _, clock := newTestApp(t)
	app.dial = startDial(t, app.dial, "1")

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyF2})
	app = model.(App)
	if !strings.Contains(app.renderFooter(), "●") {
		t.Fatal("footer should show the running countdown")
	}

	clock.Advance(2 * time.Minute)
	model, _ = app.Update(frameMsg(clock.Now()))
	app = model.(App)
	if app.dial.machine.Phase() != timer.PhaseCompleted {
		t.Fatal("frames must reach the dial from any view")
	}
}

func TestAppPrefsChanged(t *testing.T) {
	app, _, _ := newTestApp(t)
	p := store.DefaultPreferences()
	p.Mode = dial.ModeEnd
	p.Color = "#00ff00"

	model, _ := app.Update(prefsChangedMsg{prefs: p})
	app = model.(App)
	if app.dial.prefs.Mode != dial.ModeEnd || app.dial.prefs.Color != "#00ff00" {
		t.Fatalf("dial prefs = %+v", app.dial.prefs)
	}
	if app.status != "Settings saved" {
		t.Fatalf("status = %q", app.status)
	}
}

func TestAppExportPicker(t *testing.T) {
	app, _, _ := newTestApp(t)

	model, _ := app.Update(runeKey("e"))
	app = model.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	if !strings.Contains(app.View(), "Export History") {
		t.Fatal("picker not rendered")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = model.(App)
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}

	model, _ = app.Update(escKey)
	if model.(App).exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestAppWithoutControls(t *testing.T) {
	d, _, _ := newTestDeps(t)
	d.Controls = false
	model, _ := NewApp(d).Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	out := model.(App).View()
	if strings.Contains(out, "History") {
		t.Fatal("header should be hidden without controls")
	}
}

// ============================================================
// Helpers, keys and styles
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{90 * time.Second, "00:01:30"},
		{2*time.Hour + 5*time.Minute, "02:05:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
	if got := formatMinutes(1.5); got != "00:01:30" {
		t.Fatalf("formatMinutes(1.5) = %q", got)
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 3 {
		t.Fatalf("expected 3 view names, got %d", len(viewNames))
	}
	if viewNames[viewDial] != "Timer" || viewNames[viewSettings] != "Settings" {
		t.Fatalf("unexpected view names %v", viewNames)
	}
}

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
	for i, g := range keys.FullHelp() {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

func TestPaletteFor(t *testing.T) {
	if paletteFor(true) != darkFace || paletteFor(false) != lightFace {
		t.Fatal("paletteFor picked the wrong face")
	}
}

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timerRunning", func() string { return timerRunningStyle.Render("test") }},
		{"timerPaused", func() string { return timerPausedStyle.Render("test") }},
		{"timerDone", func() string { return timerDoneStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timerpie/internal/dial"
	"github.com/sadopc/timerpie/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	prefs      store.Preferences
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	color   *string
	mode    *string
	marks   *string
	display *string
	dark    *bool
	sound   *bool
}

func newSettingsModel(s *store.Store, p store.Preferences) settingsModel {
	c, m, mk, d := "", "", "", ""
	dk, snd := false, false
	return settingsModel{
		store:   s,
		prefs:   p,
		color:   &c,
		mode:    &m,
		marks:   &mk,
		display: &d,
		dark:    &dk,
		sound:   &snd,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case prefsChangedMsg:
		s.prefs = msg.prefs
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

// sync follows changes made from the dial's shortcut keys.
func (s *settingsModel) sync(p store.Preferences) {
	if !s.formActive {
		s.prefs = p
	}
}

func validateColor(v string) error {
	if !dial.ValidColor(strings.TrimSpace(v)) {
		return errors.New("use #rrggbb")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.color = s.prefs.Color
	*s.mode = s.prefs.Mode.String()
	*s.marks = strconv.Itoa(s.prefs.Marks)
	*s.display = s.prefs.Display.String()
	*s.dark = s.prefs.Dark
	*s.sound = s.prefs.Sound

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Colour").
				Description("Wedge colour as #rrggbb").
				Validate(validateColor).
				Value(s.color),
			huh.NewSelect[string]().Title("Rotation").
				Options(
					huh.NewOption("Counter-clockwise", "ccw"),
					huh.NewOption("Clockwise", "cw"),
					huh.NewOption("End at a clock time", "end"),
				).Value(s.mode),
			huh.NewSelect[string]().Title("Face").
				Options(
					huh.NewOption("Analog", "analog"),
					huh.NewOption("Digital", "digital"),
				).Value(s.display),
		).Title("Dial"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Labels").
				Options(
					huh.NewOption("Every 5 minutes", "5"),
					huh.NewOption("Every 15 minutes", "15"),
					huh.NewOption("None", "0"),
				).Value(s.marks),
			huh.NewConfirm().Title("Dark background").Value(s.dark),
			huh.NewConfirm().Title("Beep when done").Value(s.sound),
		).Title("Appearance"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.saveSettings()
	}

	return s, cmd
}

// collect turns the form values back into Preferences.
func (s settingsModel) collect() (store.Preferences, error) {
	p := s.prefs
	p.Color = strings.ToLower(strings.TrimSpace(*s.color))
	mode, err := dial.ParseMode(*s.mode)
	if err != nil {
		return p, err
	}
	p.Mode = mode
	display, err := dial.ParseDisplay(*s.display)
	if err != nil {
		return p, err
	}
	p.Display = display
	marks, err := strconv.Atoi(*s.marks)
	if err != nil {
		return p, fmt.Errorf("marks %q: %w", *s.marks, dial.ErrInvalidInput)
	}
	p.Marks = marks
	p.Dark = *s.dark
	p.Sound = *s.sound
	return p, nil
}

func (s settingsModel) saveSettings() tea.Cmd {
	p, err := s.collect()
	if err != nil {
		return errorCmd(fmt.Sprintf("Settings: %v", err))
	}
	return func() tea.Msg {
		if err := s.store.SavePreferences(p); err != nil {
			return statusMsg{text: fmt.Sprintf("Save settings: %v", err), isError: true}
		}
		return prefsChangedMsg{prefs: p}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	title := titleStyle.Render("Settings")
	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.prefs.Color)).Render("●")
	for _, kv := range [][2]string{
		{"Colour", swatch + " " + s.prefs.Color},
		{"Rotation", s.prefs.Mode.String()},
		{"Face", s.prefs.Display.String()},
		{"Labels", marksLabel(s.prefs.Marks)},
		{"Dark background", yesNo(s.prefs.Dark)},
		{"Beep when done", yesNo(s.prefs.Sound)},
	} {
		label := lipgloss.NewStyle().Width(18).Render(kv[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(kv[1])))
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func marksLabel(n int) string {
	if n == 0 {
		return "none"
	}
	return fmt.Sprintf("every %d min", n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

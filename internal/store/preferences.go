package store

import (
	"fmt"
	"strconv"

	"github.com/sadopc/timerpie/internal/dial"
)

// Setting keys.
const (
	KeyColor     = "color"
	KeyMode      = "mode"
	KeyMarks     = "marks"
	KeyDark      = "dark"
	KeySound     = "sound"
	KeyDisplay   = "display"
	KeyLastInput = "last_input"
)

// Preferences is the typed view of the settings table.
type Preferences struct {
	Color     string
	Mode      dial.Mode
	Marks     int
	Dark      bool
	Sound     bool
	Display   dial.Display
	LastInput string
}

// DefaultPreferences matches the seeded settings rows.
func DefaultPreferences() Preferences {
	return Preferences{
		Color:   "#ff6b35",
		Mode:    dial.ModeCCW,
		Marks:   5,
		Display: dial.DisplayAnalog,
	}
}

// ValidMarks reports whether n is a supported tick spacing. Zero hides
// labels entirely.
func ValidMarks(n int) bool {
	return n == 0 || n == 5 || n == 15
}

// LoadPreferences reads the settings table. Rows that fail validation fall
// back to their defaults instead of failing the load.
func (s *Store) LoadPreferences() (Preferences, error) {
	settings, err := s.GetAllSettings()
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	p := DefaultPreferences()
	for _, kv := range settings {
		switch kv.Key {
		case KeyColor:
			if dial.ValidColor(kv.Value) {
				p.Color = kv.Value
			}
		case KeyMode:
			if m, err := dial.ParseMode(kv.Value); err == nil {
				p.Mode = m
			}
		case KeyMarks:
			if n, err := strconv.Atoi(kv.Value); err == nil && ValidMarks(n) {
				p.Marks = n
			}
		case KeyDark:
			p.Dark = kv.Value == "1"
		case KeySound:
			p.Sound = kv.Value == "on"
		case KeyDisplay:
			if d, err := dial.ParseDisplay(kv.Value); err == nil {
				p.Display = d
			}
		case KeyLastInput:
			p.LastInput = dial.SanitizeInput(kv.Value)
		}
	}
	return p, nil
}

// SavePreferences writes every preference in one transaction.
func (s *Store) SavePreferences(p Preferences) error {
	if !dial.ValidColor(p.Color) {
		return fmt.Errorf("save preferences: color %q: %w", p.Color, dial.ErrInvalidInput)
	}
	if !ValidMarks(p.Marks) {
		return fmt.Errorf("save preferences: marks %d: %w", p.Marks, dial.ErrInvalidInput)
	}

	dark, sound := "0", "off"
	if p.Dark {
		dark = "1"
	}
	if p.Sound {
		sound = "on"
	}
	rows := []Setting{
		{KeyColor, p.Color},
		{KeyMode, p.Mode.String()},
		{KeyMarks, strconv.Itoa(p.Marks)},
		{KeyDark, dark},
		{KeySound, sound},
		{KeyDisplay, p.Display.String()},
		{KeyLastInput, dial.SanitizeInput(p.LastInput)},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	defer tx.Rollback()

	for _, kv := range rows {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			kv.Key, kv.Value,
		); err != nil {
			return fmt.Errorf("save preference %q: %w", kv.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

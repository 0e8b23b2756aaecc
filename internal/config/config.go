// Package config turns flags and TIMERPIE_* environment variables into a
// session Config. Flag values override stored preferences for one session
// and are never written back.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/timerpie/internal/dial"
	"github.com/sadopc/timerpie/internal/logger"
	"github.com/sadopc/timerpie/internal/store"
)

// EnvPrefix namespaces environment overrides, e.g. TIMERPIE_MODE=end.
const EnvPrefix = "TIMERPIE"

// ErrInvalidFlag is returned when a flag value fails validation.
var ErrInvalidFlag = errors.New("invalid flag value")

// Config is the parsed command line.
type Config struct {
	Color     string
	Mode      string
	Marks     int
	Dark      bool
	Sound     bool
	Display   string
	Time      string
	Autostart bool
	Controls  bool

	DBPath  string
	LogFile string
	Verbose bool
	Quiet   bool

	set map[string]bool
}

// register binds the shared flags to fs. Every command gets the same set so
// flags work before or after the subcommand name.
func (c *Config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Color, "color", "", "dial colour as #rrggbb")
	fs.StringVar(&c.Mode, "mode", "", "rotation: ccw, cw or end")
	fs.IntVar(&c.Marks, "marks", 5, "label spacing in minutes: 0, 5 or 15")
	fs.BoolVar(&c.Dark, "dark", false, "dark background")
	fs.BoolVar(&c.Sound, "sound", false, "beep on completion")
	fs.StringVar(&c.Display, "display", "", "analog or digital")
	fs.StringVar(&c.Time, "time", "", "prefill the time input")
	fs.BoolVar(&c.Autostart, "autostart", false, "start the prefilled time immediately")
	fs.BoolVar(&c.Controls, "controls", true, "show the input and help footer")

	fs.StringVar(&c.DBPath, "db", "", "database path (default <config dir>/timerpie/timerpie.db)")
	fs.StringVar(&c.LogFile, "log-file", "", "log path (default <config dir>/timerpie/timerpie.log)")
	fs.BoolVar(&c.Verbose, "verbose", false, "debug logging")
	fs.BoolVar(&c.Quiet, "quiet", false, "disable logging")
}

// capture records which flags were given explicitly, whether on the
// command line or through the environment.
func (c *Config) capture(fs *flag.FlagSet) {
	if c.set == nil {
		c.set = map[string]bool{}
	}
	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })
}

// IsSet reports whether name was given explicitly.
func (c *Config) IsSet(name string) bool {
	return c.set[name]
}

// Validate checks every explicitly set preference flag.
func (c *Config) Validate() error {
	if c.IsSet("color") && !dial.ValidColor(normalizeColor(c.Color)) {
		return fmt.Errorf("--color %q: %w", c.Color, ErrInvalidFlag)
	}
	if c.IsSet("mode") {
		if _, err := dial.ParseMode(c.Mode); err != nil {
			return fmt.Errorf("--mode %q: %w", c.Mode, ErrInvalidFlag)
		}
	}
	if c.IsSet("marks") && !store.ValidMarks(c.Marks) {
		return fmt.Errorf("--marks %d: %w", c.Marks, ErrInvalidFlag)
	}
	if c.IsSet("display") {
		if _, err := dial.ParseDisplay(c.Display); err != nil {
			return fmt.Errorf("--display %q: %w", c.Display, ErrInvalidFlag)
		}
	}
	if c.IsSet("time") && dial.SanitizeInput(c.Time) == "" {
		return fmt.Errorf("--time %q: %w", c.Time, ErrInvalidFlag)
	}
	if c.Verbose && c.Quiet {
		return fmt.Errorf("--verbose with --quiet: %w", ErrInvalidFlag)
	}
	return nil
}

// normalizeColor accepts the colour with or without its leading '#'.
func normalizeColor(s string) string {
	if len(s) == 6 {
		return "#" + s
	}
	return s
}

// Apply overlays explicitly set flags on stored preferences. Call Validate
// first; invalid values are skipped here.
func (c *Config) Apply(p store.Preferences) store.Preferences {
	if c.IsSet("color") {
		if col := normalizeColor(c.Color); dial.ValidColor(col) {
			p.Color = col
		}
	}
	if c.IsSet("mode") {
		if m, err := dial.ParseMode(c.Mode); err == nil {
			p.Mode = m
		}
	}
	if c.IsSet("marks") && store.ValidMarks(c.Marks) {
		p.Marks = c.Marks
	}
	if c.IsSet("dark") {
		p.Dark = c.Dark
	}
	if c.IsSet("sound") {
		p.Sound = c.Sound
	}
	if c.IsSet("display") {
		if d, err := dial.ParseDisplay(c.Display); err == nil {
			p.Display = d
		}
	}
	if c.IsSet("time") {
		if t := dial.SanitizeInput(c.Time); t != "" {
			p.LastInput = t
		}
	}
	return p
}

// LogLevel maps --verbose and --quiet onto a logger level.
func (c *Config) LogLevel() logger.Level {
	switch {
	case c.Quiet:
		return logger.LevelOff
	case c.Verbose:
		return logger.LevelVerbose
	default:
		return logger.LevelNormal
	}
}

// ResolveDBPath returns --db or the default database location.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	return store.DefaultDBPath()
}

// ResolveLogPath returns --log-file or a log next to the default database.
func (c *Config) ResolveLogPath() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "timerpie", "timerpie.log"), nil
}

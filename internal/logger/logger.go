// Package logger is a small leveled logger. The TUI owns the terminal, so
// output normally goes to a file. Safe for concurrent use; the watchdog and
// the alarm log from their own goroutines.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Level controls verbosity.
type Level int

const (
	// LevelOff disables all output.
	LevelOff Level = iota
	// LevelNormal enables info, warn and error.
	LevelNormal
	// LevelVerbose adds debug.
	LevelVerbose
)

// Logger writes prefixed, timestamped lines.
type Logger struct {
	mu     sync.RWMutex
	level  Level
	out    *log.Logger
	closer io.Closer
}

// New creates a logger writing to out. A nil out means os.Stderr.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		level: level,
		out:   log.New(out, "", log.Ltime|log.Lmicroseconds),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(LevelOff, io.Discard)
}

// Open creates a logger appending to the file at path, creating parent
// directories as needed. Close releases the file.
func Open(path string, level Level) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(level, f)
	l.closer = f
	return l, nil
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current level.
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) logf(at Level, prefix, format string, args []any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level >= at {
		l.out.Output(3, prefix+fmt.Sprintf(format, args...))
	}
}

// Debug logs only in verbose mode.
func (l *Logger) Debug(format string, args ...any) { l.logf(LevelVerbose, "[DBG] ", format, args) }

// Info logs at normal level.
func (l *Logger) Info(format string, args ...any) { l.logf(LevelNormal, "[INF] ", format, args) }

// Warn logs at normal level.
func (l *Logger) Warn(format string, args ...any) { l.logf(LevelNormal, "[WRN] ", format, args) }

// Error logs at normal level.
func (l *Logger) Error(format string, args ...any) { l.logf(LevelNormal, "[ERR] ", format, args) }

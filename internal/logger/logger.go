// Package logger provides the leveled, prefixed logger used across the
// enforcement daemon and CLI. Output goes to stderr so script output and
// API responses stay clean.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level represents log verbosity, most verbose first.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu      sync.RWMutex
	level   = LevelInfo
	colored = true
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var levelStyles = map[Level]lipgloss.Style{
	LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("#7E9CD8")),
	LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#6A9589")),
	LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#98BB6C")),
	LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E6C384")),
	LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#E46876")),
}

var faint = lipgloss.NewStyle().Faint(true)

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
}

// SetLevel sets the global log level.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetLevelFromString sets the global log level, ignoring unknown values.
func SetLevelFromString(s string) {
	if l, err := ParseLevel(s); err == nil {
		SetLevel(l)
	}
}

// SetColored enables or disables colored output.
func SetColored(on bool) {
	mu.Lock()
	defer mu.Unlock()
	colored = on
}

// Logger is a named logger; the prefix identifies the subsystem.
type Logger struct {
	prefix string
}

// New creates a logger with the given subsystem prefix.
func New(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

func (l *Logger) log(lv Level, format string, args ...any) {
	mu.RLock()
	min, useColor := level, colored
	mu.RUnlock()
	if lv < min {
		return
	}

	ts := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	name := levelNames[lv]

	if useColor {
		fmt.Fprintf(os.Stderr, "%s %s %s %s\n",
			faint.Render(ts),
			levelStyles[lv].Render("["+name+"]"),
			faint.Render("["+l.prefix+"]"),
			msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s [%s] [%s] %s\n", ts, name, l.prefix, msg)
}

// Trace logs at trace level (most verbose).
func (l *Logger) Trace(format string, args ...any) { l.log(LevelTrace, format, args...) }

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

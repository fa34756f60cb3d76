// Package tui holds shared terminal styling and the interactive catalog
// browser. Everything degrades to plain text when not attached to a
// capable terminal.
package tui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// plainMode disables all styling: no colors, no icons, no interactivity.
var (
	plainMode bool
	plainOnce sync.Once
	plainMu   sync.RWMutex
)

// initPlainMode auto-detects plain mode from environment on first call.
// Precedence: NO_COLOR > TTY detection.
func initPlainMode() {
	plainOnce.Do(func() {
		// NO_COLOR wins — https://no-color.org
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			plainMode = true
			return
		}
		// Not a terminal (piped, redirected, daemon) → plain mode
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			plainMode = true
		}
	})
}

// SetPlainMode explicitly enables or disables plain mode. Call this early
// (e.g. when parsing --no-color) before any styled output.
func SetPlainMode(plain bool) {
	plainMu.Lock()
	defer plainMu.Unlock()
	plainMode = plain
	// Mark as initialized so auto-detect doesn't override
	plainOnce.Do(func() {})
}

// IsPlainMode returns true if styling is disabled.
func IsPlainMode() bool {
	initPlainMode()
	plainMu.RLock()
	defer plainMu.RUnlock()
	return plainMode
}

// Color palette — cool steel tones. Adapts to OS theme.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1D4E89", Dark: "#7AA2F7"}
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#3B6EA5", Dark: "#89B4FA"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#3A6B35", Dark: "#9ECE6A"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#9E2B25", Dark: "#F7768E"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#E0AF68"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#565F89"}
)

// Reusable styles.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold    = lipgloss.NewStyle().Bold(true)
)

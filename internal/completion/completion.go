// Package completion provides CLI tab-completion for scriptsec.
//
// The binary itself handles completions: when invoked with COMP_LINE set
// (by the shell), it outputs matching completions and exits.
// Works across bash, zsh, and fish with a one-time install.
package completion

import (
	"os"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/install"
	"github.com/posener/complete/v2/predict"
)

// command defines the full scriptsec CLI completion tree.
var command = &complete.Command{
	Sub: map[string]*complete.Command{
		"serve": {
			Flags: map[string]complete.Predictor{
				"config":          predict.Files("*.yaml"),
				"port":            predict.Nothing,
				"log-level":       predict.Set{"trace", "debug", "info", "warn", "error"},
				"no-color":        predict.Nothing,
				"user-dir":        predict.Dirs("*"),
				"disable-builtin": predict.Nothing,
				"no-watch":        predict.Nothing,
				"db-key":          predict.Nothing,
				"monitor":         predict.Nothing,
			},
		},
		"check": {
			Flags: map[string]complete.Predictor{
				"kind": predict.Set{"method", "staticMethod", "new", "field", "staticField"},
			},
		},
		"list": {
			Flags: map[string]complete.Predictor{
				"filter": predict.Nothing,
				"kind":   predict.Set{"method", "staticMethod", "new", "field", "staticField"},
				"json":   predict.Nothing,
			},
		},
		"audit": {
			Flags: map[string]complete.Predictor{"json": predict.Nothing},
			Args:  predict.Files("*.list"),
		},
		"fmt": {
			Flags: map[string]complete.Predictor{"write": predict.Nothing},
			Args:  predict.Files("*.list"),
		},
		"lint":       {Args: predict.Files("*.list")},
		"browse":     {},
		"version":    {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
		"help":       {},
		"completion": {Flags: map[string]complete.Predictor{"install": predict.Nothing, "uninstall": predict.Nothing}},
	},
}

// Run checks if the binary was invoked for shell completion.
// If COMP_LINE is set, it outputs completions and exits (never returns).
// Otherwise it returns false and the program continues normally.
func Run() bool {
	if os.Getenv("COMP_LINE") != "" || os.Getenv("COMP_INSTALL") != "" || os.Getenv("COMP_UNINSTALL") != "" {
		command.Complete("scriptsec")
		return true
	}
	return false
}

// Install sets up shell completion for the detected shells.
func Install() error {
	return install.Install("scriptsec")
}

// Uninstall removes shell completion for the detected shells.
func Uninstall() error {
	return install.Uninstall("scriptsec")
}

// IsInstalled reports whether shell completion is already set up.
func IsInstalled() bool {
	return install.IsInstalled("scriptsec")
}

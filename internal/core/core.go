// Package core wires configuration, targets, the step runner and the run
// journal into the operations exposed by the CLI.
package core

import (
	"os"
	"path/filepath"
)

// ConfigDir resolves $XDG_CONFIG_HOME/hostinit or ~/.config/hostinit.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "hostinit")
}

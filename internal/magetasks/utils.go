package magetasks

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Run runs a command with its output streamed to Out, prefixed by a status line.
func Run(label, name string, args ...string) error {
	PrintInfo(label)
	cmd := exec.Command(name, args...)
	cmd.Stdout = Out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if IsCommandNotFound(err) {
			return err
		}
		PrintError(label + " failed")
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

// IsCommandNotFound checks if the error indicates the command was not found.
// This handles exec.ErrNotFound and platform-specific string fallbacks.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "executable file not found") ||
		strings.Contains(errStr, "no such file or directory")
}

package coverage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/tools/cover"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found in PATH", ErrDriverUnavailable, name)
		}
		return out.Bytes(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return out.Bytes(), nil
}

// goTool checks that the go command is runnable. It is skipped when a custom
// runner is injected.
func goTool(runner CommandRunner) error {
	if runner != nil {
		return nil
	}
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("%w: go command not found (needed for covdata conversion)", ErrDriverUnavailable)
	}
	return nil
}

// hasCoverData reports whether dir holds at least one coverage meta-data file.
func hasCoverData(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "covmeta.*"))
	return err == nil && len(matches) > 0
}

// textfmt converts a binary coverage directory into parsed profiles via
// `go tool covdata textfmt`.
func textfmt(ctx context.Context, runner CommandRunner, dir string) ([]*cover.Profile, error) {
	if runner == nil {
		runner = ExecRunner
	}
	if !hasCoverData(dir) {
		return nil, fmt.Errorf("%w in %s", ErrNoProfiles, dir)
	}

	outDir, err := os.MkdirTemp("", "covrec-textfmt-*")
	if err != nil {
		return nil, fmt.Errorf("creating textfmt output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outFile := filepath.Join(outDir, "profile.txt")
	if _, err := runner(ctx, "go", "tool", "covdata", "textfmt", "-i="+dir, "-o="+outFile); err != nil {
		return nil, fmt.Errorf("converting coverage data: %w", err)
	}

	profiles, err := cover.ParseProfiles(outFile)
	if err != nil {
		return nil, fmt.Errorf("parsing converted profile: %w", err)
	}
	return profiles, nil
}

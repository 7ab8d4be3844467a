package coverage

import (
	"context"
	"errors"
	"fmt"
	"os"
	rtcoverage "runtime/coverage"
	"strings"
	"testing"

	"golang.org/x/tools/cover"
)

// EnvCoverDir is the variable through which a -cover binary learns where to
// write its coverage data on exit.
const EnvCoverDir = "GOCOVERDIR"

// RuntimeDriver records coverage of the current process. The binary must be
// built with `go build -cover -covermode=atomic` so counters can be reset at
// Start. It does not work inside a `go test` binary, where the runtime
// coverage API is unavailable; use TestBinaryDriver there.
type RuntimeDriver struct {
	// Runner converts the flushed data; nil uses ExecRunner.
	Runner CommandRunner
}

// NewRuntimeDriver returns a driver for the running binary.
func NewRuntimeDriver() *RuntimeDriver {
	return &RuntimeDriver{}
}

// Start zeroes the live counters so the session only sees its own hits.
func (d *RuntimeDriver) Start(context.Context) error {
	if testing.Testing() {
		return fmt.Errorf("%w: runtime coverage is not available in a go test binary", ErrDriverUnavailable)
	}
	if err := goTool(d.Runner); err != nil {
		return err
	}
	if err := rtcoverage.ClearCounters(); err != nil {
		return fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}
	return nil
}

// Collect flushes meta-data and counters to a scratch directory and converts them.
func (d *RuntimeDriver) Collect(ctx context.Context) ([]*cover.Profile, error) {
	dir, err := os.MkdirTemp("", "covrec-runtime-*")
	if err != nil {
		return nil, fmt.Errorf("creating coverage scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := rtcoverage.WriteMetaDir(dir); err != nil {
		return nil, fmt.Errorf("%w: writing meta-data: %v", ErrDriverUnavailable, err)
	}
	if err := rtcoverage.WriteCountersDir(dir); err != nil {
		return nil, fmt.Errorf("writing counters: %w", err)
	}
	return textfmt(ctx, d.Runner, dir)
}

// DirDriver records coverage of a child process built with -cover. The child
// writes into Dir() when started with Environ() as its environment.
type DirDriver struct {
	// Runner converts the written data; nil uses ExecRunner.
	Runner CommandRunner
	// Base is the parent of the scratch directory; "" uses the OS temp dir.
	Base string

	dir string
}

// NewDirDriver returns a driver for an external -cover binary.
func NewDirDriver() *DirDriver {
	return &DirDriver{}
}

// Start creates the scratch GOCOVERDIR.
func (d *DirDriver) Start(context.Context) error {
	if err := goTool(d.Runner); err != nil {
		return err
	}
	dir, err := os.MkdirTemp(d.Base, "covrec-gocoverdir-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", EnvCoverDir, err)
	}
	d.dir = dir
	return nil
}

// Dir returns the scratch directory, or "" before Start.
func (d *DirDriver) Dir() string { return d.dir }

// Environ returns env with GOCOVERDIR pointing at the scratch directory,
// replacing any existing GOCOVERDIR entry.
func (d *DirDriver) Environ(env []string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, EnvCoverDir+"=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, EnvCoverDir+"="+d.dir)
}

// Collect converts whatever the child wrote and removes the scratch directory.
func (d *DirDriver) Collect(ctx context.Context) ([]*cover.Profile, error) {
	if d.dir == "" {
		return nil, errors.New("dir driver collected before start")
	}
	defer os.RemoveAll(d.dir)
	return textfmt(ctx, d.Runner, d.dir)
}

// ProfileDriver reads an existing text coverprofile such as the one written
// by `go test -coverprofile`.
type ProfileDriver struct {
	Path string
}

// Start does nothing; the profile is produced by someone else.
func (d *ProfileDriver) Start(context.Context) error { return nil }

// Collect parses the profile file.
func (d *ProfileDriver) Collect(context.Context) ([]*cover.Profile, error) {
	profiles, err := cover.ParseProfiles(d.Path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", d.Path, err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoProfiles, d.Path)
	}
	return profiles, nil
}

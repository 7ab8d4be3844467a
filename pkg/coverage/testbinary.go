package coverage

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"testing"

	"golang.org/x/tools/cover"
)

// TestBinaryDriver records the coverage of a test binary run by
// `go test -cover`. The testing package writes the counters itself when
// m.Run returns, so Collect must only be called after that; RunMain does so.
type TestBinaryDriver struct {
	// Runner converts a -test.gocoverdir directory; nil uses ExecRunner.
	Runner CommandRunner

	coverMode func() string
	flagValue func(name string) string
}

// NewTestBinaryDriver returns a driver for the running test binary.
func NewTestBinaryDriver() *TestBinaryDriver {
	return &TestBinaryDriver{}
}

// Start fails unless the test binary was built with coverage enabled.
func (d *TestBinaryDriver) Start(context.Context) error {
	mode := d.coverMode
	if mode == nil {
		mode = testing.CoverMode
	}
	if mode() == "" {
		return fmt.Errorf("%w: test binary not built with -cover (run go test -cover)", ErrDriverUnavailable)
	}
	return nil
}

// Collect reads what go test wrote: the -test.coverprofile file when one was
// requested, otherwise the -test.gocoverdir directory.
func (d *TestBinaryDriver) Collect(ctx context.Context) ([]*cover.Profile, error) {
	lookup := d.flagValue
	if lookup == nil {
		lookup = testFlag
	}

	if profile := lookup("test.coverprofile"); profile != "" {
		if !filepath.IsAbs(profile) {
			if out := lookup("test.outputdir"); out != "" {
				profile = filepath.Join(out, profile)
			}
		}
		return (&ProfileDriver{Path: profile}).Collect(ctx)
	}
	if dir := lookup("test.gocoverdir"); dir != "" {
		return textfmt(ctx, d.Runner, dir)
	}
	return nil, fmt.Errorf("%w: neither -test.coverprofile nor -test.gocoverdir is set", ErrNoProfiles)
}

func testFlag(name string) string {
	f := flag.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

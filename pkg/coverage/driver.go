package coverage

import (
	"context"
	"errors"

	"golang.org/x/tools/cover"
)

var (
	// ErrDriverUnavailable means the host cannot record coverage: the binary was
	// not built with -cover, the counter mode is not atomic, or the go tool is missing.
	ErrDriverUnavailable = errors.New("coverage driver unavailable")

	// ErrNoProfiles means a driver finished without any coverage data to report.
	ErrNoProfiles = errors.New("no coverage data recorded")
)

// Driver collects line coverage for one session.
//
// Start is called once before any scenario code runs and must fail when
// recording is impossible. Collect is called once at session stop and returns
// the profiles gathered since Start, in import-path form as produced by the
// go toolchain.
type Driver interface {
	Start(ctx context.Context) error
	Collect(ctx context.Context) ([]*cover.Profile, error)
}

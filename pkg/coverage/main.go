package coverage

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/dkoosis/covrec/internal/config"
	"github.com/dkoosis/covrec/internal/logging"
)

// M is the part of *testing.M that RunMain needs.
type M interface {
	Run() int
}

// MainOptions configures RunMain and FromEnv.
type MainOptions struct {
	// Root is the project root; "" resolves it from COVREC_ROOT, .covrec.yaml
	// or the working directory.
	Root string
	// Driver defaults to a TestBinaryDriver inside go test and a
	// RuntimeDriver in a binary built with go build -cover.
	Driver Driver
	// Stderr receives setup and teardown failures; nil means os.Stderr.
	Stderr io.Writer
}

// FromEnv starts a session labelled by COVERAGE_FEATURE and COVERAGE_SCENARIO.
// Recording only happens when RUN_COVERAGE is true; otherwise the returned
// session is disabled and its Stop writes nothing.
func FromEnv(ctx context.Context, opts MainOptions) (*Session, error) {
	cfg, err := config.ResolveConfig(config.CliFlags{Root: opts.Root})
	if err != nil {
		return nil, err
	}

	driver := opts.Driver
	if driver == nil && cfg.RunCoverage {
		driver = defaultDriver()
	}

	log := logging.Component("coverage")
	return Start(ctx, Options{
		Feature:   cfg.Feature,
		Scenario:  cfg.Scenario,
		Root:      cfg.Root,
		ReportDir: cfg.ReportPath(),
		Driver:    driver,
		Disabled:  !cfg.RunCoverage,
		Logger:    &log,
	})
}

func defaultDriver() Driver {
	if testing.Testing() {
		return NewTestBinaryDriver()
	}
	return NewRuntimeDriver()
}

// RunMain wraps a package's tests in an environment-driven session. Use it as
//
//	func TestMain(m *testing.M) {
//		os.Exit(coverage.RunMain(m, coverage.MainOptions{Root: coverage.RootFromCaller(0)}))
//	}
//
// and run the tests with `go test -cover`. A session that cannot start
// aborts with exit code 1 before any test runs. A failed stop turns a passing
// run into exit code 1.
func RunMain(m M, opts MainOptions) (code int) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ctx := context.Background()
	sess, err := FromEnv(ctx, opts)
	if err != nil {
		fmt.Fprintf(stderr, "covrec: %v\n", err)
		return 1
	}

	defer func() {
		if err := sess.Stop(ctx); err != nil {
			fmt.Fprintf(stderr, "covrec: %v\n", err)
			if code == 0 {
				code = 1
			}
		}
	}()

	return m.Run()
}

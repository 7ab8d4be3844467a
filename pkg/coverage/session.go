// Package coverage records named line-coverage sessions and writes one Clover
// report per session.
//
// A session is labelled "{feature} - {scenario}", counts only files under the
// project's includes and src directories, and writes its report to
// {root}/build/logs/clover-behat/{slug}.xml when stopped. Stop is idempotent,
// so the usual shape is:
//
//	sess, err := coverage.Start(ctx, opts)
//	if err != nil {
//		return err
//	}
//	defer sess.Stop(ctx)
package coverage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkoosis/covrec/internal/logging"
	"github.com/dkoosis/covrec/pkg/clover"
	"github.com/dkoosis/covrec/pkg/slug"
)

// DefaultReportDir is where reports land, relative to the project root.
const DefaultReportDir = "build/logs/clover-behat"

// Options configures a session.
type Options struct {
	Feature  string
	Scenario string

	// Root is the project root; the filter and report directory hang off it.
	Root string
	// ReportDir overrides DefaultReportDir. Relative values are joined to Root.
	// The directory must already exist when the session stops.
	ReportDir string

	Driver Driver

	// Disabled returns a session that records and writes nothing.
	Disabled bool

	// Now defaults to time.Now.
	Now func() time.Time
	// Logger defaults to the "coverage" component logger.
	Logger *zerolog.Logger
}

// Session is one recording window.
type Session struct {
	id         string
	label      string
	filter     Filter
	reportPath string
	driver     Driver
	disabled   bool
	now        func() time.Time
	log        zerolog.Logger
	started    time.Time

	once    sync.Once
	stopErr error
	report  *clover.Report
}

// Start begins a session. It fails, before any scenario code can run, when
// the driver cannot record.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if opts.Root == "" {
		return nil, errors.New("coverage: project root is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("coverage: resolving root: %w", err)
	}

	reportDir := opts.ReportDir
	if reportDir == "" {
		reportDir = DefaultReportDir
	}
	if !filepath.IsAbs(reportDir) {
		reportDir = filepath.Join(root, filepath.FromSlash(reportDir))
	}

	s := &Session{
		id:         uuid.NewString(),
		label:      slug.Label(opts.Feature, opts.Scenario),
		filter:     NewFilter(root),
		reportPath: filepath.Join(reportDir, slug.ReportFilename(opts.Feature, opts.Scenario)),
		driver:     opts.Driver,
		disabled:   opts.Disabled,
		now:        opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	} else {
		s.log = logging.Component("coverage")
	}
	s.log = s.log.With().Str("session", s.id).Str("label", s.label).Logger()

	if s.disabled {
		s.log.Info().Msg("coverage recording disabled")
		return s, nil
	}
	if s.driver == nil {
		return nil, errors.New("coverage: driver is required")
	}

	if err := s.driver.Start(ctx); err != nil {
		return nil, fmt.Errorf("coverage: starting session %q: %w", s.label, err)
	}
	s.started = s.now()
	s.log.Info().Strs("include", s.filter.Dirs()).Str("report", s.reportPath).Msg("coverage session started")
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Label returns "{feature} - {scenario}".
func (s *Session) Label() string { return s.label }

// Filter returns the inclusion filter.
func (s *Session) Filter() Filter { return s.filter }

// ReportPath returns where the report is (or will be) written.
func (s *Session) ReportPath() string { return s.reportPath }

// Enabled reports whether the session records anything.
func (s *Session) Enabled() bool { return !s.disabled }

// Report returns the written report, or nil before a successful Stop.
func (s *Session) Report() *clover.Report { return s.report }

// Stop ends the session and writes its report. Only the first call does any
// work; later calls return the first call's error.
func (s *Session) Stop(ctx context.Context) error {
	s.once.Do(func() {
		if s.disabled {
			return
		}
		s.stopErr = s.stop(ctx)
	})
	return s.stopErr
}

func (s *Session) stop(ctx context.Context) error {
	profiles, err := s.driver.Collect(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("collecting coverage failed")
		return fmt.Errorf("coverage: collecting session %q: %w", s.label, err)
	}

	res, err := newResolver(s.filter.Root())
	if err != nil {
		return fmt.Errorf("coverage: %w", err)
	}
	sources := res.sources(profiles, s.filter)

	report := clover.New(s.label, sources, s.now())
	if err := report.WriteFile(s.reportPath); err != nil {
		s.log.Error().Err(err).Msg("writing coverage report failed")
		return fmt.Errorf("coverage: %w", err)
	}
	s.report = report

	m := report.Project.Metrics
	s.log.Info().
		Str("report", s.reportPath).
		Int("files", m.Files).
		Int("statements", m.Statements).
		Int("covered", m.CoveredStatements).
		Dur("elapsed", s.now().Sub(s.started)).
		Msg("coverage session stopped")
	return nil
}

// Run calls fn inside the session and stops the session on every way out of
// fn, including a panic, which is re-raised after the report is written.
// fn's error takes precedence over a stop error.
func (s *Session) Run(ctx context.Context, fn func() error) (err error) {
	defer func() {
		if stopErr := s.Stop(ctx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	return fn()
}

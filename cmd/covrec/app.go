package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkoosis/covrec/internal/config"
	"github.com/dkoosis/covrec/internal/logging"
	"github.com/dkoosis/covrec/internal/version"
	"github.com/dkoosis/covrec/pkg/coverage"
	"github.com/dkoosis/covrec/pkg/mapper"
	"github.com/dkoosis/covrec/pkg/render"
	"github.com/dkoosis/covrec/pkg/slug"
)

const (
	// childWaitDelay bounds how long an interrupted child may take to flush
	// its coverage counters before it is killed.
	childWaitDelay = 10 * time.Second

	exitInterrupted = 130
)

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	flags  config.CliFlags
	format string
	topN   int
	mkdir  bool

	cfg *config.ResolvedConfig
	log zerolog.Logger

	// newDirDriver is swapped in tests to avoid shelling out to go tool covdata.
	newDirDriver func() *coverage.DirDriver
	waitDelay    time.Duration
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:        stdin,
		stdout:       stdout,
		stderr:       stderr,
		newDirDriver: coverage.NewDirDriver,
		waitDelay:    childWaitDelay,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "covrec",
		Short: "Record Go coverage per acceptance scenario as Clover XML",
		Long: `covrec starts a named coverage session for a feature/scenario pair, counts
only files under the project's includes and src directories, and writes a Clover
report to build/logs/clover-behat/{feature}-{scenario}.xml when the session ends.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigFile, "config", "", "Path to .covrec.yaml (default: nearest one above the working directory)")
	pf.StringVar(&a.flags.Root, "root", "", "Project root (env COVREC_ROOT)")
	pf.StringVar(&a.flags.ReportDir, "report-dir", "", "Report directory relative to root (default build/logs/clover-behat)")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error, off")
	pf.StringVar(&a.flags.Theme, "theme", "", "Theme: default, orca, mono")
	pf.BoolVar(&a.flags.NoColor, "no-color", false, "Disable colors")
	pf.StringVar(&a.format, "format", "auto", "Summary format: auto, terminal, plain, json")

	root.AddCommand(a.runCmd(), a.reportCmd(), a.slugCmd(), a.versionCmd())
	return root
}

func addLabelFlags(cmd *cobra.Command, a *app) {
	cmd.Flags().StringVar(&a.flags.Feature, "feature", "", "Feature title (env COVERAGE_FEATURE)")
	cmd.Flags().StringVar(&a.flags.Scenario, "scenario", "", "Scenario title (env COVERAGE_SCENARIO)")
	cmd.Flags().IntVar(&a.topN, "top", mapper.DefaultTopFiles, "Least covered files to list in the summary")
	cmd.Flags().BoolVar(&a.mkdir, "mkdir", false, "Create the report directory if it does not exist")
}

// setup resolves configuration and logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.flags.NoColorSet = cmd.Flags().Changed("no-color")
	a.flags.FeatureSet = changed(cmd, "feature")
	a.flags.ScenarioSet = changed(cmd, "scenario")

	cfg, err := config.ResolveConfig(a.flags)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:   cfg.LogLevel,
		Format:  "console",
		Output:  a.stderr,
		NoColor: cfg.NoColor || !isTTY(a.stderr),
	})
	a.log = logging.Component("cli")
	a.log.Debug().
		Str("config", cfg.ConfigPath).
		Str("root", cfg.Root).
		Str("root_source", cfg.RootSource).
		Str("report_dir", cfg.ReportPath()).
		Msg("configuration resolved")
	return nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] -- BINARY [ARGS...]",
		Short: "Run a -cover binary inside a coverage session",
		Long: `run executes BINARY (built with go build -cover) with GOCOVERDIR pointing at a
scratch directory, then converts what it wrote into a Clover report. The exit
code is the child's, 128+N if it died from signal N, 130 if covrec was
interrupted, or 1 if the report could not be produced. On Ctrl-C the child is
sent an interrupt and given time to write its coverage data.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runRun,
	}
	cmd.Flags().SetInterspersed(false)
	addLabelFlags(cmd, a)
	return cmd
}

func (a *app) runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	driver := a.newDirDriver()
	sess, err := a.startSession(ctx, driver)
	if err != nil {
		return err
	}

	childCode := 0
	// The report is still written after an interrupt, so stopping must not
	// inherit the signal context's cancellation.
	err = sess.Run(context.WithoutCancel(ctx), func() error {
		child := exec.CommandContext(ctx, args[0], args[1:]...) // #nosec G204 - binary comes from the command line
		child.Env = driver.Environ(os.Environ())
		child.Stdin = a.stdin
		child.Stdout = a.stdout
		child.Stderr = a.stderr
		// A killed -cover binary never writes its counters: interrupt it and
		// give it time to exit on its own.
		child.Cancel = func() error {
			if err := child.Process.Signal(os.Interrupt); err != nil {
				return child.Process.Kill()
			}
			return nil
		}
		child.WaitDelay = a.waitDelay

		a.log.Debug().Str("binary", args[0]).Str(coverage.EnvCoverDir, driver.Dir()).Msg("starting child")
		runErr := child.Run()
		var exitErr *exec.ExitError
		switch {
		case errors.As(runErr, &exitErr):
			childCode = exitCode(exitErr)
			return nil
		case runErr != nil && ctx.Err() != nil && child.ProcessState != nil:
			// Exited cleanly after being interrupted.
			return nil
		}
		return runErr
	})
	if err != nil {
		return err
	}

	a.printSummary(sess)
	if childCode == 0 && ctx.Err() != nil {
		childCode = exitInterrupted
	}
	if childCode != 0 {
		return &exitError{code: childCode}
	}
	return nil
}

// exitCode maps a finished child to a shell-style exit status, 128+N for a
// child killed by signal N.
func exitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}

func (a *app) reportCmd() *cobra.Command {
	var profilePath string
	cmd := &cobra.Command{
		Use:   "report --profile FILE",
		Short: "Write a Clover report from an existing coverprofile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.startSession(cmd.Context(), &coverage.ProfileDriver{Path: profilePath})
			if err != nil {
				return err
			}
			if err := sess.Stop(cmd.Context()); err != nil {
				return err
			}
			a.printSummary(sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&profilePath, "profile", "coverage.out", "Text coverprofile from go test -coverprofile or go tool covdata textfmt")
	addLabelFlags(cmd, a)
	return cmd
}

func (a *app) slugCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "slug FEATURE SCENARIO",
		Short: "Print the report file name for a feature/scenario pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			name := slug.ReportFilename(args[0], args[1])
			if full {
				name = filepath.Join(a.cfg.ReportPath(), name)
			}
			fmt.Fprintln(a.stdout, name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "path", false, "Print the full report path under the resolved root")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(a.stdout, version.String())
		},
	}
}

// startSession opens an explicitly requested session. Unlike the
// environment-driven path, RUN_COVERAGE is not consulted.
func (a *app) startSession(ctx context.Context, driver coverage.Driver) (*coverage.Session, error) {
	if !a.cfg.RunCoverageSet || !a.cfg.RunCoverage {
		a.log.Debug().Msg("RUN_COVERAGE not enabled; recording anyway for explicit invocation")
	}
	if a.mkdir {
		if err := os.MkdirAll(a.cfg.ReportPath(), 0o750); err != nil {
			return nil, fmt.Errorf("creating report dir: %w", err)
		}
	}

	log := logging.Component("coverage")
	return coverage.Start(ctx, coverage.Options{
		Feature:   a.cfg.Feature,
		Scenario:  a.cfg.Scenario,
		Root:      a.cfg.Root,
		ReportDir: a.cfg.ReportPath(),
		Driver:    driver,
		Logger:    &log,
	})
}

func (a *app) printSummary(sess *coverage.Session) {
	report := sess.Report()
	if report == nil {
		return
	}
	shown := sess.ReportPath()
	if rel, err := filepath.Rel(a.cfg.Root, shown); err == nil {
		shown = rel
	}

	theme := render.ThemeByName(a.cfg.Theme)
	if a.cfg.NoColor {
		theme = render.MonoTheme()
	}
	width, _ := termSize(a.stdout)
	r := render.ByName(resolveFormat(a.format, a.stdout), theme, width)
	fmt.Fprint(a.stdout, r.Render(mapper.FromClover(report, filepath.ToSlash(shown), a.topN)))
}

func resolveFormat(format string, w io.Writer) string {
	if format != "auto" {
		return format
	}
	if isTTY(w) {
		return render.FormatTerminal
	}
	return render.FormatPlain
}

// isTTY reports whether w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termSize returns the terminal dimensions for w, defaulting to 80x24.
func termSize(w io.Writer) (width, height int) {
	width, height = 80, 24
	if f, ok := w.(*os.File); ok {
		if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
			if tw > 0 {
				width = tw
			}
			if th > 0 {
				height = th
			}
		}
	}
	return width, height
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/covrec/internal/config"
	"github.com/dkoosis/covrec/pkg/clover"
	"github.com/dkoosis/covrec/pkg/coverage"
)

const (
	envHelper     = "COVREC_HELPER_EXIT"
	envHelperMode = "COVREC_HELPER_MODE"
	helperProfile = "mode: set\nexample.com/proj/src/a.go:1.1,3.2 2 1\nexample.com/proj/src/a.go:5.1,6.2 1 0\nexample.com/proj/vendor/b.go:1.1,2.2 1 1\n"
)

// TestMain doubles as the child process for run tests. With envHelper set,
// the binary drops a meta-data file into GOCOVERDIR and exits with the
// requested code. envHelperMode selects other child behaviors.
func TestMain(m *testing.M) {
	switch os.Getenv(envHelperMode) {
	case "interrupt":
		helperWaitForInterrupt()
	case "kill":
		writeHelperFile("covmeta.helper")
		self, _ := os.FindProcess(os.Getpid())
		_ = self.Kill()
		time.Sleep(time.Minute)
	}
	if code, ok := os.LookupEnv(envHelper); ok {
		writeHelperFile("covmeta.helper")
		n, _ := strconv.Atoi(code)
		os.Exit(n)
	}
	os.Exit(m.Run())
}

// helperWaitForInterrupt behaves like a -cover server: meta-data on start,
// counters only once it shuts down gracefully.
func helperWaitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	writeHelperFile("covmeta.helper")

	select {
	case <-sig:
		writeHelperFile("covcounters.helper")
		fmt.Println("helper: shut down cleanly")
		os.Exit(0)
	case <-time.After(30 * time.Second):
		os.Exit(2)
	}
}

func writeHelperFile(name string) {
	if dir := os.Getenv(coverage.EnvCoverDir); dir != "" {
		_ = os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600)
	}
}

func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvRunCoverage, config.EnvFeature, config.EnvScenario, config.EnvRoot,
		config.EnvReportDir, config.EnvLogLevel, config.EnvTheme, config.EnvNoColor, envHelper, envHelperMode,
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Chdir(t.TempDir())
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/proj\n\ngo 1.24\n"), 0o600))
	return root
}

type result struct {
	code           int
	stdout, stderr string
}

func execute(t *testing.T, a *app, args ...string) result {
	t.Helper()
	return executeContext(t, context.Background(), a, args...)
}

func executeContext(t *testing.T, ctx context.Context, a *app, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a.stdin = strings.NewReader("")
	a.stdout = &stdout
	a.stderr = &stderr

	root := a.rootCmd()
	root.SetArgs(args)
	code := 0
	if err := root.ExecuteContext(ctx); err != nil {
		code = 1
		if ee, ok := err.(*exitError); ok {
			code = ee.code
		} else {
			stderr.WriteString(err.Error())
		}
	}
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func fakeDirDriver(t *testing.T) func() *coverage.DirDriver {
	t.Helper()
	return dirDriverIn(t.TempDir(), false)
}

// dirDriverIn returns DirDrivers rooted at base whose conversion step writes
// helperProfile. With needCounters, conversion fails unless the child left a
// counter file behind, as go tool covdata would report nothing useful.
func dirDriverIn(base string, needCounters bool) func() *coverage.DirDriver {
	return func() *coverage.DirDriver {
		return &coverage.DirDriver{
			Base: base,
			Runner: func(_ context.Context, _ string, args ...string) ([]byte, error) {
				for _, arg := range args {
					if in, ok := strings.CutPrefix(arg, "-i="); ok && needCounters {
						if m, _ := filepath.Glob(filepath.Join(in, "covcounters.*")); len(m) == 0 {
							return nil, errors.New("no counter data in " + in)
						}
					}
				}
				for _, arg := range args {
					if out, ok := strings.CutPrefix(arg, "-o="); ok {
						return nil, os.WriteFile(out, []byte(helperProfile), 0o600)
					}
				}
				return nil, nil
			},
		}
	}
}

func TestSlugCommand(t *testing.T) {
	isolate(t)
	a := newApp(nil, nil, nil)

	res := execute(t, a, "slug", "User Login Flow!", "Valid Credentials (v2)")

	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "user-login-flow-valid-credentials-v2-.xml\n", res.stdout)
}

func TestSlugCommand_Path(t *testing.T) {
	isolate(t)
	root := newProject(t)

	res := execute(t, newApp(nil, nil, nil), "--root", root, "slug", "--path", "Login", "Valid")

	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, filepath.Join(root, "build", "logs", "clover-behat", "login-valid.xml")+"\n", res.stdout)
}

func TestSlugCommand_WrongArgs(t *testing.T) {
	isolate(t)
	res := execute(t, newApp(nil, nil, nil), "slug", "only-one")
	assert.Equal(t, 1, res.code)
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	res := execute(t, newApp(nil, nil, nil), "version")

	require.Equal(t, 0, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "covrec "), res.stdout)
}

func TestReportCommand(t *testing.T) {
	isolate(t)
	root := newProject(t)
	prof := filepath.Join(t.TempDir(), "coverage.out")
	require.NoError(t, os.WriteFile(prof, []byte(helperProfile), 0o600))

	res := execute(t, newApp(nil, nil, nil),
		"--root", root, "--format", "json",
		"report", "--mkdir", "--profile", prof, "--feature", "Unit", "--scenario", "All")

	require.Equal(t, 0, res.code, res.stderr)

	report, err := clover.ReadFile(filepath.Join(root, "build", "logs", "clover-behat", "unit-all.xml"))
	require.NoError(t, err)
	assert.Equal(t, "Unit - All", report.Project.Name)
	require.Len(t, report.Project.Packages, 1)
	require.Len(t, report.Project.Packages[0].Files, 1)
	assert.Equal(t, 3, report.Project.Metrics.Statements)
	assert.Equal(t, 2, report.Project.Metrics.CoveredStatements)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out), res.stdout)
}

func TestReportCommand_LabelsFromEnv(t *testing.T) {
	isolate(t)
	root := newProject(t)
	prof := filepath.Join(t.TempDir(), "coverage.out")
	require.NoError(t, os.WriteFile(prof, []byte(helperProfile), 0o600))
	t.Setenv(config.EnvFeature, "Checkout")
	t.Setenv(config.EnvScenario, "Empty cart")

	res := execute(t, newApp(nil, nil, nil), "--root", root, "--format", "plain", "report", "--mkdir", "--profile", prof)

	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(root, "build", "logs", "clover-behat", "checkout-empty-cart.xml"))
	assert.Contains(t, res.stdout, "COVERAGE: Checkout - Empty cart")
}

func TestReportCommand_MissingReportDir(t *testing.T) {
	isolate(t)
	root := newProject(t)
	prof := filepath.Join(t.TempDir(), "coverage.out")
	require.NoError(t, os.WriteFile(prof, []byte(helperProfile), 0o600))

	res := execute(t, newApp(nil, nil, nil), "--root", root, "report", "--profile", prof)

	assert.Equal(t, 1, res.code)
	assert.NoDirExists(t, filepath.Join(root, "build"))
}

func TestRunCommand_PropagatesExitCode(t *testing.T) {
	isolate(t)
	root := newProject(t)
	self, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(envHelper, "3")

	a := newApp(nil, nil, nil)
	a.newDirDriver = fakeDirDriver(t)
	res := execute(t, a,
		"--root", root, "--format", "plain",
		"run", "--mkdir", "--feature", "User Login", "--scenario", "Bad password", "--", self)

	assert.Equal(t, 3, res.code, res.stderr)
	report, err := clover.ReadFile(filepath.Join(root, "build", "logs", "clover-behat", "user-login-bad-password.xml"))
	require.NoError(t, err)
	assert.Equal(t, "User Login - Bad password", report.Project.Name)
	assert.Equal(t, 1, report.Project.Metrics.Files)
	assert.Contains(t, res.stdout, "Least covered files")
}

func TestRunCommand_Success(t *testing.T) {
	isolate(t)
	root := newProject(t)
	self, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(envHelper, "0")

	a := newApp(nil, nil, nil)
	a.newDirDriver = fakeDirDriver(t)
	res := execute(t, a, "--root", root, "--format", "json", "run", "--mkdir", "--", self)

	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(root, "build", "logs", "clover-behat", "-.xml"))
}

func TestRunCommand_MissingBinary(t *testing.T) {
	isolate(t)
	root := newProject(t)

	a := newApp(nil, nil, nil)
	a.newDirDriver = fakeDirDriver(t)
	res := execute(t, a, "--root", root, "run", "--mkdir", "--", filepath.Join(root, "no-such-binary"))

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no-such-binary")
}

func TestRunCommand_RequiresBinary(t *testing.T) {
	isolate(t)
	res := execute(t, newApp(nil, nil, nil), "run")
	assert.Equal(t, 1, res.code)
}

func TestInvalidTheme(t *testing.T) {
	isolate(t)
	res := execute(t, newApp(nil, nil, nil), "--theme", "neon", "slug", "a", "b")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "theme")
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"auto on buffer is plain", "auto", "plain"},
		{"explicit terminal", "terminal", "terminal"},
		{"explicit json", "json", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveFormat(tt.format, &bytes.Buffer{}))
		})
	}
}

func TestRun_ErrorPrefix(t *testing.T) {
	isolate(t)
	var stderr bytes.Buffer
	code := run([]string{"bogus"}, strings.NewReader(""), &bytes.Buffer{}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "covrec: ")
}

func TestRunCommand_InterruptLetsChildFlushCounters(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("os.Interrupt cannot be sent to a process on windows")
	}
	isolate(t)
	root := newProject(t)
	self, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(envHelperMode, "interrupt")

	base := t.TempDir()
	a := newApp(nil, nil, nil)
	a.newDirDriver = dirDriverIn(base, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan result, 1)
	go func() {
		done <- executeContext(t, ctx, a,
			"--root", root, "--format", "plain",
			"run", "--mkdir", "--feature", "Server", "--scenario", "Ctrl-C", "--", self)
	}()

	require.Eventually(t, func() bool {
		m, _ := filepath.Glob(filepath.Join(base, "*", "covmeta.*"))
		return len(m) > 0
	}, 10*time.Second, 10*time.Millisecond, "child never started")
	cancel()

	var res result
	select {
	case res = <-done:
	case <-time.After(20 * time.Second):
		t.Fatal("run did not return after interrupt")
	}

	assert.Equal(t, exitInterrupted, res.code, res.stderr)
	assert.Contains(t, res.stdout, "helper: shut down cleanly")
	report, err := clover.ReadFile(filepath.Join(root, "build", "logs", "clover-behat", "server-ctrl-c.xml"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Project.Metrics.CoveredStatements)
}

func TestRunCommand_SignalledChildExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no signal exit statuses on windows")
	}
	isolate(t)
	root := newProject(t)
	self, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(envHelperMode, "kill")

	a := newApp(nil, nil, nil)
	a.newDirDriver = fakeDirDriver(t)
	res := execute(t, a, "--root", root, "--format", "plain", "run", "--mkdir", "--", self)

	assert.Equal(t, 128+9, res.code, res.stderr)
}

package coverage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/cover"
)

// stubDriver is a Driver double with canned results and call counters.
type stubDriver struct {
	startErr   error
	collectErr error
	profiles   []*cover.Profile

	starts   int
	collects int
}

func (d *stubDriver) Start(context.Context) error {
	d.starts++
	return d.startErr
}

func (d *stubDriver) Collect(context.Context) ([]*cover.Profile, error) {
	d.collects++
	return d.profiles, d.collectErr
}

// newProject creates a module rooted at a temp dir with the report directory in place.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/proj\n\ngo 1.24\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(DefaultReportDir)), 0o750))
	return root
}

func profile(name string, count int) *cover.Profile {
	return &cover.Profile{
		FileName: name,
		Mode:     "atomic",
		Blocks: []cover.ProfileBlock{
			{StartLine: 3, StartCol: 1, EndLine: 5, EndCol: 2, NumStmt: 2, Count: count},
			{StartLine: 7, StartCol: 1, EndLine: 8, EndCol: 2, NumStmt: 1, Count: 0},
		},
	}
}

func sampleProfiles() []*cover.Profile {
	return []*cover.Profile{
		profile("example.com/proj/src/user/login.go", 4),
		profile("example.com/proj/includes/admin.go", 1),
		profile("example.com/proj/cmd/app/main.go", 9),
		profile("github.com/other/lib/lib.go", 2),
	}
}

func quietLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Unix(1700000000, 0) }
}

// fakeTextfmt stands in for `go tool covdata textfmt`, writing body to the -o file.
func fakeTextfmt(t *testing.T, body string, calls *int) CommandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls++
		require.Equal(t, "go", name)
		require.Equal(t, []string{"tool", "covdata", "textfmt"}, args[:3])
		for _, a := range args {
			if out, ok := strings.CutPrefix(a, "-o="); ok {
				require.NoError(t, os.WriteFile(out, []byte(body), 0o600))
			}
		}
		return nil, nil
	}
}

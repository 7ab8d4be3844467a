package magetasks

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/tools/cover"

	"github.com/dkoosis/covrec/pkg/clover"
	"github.com/dkoosis/covrec/pkg/mapper"
	"github.com/dkoosis/covrec/pkg/render"
)

// TestAll runs all tests.
func TestAll() error {
	PrintH2Header("Tests")
	if err := Run("Running tests", "go", "test", "./..."); err != nil {
		return err
	}
	PrintSuccess("All tests passed")
	return nil
}

// TestCoverage runs the unit tests with coverage and converts the profile to
// a Clover report for CI dashboards.
func TestCoverage() error {
	PrintH2Header("Test Coverage")
	if err := Run("Running tests with coverage", "go", "test", "-covermode=atomic", "-coverprofile="+CoverProfile, "./..."); err != nil {
		return err
	}

	report, err := WriteClover(CoverProfile, CloverReport, "covrec unit tests", time.Now())
	if err != nil {
		PrintError("Clover conversion failed")
		return err
	}
	fmt.Fprint(Out, render.NewPlain().Render(mapper.FromClover(report, CloverReport, 5)))
	PrintSuccess("Coverage report generated")
	return nil
}

// TestRace runs tests with race detector.
func TestRace() error {
	PrintH2Header("Race Detector")
	if err := Run("Running tests with race detector", "go", "test", "-race", "./..."); err != nil {
		return err
	}
	PrintSuccess("No race conditions detected")
	return nil
}

// WriteClover converts the text profile at profilePath into a Clover report
// at out. Files outside ModulePath are dropped.
func WriteClover(profilePath, out, name string, now time.Time) (*clover.Report, error) {
	profiles, err := cover.ParseProfiles(profilePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", profilePath, err)
	}

	var sources []clover.Source
	for _, p := range profiles {
		rel, ok := strings.CutPrefix(p.FileName, ModulePath+"/")
		if !ok {
			continue
		}
		sources = append(sources, clover.Source{
			Path:    filepath.Join(ProjectRoot, filepath.FromSlash(rel)),
			RelPath: rel,
			Package: path.Dir(p.FileName),
			Profile: p,
		})
	}

	report := clover.New(name, sources, now)
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}
	if err := report.WriteFile(out); err != nil {
		return nil, err
	}
	return report, nil
}

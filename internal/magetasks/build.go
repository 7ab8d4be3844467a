package magetasks

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BuildAll builds the covrec binary.
func BuildAll() error {
	PrintH2Header("Build")
	if err := Run("Building covrec", "go", "build", "-ldflags", ldflags(), "-o", BinPath, "./cmd/covrec"); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Built: %s", BinPath))
	return nil
}

// BuildCover builds a -cover instrumented covrec, suitable as the child of
// `covrec run` or for RUN_COVERAGE sessions in its own tests.
func BuildCover() error {
	PrintH2Header("Build (coverage)")
	if err := Run("Building covrec with -cover", "go", "build", "-cover", "-covermode=atomic",
		"-ldflags", ldflags(), "-o", CoverBinPath, "./cmd/covrec"); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Built: %s", CoverBinPath))
	return nil
}

// Clean removes build artifacts
func Clean() error {
	PrintH2Header("Clean")

	for _, p := range []string{"./bin", CoverProfile, CloverReport} {
		if err := os.RemoveAll(p); err != nil {
			PrintWarning(fmt.Sprintf("removing %s: %v", p, err))
		}
	}
	_ = exec.Command("go", "clean", "-cache").Run()

	PrintSuccess("Cleaned build artifacts")
	return nil
}

func ldflags() string {
	pkg := ModulePath + "/internal/version"
	return fmt.Sprintf("-s -w -X '%s.Version=%s' -X '%s.CommitHash=%s' -X '%s.BuildDate=%s'",
		pkg, getGitVersion(), pkg, getGitCommit(), pkg, time.Now().UTC().Format(time.RFC3339))
}

func getGitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty", "--match=v*").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func getGitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

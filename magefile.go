//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"golang.org/x/term"

	"github.com/dkoosis/covrec/internal/magetasks"
	"github.com/dkoosis/covrec/pkg/render"
)

// Default target - build the binary
var Default = Build

func init() {
	if err := magetasks.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
	if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		magetasks.UseTheme(render.MonoTheme())
	}
}

// Build builds the covrec binary
func Build() error {
	return magetasks.BuildAll()
}

// BuildCover builds a -cover instrumented covrec binary
func BuildCover() error {
	return magetasks.BuildCover()
}

// Clean removes build artifacts
func Clean() error {
	return magetasks.Clean()
}

// QA runs lint, race-enabled tests and the build
func QA() error {
	magetasks.PrintH1Header("covrec Quality Assurance")
	mg.SerialDeps(Lint.All, Test.Race, Build)
	magetasks.PrintSuccess("QA complete!")
	return nil
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() error {
	return magetasks.LintAll()
}

// Format checks code formatting
func (Lint) Format() error {
	return magetasks.LintFormat()
}

// Vet runs go vet
func (Lint) Vet() error {
	return magetasks.LintVet()
}

// Staticcheck runs staticcheck
func (Lint) Staticcheck() error {
	return magetasks.LintStaticcheck()
}

// Golangci runs golangci-lint
func (Lint) Golangci() error {
	return magetasks.LintGolangci()
}

// Fix runs golangci-lint with auto-fixes
func (Lint) Fix() error {
	return magetasks.LintGolangciFix()
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return magetasks.TestAll()
}

// Coverage runs tests with coverage and writes a Clover report
func (Test) Coverage() error {
	return magetasks.TestCoverage()
}

// Race runs tests with race detector
func (Test) Race() error {
	return magetasks.TestRace()
}

package magetasks

import (
	"errors"
)

// golangciDisabled lists linters that fight the codebase's conventions.
const golangciDisabled = "--disable=exhaustruct,varnamelen,ireturn,wrapcheck,nlreturn,gochecknoglobals,mnd,depguard,tagalign,tenv"

// LintAll runs all linters. Optional linters that are not installed are skipped.
func LintAll() error {
	PrintH2Header("Lint")

	var errs []error
	for _, lint := range []func() error{LintFormat, LintVet, LintStaticcheck, LintGolangci} {
		if err := lint(); err != nil && !IsCommandNotFound(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	PrintSuccess("All linters passed")
	return nil
}

// LintFormat checks code formatting.
func LintFormat() error {
	return Run("Go Format", "go", "fmt", "./...")
}

// LintVet runs go vet.
func LintVet() error {
	return Run("Go Vet", "go", "vet", "./...")
}

// LintStaticcheck runs staticcheck.
func LintStaticcheck() error {
	return optional(Run("Staticcheck", "staticcheck", "./..."),
		"Staticcheck not found (install: go install honnef.co/go/tools/cmd/staticcheck@latest)")
}

// LintGolangci runs golangci-lint.
func LintGolangci() error {
	return optional(Run("Golangci-lint", "golangci-lint", "run", golangciDisabled, "--timeout=5m", "./..."),
		"Golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
}

// LintGolangciFix runs golangci-lint with auto-fixes.
func LintGolangciFix() error {
	return optional(Run("Golangci-lint Fix", "golangci-lint", "run", "--fix", golangciDisabled, "--timeout=5m", "./..."),
		"Golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
}

// optional prints hint when err says the tool is missing. err is returned unchanged.
func optional(err error, hint string) error {
	if IsCommandNotFound(err) {
		PrintWarning(hint)
	}
	return err
}

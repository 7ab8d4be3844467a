// covrec records Go coverage for named acceptance scenarios and writes one
// Clover XML report per scenario.
//
// Usage:
//
//	covrec run --feature "User Login" --scenario "Valid credentials" -- ./bin/app-cover serve
//	covrec report --profile coverage.out --feature Unit --scenario All
//	covrec slug "User Login Flow!" "Valid Credentials (v2)"
//
// Reports land in {root}/build/logs/clover-behat/{feature-slug}-{scenario-slug}.xml.
// Only files under {root}/includes and {root}/src are counted.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "covrec: %v\n", err)
	return 1
}

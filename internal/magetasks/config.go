package magetasks

import (
	"os"
	"path/filepath"
)

var (
	// ModulePath is the Go module path.
	ModulePath = "github.com/dkoosis/covrec"

	// BinPath is the output path for the covrec binary.
	BinPath = "./bin/covrec"

	// CoverBinPath is the output path for the -cover instrumented build.
	CoverBinPath = "./bin/covrec-cover"

	// CoverProfile is where Test:Coverage writes the text profile.
	CoverProfile = "coverage.out"

	// CloverReport is where Test:Coverage writes the Clover report.
	CloverReport = "build/logs/clover.xml"

	// ProjectRoot is the root directory of the project.
	ProjectRoot string
)

// Initialize sets up the magetasks package.
// Call this from the Magefile init() function.
func Initialize() error {
	var err error
	ProjectRoot, err = os.Getwd()
	if err != nil {
		return err
	}

	return os.MkdirAll(filepath.Join(ProjectRoot, "bin"), 0o750)
}

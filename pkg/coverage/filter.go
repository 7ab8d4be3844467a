package coverage

import (
	"path/filepath"
	"runtime"
	"strings"
)

// IncludeDirs are the directories, relative to the project root, whose files
// count toward a session's coverage.
var IncludeDirs = []string{"includes", "src"}

// Filter restricts coverage to files under a fixed set of directories.
type Filter struct {
	root string
	dirs []string
}

// NewFilter returns the inclusion filter for root: exactly root/includes and root/src.
func NewFilter(root string) Filter {
	root = filepath.Clean(root)
	dirs := make([]string, 0, len(IncludeDirs))
	for _, d := range IncludeDirs {
		dirs = append(dirs, filepath.Join(root, d))
	}
	return Filter{root: root, dirs: dirs}
}

// Root returns the project root the filter was built from.
func (f Filter) Root() string { return f.root }

// Dirs returns a copy of the included directories.
func (f Filter) Dirs() []string {
	out := make([]string, len(f.dirs))
	copy(out, f.dirs)
	return out
}

// Includes reports whether path lies inside one of the filter's directories.
func (f Filter) Includes(path string) bool {
	path = filepath.Clean(path)
	for _, dir := range f.dirs {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
			continue
		}
		return true
	}
	return false
}

// RootFromCaller returns the directory two levels above the directory of the
// calling source file. A bootstrap at tests/acceptance/bootstrap_test.go
// therefore resolves to the repository root. skip counts extra frames above
// the direct caller, as in runtime.Caller.
func RootFromCaller(skip int) string {
	_, file, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return rootFromFile(file)
}

func rootFromFile(file string) string {
	return filepath.Dir(filepath.Dir(filepath.Dir(file)))
}

package coverage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"

	"github.com/dkoosis/covrec/pkg/clover"
)

// resolver maps profile file names (import-path form) onto the filesystem.
type resolver struct {
	root    string
	modDir  string
	modPath string
}

// newResolver finds the go.mod at or above root. A root outside any module
// is not an error; only absolute and root-relative names resolve then.
func newResolver(root string) (*resolver, error) {
	r := &resolver{root: root}

	dir := root
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod")) // #nosec G304 - fixed file name under project root
		if err == nil {
			r.modDir = dir
			r.modPath = modfile.ModulePath(data)
			return r, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading go.mod: %w", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return r, nil
		}
		dir = parent
	}
}

// path returns the filesystem path for a profile file name.
func (r *resolver) path(name string) string {
	if r.modPath != "" && strings.HasPrefix(name, r.modPath+"/") {
		return filepath.Join(r.modDir, filepath.FromSlash(strings.TrimPrefix(name, r.modPath+"/")))
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(r.root, filepath.FromSlash(name))
}

// sources keeps the profiles whose files pass filter and prepares them for
// the Clover builder.
func (r *resolver) sources(profiles []*cover.Profile, filter Filter) []clover.Source {
	var out []clover.Source
	for _, p := range profiles {
		abs := r.path(p.FileName)
		if !filter.Includes(abs) {
			continue
		}
		rel, err := filepath.Rel(r.root, abs)
		if err != nil {
			rel = ""
		}
		out = append(out, clover.Source{
			Path:    abs,
			RelPath: filepath.ToSlash(rel),
			Package: path.Dir(filepath.ToSlash(p.FileName)),
			Profile: p,
		})
	}
	return out
}

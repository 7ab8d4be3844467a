// Package clover builds, writes and reads Clover XML coverage reports.
//
// Reports are built from Go coverage profiles. Go has no class or method
// notion in its profiles, so only the statement, element and line figures
// are populated; classes, methods and conditionals are always zero.
package clover

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"golang.org/x/tools/cover"
)

// LineTypeStmt is the only line type emitted for Go sources.
const LineTypeStmt = "stmt"

// Report is the root <coverage> element.
type Report struct {
	XMLName   xml.Name `xml:"coverage"`
	Generated int64    `xml:"generated,attr"`
	Project   Project  `xml:"project"`
}

// Project groups every package recorded in one session.
type Project struct {
	Timestamp int64     `xml:"timestamp,attr"`
	Name      string    `xml:"name,attr"`
	Packages  []Package `xml:"package"`
	Metrics   Metrics   `xml:"metrics"`
}

// Package is a Go package (import path directory).
type Package struct {
	Name    string  `xml:"name,attr"`
	Files   []File  `xml:"file"`
	Metrics Metrics `xml:"metrics"`
}

// File is a single source file.
type File struct {
	Name    string  `xml:"name,attr"`
	Path    string  `xml:"path,attr,omitempty"`
	Lines   []Line  `xml:"line"`
	Metrics Metrics `xml:"metrics"`
}

// Line is one executable line and its hit count.
type Line struct {
	Num   int    `xml:"num,attr"`
	Type  string `xml:"type,attr"`
	Count int64  `xml:"count,attr"`
}

// Metrics carries the aggregate counters at file, package and project level.
// Files and Packages are only set on the project.
type Metrics struct {
	Files               int `xml:"files,attr,omitempty"`
	Packages            int `xml:"packages,attr,omitempty"`
	LOC                 int `xml:"loc,attr"`
	NCLOC               int `xml:"ncloc,attr"`
	Classes             int `xml:"classes,attr"`
	Methods             int `xml:"methods,attr"`
	CoveredMethods      int `xml:"coveredmethods,attr"`
	Conditionals        int `xml:"conditionals,attr"`
	CoveredConditionals int `xml:"coveredconditionals,attr"`
	Statements          int `xml:"statements,attr"`
	CoveredStatements   int `xml:"coveredstatements,attr"`
	Elements            int `xml:"elements,attr"`
	CoveredElements     int `xml:"coveredelements,attr"`
}

// Percent returns covered statements as a percentage, or 0 when there are none.
func (m Metrics) Percent() float64 {
	if m.Statements == 0 {
		return 0
	}
	return float64(m.CoveredStatements) / float64(m.Statements) * 100
}

func (m *Metrics) add(o Metrics) {
	m.LOC += o.LOC
	m.NCLOC += o.NCLOC
	m.Statements += o.Statements
	m.CoveredStatements += o.CoveredStatements
	m.Elements += o.Elements
	m.CoveredElements += o.CoveredElements
}

// Source pairs a parsed profile with where its file lives on disk.
type Source struct {
	// Path is the filesystem path written to file/@name.
	Path string
	// RelPath is the project-relative path written to file/@path.
	RelPath string
	// Package is the package name the file is grouped under.
	Package string
	Profile *cover.Profile
}

// New builds a report named name from sources. Packages and files are
// sorted by name so identical input always yields identical output.
func New(name string, sources []Source, generated time.Time) *Report {
	byPkg := make(map[string][]File)
	for _, src := range sources {
		byPkg[src.Package] = append(byPkg[src.Package], newFile(src))
	}

	pkgNames := make([]string, 0, len(byPkg))
	for pn := range byPkg {
		pkgNames = append(pkgNames, pn)
	}
	sort.Strings(pkgNames)

	ts := generated.Unix()
	r := &Report{
		Generated: ts,
		Project:   Project{Timestamp: ts, Name: name},
	}
	for _, pn := range pkgNames {
		files := byPkg[pn]
		sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

		pkg := Package{Name: pn, Files: files}
		for _, f := range files {
			pkg.Metrics.add(f.Metrics)
		}
		r.Project.Packages = append(r.Project.Packages, pkg)
		r.Project.Metrics.add(pkg.Metrics)
		r.Project.Metrics.Files += len(files)
	}
	r.Project.Metrics.Packages = len(r.Project.Packages)
	return r
}

// newFile expands profile blocks into per-line counts. A line spanned by
// several blocks reports the highest count among them.
func newFile(src Source) File {
	counts := make(map[int]int64)
	var m Metrics
	for _, b := range src.Profile.Blocks {
		m.Statements += b.NumStmt
		if b.Count > 0 {
			m.CoveredStatements += b.NumStmt
		}
		for ln := b.StartLine; ln <= b.EndLine; ln++ {
			if c, ok := counts[ln]; !ok || int64(b.Count) > c {
				counts[ln] = int64(b.Count)
			}
		}
		if b.EndLine > m.LOC {
			m.LOC = b.EndLine
		}
	}
	m.NCLOC = m.LOC
	m.Elements = m.Statements
	m.CoveredElements = m.CoveredStatements

	nums := make([]int, 0, len(counts))
	for ln := range counts {
		nums = append(nums, ln)
	}
	sort.Ints(nums)

	lines := make([]Line, 0, len(nums))
	for _, ln := range nums {
		lines = append(lines, Line{Num: ln, Type: LineTypeStmt, Count: counts[ln]})
	}

	return File{
		Name:    src.Path,
		Path:    src.RelPath,
		Lines:   lines,
		Metrics: m,
	}
}

// WriteTo writes the report as indented XML with a declaration.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return 0, fmt.Errorf("encoding clover report: %w", err)
	}
	buf.WriteByte('\n')
	return buf.WriteTo(w)
}

// WriteFile writes the report to path, replacing any existing file.
// The parent directory must already exist.
func (r *Report) WriteFile(path string) error {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 - reports are meant to be shared
		return fmt.Errorf("writing clover report %s: %w", path, err)
	}
	return nil
}

// Read parses a Clover report.
func Read(rd io.Reader) (*Report, error) {
	var r Report
	if err := xml.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding clover report: %w", err)
	}
	return &r, nil
}

// ReadFile parses the Clover report at path.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path) // #nosec G304 - path is chosen by the caller
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

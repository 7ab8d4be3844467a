package clover

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/cover"
)

func sampleSources() []Source {
	return []Source{
		{
			Path:    "/proj/src/user/login.go",
			RelPath: "src/user/login.go",
			Package: "example.com/proj/src/user",
			Profile: &cover.Profile{
				FileName: "example.com/proj/src/user/login.go",
				Mode:     "atomic",
				Blocks: []cover.ProfileBlock{
					{StartLine: 10, StartCol: 20, EndLine: 12, EndCol: 2, NumStmt: 2, Count: 3},
					{StartLine: 12, StartCol: 2, EndLine: 14, EndCol: 3, NumStmt: 1, Count: 0},
				},
			},
		},
		{
			Path:    "/proj/includes/admin.go",
			RelPath: "includes/admin.go",
			Package: "example.com/proj/includes",
			Profile: &cover.Profile{
				FileName: "example.com/proj/includes/admin.go",
				Mode:     "atomic",
				Blocks: []cover.ProfileBlock{
					{StartLine: 5, StartCol: 1, EndLine: 5, EndCol: 30, NumStmt: 1, Count: 1},
				},
			},
		},
	}
}

func TestNew_Metrics(t *testing.T) {
	generated := time.Unix(1700000000, 0)
	r := New("Login - Valid", sampleSources(), generated)

	assert.Equal(t, int64(1700000000), r.Generated)
	assert.Equal(t, int64(1700000000), r.Project.Timestamp)
	assert.Equal(t, "Login - Valid", r.Project.Name)

	require.Len(t, r.Project.Packages, 2)
	assert.Equal(t, "example.com/proj/includes", r.Project.Packages[0].Name, "packages sorted by name")
	assert.Equal(t, "example.com/proj/src/user", r.Project.Packages[1].Name)

	pm := r.Project.Metrics
	assert.Equal(t, 2, pm.Files)
	assert.Equal(t, 2, pm.Packages)
	assert.Equal(t, 4, pm.Statements)
	assert.Equal(t, 3, pm.CoveredStatements)
	assert.Equal(t, pm.Statements, pm.Elements)
	assert.Equal(t, pm.CoveredStatements, pm.CoveredElements)
	assert.InDelta(t, 75.0, pm.Percent(), 0.001)
}

func TestNew_LineCountsTakeHighestOverlappingBlock(t *testing.T) {
	r := New("x", sampleSources(), time.Unix(0, 0))
	f := r.Project.Packages[1].Files[0]

	require.Len(t, f.Lines, 5)
	want := map[int]int64{10: 3, 11: 3, 12: 3, 13: 0, 14: 0}
	for _, l := range f.Lines {
		assert.Equal(t, LineTypeStmt, l.Type)
		assert.Equal(t, want[l.Num], l.Count, "line %d", l.Num)
	}
	assert.Equal(t, 14, f.Metrics.LOC)
}

func TestNew_Empty(t *testing.T) {
	r := New("empty", nil, time.Unix(0, 0))
	assert.Empty(t, r.Project.Packages)
	assert.Zero(t, r.Project.Metrics.Statements)
	assert.Zero(t, r.Project.Metrics.Percent())
}

func TestWriteTo_ProducesCloverDocument(t *testing.T) {
	r := New("Login - Valid", sampleSources(), time.Unix(1700000000, 0))

	var buf bytes.Buffer
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<coverage generated="1700000000">`)
	assert.Contains(t, out, `<project timestamp="1700000000" name="Login - Valid">`)
	assert.Contains(t, out, `<file name="/proj/src/user/login.go" path="src/user/login.go">`)
	assert.Contains(t, out, `<line num="10" type="stmt" count="3"></line>`)
	assert.Contains(t, out, `statements="4" coveredstatements="3"`)
}

func TestWriteFileAndRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	r := New("Login - Valid", sampleSources(), time.Unix(1700000000, 0))
	require.NoError(t, r.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.Project.Name, got.Project.Name)
	assert.Equal(t, r.Project.Metrics, got.Project.Metrics)
	assert.Len(t, got.Project.Packages, 2)
}

func TestWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	require.NoError(t, New("first", sampleSources(), time.Unix(1, 0)).WriteFile(path))
	require.NoError(t, New("second", nil, time.Unix(2, 0)).WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Project.Name)
	assert.Empty(t, got.Project.Packages)
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.xml")
	err := New("x", nil, time.Unix(0, 0)).WriteFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(strings.NewReader("<coverage"))
	assert.Error(t, err)
}

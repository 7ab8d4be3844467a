// Package slug derives filesystem-safe names from human-readable labels.
package slug

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReportExt is the extension of every Clover report file.
const ReportExt = ".xml"

// Slug lowercases s and collapses every maximal run of characters outside
// [a-z0-9] into a single '-'. Leading and trailing runs are kept, so
// "Valid (v2)" becomes "valid-v2-".
//
// Lowercasing is Unicode-aware and happens before the filter, so a letter
// whose lowercase form is ASCII survives: the Kelvin sign U+212A becomes "k",
// and "İ" becomes "i" followed by a combining dot, which turns into "-".
// Other non-ASCII letters become separators.
func Slug(s string) string {
	lower := cases.Lower(language.Und).String(s)

	var sb strings.Builder
	sb.Grow(len(lower))
	inRun := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			sb.WriteByte('-')
			inRun = true
		}
	}
	return sb.String()
}

// ReportFilename returns "{slug(feature)}-{slug(scenario)}.xml".
//
// The joined string is slugged as a whole so the separator merges with any
// trailing punctuation of the feature: "Login Flow!" and "Valid" give
// "login-flow-valid.xml", not "login-flow--valid.xml". Empty labels are not
// rejected and yield "-.xml".
func ReportFilename(feature, scenario string) string {
	return Slug(feature+"-"+scenario) + ReportExt
}

// Label returns the composite session label "{feature} - {scenario}".
func Label(feature, scenario string) string {
	return feature + " - " + scenario
}

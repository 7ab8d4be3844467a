// Package render provides output renderers for covrec's summary patterns.
package render

import (
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/covrec/pkg/pattern"
)

// Renderer converts patterns to formatted output.
type Renderer interface {
	Render(patterns []pattern.Pattern) string
}

// Format names accepted by ByName.
const (
	FormatTerminal = "terminal"
	FormatPlain    = "plain"
	FormatJSON     = "json"
)

// ByName returns the renderer for format. Unknown formats get the plain renderer.
func ByName(format string, theme Theme, width int) Renderer {
	switch format {
	case FormatJSON:
		return NewJSON()
	case FormatTerminal:
		return NewTerminal(theme, width)
	default:
		return NewPlain()
	}
}

// truncateLeft shortens s to width display cells, keeping the tail, since the
// end of a file path is the informative part.
func truncateLeft(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	if width <= len(ellipsis) {
		return ellipsis[:width]
	}
	runes := []rune(s)
	keep := width - len(ellipsis)
	w := 0
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if w+rw > keep {
			break
		}
		w += rw
		i--
	}
	return ellipsis + string(runes[i:])
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}

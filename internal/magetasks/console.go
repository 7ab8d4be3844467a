package magetasks

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/covrec/pkg/render"
)

// Out is where task output goes.
var Out io.Writer = os.Stdout

var theme = render.DefaultTheme()

// UseTheme switches the console styles, e.g. to render.MonoTheme() when
// output is not a terminal.
func UseTheme(t render.Theme) { theme = t }

// PrintH1Header prints a top-level header with decoration.
func PrintH1Header(title string) {
	const width = 80
	rule := strings.Repeat("=", width)
	padding := max((width-runewidth.StringWidth(title))/2, 0)
	fmt.Fprintf(Out, "\n%s\n%s%s\n%s\n\n", rule, strings.Repeat(" ", padding), theme.Title.Render(title), rule)
}

// PrintH2Header prints a section header.
func PrintH2Header(title string) {
	fmt.Fprintf(Out, "\n%s\n\n", theme.Title.Render("=== "+title+" ==="))
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) { printStatus(theme.Good, theme.Icons.Good, msg) }

// PrintWarning prints a warning message.
func PrintWarning(msg string) { printStatus(theme.Fair, theme.Icons.Fair, msg) }

// PrintError prints an error message.
func PrintError(msg string) { printStatus(theme.Poor, theme.Icons.Poor, msg) }

// PrintInfo prints an info message.
func PrintInfo(msg string) { printStatus(theme.Muted, theme.Icons.Info, msg) }

func printStatus(style lipgloss.Style, icon, msg string) {
	fmt.Fprintln(Out, style.Render(icon+" "+msg))
}

package render

import "github.com/charmbracelet/lipgloss"

// Theme is the palette for terminal summaries. Coverage percentages are
// colored by band: Poor below Bands.Fair, Fair below Bands.Good, Good above.
type Theme struct {
	Name  string
	Title lipgloss.Style
	Path  lipgloss.Style
	Good  lipgloss.Style
	Fair  lipgloss.Style
	Poor  lipgloss.Style
	Muted lipgloss.Style
	Icons ThemeIcons
	Bands Bands
}

// ThemeIcons prefix summary lines by kind.
type ThemeIcons struct {
	Good string
	Fair string
	Poor string
	Info string
}

// Bands are the percentage thresholds where coverage turns fair and good.
type Bands struct {
	Fair float64
	Good float64
}

// Band returns the style for a coverage percentage.
func (t Theme) Band(pct float64) lipgloss.Style {
	switch {
	case pct < t.Bands.Fair:
		return t.Poor
	case pct < t.Bands.Good:
		return t.Fair
	default:
		return t.Good
	}
}

// DefaultTheme uses saturated colors and the usual 50/80 bands.
func DefaultTheme() Theme {
	return Theme{
		Name:  "default",
		Title: lipgloss.NewStyle().Bold(true),
		Path:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Good:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Fair:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Poor:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		Icons: ThemeIcons{Good: "✓", Fair: "◐", Poor: "✗", Info: "●"},
		Bands: Bands{Fair: 50, Good: 80},
	}
}

// OrcaTheme is a low-contrast palette with stricter bands, for teams that
// expect acceptance scenarios to cover most of what they touch.
func OrcaTheme() Theme {
	return Theme{
		Name:  "orca",
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("254")),
		Path:  lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		Good:  lipgloss.NewStyle().Foreground(lipgloss.Color("72")),
		Fair:  lipgloss.NewStyle().Foreground(lipgloss.Color("180")),
		Poor:  lipgloss.NewStyle().Foreground(lipgloss.Color("174")).Underline(true),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Icons: ThemeIcons{Good: "▲", Fair: "■", Poor: "▼", Info: "·"},
		Bands: Bands{Fair: 60, Good: 90},
	}
}

// MonoTheme has no colors and ASCII icons, for NO_COLOR and pipes.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:  "mono",
		Title: plain,
		Path:  plain,
		Good:  plain,
		Fair:  plain,
		Poor:  plain,
		Muted: plain,
		Icons: ThemeIcons{Good: "+", Fair: "!", Poor: "x", Info: "*"},
		Bands: Bands{Fair: 50, Good: 80},
	}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	switch name {
	case "orca":
		return OrcaTheme()
	case "mono":
		return MonoTheme()
	default:
		return DefaultTheme()
	}
}

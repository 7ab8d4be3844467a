package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/covrec/pkg/pattern"
)

// Terminal renders patterns as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Render formats all patterns for terminal display.
func (t *Terminal) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, p := range patterns {
		var s string
		switch v := p.(type) {
		case *pattern.Summary:
			s = t.renderSummary(v)
		case *pattern.Leaderboard:
			s = t.renderLeaderboard(v)
		}
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (t *Terminal) renderSummary(s *pattern.Summary) string {
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Title.Render(s.Label))
		sb.WriteString("\n")
	}
	for _, m := range s.Metrics {
		icon, style := t.iconStyle(m.Kind)
		sb.WriteString("  ")
		sb.WriteString(style.Render(icon + " " + m.Label + ": " + m.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderLeaderboard(l *pattern.Leaderboard) string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(t.theme.Title.Render(leaderboardHeader(l)))
	sb.WriteString("\n")

	maxMetric, maxContext := 0, 0
	for _, item := range l.Items {
		maxMetric = max(maxMetric, runewidth.StringWidth(item.Metric))
		maxContext = max(maxContext, runewidth.StringWidth(item.Context))
	}

	// "  NN. " + name + "  " + metric + "  " + context
	maxName := t.width - 6 - 2 - maxMetric - 2 - maxContext
	maxName = max(maxName, 10)
	longest := 0
	for _, item := range l.Items {
		longest = max(longest, runewidth.StringWidth(item.Name))
	}
	maxName = min(maxName, longest)

	for _, item := range l.Items {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%2d. ", item.Rank)))
		sb.WriteString(t.theme.Path.Render(padRight(truncateLeft(item.Name, maxName), maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Band(item.Value).Render(padLeft(item.Metric, maxMetric)))
		if item.Context != "" {
			sb.WriteString("  ")
			sb.WriteString(t.theme.Muted.Render(item.Context))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) iconStyle(kind string) (string, lipgloss.Style) {
	switch kind {
	case pattern.KindSuccess:
		return t.theme.Icons.Good, t.theme.Good
	case pattern.KindError:
		return t.theme.Icons.Poor, t.theme.Poor
	case pattern.KindWarning:
		return t.theme.Icons.Fair, t.theme.Fair
	default:
		return t.theme.Icons.Info, t.theme.Muted
	}
}

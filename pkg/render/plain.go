package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/covrec/pkg/pattern"
)

// Plain renders patterns as terse text with no ANSI codes, for logs and pipes.
type Plain struct{}

// NewPlain creates a plain renderer.
func NewPlain() *Plain {
	return &Plain{}
}

// Render formats all patterns as plain text.
func (p *Plain) Render(patterns []pattern.Pattern) string {
	var sb strings.Builder
	for _, pat := range patterns {
		switch v := pat.(type) {
		case *pattern.Summary:
			sb.WriteString(v.Label + "\n")
			for _, m := range v.Metrics {
				fmt.Fprintf(&sb, "  %s: %s\n", m.Label, m.Value)
			}
		case *pattern.Leaderboard:
			if len(v.Items) == 0 {
				continue
			}
			sb.WriteString(leaderboardHeader(v) + "\n")
			for _, item := range v.Items {
				fmt.Fprintf(&sb, "  %d. %s %s", item.Rank, item.Name, item.Metric)
				if item.Context != "" {
					fmt.Fprintf(&sb, " (%s)", item.Context)
				}
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func leaderboardHeader(l *pattern.Leaderboard) string {
	header := l.Label
	if l.TotalCount > len(l.Items) {
		header += fmt.Sprintf(" (%d of %d)", len(l.Items), l.TotalCount)
	}
	return header
}

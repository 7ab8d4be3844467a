// Package mapper converts Clover reports into renderable patterns.
package mapper

import (
	"fmt"
	"sort"

	"github.com/dkoosis/covrec/pkg/clover"
	"github.com/dkoosis/covrec/pkg/pattern"
)

// DefaultTopFiles is how many files the least-covered leaderboard shows.
const DefaultTopFiles = 10

// FromClover builds a summary of report and a leaderboard of its least covered
// files. reportPath is shown as written; pass "" to omit it.
func FromClover(report *clover.Report, reportPath string, topN int) []pattern.Pattern {
	if topN <= 0 {
		topN = DefaultTopFiles
	}
	m := report.Project.Metrics

	summary := &pattern.Summary{
		Label: "COVERAGE: " + report.Project.Name,
		Metrics: []pattern.SummaryItem{
			{
				Label: "Statements",
				Value: fmt.Sprintf("%d/%d (%.1f%%)", m.CoveredStatements, m.Statements, m.Percent()),
				Kind:  percentKind(m),
			},
			{Label: "Files", Value: fmt.Sprintf("%d in %d packages", m.Files, m.Packages), Kind: pattern.KindInfo},
		},
	}
	if reportPath != "" {
		summary.Metrics = append(summary.Metrics, pattern.SummaryItem{Label: "Report", Value: reportPath, Kind: pattern.KindInfo})
	}

	var items []pattern.LeaderboardItem
	for _, pkg := range report.Project.Packages {
		for _, f := range pkg.Files {
			name := f.Path
			if name == "" {
				name = f.Name
			}
			items = append(items, pattern.LeaderboardItem{
				Name:    name,
				Metric:  fmt.Sprintf("%.1f%%", f.Metrics.Percent()),
				Value:   f.Metrics.Percent(),
				Context: fmt.Sprintf("%d/%d stmts", f.Metrics.CoveredStatements, f.Metrics.Statements),
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value < items[j].Value
		}
		return items[i].Name < items[j].Name
	})

	total := len(items)
	if len(items) > topN {
		items = items[:topN]
	}
	for i := range items {
		items[i].Rank = i + 1
	}

	return []pattern.Pattern{
		summary,
		&pattern.Leaderboard{
			Label:      "Least covered files",
			MetricName: "Coverage",
			Items:      items,
			TotalCount: total,
		},
	}
}

func percentKind(m clover.Metrics) string {
	switch pct := m.Percent(); {
	case m.Statements == 0:
		return pattern.KindInfo
	case pct < 50:
		return pattern.KindError
	case pct < 80:
		return pattern.KindWarning
	default:
		return pattern.KindSuccess
	}
}

package pattern

// Leaderboard is a ranked list of items by a numeric metric.
type Leaderboard struct {
	Label      string            `json:"label"`
	MetricName string            `json:"metric_name"` // e.g. "Coverage"
	Items      []LeaderboardItem `json:"items"`
	TotalCount int               `json:"total_count"` // total before truncation to the top N
}

// LeaderboardItem is a single ranked entry.
type LeaderboardItem struct {
	Name    string  `json:"name"`   // display name, usually a file path
	Metric  string  `json:"metric"` // formatted value, e.g. "42.0%"
	Value   float64 `json:"value"`  // numeric value used for ranking
	Rank    int     `json:"rank"`
	Context string  `json:"context,omitempty"` // e.g. "3/7 stmts"
}

func (l *Leaderboard) Type() PatternType { return PatternTypeLeaderboard }

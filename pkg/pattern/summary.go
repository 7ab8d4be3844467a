package pattern

// Metric kinds, which drive coloring.
const (
	KindSuccess = "success"
	KindWarning = "warning"
	KindError   = "error"
	KindInfo    = "info"
)

// Summary is a headline plus a short list of metrics.
type Summary struct {
	Label   string        `json:"label"`
	Metrics []SummaryItem `json:"metrics"`
}

// SummaryItem is a single metric in a summary.
type SummaryItem struct {
	Label string `json:"label"` // e.g. "Statements", "Report"
	Value string `json:"value"` // formatted value
	Kind  string `json:"kind"`  // one of the Kind constants
}

func (s *Summary) Type() PatternType { return PatternTypeSummary }

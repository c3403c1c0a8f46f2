// pkg/api/reports_v1.go
package api

// ReportV1 is the stable JSON/JSONL/YAML schema of one consumer's results.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ReportV1 struct {
	RunID    string             `json:"run_id" yaml:"run_id"`
	Consumer string             `json:"consumer" yaml:"consumer"`
	Source   string             `json:"source,omitempty" yaml:"source,omitempty"`
	Counters map[string]int64   `json:"counters,omitempty" yaml:"counters,omitempty"`
	Values   map[string]float64 `json:"values,omitempty" yaml:"values,omitempty"`
	Table    *TableV1           `json:"table,omitempty" yaml:"table,omitempty"`
}

// TableV1 is a rectangular result table; every row has len(Columns) cells.
type TableV1 struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// SummaryV1 is the per-run record written next to the reports.
type SummaryV1 struct {
	RunID     string   `json:"run_id" yaml:"run_id"`
	Source    string   `json:"source" yaml:"source"`
	Reference string   `json:"reference,omitempty" yaml:"reference,omitempty"`
	Consumers []string `json:"consumers" yaml:"consumers"`
	Pulled    uint64   `json:"pulled" yaml:"pulled"`
	Accepted  uint64   `json:"accepted" yaml:"accepted"`
	Batches   int      `json:"batches" yaml:"batches"`
	TailSize  int      `json:"tail_size" yaml:"tail_size"`
	Stop      string   `json:"stop" yaml:"stop"`
	ElapsedMS int64    `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// DocumentV1 is what the json and yaml writers emit for one run.
type DocumentV1 struct {
	Summary SummaryV1  `json:"summary" yaml:"summary"`
	Reports []ReportV1 `json:"reports" yaml:"reports"`
}

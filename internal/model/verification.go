package model

import "time"

// ColumnDescriptor describes one column as discovered from a backend.
// Column order is significant; columns are compared positionally.
type ColumnDescriptor struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableStatus is the per-table verification outcome.
type TableStatus string

const (
	TableMatch    TableStatus = "MATCH"
	TableMismatch TableStatus = "MISMATCH"
)

// RunStatus is the whole-run verification outcome.
type RunStatus string

const (
	RunSuccess  RunStatus = "SUCCESS"
	RunMismatch RunStatus = "MISMATCH"
)

// TableVerdict is the immutable result of verifying one table.
type TableVerdict struct {
	Table          string      `json:"table"`
	SourceRowCount int64       `json:"sourceRowCount"`
	TargetRowCount int64       `json:"targetRowCount"`
	SchemaMatch    bool        `json:"schemaMatch"`
	RowDataMatch   bool        `json:"rowDataMatch"`
	Detail         string      `json:"detail,omitempty"`
	Status         TableStatus `json:"status"`
}

// RunSummary aggregates one complete verification run. Verdicts keep the
// source-side table discovery order regardless of completion order.
type RunSummary struct {
	Status           RunStatus      `json:"status"`
	Message          string         `json:"message"`
	CompletedAt      time.Time      `json:"completedAt"`
	Duration         time.Duration  `json:"duration"`
	TotalTables      int            `json:"totalTables"`
	MatchedTables    int            `json:"matchedTables"`
	MismatchedTables int            `json:"mismatchedTables"`
	TotalSourceRows  int64          `json:"totalSourceRows"`
	SourceOnlyTables []string       `json:"sourceOnlyTables,omitempty"`
	TargetOnlyTables []string       `json:"targetOnlyTables,omitempty"`
	Verdicts         []TableVerdict `json:"verdicts"`
}

// ProgressStage identifies where in a run a progress event was emitted.
type ProgressStage string

const (
	StageConnecting  ProgressStage = "connecting"
	StageDiscovering ProgressStage = "discovering"
	StageVerifying   ProgressStage = "verifying"
	StageCompleted   ProgressStage = "completed"
	StageFailed      ProgressStage = "failed"
)

// ProgressEvent is an ephemeral notification pushed while a run executes.
type ProgressEvent struct {
	RunID           string        `json:"runId"`
	Stage           ProgressStage `json:"stage"`
	CurrentTable    string        `json:"currentTable,omitempty"`
	TablesCompleted int           `json:"tablesCompleted"`
	TotalTables     int           `json:"totalTables"`
	Percent         int           `json:"percent"`
	EstimatedLeft   time.Duration `json:"estimatedLeft,omitempty"`
	Message         string        `json:"message,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

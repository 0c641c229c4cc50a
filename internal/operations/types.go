package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StepIDGenerate  = "generate"
	StepIDAggregate = "aggregate"
	StepIDExport    = "export"
	StepIDArchive   = "archive"
)

// Pipeline step names
const (
	StepNameGenerate  = "Observation Generation"
	StepNameAggregate = "Statistical Aggregation"
	StepNameExport    = "Artifact Export"
	StepNameArchive   = "Run Archival"
)

// Context keys for run state
const (
	ContextKeySeed          = "seed"
	ContextKeyWindowDays    = "window_days"
	ContextKeyReferenceDate = "reference_date"
	ContextKeyObservations  = "observations"
	ContextKeyResults       = "results"
	ContextKeyExportedFiles = "exported_files"
)

// WebSocket event types published by the status broadcaster
const (
	EventRunStatus   = "run:status"
	EventRunProgress = "run:progress"
	EventRunComplete = "run:complete"
)

// Default timeouts
const (
	DefaultStepTimeout      = 5 * time.Minute
	DefaultGenerateTimeout  = 2 * time.Minute
	DefaultAggregateTimeout = 1 * time.Minute
	DefaultExportTimeout    = 2 * time.Minute
	DefaultArchiveTimeout   = 30 * time.Second
)

// RunRequest describes one analysis run to execute
type RunRequest struct {
	ID            string    `json:"id"`
	Seed          int64     `json:"seed"`
	WindowDays    int       `json:"window_days"`
	ReferenceDate time.Time `json:"reference_date"`
}

// RunResponse is the outcome of a run execution
type RunResponse struct {
	ID       string                `json:"id"`
	Status   RunStatus             `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}

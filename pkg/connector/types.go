// Package connector provides public types shared by the actorwatch runtime and CLI:
// the job description a run executes and the result it reports.
package connector

import "time"

// Default job values. A run with no configuration uses exactly these.
const (
	DefaultSource         = "sample_data.csv"
	DefaultFilteredOutput = "Battles_Explosions_remote-violence.csv"
	DefaultOutput         = "by_actor_and_region.csv"
	DefaultSQLiteTable    = "by_actor_and_region"
	DefaultJobName        = "by-actor-and-region"
)

// DefaultEventTypes is the event-type allow-list applied by the loader.
var DefaultEventTypes = []string{"Battles", "Explosions/Remote violence"}

// Job describes one batch run: where events come from, which are kept and where
// the per-actor summary goes.
type Job struct {
	// Name identifies the job in logs
	Name string `json:"name"`

	// Source is a file path or http(s) URL of the event table
	Source string `json:"source"`

	// SourceFormat is "csv" or "xlsx"; empty means detect from the extension
	SourceFormat string `json:"sourceFormat,omitempty"`

	// EventTypes is the event-type allow-list
	EventTypes []string `json:"eventTypes"`

	// Where is an optional boolean expression AND-ed with the allow-list
	Where string `json:"where,omitempty"`

	// FilteredOutput is where the filtered event table is written
	FilteredOutput string `json:"filteredOutput"`

	// Output is the destination of the per-actor summary
	Output OutputConfig `json:"output"`

	// Period pre-selects the year and month; empty fields are prompted for
	Period PeriodConfig `json:"period,omitempty"`
}

// OutputConfig describes a destination table.
type OutputConfig struct {
	// Path is the destination file
	Path string `json:"path"`

	// Format is "csv", "xlsx" or "sqlite"; empty means detect from the extension
	Format string `json:"format,omitempty"`

	// Table is the SQLite table name, or the sheet name for xlsx
	Table string `json:"table,omitempty"`
}

// PeriodConfig holds raw, unvalidated year and month answers.
type PeriodConfig struct {
	Year  string `json:"year,omitempty"`
	Month string `json:"month,omitempty"`
}

// NewDefaultJob returns the job a run executes when nothing is configured.
func NewDefaultJob() *Job {
	eventTypes := make([]string, len(DefaultEventTypes))
	copy(eventTypes, DefaultEventTypes)
	return &Job{
		Name:           DefaultJobName,
		Source:         DefaultSource,
		EventTypes:     eventTypes,
		FilteredOutput: DefaultFilteredOutput,
		Output: OutputConfig{
			Path:  DefaultOutput,
			Table: DefaultSQLiteTable,
		},
	}
}

// ExecutionResult represents the result of a run.
type ExecutionResult struct {
	// RunID uniquely identifies the run
	RunID string `json:"runId"`

	// JobName is the name of the executed job
	JobName string `json:"jobName"`

	// Status is "success" or "error"
	Status string `json:"status"`

	// StartedAt is when execution started
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when execution completed
	CompletedAt time.Time `json:"completedAt"`

	// RecordsRead is the number of rows fetched from the source
	RecordsRead int `json:"recordsRead"`

	// RecordsSelected is the number of rows left after the period selection
	RecordsSelected int `json:"recordsSelected"`

	// RecordsWritten is the number of summary rows written
	RecordsWritten int `json:"recordsWritten"`

	// Error contains error details if execution failed
	Error *ExecutionError `json:"error,omitempty"`
}

// Duration returns the wall time of the run.
func (r *ExecutionResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ExecutionError contains details about an execution failure.
type ExecutionError struct {
	// Code is the error code (INPUT_FAILED, FILTER_FAILED, ...)
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Module is the stage where the error occurred
	Module string `json:"module,omitempty"`

	// Category is the error classification (io, schema, ...)
	Category string `json:"category,omitempty"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`
}

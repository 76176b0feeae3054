// Package runtime provides the job execution engine.
// It orchestrates the execution of Input, Filter, and Output modules.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/modules/filter"
	"github.com/actorwatch/runtime/internal/modules/input"
	"github.com/actorwatch/runtime/internal/modules/output"
	"github.com/actorwatch/runtime/internal/table"
	"github.com/actorwatch/runtime/pkg/connector"
)

// Error codes for run errors
const (
	ErrCodeInputFailed  = "INPUT_FAILED"
	ErrCodeFilterFailed = "FILTER_FAILED"
	ErrCodeOutputFailed = "OUTPUT_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
)

// Execution status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Stage names used in logs and ExecutionError.Module
const (
	StageInput  = "input"
	StageFilter = "filter"
	StageOutput = "output"
)

// Common errors
var (
	// ErrNilJob is returned when the job is nil
	ErrNilJob = errors.New("job is nil")

	// ErrNilInputModule is returned when input module is nil
	ErrNilInputModule = errors.New("input module is nil")

	// ErrNilOutputModule is returned when output module is nil
	ErrNilOutputModule = errors.New("output module is nil")
)

// selectionCounter is implemented by the filter that selects the period.
type selectionCounter interface {
	SelectedRows() int
}

// Executor runs one job: Input → Filters → Output.
//
// The Executor only sees modules through their interfaces, so module packages
// never depend on the runtime.
type Executor struct {
	inputModule   input.Module
	filterModules []filter.Module
	outputModule  output.Module
}

// NewExecutorWithModules creates an executor with all modules configured.
// filterModules run in order and may be empty.
func NewExecutorWithModules(inputModule input.Module, filterModules []filter.Module, outputModule output.Module) *Executor {
	return &Executor{
		inputModule:   inputModule,
		filterModules: filterModules,
		outputModule:  outputModule,
	}
}

// stageTimings holds timing measurements for each execution stage
type stageTimings struct {
	inputDuration  time.Duration
	filterDuration time.Duration
	outputDuration time.Duration
}

// Execute runs the job. Both modules are closed before Execute returns.
//
// The returned result is never nil; on failure it carries the error code, the
// failing stage and the error category, and the error is returned as well.
func (e *Executor) Execute(ctx context.Context, job *connector.Job) (*connector.ExecutionResult, error) {
	startedAt := time.Now()
	result := &connector.ExecutionResult{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		Status:    StatusError,
	}
	runCtx := logger.RunContext{RunID: result.RunID, FilterIndex: -1}

	if err := e.validateExecution(job, result); err != nil {
		logger.LogError("run rejected", runCtx, err)
		return result, err
	}
	result.JobName = job.Name
	runCtx.JobName = job.Name

	logger.LogRunStart(runCtx)
	defer e.closeModule(runCtx, StageOutput, e.outputModule)

	var timings stageTimings

	t, err := e.executeInput(ctx, runCtx, result, &timings)
	// Release the source before filtering; the table is already in memory.
	e.closeModule(runCtx, StageInput, e.inputModule)
	if err != nil {
		return e.fail(runCtx, result, startedAt, err)
	}

	t, err = e.executeFilters(ctx, runCtx, t, result, &timings)
	if err != nil {
		return e.fail(runCtx, result, startedAt, err)
	}

	if err := e.executeOutput(ctx, runCtx, t, result, &timings); err != nil {
		return e.fail(runCtx, result, startedAt, err)
	}

	e.finalizeSuccess(runCtx, result, startedAt, timings)
	return result, nil
}

// validateExecution checks the job and modules before anything runs.
func (e *Executor) validateExecution(job *connector.Job, result *connector.ExecutionResult) error {
	var err error
	module := ""
	switch {
	case job == nil:
		err = ErrNilJob
	case e.inputModule == nil:
		err, module = ErrNilInputModule, StageInput
	case e.outputModule == nil:
		err, module = ErrNilOutputModule, StageOutput
	default:
		return nil
	}
	result.CompletedAt = time.Now()
	result.Error = buildExecutionError(ErrCodeInvalidInput, module, err)
	return err
}

func (e *Executor) executeInput(ctx context.Context, runCtx logger.RunContext, result *connector.ExecutionResult, timings *stageTimings) (*table.Table, error) {
	stageCtx := runCtx
	stageCtx.Stage = StageInput
	logger.LogStageStart(stageCtx)

	start := time.Now()
	t, err := e.fetch(ctx)
	timings.inputDuration = time.Since(start)

	if err != nil {
		result.Error = buildExecutionError(ErrCodeInputFailed, StageInput, err)
		logger.LogStageEnd(stageCtx, 0, timings.inputDuration, &logger.StageError{
			Code:    ErrCodeInputFailed,
			Message: err.Error(),
		})
		return nil, fmt.Errorf("executing input module: %w", err)
	}

	result.RecordsRead = t.Len()
	logger.LogStageEnd(stageCtx, t.Len(), timings.inputDuration, nil)
	return t, nil
}

func (e *Executor) fetch(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := e.inputModule.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errhandling.NewParseError("input module returned no table", nil)
	}
	return t, nil
}

// executeFilters runs all filter modules in sequence.
func (e *Executor) executeFilters(ctx context.Context, runCtx logger.RunContext, t *table.Table, result *connector.ExecutionResult, timings *stageTimings) (*table.Table, error) {
	stageCtx := runCtx
	stageCtx.Stage = StageFilter
	logger.LogStageStart(stageCtx)

	start := time.Now()
	current := t
	for i, m := range e.filterModules {
		if m == nil {
			logger.Warn("nil filter module encountered; skipping",
				slog.String("run_id", runCtx.RunID),
				slog.String("stage", StageFilter),
				slog.Int("filter_index", i),
			)
			continue
		}

		out, err := e.processFilter(ctx, m, current)
		if err != nil {
			timings.filterDuration = time.Since(start)
			msg := fmt.Sprintf("filter module %d failed: %v", i, err)
			result.Error = buildExecutionError(ErrCodeFilterFailed, StageFilter, err)
			result.Error.Message = msg
			result.Error.Details = map[string]interface{}{
				"filterIndex": i,
				"filterType":  fmt.Sprintf("%T", m),
			}
			logger.LogStageEnd(stageCtx, current.Len(), timings.filterDuration, &logger.StageError{
				Code:    ErrCodeFilterFailed,
				Message: msg,
			})
			return nil, fmt.Errorf("executing filter module %d: %w", i, err)
		}

		logger.Debug("filter module completed",
			slog.String("run_id", runCtx.RunID),
			slog.Int("filter_index", i),
			slog.String("filter_type", fmt.Sprintf("%T", m)),
			slog.Int("input_records", current.Len()),
			slog.Int("output_records", out.Len()),
		)
		if sc, ok := m.(selectionCounter); ok {
			result.RecordsSelected = sc.SelectedRows()
		}
		current = out
	}
	timings.filterDuration = time.Since(start)

	logger.LogStageEnd(stageCtx, current.Len(), timings.filterDuration, nil)
	return current, nil
}

func (e *Executor) processFilter(ctx context.Context, m filter.Module, t *table.Table) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := m.Process(ctx, t)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return table.New(t.Columns...), nil
	}
	return out, nil
}

func (e *Executor) executeOutput(ctx context.Context, runCtx logger.RunContext, t *table.Table, result *connector.ExecutionResult, timings *stageTimings) error {
	stageCtx := runCtx
	stageCtx.Stage = StageOutput
	logger.LogStageStart(stageCtx)

	start := time.Now()
	written, err := e.send(ctx, t)
	timings.outputDuration = time.Since(start)
	result.RecordsWritten = written

	if err != nil {
		result.Error = buildExecutionError(ErrCodeOutputFailed, StageOutput, err)
		logger.LogStageEnd(stageCtx, t.Len(), timings.outputDuration, &logger.StageError{
			Code:    ErrCodeOutputFailed,
			Message: err.Error(),
		})
		return fmt.Errorf("executing output module: %w", err)
	}

	logger.LogStageEnd(stageCtx, written, timings.outputDuration, nil)
	return nil
}

func (e *Executor) send(ctx context.Context, t *table.Table) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return e.outputModule.Send(ctx, t)
}

// fail stamps the completion time and logs the end of a failed run.
func (e *Executor) fail(runCtx logger.RunContext, result *connector.ExecutionResult, startedAt time.Time, err error) (*connector.ExecutionResult, error) {
	result.Status = StatusError
	result.CompletedAt = time.Now()
	logger.LogError("run failed", runCtx, err)
	logger.LogRunEnd(runCtx, StatusError, result.RecordsWritten, time.Since(startedAt))
	return result, err
}

func (e *Executor) finalizeSuccess(runCtx logger.RunContext, result *connector.ExecutionResult, startedAt time.Time, timings stageTimings) {
	result.Status = StatusSuccess
	result.CompletedAt = time.Now()
	result.Error = nil

	total := time.Since(startedAt)
	logger.LogRunEnd(runCtx, StatusSuccess, result.RecordsWritten, total)
	logger.LogMetrics(runCtx, logger.RunMetrics{
		TotalDuration:  total,
		InputDuration:  timings.inputDuration,
		FilterDuration: timings.filterDuration,
		OutputDuration: timings.outputDuration,
		RecordsRead:    result.RecordsRead,
		RecordsWritten: result.RecordsWritten,
	})
}

// moduleCloser interface for modules that can be closed.
type moduleCloser interface {
	Close() error
}

// closeModule closes a module and logs any error.
func (e *Executor) closeModule(runCtx logger.RunContext, stage string, m moduleCloser) {
	if m == nil {
		return
	}
	if err := m.Close(); err != nil {
		logger.Warn("failed to close module",
			slog.String("run_id", runCtx.RunID),
			slog.String("module", stage),
			slog.String("error", err.Error()),
		)
	}
}

// buildExecutionError creates an ExecutionError with the classified category.
func buildExecutionError(code, module string, err error) *connector.ExecutionError {
	return &connector.ExecutionError{
		Code:     code,
		Message:  err.Error(),
		Module:   module,
		Category: string(errhandling.ClassifyError(err).Category),
	}
}

package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/modules/filter"
	"github.com/actorwatch/runtime/internal/modules/input"
	"github.com/actorwatch/runtime/internal/modules/output"
	"github.com/actorwatch/runtime/internal/period"
	"github.com/actorwatch/runtime/internal/table"
	"github.com/actorwatch/runtime/pkg/connector"
)

// =============================================================================
// Mock Implementations for Testing
// =============================================================================

// MockInputModule is a test mock for input.Module interface
type MockInputModule struct {
	data        *table.Table
	err         error
	fetchCalled bool
	closed      bool
}

func NewMockInputModule(data *table.Table, err error) *MockInputModule {
	return &MockInputModule{data: data, err: err}
}

func (m *MockInputModule) Fetch(_ context.Context) (*table.Table, error) {
	m.fetchCalled = true
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

func (m *MockInputModule) Close() error {
	m.closed = true
	return nil
}

var _ input.Module = (*MockInputModule)(nil)

// MockFilterModule is a test mock for filter.Module interface
type MockFilterModule struct {
	transformer   func(*table.Table) (*table.Table, error)
	err           error
	processCalled bool
	received      *table.Table
}

func NewMockFilterModule(transformer func(*table.Table) (*table.Table, error)) *MockFilterModule {
	return &MockFilterModule{transformer: transformer}
}

func NewMockFilterModuleWithError(err error) *MockFilterModule {
	return &MockFilterModule{err: err}
}

func (m *MockFilterModule) Process(_ context.Context, t *table.Table) (*table.Table, error) {
	m.processCalled = true
	m.received = t
	if m.err != nil {
		return nil, m.err
	}
	if m.transformer != nil {
		return m.transformer(t)
	}
	return t, nil
}

var _ filter.Module = (*MockFilterModule)(nil)

// MockOutputModule is a test mock for output.Module interface
type MockOutputModule struct {
	sent       *table.Table
	err        error
	sendCalled bool
	closed     bool
}

func NewMockOutputModule(err error) *MockOutputModule {
	return &MockOutputModule{err: err}
}

func (m *MockOutputModule) Send(_ context.Context, t *table.Table) (int, error) {
	m.sendCalled = true
	if m.err != nil {
		return 0, m.err
	}
	m.sent = t
	return t.Len(), nil
}

func (m *MockOutputModule) Close() error {
	m.closed = true
	return nil
}

var _ output.Module = (*MockOutputModule)(nil)

func sampleTable(t *testing.T, names ...string) *table.Table {
	t.Helper()
	tbl := table.New("id", "name")
	for i, n := range names {
		if err := tbl.AppendStrings(string(rune('1'+i)), n); err != nil {
			t.Fatalf("AppendStrings failed: %v", err)
		}
	}
	return tbl
}

func testJob() *connector.Job {
	job := connector.NewDefaultJob()
	job.Name = "test-job"
	return job
}

// =============================================================================
// Unit Tests for Job Execution
// =============================================================================

func TestExecutor_Execute_Success(t *testing.T) {
	mockInput := NewMockInputModule(sampleTable(t, "Test 1", "Test 2"), nil)
	mockOutput := NewMockOutputModule(nil)

	executor := NewExecutorWithModules(mockInput, nil, mockOutput)
	result, err := executor.Execute(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Execute() returned unexpected error: %v", err)
	}

	if result.Status != StatusSuccess {
		t.Errorf("Expected status %q, got %q", StatusSuccess, result.Status)
	}
	if result.JobName != "test-job" {
		t.Errorf("Expected JobName 'test-job', got %q", result.JobName)
	}
	if result.RunID == "" {
		t.Error("Expected a run ID")
	}
	if result.RecordsRead != 2 || result.RecordsWritten != 2 {
		t.Errorf("RecordsRead = %d, RecordsWritten = %d, want 2 and 2", result.RecordsRead, result.RecordsWritten)
	}
	if result.Error != nil {
		t.Errorf("Expected no error, got %+v", result.Error)
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Error("CompletedAt is before StartedAt")
	}
	if !mockInput.fetchCalled || !mockOutput.sendCalled {
		t.Error("Fetch() and Send() must both be called")
	}
	if !mockInput.closed || !mockOutput.closed {
		t.Error("Both modules must be closed")
	}
}

func TestExecutor_Execute_RunIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		executor := NewExecutorWithModules(NewMockInputModule(sampleTable(t), nil), nil, NewMockOutputModule(nil))
		result, err := executor.Execute(context.Background(), testJob())
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if seen[result.RunID] {
			t.Fatalf("duplicate run ID %s", result.RunID)
		}
		seen[result.RunID] = true
	}
}

func TestExecutor_Execute_FiltersRunInOrder(t *testing.T) {
	var order []string
	step := func(name string) *MockFilterModule {
		return NewMockFilterModule(func(in *table.Table) (*table.Table, error) {
			order = append(order, name)
			return in.Filter(func(r table.Row) bool { return r.Index != len(order)-1 }), nil
		})
	}
	first, second := step("first"), step("second")
	mockOutput := NewMockOutputModule(nil)

	executor := NewExecutorWithModules(
		NewMockInputModule(sampleTable(t, "a", "b", "c"), nil),
		[]filter.Module{first, nil, second},
		mockOutput,
	)
	result, err := executor.Execute(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if strings.Join(order, ",") != "first,second" {
		t.Errorf("filter order = %v", order)
	}
	if second.received.Len() != 2 {
		t.Errorf("second filter received %d rows, want 2", second.received.Len())
	}
	if result.RecordsRead != 3 || result.RecordsWritten != 1 {
		t.Errorf("RecordsRead = %d, RecordsWritten = %d, want 3 and 1", result.RecordsRead, result.RecordsWritten)
	}
	if got, _ := mockOutput.sent.Get(0, "name"); got.String() != "c" {
		t.Errorf("remaining row = %q, want c", got.String())
	}
}

func TestExecutor_Execute_EmptyTableFlowsThrough(t *testing.T) {
	f := NewMockFilterModule(nil)
	mockOutput := NewMockOutputModule(nil)

	executor := NewExecutorWithModules(NewMockInputModule(sampleTable(t), nil), []filter.Module{f}, mockOutput)
	result, err := executor.Execute(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !f.processCalled || !mockOutput.sendCalled {
		t.Error("an empty table must still reach every stage")
	}
	if result.Status != StatusSuccess || result.RecordsWritten != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestExecutor_Execute_NilFilterResultBecomesEmptyTable(t *testing.T) {
	f := NewMockFilterModule(func(*table.Table) (*table.Table, error) { return nil, nil })
	mockOutput := NewMockOutputModule(nil)

	executor := NewExecutorWithModules(NewMockInputModule(sampleTable(t, "a"), nil), []filter.Module{f}, mockOutput)
	if _, err := executor.Execute(context.Background(), testJob()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if mockOutput.sent == nil || mockOutput.sent.Len() != 0 || len(mockOutput.sent.Columns) != 2 {
		t.Errorf("sent = %+v, want empty table with the input columns", mockOutput.sent)
	}
}

func TestExecutor_Execute_RecordsSelected(t *testing.T) {
	in := table.New("event_date", "event_month")
	_ = in.AppendStrings("2020-03-01", "2020-03")
	_ = in.AppendStrings("2020-04-01", "2020-04")

	selector := filter.NewPeriodFilter(period.Fixed{Year: "2020", Month: "3"}, nil, ".", nil)
	executor := NewExecutorWithModules(NewMockInputModule(in, nil), []filter.Module{selector}, NewMockOutputModule(nil))

	result, err := executor.Execute(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.RecordsSelected != 1 {
		t.Errorf("RecordsSelected = %d, want 1", result.RecordsSelected)
	}
}

// =============================================================================
// Error paths
// =============================================================================

func TestExecutor_Execute_Errors(t *testing.T) {
	ioErr := errhandling.NewIOError("cannot open source", errors.New("no such file"))
	schemaErr := errhandling.NewSchemaError("event_type")
	writeErr := errhandling.NewIOError("cannot create destination", errors.New("permission denied"))

	tests := []struct {
		name         string
		inputErr     error
		filterErr    error
		outputErr    error
		wantCode     string
		wantModule   string
		wantCategory string
		wantSent     bool
	}{
		{"input", ioErr, nil, nil, ErrCodeInputFailed, StageInput, "io", false},
		{"filter", nil, schemaErr, nil, ErrCodeFilterFailed, StageFilter, "schema", false},
		{"output", nil, nil, writeErr, ErrCodeOutputFailed, StageOutput, "io", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockInput := NewMockInputModule(sampleTable(t, "a"), tt.inputErr)
			f := NewMockFilterModule(nil)
			if tt.filterErr != nil {
				f = NewMockFilterModuleWithError(tt.filterErr)
			}
			mockOutput := NewMockOutputModule(tt.outputErr)

			executor := NewExecutorWithModules(mockInput, []filter.Module{f}, mockOutput)
			result, err := executor.Execute(context.Background(), testJob())
			if err == nil {
				t.Fatal("Execute() expected error, got nil")
			}
			for _, want := range []error{tt.inputErr, tt.filterErr, tt.outputErr} {
				if want != nil && !errors.Is(err, want) {
					t.Errorf("error %v does not wrap %v", err, want)
				}
			}

			if result == nil || result.Error == nil {
				t.Fatalf("result = %+v, want error details", result)
			}
			if result.Status != StatusError {
				t.Errorf("Status = %q, want %q", result.Status, StatusError)
			}
			if result.Error.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Error.Code, tt.wantCode)
			}
			if result.Error.Module != tt.wantModule {
				t.Errorf("Module = %q, want %q", result.Error.Module, tt.wantModule)
			}
			if result.Error.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", result.Error.Category, tt.wantCategory)
			}
			if result.CompletedAt.IsZero() {
				t.Error("CompletedAt must be set on failure")
			}
			if mockOutput.sendCalled != tt.wantSent {
				t.Errorf("sendCalled = %v, want %v", mockOutput.sendCalled, tt.wantSent)
			}
			if !mockInput.closed || !mockOutput.closed {
				t.Error("Both modules must be closed on failure")
			}
		})
	}
}

func TestExecutor_Execute_FilterErrorDetails(t *testing.T) {
	failing := NewMockFilterModuleWithError(errhandling.NewSchemaError("admin1"))
	after := NewMockFilterModule(nil)

	executor := NewExecutorWithModules(
		NewMockInputModule(sampleTable(t, "a"), nil),
		[]filter.Module{NewMockFilterModule(nil), failing, after},
		NewMockOutputModule(nil),
	)
	result, _ := executor.Execute(context.Background(), testJob())

	if after.processCalled {
		t.Error("filters after a failure must not run")
	}
	if result.Error.Details["filterIndex"] != 1 {
		t.Errorf("filterIndex = %v, want 1", result.Error.Details["filterIndex"])
	}
	if !strings.Contains(result.Error.Message, "filter module 1 failed") {
		t.Errorf("Message = %q", result.Error.Message)
	}
}

func TestExecutor_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		in      input.Module
		out     output.Module
		job     *connector.Job
		wantErr error
	}{
		{"nil job", NewMockInputModule(sampleTable(t), nil), NewMockOutputModule(nil), nil, ErrNilJob},
		{"nil input", nil, NewMockOutputModule(nil), testJob(), ErrNilInputModule},
		{"nil output", NewMockInputModule(sampleTable(t), nil), nil, testJob(), ErrNilOutputModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewExecutorWithModules(tt.in, nil, tt.out).Execute(context.Background(), tt.job)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if result == nil || result.Error == nil || result.Error.Code != ErrCodeInvalidInput {
				t.Errorf("result = %+v, want INVALID_INPUT", result)
			}
		})
	}
}

func TestExecutor_Execute_NilTableFromInput(t *testing.T) {
	result, err := NewExecutorWithModules(NewMockInputModule(nil, nil), nil, NewMockOutputModule(nil)).
		Execute(context.Background(), testJob())
	if err == nil {
		t.Fatal("Execute() expected error for a nil table")
	}
	if result.Error.Code != ErrCodeInputFailed || result.Error.Category != "parse" {
		t.Errorf("Error = %+v", result.Error)
	}
}

func TestExecutor_Execute_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewMockFilterModule(func(in *table.Table) (*table.Table, error) {
		cancel()
		return in, nil
	})
	mockOutput := NewMockOutputModule(nil)

	executor := NewExecutorWithModules(NewMockInputModule(sampleTable(t, "a"), nil), []filter.Module{f}, mockOutput)
	result, err := executor.Execute(ctx, testJob())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if mockOutput.sendCalled {
		t.Error("Send() must not run after cancellation")
	}
	if result.Error.Code != ErrCodeOutputFailed {
		t.Errorf("Code = %q, want %q", result.Error.Code, ErrCodeOutputFailed)
	}
}

// =============================================================================
// Logging
// =============================================================================

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := logger.Logger
	logger.Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { logger.Logger = original })
	return &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestExecutor_Execute_LogsRunAndStages(t *testing.T) {
	buf := captureLogs(t)

	executor := NewExecutorWithModules(NewMockInputModule(sampleTable(t, "a"), nil), []filter.Module{NewMockFilterModule(nil)}, NewMockOutputModule(nil))
	result, err := executor.Execute(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	stages := map[string]bool{}
	var sawStart, sawEnd, sawMetrics bool
	for _, entry := range logEntries(t, buf) {
		if entry["run_id"] != result.RunID {
			continue
		}
		switch entry["msg"] {
		case "run started":
			sawStart = entry["job_name"] == "test-job"
		case "stage completed":
			stages[entry["stage"].(string)] = true
		case "run completed":
			sawEnd = entry["status"] == StatusSuccess
		case "run metrics":
			sawMetrics = entry["records_read"] == float64(1)
		}
	}

	if !sawStart || !sawEnd || !sawMetrics {
		t.Errorf("start=%v end=%v metrics=%v, want all true", sawStart, sawEnd, sawMetrics)
	}
	for _, s := range []string{StageInput, StageFilter, StageOutput} {
		if !stages[s] {
			t.Errorf("missing 'stage completed' for %s", s)
		}
	}
}

func TestExecutor_Execute_LogsStageFailure(t *testing.T) {
	buf := captureLogs(t)

	executor := NewExecutorWithModules(
		NewMockInputModule(nil, errhandling.NewIOError("cannot open source", nil)),
		nil,
		NewMockOutputModule(nil),
	)
	_, _ = executor.Execute(context.Background(), testJob())

	found := false
	for _, entry := range logEntries(t, buf) {
		if entry["msg"] == "stage failed" && entry["stage"] == StageInput {
			found = entry["error_code"] == ErrCodeInputFailed
		}
	}
	if !found {
		t.Error("Expected a 'stage failed' entry for the input stage")
	}
}

// Package factory builds the modules of a run from a connector.Job.
//
// Source and destination modules are looked up in the registry by format, so
// adding a format does not touch this package. The filter chain is fixed:
// event-type filter, month deriver, period selector, actor unifier, aggregator.
package factory

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/modules/filter"
	"github.com/actorwatch/runtime/internal/modules/input"
	"github.com/actorwatch/runtime/internal/modules/output"
	"github.com/actorwatch/runtime/internal/period"
	"github.com/actorwatch/runtime/internal/registry"
	"github.com/actorwatch/runtime/pkg/connector"
)

// ErrNilJob is returned when no job is given.
var ErrNilJob = errhandling.NewConfigError("job is nil", nil)

// CreateInputModule creates the source module for job.
// The format is job.SourceFormat, or detected from the source extension.
func CreateInputModule(job *connector.Job) (input.Module, error) {
	if job == nil {
		return nil, ErrNilJob
	}
	format := input.DetectFormat(job.Source, job.SourceFormat)
	constructor := registry.GetInputConstructor(format)
	if constructor == nil {
		return nil, unknownFormat("source", format, registry.ListInputFormats())
	}
	m, err := constructor(job)
	if err != nil {
		return nil, fmt.Errorf("creating %s source: %w", format, err)
	}
	return m, nil
}

// CreateOutputModule creates the destination module for the summary table.
func CreateOutputModule(cfg connector.OutputConfig) (output.Module, error) {
	format := output.DetectFormat(cfg.Path, cfg.Format)
	constructor := registry.GetOutputConstructor(format)
	if constructor == nil {
		return nil, unknownFormat("output", format, registry.ListOutputFormats())
	}
	m, err := constructor(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s output: %w", format, err)
	}
	return m, nil
}

// CreateFilteredEventsSink creates the sink that receives the event table right
// after the event-type filter. It is always CSV with a leading index column.
func CreateFilteredEventsSink(path string) (*output.CSVSink, error) {
	sink, err := output.NewCSVSink(path, true)
	if err != nil {
		return nil, fmt.Errorf("creating filtered events output: %w", err)
	}
	return sink, nil
}

// CreateFilterModules creates the filter chain for job.
//
// resolver supplies the period; console receives the period report. tee
// receives the filtered event table and may be nil to skip writing it.
func CreateFilterModules(job *connector.Job, resolver period.Resolver, console io.Writer, tee filter.Sink) ([]filter.Module, error) {
	if job == nil {
		return nil, ErrNilJob
	}
	if resolver == nil {
		return nil, errhandling.NewConfigError("no period resolver", nil)
	}

	eventFilter, err := filter.NewEventTypeFilter(job.EventTypes, job.Where, tee)
	if err != nil {
		return nil, fmt.Errorf("invalid event filter: %w", err)
	}

	return []filter.Module{
		eventFilter,
		filter.NewMonthDeriver(),
		filter.NewPeriodFilter(resolver, console, OutputDir(job.Output.Path), job.EventTypes),
		filter.NewActorUnifier(),
		filter.NewAggregator(),
	}, nil
}

// OutputDir returns the absolute directory that will hold path.
// It falls back to the relative directory if the working directory is unknown.
func OutputDir(path string) string {
	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func unknownFormat(kind, format string, known []string) error {
	return errhandling.NewConfigError(
		fmt.Sprintf("unknown %s format %q (known: %s)", kind, format, strings.Join(known, ", ")), nil)
}

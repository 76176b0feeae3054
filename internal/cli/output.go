package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/actorwatch/runtime/pkg/connector"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// PrintExecutionResult displays the run result. Failures go to errW.
func PrintExecutionResult(w, errW io.Writer, result *connector.ExecutionResult, err error, opts OutputOptions) {
	if result == nil {
		fmt.Fprintln(errW, "✗ No execution result available")
		return
	}

	if err != nil {
		fmt.Fprintln(errW, "✗ Run failed")
		if result.Error != nil {
			fmt.Fprintf(errW, "  Stage: %s\n", result.Error.Module)
			fmt.Fprintf(errW, "  Error: %s\n", result.Error.Message)
			if opts.Verbose {
				fmt.Fprintf(errW, "  Code: %s\n", result.Error.Code)
				fmt.Fprintf(errW, "  Category: %s\n", result.Error.Category)
				fmt.Fprintf(errW, "  Run ID: %s\n", result.RunID)
			}
		} else {
			fmt.Fprintf(errW, "  Error: %v\n", err)
		}
		return
	}

	if opts.Quiet {
		return
	}
	fmt.Fprintln(w, "✓ Run completed successfully")
	fmt.Fprintf(w, "  Status: %s\n", result.Status)
	fmt.Fprintf(w, "  Events read: %d\n", result.RecordsRead)
	fmt.Fprintf(w, "  Events in period: %d\n", result.RecordsSelected)
	fmt.Fprintf(w, "  Summary rows written: %d\n", result.RecordsWritten)
	if opts.Verbose {
		fmt.Fprintf(w, "  Run ID: %s\n", result.RunID)
		fmt.Fprintf(w, "  Duration: %v\n", result.Duration())
	}
}

// PrintJobSummary prints where a job reads from and writes to.
func PrintJobSummary(w io.Writer, job *connector.Job) {
	if job == nil {
		return
	}
	fmt.Fprintf(w, "  Job: %s\n", job.Name)
	fmt.Fprintf(w, "  Source: %s\n", job.Source)
	fmt.Fprintf(w, "  Event types: %s\n", strings.Join(job.EventTypes, ", "))
	if job.Where != "" {
		fmt.Fprintf(w, "  Where: %s\n", job.Where)
	}
	fmt.Fprintf(w, "  Filtered events: %s\n", job.FilteredOutput)
	fmt.Fprintf(w, "  Output: %s\n", job.Output.Path)
	if job.Period.Year != "" || job.Period.Month != "" {
		fmt.Fprintf(w, "  Period: year=%q month=%q\n", job.Period.Year, job.Period.Month)
	}
}

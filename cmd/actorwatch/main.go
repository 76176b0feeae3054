// Package main provides the CLI entry point for actorwatch.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/actorwatch/runtime/internal/cli"
	"github.com/actorwatch/runtime/internal/config"
	"github.com/actorwatch/runtime/internal/factory"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/modules/filter"
	"github.com/actorwatch/runtime/internal/period"
	"github.com/actorwatch/runtime/internal/runtime"
	"github.com/actorwatch/runtime/pkg/connector"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

// Build information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// exitError carries an exit code out of a cobra command.
// The message has already been printed when it is returned.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// options holds every flag value of one invocation.
type options struct {
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string

	configPath     string
	sourceFormat   string
	eventTypes     []string
	where          string
	filteredOutput string
	output         string
	outputFormat   string
	outputTable    string
	year           string
	month          string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI with the given arguments and streams and returns the exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	logger.CloseLogFile()
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Usage errors: unknown command or flag, wrong argument count.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitValidationError
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "actorwatch",
		Short: "actorwatch - per-actor regional summaries of conflict events",
		Long: `actorwatch reads a table of armed-conflict events, keeps the event types
of interest, selects one month and writes, for every country and actor, the
list of regions where the actor was involved.

With no configuration it reads sample_data.csv, asks for a year and a month,
and writes Battles_Explosions_remote-violence.csv and by_actor_and_region.csv
to the current directory.

Examples:
  # Interactive run on the default file
  actorwatch run

  # Non-interactive run on a remote file, summary into SQLite
  actorwatch run https://example.com/events.csv --year 2020 --month march -o summary.db

  # Run a job file
  actorwatch run --config job.yaml

  # Validate a job file
  actorwatch validate job.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(cmd, opts)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "Log format on stderr (json or human)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")

	root.AddCommand(newRunCmd(opts), newValidateCmd(opts), newVersionCmd())
	return root
}

func configureLogging(cmd *cobra.Command, opts *options) error {
	format, err := logger.ParseFormat(opts.logFormat)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return &exitError{code: ExitValidationError}
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	} else if opts.quiet {
		level = slog.LevelError
	}

	if opts.logFile != "" {
		if err := logger.SetLogFile(opts.logFile, level, format); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
			return &exitError{code: ExitRuntimeError}
		}
		return nil
	}
	logger.SetLevelAndFormat(level, format)
	return nil
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [source]",
		Short: "Run the event summary job",
		Long: `Run the event summary job.

The source is a CSV file, an XLSX workbook or an http(s) URL of a CSV file.
It overrides the source of the job file, which defaults to sample_data.csv.

When --year and --month (or job.period) are both given the run is
non-interactive and an invalid value fails the run. Otherwise the missing
answers are asked for on the console until they are valid.

Exit codes:
  0 - Run completed (an empty month is not an error)
  1 - Invalid job or flags
  2 - Job file could not be parsed
  3 - Runtime error (unreadable source, missing column, unwritable output)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Job file (YAML, JSON or TOML)")
	f.StringVar(&opts.sourceFormat, "source-format", "", "Source format: csv or xlsx (default: from extension)")
	f.StringSliceVar(&opts.eventTypes, "event-type", nil, "Event type to keep (repeatable)")
	f.StringVar(&opts.where, "where", "", "Extra row condition, e.g. 'country == \"Yemen\"'")
	f.StringVar(&opts.filteredOutput, "filtered-output", "", "Where to write the filtered event table")
	f.StringVarP(&opts.output, "output", "o", "", "Where to write the summary (.csv, .xlsx or .db)")
	f.StringVar(&opts.outputFormat, "output-format", "", "Summary format: csv, xlsx or sqlite (default: from extension)")
	f.StringVar(&opts.outputTable, "output-table", "", "SQLite table or XLSX sheet name")
	f.StringVar(&opts.year, "year", "", "Year to select (yyyy)")
	f.StringVar(&opts.month, "month", "", "Month to select (1-12 or a month name)")
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <job-file>",
		Short: "Validate a job file",
		Long: `Validate a job file against the job schema.

Supports JSON, YAML and TOML. The format is detected from the file
extension (.json, .yaml, .yml, .toml) or the content.

Exit codes:
  0 - Job file is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid syntax)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateJob(cmd, opts, args[0])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

func validateJob(cmd *cobra.Command, opts *options, path string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if !opts.quiet {
		fmt.Fprintf(out, "Validating job file: %s\n", path)
	}

	result := config.ParseConfig(path)
	if code := reportConfigErrors(errOut, result, opts); code != ExitSuccess {
		return &exitError{code: code}
	}

	job, err := config.ConvertToJob(result.Data)
	if err != nil {
		fmt.Fprintf(errOut, "✗ Invalid job: %v\n", err)
		return &exitError{code: ExitValidationError}
	}

	if !opts.quiet {
		fmt.Fprintf(out, "✓ Job file is valid (format: %s)\n", result.Format)
		if opts.verbose {
			cli.PrintJobSummary(out, job)
		}
	}
	return nil
}

func reportConfigErrors(w io.Writer, result *config.Result, opts *options) int {
	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(w, result.ParseErrors, opts.verbose)
		return ExitParseError
	}
	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(w, result.ValidationErrors, opts.verbose, opts.quiet)
		return ExitValidationError
	}
	return ExitSuccess
}

func runJob(cmd *cobra.Command, opts *options, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	job, err := loadJob(opts, args)
	if err != nil {
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) {
			return &exitError{code: reportConfigErrors(errOut, loadErr.Result, opts)}
		}
		fmt.Fprintf(errOut, "✗ Invalid job: %v\n", err)
		return &exitError{code: ExitValidationError}
	}
	if opts.verbose {
		cli.PrintJobSummary(out, job)
	}

	executor, cleanup, err := buildExecutor(job, resolverFor(job, cmd.InOrStdin(), out), out)
	if err != nil {
		fmt.Fprintf(errOut, "✗ Invalid job: %v\n", err)
		return &exitError{code: ExitValidationError}
	}
	defer cleanup()

	result, err := executor.Execute(cmd.Context(), job)
	cli.PrintExecutionResult(out, errOut, result, err, cli.OutputOptions{Verbose: opts.verbose, Quiet: opts.quiet})
	if err != nil {
		return &exitError{code: ExitRuntimeError}
	}
	return nil
}

// loadJob reads the job file (if any) and applies flag overrides.
func loadJob(opts *options, args []string) (*connector.Job, error) {
	job, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if len(args) == 1 {
		job.Source = args[0]
	}
	override := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	override(&job.SourceFormat, opts.sourceFormat)
	override(&job.Where, opts.where)
	override(&job.FilteredOutput, opts.filteredOutput)
	override(&job.Output.Path, opts.output)
	override(&job.Output.Format, opts.outputFormat)
	override(&job.Output.Table, opts.outputTable)
	override(&job.Period.Year, opts.year)
	override(&job.Period.Month, opts.month)
	if len(opts.eventTypes) > 0 {
		job.EventTypes = opts.eventTypes
	}
	return job, nil
}

// resolverFor returns a fixed resolver when both answers are known, and a
// console prompter (pre-filled with any known answer) otherwise.
func resolverFor(job *connector.Job, in io.Reader, out io.Writer) period.Resolver {
	if job.Period.Year != "" && job.Period.Month != "" {
		return period.Fixed{Year: job.Period.Year, Month: job.Period.Month}
	}
	p := period.NewPrompter(in, out)
	p.Year = job.Period.Year
	p.Month = job.Period.Month
	return p
}

// buildExecutor creates every module of the run. cleanup closes the
// filtered-events sink; the executor closes the others.
func buildExecutor(job *connector.Job, resolver period.Resolver, console io.Writer) (*runtime.Executor, func(), error) {
	tee, err := factory.CreateFilteredEventsSink(job.FilteredOutput)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tee.Close(); err != nil {
			logger.Warn("failed to close filtered events output", slog.String("error", err.Error()))
		}
	}

	filters, err := factory.CreateFilterModules(job, resolver, console, filter.Sink(tee))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	in, err := factory.CreateInputModule(job)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	sink, err := factory.CreateOutputModule(job.Output)
	if err != nil {
		_ = in.Close()
		cleanup()
		return nil, nil, err
	}

	return runtime.NewExecutorWithModules(in, filters, sink), cleanup, nil
}

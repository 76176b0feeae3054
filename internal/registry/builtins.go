package registry

import (
	"github.com/actorwatch/runtime/internal/modules/input"
	"github.com/actorwatch/runtime/internal/modules/output"
	"github.com/actorwatch/runtime/pkg/connector"
)

func init() {
	RegisterBuiltins()
}

// registerBuiltinInputModules registers all built-in source formats.
func registerBuiltinInputModules() {
	// csv - local file or http(s) URL
	RegisterInput(input.FormatCSV, func(job *connector.Job) (input.Module, error) {
		return input.NewCSVSource(job.Source)
	})

	// xlsx - first sheet of a workbook
	RegisterInput(input.FormatXLSX, func(job *connector.Job) (input.Module, error) {
		return input.NewXLSXSource(job.Source, "")
	})
}

// registerBuiltinOutputModules registers all built-in destination formats.
// The summary table carries no index column.
func registerBuiltinOutputModules() {
	RegisterOutput(output.FormatCSV, func(cfg connector.OutputConfig) (output.Module, error) {
		return output.NewCSVSink(cfg.Path, false)
	})

	RegisterOutput(output.FormatXLSX, func(cfg connector.OutputConfig) (output.Module, error) {
		return output.NewXLSXSink(cfg.Path, cfg.Table, false)
	})

	RegisterOutput(output.FormatSQLite, func(cfg connector.OutputConfig) (output.Module, error) {
		return output.NewSQLiteSink(cfg.Path, cfg.Table)
	})
}

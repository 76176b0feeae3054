// Package registry maps source and destination format names to module constructors.
//
// # Overview
//
// The factory never switches on a format string. Each format registers a
// constructor here and the factory looks it up by the format detected from the
// job (file extension or explicit "sourceFormat" / "output.format").
//
// # Adding a New Format
//
// To add a new destination format (e.g., "parquet"):
//
//  1. Implement output.Module
//  2. Create a constructor matching OutputConstructor
//  3. Register it, typically from init():
//
//	func init() {
//	    registry.RegisterOutput("parquet", func(cfg connector.OutputConfig) (output.Module, error) {
//	        return NewParquetSink(cfg.Path)
//	    })
//	}
//
// # Built-in Formats
//
// Inputs: csv, xlsx. Outputs: csv, xlsx, sqlite. They are registered in builtins.go.
// An unregistered format is an error; there is no fallback.
package registry

import (
	"sort"
	"sync"

	"github.com/actorwatch/runtime/internal/modules/input"
	"github.com/actorwatch/runtime/internal/modules/output"
	"github.com/actorwatch/runtime/pkg/connector"
)

// InputConstructor creates an input module for a job's source.
type InputConstructor func(job *connector.Job) (input.Module, error)

// OutputConstructor creates an output module for a destination.
type OutputConstructor func(cfg connector.OutputConfig) (output.Module, error)

// inputRegistry holds registered input constructors.
var (
	inputMu       sync.RWMutex
	inputRegistry = make(map[string]InputConstructor)
)

// outputRegistry holds registered output constructors.
var (
	outputMu       sync.RWMutex
	outputRegistry = make(map[string]OutputConstructor)
)

// RegisterInput registers an input constructor by format name.
// Registering an existing format overwrites the previous constructor.
//
// This function is safe for concurrent use.
func RegisterInput(format string, constructor InputConstructor) {
	inputMu.Lock()
	defer inputMu.Unlock()
	inputRegistry[format] = constructor
}

// RegisterOutput registers an output constructor by format name.
// Registering an existing format overwrites the previous constructor.
//
// This function is safe for concurrent use.
func RegisterOutput(format string, constructor OutputConstructor) {
	outputMu.Lock()
	defer outputMu.Unlock()
	outputRegistry[format] = constructor
}

// GetInputConstructor returns the constructor for an input format, or nil.
func GetInputConstructor(format string) InputConstructor {
	inputMu.RLock()
	defer inputMu.RUnlock()
	return inputRegistry[format]
}

// GetOutputConstructor returns the constructor for an output format, or nil.
func GetOutputConstructor(format string) OutputConstructor {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return outputRegistry[format]
}

// ListInputFormats returns the registered input formats, sorted.
func ListInputFormats() []string {
	inputMu.RLock()
	defer inputMu.RUnlock()
	formats := make([]string, 0, len(inputRegistry))
	for f := range inputRegistry {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// ListOutputFormats returns the registered output formats, sorted.
func ListOutputFormats() []string {
	outputMu.RLock()
	defer outputMu.RUnlock()
	formats := make([]string, 0, len(outputRegistry))
	for f := range outputRegistry {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// ClearRegistries removes all registered constructors.
// This is intended for testing purposes only.
func ClearRegistries() {
	inputMu.Lock()
	inputRegistry = make(map[string]InputConstructor)
	inputMu.Unlock()

	outputMu.Lock()
	outputRegistry = make(map[string]OutputConstructor)
	outputMu.Unlock()
}

// RegisterBuiltins (re)registers the built-in formats.
// It runs at init and lets tests restore the registries after ClearRegistries.
func RegisterBuiltins() {
	registerBuiltinInputModules()
	registerBuiltinOutputModules()
}

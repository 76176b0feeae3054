// Package config provides functionality for parsing and validating
// job files (JSON, YAML or TOML) and turning them into a connector.Job.
package config

import (
	"errors"
	"fmt"

	"github.com/actorwatch/runtime/pkg/connector"
)

// ErrInvalidConfig is wrapped by LoadError.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadError is returned by Load when a job file fails to parse or validate.
// Result holds every error found.
type LoadError struct {
	Result *Result
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	errs := e.Result.AllErrors()
	if len(errs) == 0 {
		return ErrInvalidConfig.Error()
	}
	if len(errs) == 1 {
		return fmt.Sprintf("%s: %v", ErrInvalidConfig, errs[0])
	}
	return fmt.Sprintf("%s: %v (and %d more)", ErrInvalidConfig, errs[0], len(errs)-1)
}

// Unwrap returns ErrInvalidConfig.
func (e *LoadError) Unwrap() error {
	return ErrInvalidConfig
}

// IsParseFailure reports whether the file could not be parsed at all.
func (e *LoadError) IsParseFailure() bool {
	return len(e.Result.ParseErrors) > 0
}

// Load parses, validates and converts a job file.
// An empty path returns the default job.
func Load(path string) (*connector.Job, error) {
	if path == "" {
		return connector.NewDefaultJob(), nil
	}

	result := ParseConfig(path)
	if !result.IsValid() {
		return nil, &LoadError{Result: result}
	}

	job, err := ConvertToJob(result.Data)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	return job, nil
}

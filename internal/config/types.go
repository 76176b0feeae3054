package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse error kinds
const (
	ErrorTypeIO     = "io"
	ErrorTypeSyntax = "syntax"
	ErrorTypeFormat = "format"
)

// Rules a job file can break, as reported in ValidationError.Rule.
const (
	RuleRequired     = "required"
	RuleUnknownField = "unknown-field"
	RuleType         = "type"
	RuleEnum         = "enum"
	RulePattern      = "pattern"
	RuleTooShort     = "too-short"
	RuleInvalid      = "invalid"
)

// RootField stands for the whole job file in ValidationError.Field.
const RootField = "(job file)"

// ParseResult is the decoded document returned by one format parser.
type ParseResult struct {
	Data   map[string]interface{}
	Errors []ParseError
	Format string
}

// IsValid returns true if no parsing errors occurred.
func (r *ParseResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ParseError is a job file that could not be read or decoded.
// Line and Column are 1-based; zero means unknown.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Kind    string
	Message string
}

// Location returns "file:line:column", shortened to what is known.
// It is empty when the error is not tied to a file.
func (e ParseError) Location() string {
	if e.File == "" {
		return ""
	}
	loc := e.File
	if e.Line > 0 {
		loc += ":" + strconv.Itoa(e.Line)
		if e.Column > 0 {
			loc += ":" + strconv.Itoa(e.Column)
		}
	}
	return loc
}

func (e ParseError) Error() string {
	if loc := e.Location(); loc != "" {
		return loc + ": " + e.Message
	}
	return e.Message
}

// ValidationError is one job setting that breaks the job schema.
type ValidationError struct {
	// Field is the dotted setting name, e.g. "job.period.month" or "job.eventTypes[1]".
	Field string
	// Rule is one of the Rule constants.
	Rule    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// fieldName turns a schema instance location into a dotted setting name.
func fieldName(location []string) string {
	if len(location) == 0 {
		return RootField
	}
	var sb strings.Builder
	for i, seg := range location {
		if _, err := strconv.Atoi(seg); err == nil && i > 0 {
			sb.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg)
	}
	return sb.String()
}

// childField names a setting inside parent.
func childField(parent, name string) string {
	if parent == RootField {
		return name
	}
	return parent + "." + name
}

// Result is the outcome of ParseConfig: the document plus every problem found.
type Result struct {
	Data             map[string]interface{}
	ParseErrors      []ParseError
	ValidationErrors []ValidationError
	FilePath         string
	// Format is json, yaml or toml.
	Format string
}

// IsValid returns true if no errors occurred.
func (r *Result) IsValid() bool {
	return len(r.ParseErrors) == 0 && len(r.ValidationErrors) == 0
}

// AllErrors returns parse errors followed by validation errors.
func (r *Result) AllErrors() []error {
	errs := make([]error, 0, len(r.ParseErrors)+len(r.ValidationErrors))
	for _, e := range r.ParseErrors {
		errs = append(errs, e)
	}
	for _, e := range r.ValidationErrors {
		errs = append(errs, e)
	}
	return errs
}

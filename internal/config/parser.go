package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Configuration formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// ParseJSONString parses JSON content from a string.
// Returns a ParseResult containing the parsed data or errors.
func ParseJSONString(content string) *ParseResult {
	result := &ParseResult{
		Format: FormatJSON,
	}

	// Handle empty content
	content = strings.TrimSpace(content)
	if content == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected JSON object",
			Kind:    ErrorTypeSyntax,
		})
		return result
	}

	// Parse JSON
	var data interface{}
	err := json.Unmarshal([]byte(content), &data)
	if err != nil {
		parseErr := parseJSONError(err, content)
		result.Errors = append(result.Errors, parseErr)
		return result
	}

	// Check if result is a map (config must be an object)
	if data == nil {
		// null JSON - valid JSON but not a valid config
		return result
	}

	dataMap, ok := data.(map[string]interface{})
	if !ok {
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("invalid configuration: expected JSON object, got %T", data),
			Kind:    ErrorTypeFormat,
		})
		return result
	}

	result.Data = dataMap
	return result
}

// parseJSONError extracts detailed error information from a JSON unmarshaling error.
func parseJSONError(err error, content string) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Kind:    ErrorTypeSyntax,
	}

	// Try to extract line/column from json.SyntaxError
	if syntaxErr, ok := err.(*json.SyntaxError); ok {
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, syntaxErr.Offset)
		parseErr.Message = fmt.Sprintf("JSON syntax error at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())
	}

	// Try to extract information from json.UnmarshalTypeError
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, typeErr.Offset)
		parseErr.Message = fmt.Sprintf("type error at field '%s': expected %s, got %s",
			typeErr.Field, typeErr.Type.String(), typeErr.Value)
	}

	return parseErr
}

// offsetToLineColumn converts a byte offset to line and column numbers (1-based).
func offsetToLineColumn(content string, offset int64) (line, column int) {
	if offset <= 0 {
		return 1, 1
	}

	line = 1
	column = 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// ============================================================================
// Unified Configuration Parser
// ============================================================================

// ParseConfig parses and validates a job file.
// The format comes from the extension (.json, .yaml, .yml, .toml) or, failing
// that, from the content. Validation is skipped when parsing fails.
func ParseConfig(filepath string) *Result {
	result := &Result{
		FilePath: filepath,
	}

	content, err := os.ReadFile(filepath)
	if err != nil {
		result.ParseErrors = append(result.ParseErrors, ParseError{
			File:    filepath,
			Message: fmt.Sprintf("failed to read file: %v", err),
			Kind:    ErrorTypeIO,
		})
		return result
	}

	format := DetectFormat(filepath)
	if format == "" {
		format = detectContentFormat(string(content))
	}
	if format == "" {
		result.ParseErrors = append(result.ParseErrors, ParseError{
			File:    filepath,
			Message: "unable to detect configuration format: not valid JSON, TOML or YAML",
			Kind:    ErrorTypeFormat,
		})
		return result
	}

	parsed := parseString(string(content), format)
	for i := range parsed.Errors {
		if parsed.Errors[i].File == "" {
			parsed.Errors[i].File = filepath
		}
	}
	fill(result, parsed)
	return result
}

// ParseConfigString parses and validates job content from a string.
// If format is empty, it is detected from the content.
func ParseConfigString(content string, format string) *Result {
	result := &Result{
		Format: format,
	}

	if format == "" {
		format = detectContentFormat(content)
		if format == "" {
			result.ParseErrors = append(result.ParseErrors, ParseError{
				Message: "unable to detect configuration format: not valid JSON, TOML or YAML",
				Kind:    ErrorTypeFormat,
			})
			return result
		}
		result.Format = format
	}

	fill(result, parseString(content, format))
	return result
}

func parseString(content, format string) *ParseResult {
	switch format {
	case FormatJSON:
		return ParseJSONString(content)
	case FormatYAML:
		return ParseYAMLString(content)
	case FormatTOML:
		return ParseTOMLString(content)
	default:
		return &ParseResult{
			Format: format,
			Errors: []ParseError{{
				Message: fmt.Sprintf("unsupported format: %s", format),
				Kind:    ErrorTypeFormat,
			}},
		}
	}
}

// fill transfers a parse result and, when parsing succeeded, validates it.
func fill(result *Result, parsed *ParseResult) {
	result.Data = parsed.Data
	result.ParseErrors = parsed.Errors
	result.Format = parsed.Format

	if !parsed.IsValid() {
		return
	}
	result.ValidationErrors = ValidateJob(parsed.Data)
}

// DetectFormat detects the configuration format from file extension.
// Returns "json", "yaml", "toml", or empty string if format cannot be detected.
func DetectFormat(filepath string) string {
	ext := strings.ToLower(path.Ext(filepath))
	switch ext {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return ""
	}
}

func detectContentFormat(content string) string {
	// TOML first: a TOML table header also starts with "[".
	switch {
	case IsTOML(content):
		return FormatTOML
	case IsJSON(content):
		return FormatJSON
	case IsYAML(content):
		return FormatYAML
	default:
		return ""
	}
}

// IsJSON checks if the content appears to be JSON format.
func IsJSON(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	// JSON must start with { or [
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}

// IsTOML checks if the content decodes as a non-empty TOML document.
func IsTOML(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	var data map[string]interface{}
	return toml.Unmarshal([]byte(content), &data) == nil && len(data) > 0
}

// IsYAML checks if the content appears to be valid YAML.
// Note: JSON is also valid YAML, so this may return true for JSON content.
func IsYAML(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}

	// Try to parse as YAML
	var data interface{}
	err := yaml.Unmarshal([]byte(content), &data)
	return err == nil && data != nil
}

// ============================================================================
// TOML Parsing
// ============================================================================

// ParseTOMLString parses TOML content from a string.
func ParseTOMLString(content string) *ParseResult {
	result := &ParseResult{
		Format: FormatTOML,
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected TOML document",
			Kind:    ErrorTypeSyntax,
		})
		return result
	}

	var data map[string]interface{}
	if err := toml.Unmarshal([]byte(content), &data); err != nil {
		result.Errors = append(result.Errors, parseTOMLError(err))
		return result
	}

	result.Data = data
	return result
}

// parseTOMLError extracts the position from a go-toml decode error.
func parseTOMLError(err error) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Kind:    ErrorTypeSyntax,
	}

	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		parseErr.Line, parseErr.Column = decodeErr.Position()
		parseErr.Message = fmt.Sprintf("TOML syntax error: %s", decodeErr.Error())
	}

	return parseErr
}

// ============================================================================
// YAML Parsing
// ============================================================================

// ParseYAMLString parses YAML content from a string.
// Returns a ParseResult containing the parsed data or errors.
func ParseYAMLString(content string) *ParseResult {
	result := &ParseResult{
		Format: FormatYAML,
	}

	// Handle empty content
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		result.Errors = append(result.Errors, ParseError{
			Message: "empty content: expected YAML document",
			Kind:    ErrorTypeSyntax,
		})
		return result
	}

	// Parse YAML
	var data interface{}
	err := yaml.Unmarshal([]byte(content), &data)
	if err != nil {
		parseErr := parseYAMLError(err)
		result.Errors = append(result.Errors, parseErr)
		return result
	}

	// Check if result is a map (config must be an object)
	if data == nil {
		// null YAML or comments only - valid YAML but not a valid config
		return result
	}

	dataMap, ok := data.(map[string]interface{})
	if !ok {
		result.Errors = append(result.Errors, ParseError{
			Message: fmt.Sprintf("invalid configuration: expected YAML mapping, got %T", data),
			Kind:    ErrorTypeFormat,
		})
		return result
	}

	result.Data = dataMap
	return result
}

// parseYAMLError extracts detailed error information from a YAML unmarshaling error.
func parseYAMLError(err error) ParseError {
	parseErr := ParseError{
		Message: err.Error(),
		Kind:    ErrorTypeSyntax,
	}

	// Try to extract line/column from yaml.TypeError
	if typeErr, ok := err.(*yaml.TypeError); ok {
		// TypeError contains multiple error strings
		parseErr.Message = fmt.Sprintf("YAML type error: %s", strings.Join(typeErr.Errors, "; "))
	}

	// The yaml.v3 library includes line info in the error message
	// Format: "yaml: line X: ..."
	if strings.Contains(err.Error(), "yaml: line ") {
		var line int
		_, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line)
		if scanErr == nil {
			parseErr.Line = line
		}
	}

	return parseErr
}

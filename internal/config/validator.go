package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const jobSchemaURL = "https://actorwatch.dev/schemas/job/v1/job-schema.json"

//go:embed schema/job-schema.json
var jobSchema []byte

// printer renders schema error kinds in English.
var printer = message.NewPrinter(language.English)

var compileJobSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var doc interface{}
	if err := json.Unmarshal(jobSchema, &doc); err != nil {
		return nil, fmt.Errorf("decoding job schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(jobSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("adding job schema: %w", err)
	}
	return c.Compile(jobSchemaURL)
})

// ValidateJob checks a decoded job file against the job schema and returns
// one error per offending setting, or nil when the file is valid.
func ValidateJob(data map[string]interface{}) []ValidationError {
	if len(data) == 0 {
		return []ValidationError{{Field: RootField, Rule: RuleRequired, Message: "job file has no settings"}}
	}

	schema, err := compileJobSchema()
	if err != nil {
		return []ValidationError{{Field: RootField, Rule: RuleInvalid, Message: fmt.Sprintf("job schema unavailable: %v", err)}}
	}

	err = schema.Validate(data)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []ValidationError{{Field: RootField, Rule: RuleInvalid, Message: err.Error()}}
	}

	var out []ValidationError
	collectViolations(ve, &out)
	return out
}

// collectViolations walks the error tree; only leaves name a setting.
func collectViolations(ve *jsonschema.ValidationError, out *[]ValidationError) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectViolations(cause, out)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	field := fieldName(ve.InstanceLocation)
	switch k := ve.ErrorKind.(type) {
	case *kind.Required:
		for _, name := range k.Missing {
			*out = append(*out, ValidationError{Field: childField(field, name), Rule: RuleRequired, Message: "is required"})
		}
	case *kind.AdditionalProperties:
		for _, name := range k.Properties {
			*out = append(*out, ValidationError{Field: childField(field, name), Rule: RuleUnknownField, Message: "is not a job setting"})
		}
	default:
		*out = append(*out, ValidationError{
			Field:   field,
			Rule:    ruleOf(ve.ErrorKind),
			Message: ve.ErrorKind.LocalizedString(printer),
		})
	}
}

func ruleOf(k jsonschema.ErrorKind) string {
	switch k.(type) {
	case *kind.Type:
		return RuleType
	case *kind.Enum, *kind.Const:
		return RuleEnum
	case *kind.Pattern:
		return RulePattern
	case *kind.MinItems, *kind.MinLength:
		return RuleTooShort
	default:
		return RuleInvalid
	}
}

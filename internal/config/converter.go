package config

import (
	"fmt"
	"strconv"

	"github.com/actorwatch/runtime/pkg/connector"
)

// ConvertToJob converts parsed configuration data to a Job.
// The data should have been validated against the schema first. Fields that
// are absent keep the defaults of connector.NewDefaultJob.
//
// The configuration is expected to have this structure:
//
//	{
//	  "schemaVersion": "1.0",
//	  "job": {
//	    "name": "...",
//	    "source": "...",
//	    "eventTypes": [...],
//	    "output": {...},
//	    "period": {...}
//	  }
//	}
func ConvertToJob(data map[string]interface{}) (*connector.Job, error) {
	if data == nil {
		return nil, fmt.Errorf("configuration data is nil")
	}

	job := connector.NewDefaultJob()

	raw, ok := data["job"]
	if !ok {
		return job, nil
	}
	jobData, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid 'job' section: expected object, got %T", raw)
	}

	for key, target := range map[string]*string{
		"name":           &job.Name,
		"source":         &job.Source,
		"sourceFormat":   &job.SourceFormat,
		"where":          &job.Where,
		"filteredOutput": &job.FilteredOutput,
	} {
		if err := setString(jobData, key, target); err != nil {
			return nil, fmt.Errorf("invalid 'job.%s': %w", key, err)
		}
	}

	if rawTypes, ok := jobData["eventTypes"]; ok {
		types, err := toStrings(rawTypes)
		if err != nil {
			return nil, fmt.Errorf("invalid 'job.eventTypes': %w", err)
		}
		job.EventTypes = types
	}

	if outputData, ok := jobData["output"].(map[string]interface{}); ok {
		for key, target := range map[string]*string{
			"path":   &job.Output.Path,
			"format": &job.Output.Format,
			"table":  &job.Output.Table,
		} {
			if err := setString(outputData, key, target); err != nil {
				return nil, fmt.Errorf("invalid 'job.output.%s': %w", key, err)
			}
		}
	}

	if periodData, ok := jobData["period"].(map[string]interface{}); ok {
		for key, target := range map[string]*string{
			"year":  &job.Period.Year,
			"month": &job.Period.Month,
		} {
			if v, present := periodData[key]; present {
				s, err := scalarString(v)
				if err != nil {
					return nil, fmt.Errorf("invalid 'job.period.%s': %w", key, err)
				}
				*target = s
			}
		}
	}

	return job, nil
}

func setString(data map[string]interface{}, key string, target *string) error {
	v, ok := data[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	*target = s
	return nil
}

func toStrings(v interface{}) ([]string, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("item %d: expected string, got %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// scalarString accepts the number types produced by the JSON, YAML and TOML decoders.
func scalarString(v interface{}) (string, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case uint64:
		return strconv.FormatUint(n, 10), nil
	case float64:
		if n != float64(int64(n)) {
			return "", fmt.Errorf("expected whole number, got %v", n)
		}
		return strconv.FormatInt(int64(n), 10), nil
	default:
		return "", fmt.Errorf("expected string or number, got %T", v)
	}
}

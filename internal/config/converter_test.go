package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/actorwatch/runtime/pkg/connector"
)

func TestConvertToJob_AllFormatsAgree(t *testing.T) {
	want := &connector.Job{
		Name:           "march-2020",
		Source:         "https://example.com/acled/events.csv",
		EventTypes:     []string{"Battles", "Explosions/Remote violence"},
		Where:          `country == "Yemen"`,
		FilteredOutput: "out/filtered.csv",
		Output: connector.OutputConfig{
			Path:   "out/summary.db",
			Format: "sqlite",
			Table:  "by_actor",
		},
		Period: connector.PeriodConfig{Year: "2020", Month: "march"},
	}

	for _, file := range []string{"valid-job.yaml", "valid-job.json", "valid-job.toml"} {
		t.Run(file, func(t *testing.T) {
			result := ParseConfig(filepath.Join("testdata", file))
			if !result.IsValid() {
				t.Fatalf("unexpected errors: %v", result.AllErrors())
			}
			job, err := ConvertToJob(result.Data)
			if err != nil {
				t.Fatalf("ConvertToJob() error = %v", err)
			}
			if !reflect.DeepEqual(job, want) {
				t.Errorf("ConvertToJob() =\n%+v\nwant\n%+v", job, want)
			}
		})
	}
}

func TestConvertToJob_Defaults(t *testing.T) {
	job, err := ConvertToJob(map[string]interface{}{
		"job": map[string]interface{}{"source": "events.xlsx"},
	})
	if err != nil {
		t.Fatalf("ConvertToJob() error = %v", err)
	}

	want := connector.NewDefaultJob()
	want.Source = "events.xlsx"
	if !reflect.DeepEqual(job, want) {
		t.Errorf("ConvertToJob() = %+v, want %+v", job, want)
	}
}

func TestConvertToJob_Errors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{"nil data", nil},
		{"job not an object", map[string]interface{}{"job": "x"}},
		{"name not a string", map[string]interface{}{"job": map[string]interface{}{"name": 1}}},
		{"event type not a string", map[string]interface{}{"job": map[string]interface{}{"eventTypes": []interface{}{"Battles", 3}}}},
		{"fractional year", map[string]interface{}{"job": map[string]interface{}{"period": map[string]interface{}{"year": 2020.5}}}},
		{"boolean month", map[string]interface{}{"job": map[string]interface{}{"period": map[string]interface{}{"month": true}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ConvertToJob(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestScalarString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{"03", "03"},
		{3, "3"},
		{int64(2020), "2020"},
		{uint64(7), "7"},
		{float64(12), "12"},
	}
	for _, tt := range tests {
		got, err := scalarString(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("scalarString(%v) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path gives the default job", func(t *testing.T) {
		job, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(job, connector.NewDefaultJob()) {
			t.Errorf("Load(\"\") = %+v", job)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		job, err := Load(filepath.Join("testdata", "valid-job.toml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if job.Output.Table != "by_actor" {
			t.Errorf("Output.Table = %q", job.Output.Table)
		}
	})

	t.Run("parse failure", func(t *testing.T) {
		_, err := Load(filepath.Join("testdata", "invalid-yaml.yaml"))
		var loadErr *LoadError
		if !errors.As(err, &loadErr) || !loadErr.IsParseFailure() {
			t.Fatalf("error = %v, want parse LoadError", err)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Error("LoadError must wrap ErrInvalidConfig")
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.json")
		if err := os.WriteFile(path, []byte(`{"job": {"sourceFormat": "parquet"}}`), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		var loadErr *LoadError
		if !errors.As(err, &loadErr) || loadErr.IsParseFailure() {
			t.Fatalf("error = %v, want validation LoadError", err)
		}
	})
}

package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tracelens/tracelens/internal/trace"
)

func TestReporter(t *testing.T) {
	m := trace.NewModel(sampleTrace())

	t.Run("Markdown", func(t *testing.T) {
		for _, format := range []string{"markdown", "md"} {
			var buf bytes.Buffer
			if err := NewReporter(format).Generate(m, Options{}, &buf); err != nil {
				t.Fatalf("Generate(%s) error = %v", format, err)
			}
			if !strings.HasPrefix(buf.String(), "# Trace Report") {
				t.Errorf("format %s: missing markdown heading", format)
			}
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewReporter("json").Generate(m, Options{}, &buf); err != nil {
			t.Fatalf("Generate(json) error = %v", err)
		}

		var report struct {
			Title  string `json:"title"`
			Traces []struct {
				SourceName string `json:"sourceName"`
				Actions    []struct {
					CallID string `json:"callId"`
				} `json:"actions"`
			} `json:"traces"`
		}
		if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if report.Title != "Trace Report" {
			t.Errorf("title = %q, want Trace Report", report.Title)
		}
		if len(report.Traces) != 1 || len(report.Traces[0].Actions) != 2 {
			t.Errorf("JSON shape = %+v, want 1 trace with 2 actions", report)
		}
	})

	t.Run("JSONErrorsOnly", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewReporter("json").Generate(m, Options{Filter: ErrorsOnly}, &buf); err != nil {
			t.Fatalf("Generate(json) error = %v", err)
		}

		var report struct {
			Traces []struct {
				Actions []struct {
					CallID string `json:"callId"`
				} `json:"actions"`
			} `json:"traces"`
		}
		if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(report.Traces[0].Actions) != 1 || report.Traces[0].Actions[0].CallID != "c2" {
			t.Errorf("errors-only JSON actions = %+v, want only c2", report.Traces[0].Actions)
		}

		// Filtering must not mutate the source model.
		if len(m.Traces()[0].Actions) != 2 {
			t.Error("errors-only export mutated the model")
		}
	})

	t.Run("HTML", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewReporter("html").Generate(m, Options{}, &buf); err != nil {
			t.Fatalf("Generate(html) error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "<html") {
			t.Error("HTML output missing html element")
		}
		if !strings.Contains(out, "element not found") {
			t.Error("HTML output missing error message")
		}
	})

	t.Run("HTMLDeterministic", func(t *testing.T) {
		var first, second bytes.Buffer
		if err := NewReporter("html").Generate(m, Options{}, &first); err != nil {
			t.Fatalf("Generate(html) error = %v", err)
		}
		if err := NewReporter("html").Generate(m, Options{}, &second); err != nil {
			t.Fatalf("Generate(html) error = %v", err)
		}
		if first.String() != second.String() {
			t.Error("HTML output differs between identical runs")
		}
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewReporter("pdf").Generate(m, Options{}, &buf); err == nil {
			t.Error("Generate(pdf) = nil error, want unsupported format")
		}
	})
}

package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tracelens/tracelens/internal/trace"
)

// Reporter generates trace reports in one of the supported formats.
type Reporter struct {
	format string
}

// NewReporter creates a reporter for the given format: markdown, html or
// json.
func NewReporter(format string) *Reporter {
	return &Reporter{format: format}
}

// Generate renders the model and writes it to w.
func (r *Reporter) Generate(m *trace.Model, opts Options, w io.Writer) error {
	switch r.format {
	case "markdown", "md":
		_, err := io.WriteString(w, RenderModel(m, opts))
		return err
	case "html":
		return renderHTML(m, opts, w)
	case "json":
		return r.generateJSON(m, opts, w)
	default:
		return fmt.Errorf("unsupported format: %s (supported: markdown, html, json)", r.format)
	}
}

// jsonReport is the serialized shape of a JSON export.
type jsonReport struct {
	Title  string         `json:"title"`
	Traces []*trace.Trace `json:"traces"`
}

func (r *Reporter) generateJSON(m *trace.Model, opts Options, w io.Writer) error {
	title := opts.Title
	if title == "" {
		title = "Trace Report"
	}

	traces := m.Traces()
	if opts.Filter == ErrorsOnly {
		filtered := make([]*trace.Trace, 0, len(traces))
		for _, t := range traces {
			filtered = append(filtered, filterTrace(t))
		}
		traces = filtered
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{Title: title, Traces: traces})
}

// filterTrace returns a shallow copy holding only error-bearing actions.
// The original trace is never mutated.
func filterTrace(t *trace.Trace) *trace.Trace {
	copied := *t
	copied.Actions = make([]*trace.Action, 0, len(t.Actions))
	for _, a := range t.Actions {
		if a.HasError() {
			copied.Actions = append(copied.Actions, a)
		}
	}
	return &copied
}

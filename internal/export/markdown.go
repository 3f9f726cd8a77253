// Package export renders a trace model into deterministic documents:
// markdown, HTML, JSON and Mermaid timelines. Given the same model and
// options, every renderer produces byte-identical output.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tracelens/tracelens/internal/trace"
)

// Filter selects which actions an export includes.
type Filter int

const (
	// All includes every action.
	All Filter = iota
	// ErrorsOnly includes only actions carrying an error: their own
	// ErrorInfo, a failed network exchange, or an error-severity console
	// entry. Included actions always render in full.
	ErrorsOnly
)

// ParseFilter maps the CLI/profile spelling to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", "all":
		return All, nil
	case "errors", "errors-only":
		return ErrorsOnly, nil
	default:
		return All, fmt.Errorf("unknown filter %q (supported: all, errors-only)", s)
	}
}

// Options control rendering. The zero value exports everything.
type Options struct {
	Filter Filter
	// Title overrides the report heading.
	Title string
	// RedactParams lists parameter keys whose values are replaced by
	// "[redacted]" in every rendered document.
	RedactParams []string
}

func (o Options) redacted() map[string]bool {
	if len(o.RedactParams) == 0 {
		return nil
	}
	m := make(map[string]bool, len(o.RedactParams))
	for _, k := range o.RedactParams {
		m[k] = true
	}
	return m
}

// ErrorsSuffix is appended to the base file name of an errors-only export.
const ErrorsSuffix = "_errors"

// DeriveFilename builds the output name from the input archive name: base
// name unchanged for the full export, suffixed for errors-only, extension
// by format.
func DeriveFilename(inputPath string, filter Filter, format string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "trace"
	}
	if filter == ErrorsOnly {
		base += ErrorsSuffix
	}
	ext := ".md"
	switch format {
	case "html":
		ext = ".html"
	case "json":
		ext = ".json"
	}
	return base + ext
}

// RenderModel serializes the whole model to one markdown document.
func RenderModel(m *trace.Model, opts Options) string {
	var b strings.Builder

	title := opts.Title
	if title == "" {
		title = "Trace Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	traces := m.Traces()
	for i, t := range traces {
		if len(traces) > 1 {
			fmt.Fprintf(&b, "## Trace %d: %s\n\n", i+1, t.DisplayTitle())
		}
		renderTrace(&b, t, opts)
		if i < len(traces)-1 {
			b.WriteString("\n---\n\n")
		}
	}
	return b.String()
}

// Render serializes one trace. Output bytes depend only on the trace and
// the options.
func Render(t *trace.Trace, opts Options) string {
	var b strings.Builder
	renderTrace(&b, t, opts)
	return b.String()
}

func renderTrace(b *strings.Builder, t *trace.Trace, opts Options) {
	b.WriteString("## Test Information\n\n")

	if t.Title != "" {
		fmt.Fprintf(b, "- **Title**: %s\n", t.Title)
	}
	fmt.Fprintf(b, "- **Source**: %s\n", t.SourceName)

	if t.Degraded() {
		fmt.Fprintf(b, "- **Load Error**: %s\n\n", t.LoadError)
		return
	}

	if t.Browser != "" {
		fmt.Fprintf(b, "- **Browser**: %s\n", t.Browser)
	}
	if t.Platform != "" {
		fmt.Fprintf(b, "- **Platform**: %s\n", t.Platform)
	}
	if t.SDKVersion != "" {
		fmt.Fprintf(b, "- **SDK Version**: %s\n", t.SDKVersion)
	}
	if t.WallTime > 0 {
		start := time.UnixMilli(int64(t.WallTime)).UTC()
		fmt.Fprintf(b, "- **Start Time**: %s\n", start.Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(b, "- **Duration**: %.2fs\n\n", t.Duration()/1000.0)

	failed := t.FailedActions()

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- **Total Actions**: %d\n", len(t.Actions))
	fmt.Fprintf(b, "- **Failed Actions**: %d\n", failed)
	if len(t.Errors) > 0 {
		fmt.Fprintf(b, "- **Context Errors**: %d\n", len(t.Errors))
	}
	if n := t.Unattributed.Size(); n > 0 {
		fmt.Fprintf(b, "- **Unattributed Entries**: %d\n", n)
	}
	renderStats(b, t.Stats)

	if opts.Filter == ErrorsOnly && failed == 0 && len(t.Errors) == 0 {
		b.WriteString("\n*No errors found in this trace.*\n\n")
		return
	}
	b.WriteString("\n")

	included := make([]*trace.Action, 0, len(t.Actions))
	for _, a := range t.Actions {
		if opts.Filter == ErrorsOnly && !a.HasError() {
			continue
		}
		included = append(included, a)
	}

	if len(included) > 0 {
		b.WriteString("## Actions\n\n")
		redact := opts.redacted()
		for i, a := range included {
			renderAction(b, a, i+1, redact)
		}
	}

	if len(t.Errors) > 0 {
		b.WriteString("## Context Errors\n\n")
		for i, e := range t.Errors {
			fmt.Fprintf(b, "### Error %d\n\n", i+1)
			b.WriteString("```\n")
			b.WriteString(e.Message)
			b.WriteString("\n")
			if e.Stack != "" {
				b.WriteString("\nStack trace:\n")
				b.WriteString(e.Stack)
				b.WriteString("\n")
			}
			b.WriteString("```\n\n")
		}
	}

	if opts.Filter == All && t.Unattributed.Size() > 0 {
		b.WriteString("## Unattributed Events\n\n")
		for _, n := range t.Unattributed.Network {
			fmt.Fprintf(b, "- network: %s\n", formatNetwork(n))
		}
		for _, c := range t.Unattributed.Console {
			fmt.Fprintf(b, "- console [%s]: %s\n", c.Severity, c.Text)
		}
		for _, l := range t.Unattributed.Log {
			fmt.Fprintf(b, "- log %.0fms: %s\n", l.Time, l.Message)
		}
		b.WriteString("\n")
	}
}

func renderStats(b *strings.Builder, s trace.Stats) {
	if s.MalformedLines > 0 {
		fmt.Fprintf(b, "- **Malformed Lines**: %d\n", s.MalformedLines)
	}
	if s.UnknownEvents > 0 {
		fmt.Fprintf(b, "- **Unknown Events**: %d\n", s.UnknownEvents)
	}
	if s.UnpairedEnds > 0 {
		fmt.Fprintf(b, "- **Unpaired Ends**: %d\n", s.UnpairedEnds)
	}
	if s.OpenActions > 0 {
		fmt.Fprintf(b, "- **Open Actions**: %d\n", s.OpenActions)
	}
}

func renderAction(b *strings.Builder, a *trace.Action, index int, redact map[string]bool) {
	status := ""
	switch {
	case a.HasError():
		status = " ⚠️ FAILED"
	case a.Unpaired:
		status = " (unpaired)"
	case a.Open:
		status = " (open)"
	}
	fmt.Fprintf(b, "### %d. %s%s\n\n", index, a.Name(), status)

	if !a.Open && !a.Unpaired {
		fmt.Fprintf(b, "**Duration**: %.0fms  \n", a.Duration())
	}
	fmt.Fprintf(b, "**Start**: %.0fms  \n", a.StartTime)
	if a.Title != "" {
		fmt.Fprintf(b, "**Action**: %s  \n", a.Title)
	}
	b.WriteString("\n")

	if len(a.Params) > 0 {
		b.WriteString("**Parameters**:\n\n```json\n")
		b.WriteString(marshalParams(a.Params, redact))
		b.WriteString("\n```\n\n")
	}

	if a.Error != nil {
		b.WriteString("**Error**:\n\n```\n")
		b.WriteString(a.Error.Message)
		b.WriteString("\n")
		if a.Error.Stack != "" {
			b.WriteString("\nStack trace:\n")
			b.WriteString(a.Error.Stack)
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	if len(a.Network) > 0 {
		b.WriteString("**Network**:\n\n")
		for _, n := range a.Network {
			fmt.Fprintf(b, "- %s\n", formatNetwork(n))
		}
		b.WriteString("\n")
	}

	if len(a.Console) > 0 {
		b.WriteString("**Console**:\n\n")
		for _, c := range a.Console {
			fmt.Fprintf(b, "- [%s] %s\n", c.Severity, c.Text)
		}
		b.WriteString("\n")
	}

	if len(a.Log) > 0 {
		b.WriteString("**Logs**:\n\n")
		for _, l := range a.Log {
			fmt.Fprintf(b, "- %.0fms: %s\n", l.Time, l.Message)
		}
		b.WriteString("\n")
	}

	if len(a.Attachments) > 0 {
		b.WriteString("**Attachments**:\n\n")
		for _, att := range a.Attachments {
			if att.ContentType != "" {
				fmt.Fprintf(b, "- %s (%s)\n", att.Name, att.ContentType)
			} else {
				fmt.Fprintf(b, "- %s\n", att.Name)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
}

func formatNetwork(n trace.NetworkEntry) string {
	method := n.Method
	if method == "" {
		method = "GET"
	}
	if n.Status > 0 {
		return fmt.Sprintf("%d %s %s", n.Status, method, n.URL)
	}
	return fmt.Sprintf("%s %s", method, n.URL)
}

// ParamsJSON renders a parameter map as stable pretty JSON, for display
// surfaces that share the exporter's formatting.
func ParamsJSON(params map[string]any) string {
	return marshalParams(params, nil)
}

// marshalParams renders a parameter map as pretty JSON with redaction
// applied. encoding/json sorts map keys, which keeps output stable.
func marshalParams(params map[string]any, redact map[string]bool) string {
	out := params
	if len(redact) > 0 {
		out = make(map[string]any, len(params))
		for k, v := range params {
			if redact[k] {
				out[k] = "[redacted]"
			} else {
				out[k] = v
			}
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", out)
	}
	return string(data)
}

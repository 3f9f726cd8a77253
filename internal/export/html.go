package export

import (
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"

	"github.com/tracelens/tracelens/internal/trace"
)

// renderHTML writes a standalone HTML report. The template consumes
// precomputed view structs so filtering and redaction stay out of
// template logic.
func renderHTML(m *trace.Model, opts Options, w io.Writer) error {
	tmpl, err := template.New("report").Funcs(sprig.FuncMap()).Parse(htmlReportTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}

	data := buildHTMLReport(m, opts)
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

type htmlReport struct {
	Title  string
	Traces []htmlTrace
}

type htmlTrace struct {
	Title     string
	Source    string
	Browser   string
	Platform  string
	Seconds   float64
	Total     int
	Failed    int
	LoadError string
	NoErrors  bool
	Actions   []htmlAction
	Errors    []trace.ErrorInfo
}

type htmlAction struct {
	Index      int
	Name       string
	Title      string
	Failed     bool
	Open       bool
	Unpaired   bool
	StartMs    float64
	DurationMs float64
	ParamsJSON string
	Error      *trace.ErrorInfo
	Network    []trace.NetworkEntry
	Console    []trace.ConsoleEntry
	Log        []trace.LogLine
}

func buildHTMLReport(m *trace.Model, opts Options) htmlReport {
	title := opts.Title
	if title == "" {
		title = "Trace Report"
	}
	report := htmlReport{Title: title}
	redact := opts.redacted()

	for _, t := range m.Traces() {
		ht := htmlTrace{
			Title:     t.DisplayTitle(),
			Source:    t.SourceName,
			Browser:   t.Browser,
			Platform:  t.Platform,
			Seconds:   t.Duration() / 1000.0,
			Total:     len(t.Actions),
			Failed:    t.FailedActions(),
			LoadError: t.LoadError,
			Errors:    t.Errors,
		}
		if opts.Filter == ErrorsOnly && ht.Failed == 0 && len(t.Errors) == 0 {
			ht.NoErrors = true
		}
		for _, a := range t.Actions {
			if opts.Filter == ErrorsOnly && !a.HasError() {
				continue
			}
			ha := htmlAction{
				Index:      len(ht.Actions) + 1,
				Name:       a.Name(),
				Title:      a.Title,
				Failed:     a.HasError(),
				Open:       a.Open,
				Unpaired:   a.Unpaired,
				StartMs:    a.StartTime,
				DurationMs: a.Duration(),
				Error:      a.Error,
				Network:    a.Network,
				Console:    a.Console,
				Log:        a.Log,
			}
			if len(a.Params) > 0 {
				ha.ParamsJSON = marshalParams(a.Params, redact)
			}
			ht.Actions = append(ht.Actions, ha)
		}
		report.Traces = append(report.Traces, ht)
	}
	return report
}

const htmlReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #1f2937; }
h1 { border-bottom: 2px solid #7c3aed; padding-bottom: .3rem; }
h2 { color: #7c3aed; }
.action { border: 1px solid #e5e7eb; border-radius: 6px; padding: .8rem 1rem; margin: .8rem 0; }
.action.failed { border-color: #ef4444; background: #fef2f2; }
.badge { font-size: .75rem; padding: .1rem .5rem; border-radius: 9999px; background: #e5e7eb; }
.badge.failed { background: #ef4444; color: #fff; }
.meta { color: #6b7280; font-size: .85rem; }
pre { background: #f3f4f6; padding: .6rem; border-radius: 4px; overflow-x: auto; }
ul.entries { margin: .3rem 0; padding-left: 1.2rem; font-size: .9rem; }
</style>
</head>
<body>
<h1>{{ .Title }}</h1>
{{- range .Traces }}
<section>
<h2>{{ .Title }}</h2>
<p class="meta">
source {{ .Source }}
{{- if .Browser }} · {{ .Browser | lower }}{{ end }}
{{- if .Platform }} · {{ .Platform }}{{ end }}
· {{ printf "%.2f" .Seconds }}s
· {{ .Total }} actions ({{ .Failed }} failed)
</p>
{{- if .LoadError }}
<p class="badge failed">load error</p>
<pre>{{ .LoadError }}</pre>
{{- else if .NoErrors }}
<p><em>No errors found in this trace.</em></p>
{{- else }}
{{- range .Actions }}
<div class="action{{ if .Failed }} failed{{ end }}">
<strong>{{ .Index }}. {{ .Name }}</strong>
{{- if .Failed }} <span class="badge failed">FAILED</span>{{ end }}
{{- if .Open }} <span class="badge">open</span>{{ end }}
{{- if .Unpaired }} <span class="badge">unpaired</span>{{ end }}
<div class="meta">start {{ printf "%.0f" .StartMs }}ms{{ if not .Open }} · {{ printf "%.0f" .DurationMs }}ms{{ end }}{{ if .Title }} · {{ .Title }}{{ end }}</div>
{{- if .ParamsJSON }}
<pre>{{ .ParamsJSON }}</pre>
{{- end }}
{{- if .Error }}
<pre>{{ .Error.Message }}{{ if .Error.Stack }}

{{ .Error.Stack }}{{ end }}</pre>
{{- end }}
{{- if .Network }}
<ul class="entries">
{{- range .Network }}
<li>{{ if gt .Status 0 }}{{ .Status }} {{ end }}{{ .Method | default "GET" }} {{ .URL }}</li>
{{- end }}
</ul>
{{- end }}
{{- if .Console }}
<ul class="entries">
{{- range .Console }}
<li>[{{ .Severity }}] {{ .Text }}</li>
{{- end }}
</ul>
{{- end }}
{{- if .Log }}
<ul class="entries">
{{- range .Log }}
<li>{{ printf "%.0f" .Time }}ms: {{ .Message }}</li>
{{- end }}
</ul>
{{- end }}
</div>
{{- end }}
{{- range $i, $e := .Errors }}
<div class="action failed">
<strong>Trace error {{ add $i 1 }}</strong>
<pre>{{ $e.Message }}{{ if $e.Stack }}

{{ $e.Stack }}{{ end }}</pre>
</div>
{{- end }}
{{- end }}
</section>
{{- end }}
</body>
</html>
`

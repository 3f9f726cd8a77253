package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tracelens/tracelens/internal/trace"
)

var infoFormat string

// traceSummary is the serialized shape of one trace in info output.
type traceSummary struct {
	Source       string      `json:"source" yaml:"source"`
	Title        string      `json:"title,omitempty" yaml:"title,omitempty"`
	Browser      string      `json:"browser,omitempty" yaml:"browser,omitempty"`
	Platform     string      `json:"platform,omitempty" yaml:"platform,omitempty"`
	DurationSec  float64     `json:"duration_seconds" yaml:"duration_seconds"`
	Actions      int         `json:"actions" yaml:"actions"`
	Failed       int         `json:"failed_actions" yaml:"failed_actions"`
	Unattributed int         `json:"unattributed_entries,omitempty" yaml:"unattributed_entries,omitempty"`
	Stats        trace.Stats `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
	LoadError    string      `json:"load_error,omitempty" yaml:"load_error,omitempty"`
}

// infoCmd prints per-trace summaries
var infoCmd = &cobra.Command{
	Use:   "info <trace.zip>",
	Short: "Show trace summary and diagnostics",
	Long: `Print a summary for each trace in the archive: title, browser,
duration, action counts and the anomalies absorbed during parsing.

Examples:
  tracelens info trace.zip
  tracelens info report.zip --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		summaries := make([]traceSummary, 0, len(model.Traces()))
		for _, t := range model.Traces() {
			summaries = append(summaries, traceSummary{
				Source:       t.SourceName,
				Title:        t.Title,
				Browser:      t.Browser,
				Platform:     t.Platform,
				DurationSec:  t.Duration() / 1000.0,
				Actions:      len(t.Actions),
				Failed:       t.FailedActions(),
				Unattributed: t.Unattributed.Size(),
				Stats:        t.Stats,
				LoadError:    t.LoadError,
			})
		}

		switch infoFormat {
		case "", "text":
			printSummaries(summaries)
			return nil
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		case "yaml":
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(summaries); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format: %s (supported: text, json, yaml)", infoFormat)
		}
	},
}

func printSummaries(summaries []traceSummary) {
	header := color.New(color.Bold, color.FgCyan)
	okColor := color.New(color.FgGreen)
	badColor := color.New(color.FgRed)
	warnColor := color.New(color.FgYellow)

	for i, s := range summaries {
		title := s.Title
		if title == "" {
			title = s.Source
		}
		fmt.Println()
		header.Printf("Trace %d: %s\n", i+1, title)
		fmt.Println(strings.Repeat("─", 60))

		if s.LoadError != "" {
			badColor.Printf("Load error:          %s\n", s.LoadError)
			continue
		}

		if s.Browser != "" {
			fmt.Printf("Browser:             %s\n", s.Browser)
		}
		if s.Platform != "" {
			fmt.Printf("Platform:            %s\n", s.Platform)
		}
		fmt.Printf("Duration:            %.2fs\n", s.DurationSec)
		fmt.Printf("Actions:             %d\n", s.Actions)
		if s.Failed > 0 {
			badColor.Printf("Failed actions:      %d\n", s.Failed)
		} else {
			okColor.Printf("Failed actions:      0\n")
		}
		if s.Unattributed > 0 {
			warnColor.Printf("Unattributed:        %d\n", s.Unattributed)
		}
		if s.Stats.MalformedLines > 0 {
			warnColor.Printf("Malformed lines:     %d\n", s.Stats.MalformedLines)
		}
		if s.Stats.UnknownEvents > 0 {
			warnColor.Printf("Unknown events:      %d\n", s.Stats.UnknownEvents)
		}
		if s.Stats.UnpairedEnds > 0 {
			warnColor.Printf("Unpaired ends:       %d\n", s.Stats.UnpairedEnds)
		}
		if s.Stats.OpenActions > 0 {
			warnColor.Printf("Open actions:        %d\n", s.Stats.OpenActions)
		}
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringVar(&infoFormat, "format", "text", "output format: text, json, yaml")
}

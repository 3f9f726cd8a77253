package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tracelens/tracelens/internal/export"
	"github.com/tracelens/tracelens/internal/utils"
)

var (
	exportErrorsOnly bool
	exportFormat     string
	exportOutput     string
	exportProfile    string
	exportTitle      string
)

// exportCmd renders a trace archive to a document
var exportCmd = &cobra.Command{
	Use:   "export <trace.zip>",
	Short: "Export a trace archive to markdown, HTML or JSON",
	Long: `Render a trace archive to a deterministic document.

The output file name derives from the archive name: trace.zip becomes
trace.md, or trace_errors.md with --errors-only. Use --output - to write
to stdout.

A profile file bundles recurring export settings:

  tracelens export trace.zip --profile ci-triage.toml

Examples:
  tracelens export trace.zip
  tracelens export trace.zip --errors-only
  tracelens export trace.zip --format html --output report.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		opts := export.Options{Title: exportTitle}
		format := exportFormat
		if format == "" {
			format = viper.GetString("export_format")
		}

		if exportProfile != "" {
			profile, err := export.LoadProfile(exportProfile)
			if err != nil {
				return utils.NewUserError("Failed to load export profile", "", err)
			}
			opts = profile.Options()
			if profile.Export.Format != "" {
				format = profile.Export.Format
			}
			if exportTitle != "" {
				opts.Title = exportTitle
			}
		}
		if exportErrorsOnly || viper.GetBool("errors_only") {
			opts.Filter = export.ErrorsOnly
		}

		model, err := loadModel(cmd.Context(), input)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := export.NewReporter(format).Generate(model, opts, &buf); err != nil {
			return err
		}

		if exportOutput == "-" {
			_, err := os.Stdout.Write(buf.Bytes())
			return err
		}

		out := exportOutput
		if out == "" {
			out = filepath.Join(filepath.Dir(input), export.DeriveFilename(input, opts.Filter, format))
		}
		if err := utils.WriteFile(out, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}

		color.Green("✅ Exported %d trace(s) to %s (format: %s)", len(model.Traces()), out, format)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&exportErrorsOnly, "errors-only", false, "include only actions with errors")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "export format: markdown, html, json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: derived from input, - for stdout)")
	exportCmd.Flags().StringVar(&exportProfile, "profile", "", "TOML export profile file")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "report title override")
}

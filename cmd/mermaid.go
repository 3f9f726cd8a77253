package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tracelens/tracelens/internal/export"
	"github.com/tracelens/tracelens/internal/utils"
)

var mermaidOutput string

// mermaidCmd generates a Mermaid diagram of the action timeline
var mermaidCmd = &cobra.Command{
	Use:   "mermaid <trace.zip>",
	Short: "Generate a Mermaid diagram of the action timeline",
	Long: `Generate a Mermaid flowchart visualizing the recorded actions.

The diagram shows actions in begin order with parent-child nesting and
highlights failures. Output is Markdown with embedded Mermaid code.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var content strings.Builder
		for i, t := range model.Traces() {
			content.WriteString(fmt.Sprintf("# Trace Timeline: %s\n\n", t.DisplayTitle()))
			if t.Degraded() {
				content.WriteString(fmt.Sprintf("*Failed to load: %s*\n\n", t.LoadError))
				continue
			}
			content.WriteString(fmt.Sprintf("**Actions:** %d | **Failed:** %d | **Duration:** %.0fms\n\n",
				len(t.Actions), t.FailedActions(), t.Duration()))
			content.WriteString(export.GenerateMermaid(t))
			if i < len(model.Traces())-1 {
				content.WriteString("\n\n")
			}
		}

		if mermaidOutput != "" {
			if err := utils.WriteFile(mermaidOutput, []byte(content.String())); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✅ Generated Mermaid diagram: %s", mermaidOutput)
		} else {
			fmt.Println(content.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mermaidCmd)
	mermaidCmd.Flags().StringVarP(&mermaidOutput, "output", "o", "", "output file (default: stdout)")
}

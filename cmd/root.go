// Package cmd implements the command-line interface for tracelens.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tracelens/tracelens/internal/utils"
)

var (
	cfgFile string
	verbose bool
	debug   bool
	logger  zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tracelens",
	Short: "Trace archive viewer and exporter",
	Long: `tracelens ingests recorded execution-trace archives and reconstructs
what happened during a test run: actions, network activity, console
output and errors.

Features:
  • Interactive TUI viewer with one tab per trace
  • Deterministic markdown, HTML and JSON exports
  • Errors-only filtering for failure triage
  • Mermaid timeline diagrams

Get started with: tracelens view trace.zip`,
	// A runtime failure is not a usage mistake; keep the help text out of
	// error output.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = utils.NewLogger(debug)
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		zerolog.TimeFieldFormat = time.RFC3339
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tracelens.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug mode")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".tracelens")
	}

	viper.SetEnvPrefix("TRACELENS")
	viper.AutomaticEnv()

	viper.SetDefault("export_format", "markdown")
	viper.SetDefault("errors_only", false)

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetLogger returns the configured logger
func GetLogger() zerolog.Logger {
	return logger
}

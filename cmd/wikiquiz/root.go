package main

import (
	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/api"
	"github.com/wikiquiz/wikiquiz/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "wikiquiz",
	Short: "Quiz generation service for encyclopedia articles",
	Long: `Wikiquiz turns encyclopedia articles into multiple-choice quizzes.

The pipeline includes:
  - Article summary and section extraction with meta-section filtering
  - Sentence bucketing with a minimum-content guard
  - LLM quiz generation with transparent provider fallback
  - Strict response validation with bounded JSON repair`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.wikiquiz/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "wikiquiz home directory (default: ~/.wikiquiz)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

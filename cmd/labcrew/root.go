package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "labcrew",
	Short: "Blood test report analyser",
	Long: `Labcrew analyses blood test reports with a crew of specialized
reasoning agents: a report verifier, a medical doctor, a nutritionist, and
an exercise physiologist cooperating through a dependency-ordered task
graph.

Run a one-shot analysis from the command line:
  labcrew analyze --file report.pdf --query "Is my cholesterol ok?"

Or serve the HTTP API:
  labcrew serve --addr :8000`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

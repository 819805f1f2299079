package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcrossley/labcrew/internal/config"
	"github.com/mcrossley/labcrew/internal/llm"
	"github.com/mcrossley/labcrew/internal/pipeline"
	"github.com/mcrossley/labcrew/internal/store"
	"github.com/mcrossley/labcrew/pkg/models"
)

var (
	analyzeFile  string
	analyzeQuery string
	analyzeMode  string
	analyzeSave  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a blood test report from the command line",
	Long: `Analyze a blood test report without starting the HTTP server.

Modes:
  full     Verification, medical interpretation, nutrition, and exercise (default)
  verify   Document verification only
  medical  Verification plus medical interpretation`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Path to the blood test report (pdf, txt, or md)")
	analyzeCmd.Flags().StringVarP(&analyzeQuery, "query", "q", "", "Question to answer (defaults per mode)")
	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", "full", "Pipeline mode: full, verify, or medical")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Persist the run report in the local database")
	analyzeCmd.MarkFlagRequired("file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	mode, err := pipeline.ParseMode(analyzeMode)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(analyzeFile)
	if err != nil {
		return fmt.Errorf("resolve report path: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	runner, client, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Analyzing %s (%s mode)...\n\n", path, mode)
	report, err := runner.Run(ctx, mode, path, analyzeQuery)
	if err != nil {
		return err
	}

	printReport(report)
	printUsage(client.Tracker())

	if analyzeSave {
		db, err := store.Open(cfg.Server.DBPath)
		if err != nil {
			return fmt.Errorf("open run database: %w", err)
		}
		defer db.Close()
		if err := db.SaveReport(report); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Printf("\nSaved as run %s\n", report.RunID)
	}

	if report.Overall == models.RunStatusFailed {
		return fmt.Errorf("analysis failed")
	}
	return nil
}

func printReport(report *models.RunReport) {
	for _, res := range report.Results {
		switch res.Status {
		case models.TaskStatusSucceeded:
			fmt.Printf("%s %s (%d iterations, %d tool calls)\n",
				color.GreenString("✓"), res.TaskID, res.Iterations, res.ToolCalls)
		default:
			detail := "unknown failure"
			if res.Err != nil {
				detail = fmt.Sprintf("%s: %s", res.Err.Kind, res.Err.Message)
			}
			fmt.Printf("%s %s (%s)\n", color.RedString("✗"), res.TaskID, detail)
		}
	}

	fmt.Printf("\nOverall: %s\n", colorStatus(report.Overall))
	if report.Analysis != "" {
		fmt.Printf("\n%s\n", report.Analysis)
	}
}

func printUsage(tracker *llm.TokenTracker) {
	if tracker.Calls() == 0 {
		return
	}
	in, out := tracker.Total()
	fmt.Printf("\nUsage: %d API calls, %d input / %d output tokens ($%.4f)\n",
		tracker.Calls(), in, out, tracker.Cost())
}

func colorStatus(status models.RunStatus) string {
	switch status {
	case models.RunStatusSucceeded:
		return color.GreenString(string(status))
	case models.RunStatusPartial:
		return color.YellowString(string(status))
	default:
		return color.RedString(string(status))
	}
}

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcrossley/labcrew/internal/config"
	"github.com/mcrossley/labcrew/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted analysis runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a persisted run report",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	runsCmd.AddCommand(runsShowCmd)
}

func openRunDB() (*store.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Server.DBPath)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	db, err := openRunDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListReports(runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  %-9s  %s\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04"), r.Overall, r.Query)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	db, err := openRunDB()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := db.GetReport(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:      %s\n", report.RunID)
	fmt.Printf("Document: %s\n", report.DocumentRef)
	fmt.Printf("Query:    %s\n", report.Query)
	fmt.Printf("Overall:  %s\n\n", colorStatus(report.Overall))
	for _, res := range report.Results {
		marker := color.GreenString("✓")
		if res.Err != nil {
			marker = color.RedString("✗")
		}
		fmt.Printf("%s %s\n", marker, res.TaskID)
	}
	if report.Analysis != "" {
		fmt.Printf("\n%s\n", report.Analysis)
	}
	return nil
}

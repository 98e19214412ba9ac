package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the import history",
	Long:  `Displays the most recent import runs recorded in both databases.`,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs per database (0 = all)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	conso, err := database.OpenConsumptionReadOnly(cfg.GetConsoDBPath())
	if err != nil {
		fmt.Printf("No consumption database at %s\n", cfg.GetConsoDBPath())
	} else {
		defer conso.Close()
		runs, err := conso.ListRuns(ctx, runsLimit)
		if err != nil {
			return fmt.Errorf("listing consumption runs: %w", err)
		}
		printRuns("Consumption", runs)
	}

	dist, err := database.OpenDistanceReadOnly(cfg.GetDistanceDBPath())
	if err != nil {
		fmt.Printf("No distance database at %s\n", cfg.GetDistanceDBPath())
	} else {
		defer dist.Close()
		runs, err := dist.ListRuns(ctx, runsLimit)
		if err != nil {
			return fmt.Errorf("listing distance runs: %w", err)
		}
		printRuns("Distance", runs)
	}

	return nil
}

func printRuns(title string, runs []models.ImportRun) {
	fmt.Printf("\n%s runs:\n", title)
	if len(runs) == 0 {
		fmt.Println("  none")
		return
	}

	fmt.Println("--------------------------------------------------------------------------------")
	fmt.Printf("%-16s  %-24s  %-8s  %8s  %s\n", "Started", "Source", "Status", "Records", "Message")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, r := range runs {
		fmt.Printf("%-16s  %-24s  %-8s  %8s  %s\n",
			humanize.Time(r.StartedAt), r.Source, r.Status, humanize.Comma(int64(r.Records)), r.Message)
	}
}

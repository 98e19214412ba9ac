package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jifmar/fleetwatch/internal/dashboard"
	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the yearly consumption recap",
	Long:  `Prints one line per year with the total volume (m³) and specific consumption (L/mile) of every ship.`,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := database.OpenConsumptionReadOnly(cfg.GetConsoDBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rows, err := db.ListAnnual(context.Background(), database.ConsumptionFilter{})
	if err != nil {
		return fmt.Errorf("listing annual consumption: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("No annual consumption found")
		return nil
	}

	recap, ships := dashboard.Recap(rows)

	header := fmt.Sprintf("%-6s", "Year")
	for _, ship := range ships {
		header += fmt.Sprintf("  %22s", ship)
	}
	fmt.Println(header)
	fmt.Println(strings.Repeat("-", len(header)))

	for _, r := range recap {
		line := fmt.Sprintf("%-6d", r.Year)
		for _, ship := range ships {
			a, ok := r.Ships[ship]
			if !ok {
				line += fmt.Sprintf("  %22s", "-")
				continue
			}
			cell := fmt.Sprintf("%s m³ / %.2f L", humanize.FormatFloat("#,###.#", a.TotalM3), a.LPerMile)
			line += fmt.Sprintf("  %22s", cell)
		}
		fmt.Println(line)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/spf13/cobra"
)

var (
	listShips   []string
	listFrom    int
	listTo      int
	listMonthly bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored data",
	Long:  `Displays the rows stored by the extractors.`,
}

var listConsumptionCmd = &cobra.Command{
	Use:   "consumption",
	Short: "List stored consumption rows",
	RunE:  runListConsumption,
}

var listDistanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "List stored distance samples with the running total",
	RunE:  runListDistance,
}

func init() {
	for _, c := range []*cobra.Command{listConsumptionCmd, listDistanceCmd} {
		c.Flags().IntVar(&listFrom, "from", 0, "First year (inclusive)")
		c.Flags().IntVar(&listTo, "to", 0, "Last year (inclusive)")
	}
	listConsumptionCmd.Flags().StringSliceVar(&listShips, "ship", nil, "Filter by ship (repeatable)")
	listConsumptionCmd.Flags().BoolVar(&listMonthly, "monthly", false, "List monthly volumes instead of annual figures")
	listDistanceCmd.Flags().StringSliceVar(&listShips, "vessel", nil, "Filter by vessel (repeatable)")

	listCmd.AddCommand(listConsumptionCmd, listDistanceCmd)
	rootCmd.AddCommand(listCmd)
}

func runListConsumption(cmd *cobra.Command, args []string) error {
	db, err := database.OpenConsumptionReadOnly(cfg.GetConsoDBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	filter := database.ConsumptionFilter{Ships: listShips, FromYear: listFrom, ToYear: listTo}

	if listMonthly {
		rows, err := db.ListMonthly(ctx, filter)
		if err != nil {
			return fmt.Errorf("listing monthly consumption: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No monthly consumption found")
			return nil
		}

		fmt.Printf("%-6s  %-10s  %-20s  %12s\n", "Year", "Month", "Ship", "m³")
		fmt.Println("------------------------------------------------------")
		var total float64
		for _, r := range rows {
			fmt.Printf("%-6d  %-10s  %-20s  %12s\n", r.Year, r.Month, r.Ship, humanize.FormatFloat("#,###.##", r.TotalM3))
			total += r.TotalM3
		}
		fmt.Println("------------------------------------------------------")
		fmt.Printf("Total: %s m³ (%d records)\n", humanize.FormatFloat("#,###.##", total), len(rows))
		return nil
	}

	rows, err := db.ListAnnual(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing annual consumption: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("No annual consumption found")
		return nil
	}

	fmt.Printf("%-6s  %-20s  %12s  %10s\n", "Year", "Ship", "m³", "L/mile")
	fmt.Println("------------------------------------------------------")
	for _, r := range rows {
		fmt.Printf("%-6d  %-20s  %12s  %10.2f\n", r.Year, r.Ship, humanize.FormatFloat("#,###.##", r.TotalM3), r.LPerMile)
	}
	fmt.Println("------------------------------------------------------")
	fmt.Printf("%d records\n", len(rows))
	return nil
}

func runListDistance(cmd *cobra.Command, args []string) error {
	db, err := database.OpenDistanceReadOnly(cfg.GetDistanceDBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	samples, err := db.ListSamples(context.Background(), database.DistanceFilter{Vessels: listShips, FromYear: listFrom, ToYear: listTo})
	if err != nil {
		return fmt.Errorf("listing distance samples: %w", err)
	}
	if len(samples) == 0 {
		fmt.Println("No distance samples found")
		return nil
	}

	fmt.Printf("%-20s  %-19s  %10s  %10s  %9s  %10s\n", "Vessel", "Date", "Latitude", "Longitude", "nm", "Total nm")
	fmt.Println("-----------------------------------------------------------------------------------")
	totals := make(map[string]float64)
	for _, s := range samples {
		totals[s.Vessel] += s.Distance
		fmt.Printf("%-20s  %-19s  %10.5f  %10.5f  %9.2f  %10.2f\n",
			s.Vessel, s.Timestamp.Format("2006-01-02 15:04:05"), s.Latitude, s.Longitude, s.Distance, totals[s.Vessel])
	}
	fmt.Println("-----------------------------------------------------------------------------------")
	vessels := make([]string, 0, len(totals))
	for v := range totals {
		vessels = append(vessels, v)
	}
	sort.Strings(vessels)
	for _, v := range vessels {
		fmt.Printf("%s: %s nm\n", v, humanize.FormatFloat("#,###.##", totals[v]))
	}
	fmt.Printf("%s samples\n", humanize.Comma(int64(len(samples))))
	return nil
}

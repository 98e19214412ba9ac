package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jifmar/fleetwatch/internal/consumption"
	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/internal/track"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Import source files into the local databases",
}

var extractConsumptionCmd = &cobra.Command{
	Use:   "consumption",
	Short: "Import the yearly consumption workbooks",
	Long: `Reads every Consomation_<year>.xlsx workbook of consumption.input_dir and
stores the annual and monthly volumes of each ship. Re-importing a year
replaces its rows.`,
	RunE: runExtractConsumption,
}

var extractDistanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Import the GPS track files",
	Long: `Reads the semicolon separated track files under
<distance.base_dir>/<year folder>/<vessel>/, computes the distance between
consecutive fixes and stores the sampled positions. Already stored samples
are left untouched.`,
	RunE: runExtractDistance,
}

func init() {
	extractCmd.AddCommand(extractConsumptionCmd, extractDistanceCmd)
	rootCmd.AddCommand(extractCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runExtractConsumption(cmd *cobra.Command, args []string) error {
	if cfg.Consumption.InputDir == "" {
		return fmt.Errorf("consumption.input_dir is not set")
	}

	ctx, stop := signalContext()
	defer stop()

	db, err := database.OpenConsumption(cfg.GetConsoDBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	start := time.Now()
	ext := consumption.NewExtractor(db, cfg.GetLayout(), runID, logger, metrics)
	report, err := ext.Extract(ctx, cfg.Consumption.InputDir)
	pushMetrics(ctx)
	if err != nil {
		return fmt.Errorf("extracting consumption: %w", err)
	}

	fmt.Printf("\nConsumption import (%s)\n", time.Since(start).Round(time.Millisecond))
	fmt.Println("----------------------------------------")
	fmt.Printf("Workbooks found:    %d\n", report.FilesSeen)
	fmt.Printf("Imported:           %d\n", report.FilesImported)
	fmt.Printf("Skipped (no year):  %d\n", report.FilesSkipped)
	fmt.Printf("Failed:             %d\n", report.FilesFailed)
	fmt.Printf("Annual rows:        %s\n", humanize.Comma(int64(report.AnnualRows)))
	fmt.Printf("Monthly rows:       %s\n", humanize.Comma(int64(report.MonthlyRows)))
	fmt.Printf("Database:           %s\n", cfg.GetConsoDBPath())

	return nil
}

func runExtractDistance(cmd *cobra.Command, args []string) error {
	if cfg.Distance.BaseDir == "" {
		return fmt.Errorf("distance.base_dir is not set")
	}
	if len(cfg.Distance.Vessels) == 0 {
		return fmt.Errorf("distance.vessels is empty")
	}

	policy, err := track.NewSamplingPolicy(cfg.GetSamplingMode(), cfg.GetSamplingStride())
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	db, err := database.OpenDistance(cfg.GetDistanceDBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	start := time.Now()
	ext := track.NewExtractor(db, track.Options{
		BaseDir:     cfg.Distance.BaseDir,
		YearFolders: cfg.Distance.YearFolders,
		Vessels:     cfg.Distance.Vessels,
		Sampling:    policy,
	}, runID, logger, metrics)

	report, err := ext.Extract(ctx)
	pushMetrics(ctx)
	if err != nil {
		return fmt.Errorf("extracting distance: %w", err)
	}

	fmt.Printf("\nDistance import (%s)\n", time.Since(start).Round(time.Millisecond))
	fmt.Println("------------------------------------------------------------------------")
	fmt.Printf("%-20s  %5s  %9s  %7s  %7s  %8s  %s\n", "Vessel", "Files", "Rows", "Dropped", "Kept", "New", "Status")
	fmt.Println("------------------------------------------------------------------------")
	for _, v := range report.Vessels {
		fmt.Printf("%-20s  %5d  %9s  %7d  %7d  %8d  %s\n",
			v.Vessel, v.Files, humanize.Comma(int64(v.RowsRead)), v.RowsDropped, v.Kept, v.Inserted, v.Status)
	}
	fmt.Println("------------------------------------------------------------------------")
	fmt.Printf("New samples: %s (database %s)\n", humanize.Comma(int64(report.Inserted())), cfg.GetDistanceDBPath())

	return nil
}

// pushMetrics sends the batch metrics to the configured Pushgateway, if any
func pushMetrics(ctx context.Context) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.GetMetricsJob()); err != nil {
		logger.Warn().Err(err).Msg("metrics push failed")
	}
}

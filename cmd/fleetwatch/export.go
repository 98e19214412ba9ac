package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jifmar/fleetwatch/internal/dashboard"
	"github.com/jifmar/fleetwatch/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportShips  []string
	exportFrom   int
	exportTo     int
	exportYear   int
	exportMetric string
	exportPNG    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dashboard charts as standalone HTML files",
	Long: `Renders every dashboard chart with the given filters into the export
directory. With --png each chart is also captured to an image through a
headless browser.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default: dashboard.export_dir)")
	exportCmd.Flags().StringSliceVar(&exportShips, "ship", nil, "Only these ships or vessels (repeatable)")
	exportCmd.Flags().IntVar(&exportFrom, "from", 0, "First year (inclusive)")
	exportCmd.Flags().IntVar(&exportTo, "to", 0, "Last year (inclusive)")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "Year of the monthly chart (default: latest)")
	exportCmd.Flags().StringVar(&exportMetric, "metric", "total", "Annual metric (total or specific)")
	exportCmd.Flags().BoolVar(&exportPNG, "png", false, "Also write a PNG snapshot of each chart")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	metric, err := dashboard.ParseMetric(exportMetric)
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = cfg.GetExportDir()
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	loader, closeSources, err := openSources()
	if err != nil {
		return err
	}
	defer closeSources()

	ctx, stop := signalContext()
	defer stop()

	data, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	q := dashboard.Query{
		Ships:    exportShips,
		FromYear: exportFrom,
		ToYear:   exportTo,
		Year:     exportYear,
		Metric:   metric,
		Zoom:     cfg.GetMapZoom(),
	}

	width, height := cfg.GetSnapshotSize()
	snapOpts := snapshot.Options{Timeout: cfg.GetSnapshotTimeout(), Width: width, Height: height}

	for _, name := range dashboard.ChartNames {
		chart, err := dashboard.BuildChart(name, data, q)
		if err != nil {
			return err
		}

		htmlPath := filepath.Join(out, chart.Name+".html")
		if err := writeChart(htmlPath, chart); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", htmlPath)

		if !exportPNG {
			continue
		}
		pngPath := filepath.Join(out, chart.Name+".png")
		if err := snapshot.Capture(ctx, htmlPath, pngPath, snapOpts); err != nil {
			logger.Warn().Err(err).Str("chart", name).Msg("snapshot failed")
			continue
		}
		fmt.Printf("Wrote %s\n", pngPath)
	}

	return nil
}

func writeChart(path string, chart dashboard.Chart) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := dashboard.Render(f, chart); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", chart.Name, err)
	}
	return f.Close()
}

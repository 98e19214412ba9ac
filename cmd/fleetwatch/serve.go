package main

import (
	"fmt"

	"github.com/jifmar/fleetwatch/internal/dashboard"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboards over HTTP",
	Long: `Starts the dashboard server: JSON endpoints under /api, chart pages under
/charts and prometheus metrics on /metrics. The databases are read once at
the first request; restart after an extraction to see new rows.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: dashboard.addr or :8050)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.GetDashboardAddr()
	}

	loader, closeSources, err := openSources()
	if err != nil {
		return err
	}
	defer closeSources()

	ctx, stop := signalContext()
	defer stop()

	srv := dashboard.NewServer(loader, dashboard.ServerOptions{
		MapZoom:     cfg.GetMapZoom(),
		CORSOrigins: cfg.Dashboard.CORSOrigins,
		RateLimit:   cfg.Dashboard.RateLimit,
	}, logger, metrics)

	fmt.Printf("Dashboard listening on %s\n", addr)
	return srv.ListenAndServe(ctx, addr)
}

package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jifmar/fleetwatch/internal/config"
	"github.com/jifmar/fleetwatch/internal/dashboard"
	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/internal/logging"
	"github.com/jifmar/fleetwatch/internal/observability"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	// Set by PersistentPreRunE
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics
	runID   string
)

var rootCmd = &cobra.Command{
	Use:   "fleetwatch",
	Short: "Import and chart ship fuel consumption and GPS distance",
	Long: `Fleetwatch extracts yearly fuel consumption workbooks and GPS track files
into two local SQLite databases and renders dashboards from them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console or json)")
}

// setup loads the configuration and builds the shared logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	logger, err = logging.New(logging.Config{Level: logLevel, Format: logFormat})
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	cfg, err = loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	metrics = observability.NewMetrics()
	runID = uuid.NewString()
	logger = logger.With().Str("run_id", runID).Logger()
	return nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openSources opens both datastores read-only for the dashboards. A missing
// datastore reads as an empty dataset; the returned closer releases the others.
func openSources() (*dashboard.Loader, func(), error) {
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var conso dashboard.ConsumptionSource
	if _, err := os.Stat(cfg.GetConsoDBPath()); err == nil {
		db, err := database.OpenConsumptionReadOnly(cfg.GetConsoDBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening consumption database: %w", err)
		}
		closers = append(closers, db.Close)
		conso = db
	} else {
		logger.Warn().Str("path", cfg.GetConsoDBPath()).Msg("consumption database not found")
	}

	var dist dashboard.DistanceSource
	if _, err := os.Stat(cfg.GetDistanceDBPath()); err == nil {
		db, err := database.OpenDistanceReadOnly(cfg.GetDistanceDBPath())
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening distance database: %w", err)
		}
		closers = append(closers, db.Close)
		dist = db
	} else {
		logger.Warn().Str("path", cfg.GetDistanceDBPath()).Msg("distance database not found")
	}

	return dashboard.NewLoader(conso, dist), closeAll, nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/internal/publisher"
	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/spf13/cobra"
)

var publishVessels []string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish vessel summaries to MQTT and Home Assistant",
	Long: `Reads the latest annual consumption and the distance covered by each vessel
and publishes them as retained MQTT messages and, when configured, as Home
Assistant sensor states.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringSliceVar(&publishVessels, "vessel", nil, "Only publish these vessels (repeatable)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	if !cfg.MQTT.Enabled && !cfg.HomeAssistant.Enabled {
		return fmt.Errorf("neither MQTT nor Home Assistant is enabled in config")
	}

	ctx := context.Background()

	var annual []models.AnnualConsumption
	conso, err := database.OpenConsumptionReadOnly(cfg.GetConsoDBPath())
	if err != nil {
		logger.Warn().Err(err).Msg("consumption database unavailable")
	} else {
		defer conso.Close()
		if annual, err = conso.ListAnnual(ctx, database.ConsumptionFilter{Ships: publishVessels}); err != nil {
			return fmt.Errorf("listing annual consumption: %w", err)
		}
	}

	var samples []models.DistanceSample
	dist, err := database.OpenDistanceReadOnly(cfg.GetDistanceDBPath())
	if err != nil {
		logger.Warn().Err(err).Msg("distance database unavailable")
	} else {
		defer dist.Close()
		if samples, err = dist.ListSamples(ctx, database.DistanceFilter{Vessels: publishVessels}); err != nil {
			return fmt.Errorf("listing distance samples: %w", err)
		}
	}

	summaries := publisher.Summarize(annual, samples)
	if len(summaries) == 0 {
		fmt.Println("No data to publish")
		return nil
	}

	mqttCfg := cfg.MQTT
	mqttCfg.TopicPrefix = cfg.GetTopicPrefix()
	haCfg := cfg.HomeAssistant
	haCfg.EntityPrefix = cfg.GetEntityPrefix()

	pub, err := publisher.New(mqttCfg, haCfg)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	published := 0
	for _, s := range summaries {
		if err := pub.PublishVessel(s); err != nil {
			logger.Error().Err(err).Str("vessel", s.Vessel).Msg("publish failed")
			continue
		}
		published++
		fmt.Printf("  %-20s  %d  %10.2f m³  %10.2f nm\n", s.Vessel, s.Year, s.TotalM3, s.DistanceNM)
	}

	fmt.Printf("\nPublished %d of %d vessels\n", published, len(summaries))
	if published < len(summaries) {
		return fmt.Errorf("%d vessels failed to publish", len(summaries)-published)
	}
	return nil
}

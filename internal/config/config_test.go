package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jifmar/fleetwatch/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("bdd2", "conso.db"), cfg.GetConsoDBPath())
	assert.Equal(t, filepath.Join("bdd2", "distance.db"), cfg.GetDistanceDBPath())
	assert.Equal(t, sheet.DefaultLayout(), cfg.GetLayout())
	assert.Equal(t, "daily", cfg.GetSamplingMode())
	assert.Equal(t, 2, cfg.GetSamplingStride())
	assert.Equal(t, ":8050", cfg.GetDashboardAddr())
	assert.Equal(t, "exports", cfg.GetExportDir())
	assert.Equal(t, 5, cfg.GetMapZoom())
	assert.Equal(t, "fleetwatch", cfg.GetTopicPrefix())
	assert.Equal(t, "fleetwatch", cfg.GetMetricsJob())
	assert.Equal(t, 30*time.Second, cfg.GetSnapshotTimeout())

	w, h := cfg.GetSnapshotSize()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 800, h)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
consumption:
  input_dir: /data/conso
  database: out/conso.db
  layout:
    ship_row: 2
    first_ship_col: 1
    total_row: 20
    specific_row: 24
    month_col: 0
distance:
  base_dir: /data/gps
  year_folders: ["2022", "2023"]
  vessels: [JIF LACYDON, JIF GYPTIS]
  sampling:
    mode: raw
    stride: 3
mqtt:
  enabled: true
  broker: localhost:1883
  topic_prefix: ships/
snapshot:
  timeout: 45s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/conso", cfg.Consumption.InputDir)
	assert.Equal(t, "out/conso.db", cfg.GetConsoDBPath())
	assert.Equal(t, 20, cfg.GetLayout().TotalRow)
	assert.Equal(t, []string{"2022", "2023"}, cfg.Distance.YearFolders)
	assert.Equal(t, []string{"JIF LACYDON", "JIF GYPTIS"}, cfg.Distance.Vessels)
	assert.Equal(t, "raw", cfg.GetSamplingMode())
	assert.Equal(t, 3, cfg.GetSamplingStride())
	assert.Equal(t, "ships", cfg.GetTopicPrefix())
	assert.Equal(t, 45*time.Second, cfg.GetSnapshotTimeout())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "consumption: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "consumption:\n  input_dir: /from/file\n")

	t.Setenv("FLEETWATCH_CONSO_INPUT_DIR", "/from/env")
	t.Setenv("FLEETWATCH_VESSELS", "JIF LACYDON, JIF GYPTIS ,")
	t.Setenv("FLEETWATCH_SAMPLING_STRIDE", "4")
	t.Setenv("FLEETWATCH_MQTT_ENABLED", "true")
	t.Setenv("FLEETWATCH_MQTT_BROKER", "broker:1883")
	t.Setenv("FLEETWATCH_HA_ENABLED", "1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Consumption.InputDir)
	assert.Equal(t, []string{"JIF LACYDON", "JIF GYPTIS"}, cfg.Distance.Vessels)
	assert.Equal(t, 4, cfg.GetSamplingStride())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "broker:1883", cfg.MQTT.Broker)
	assert.True(t, cfg.HomeAssistant.Enabled)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("FLEETWATCH_SAMPLING_STRIDE", "two")

	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLEETWATCH_SAMPLING_STRIDE")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, path, "FLEETWATCH_DISTANCE_BASE_DIR=/from/dotenv\n")
	t.Setenv("FLEETWATCH_DISTANCE_BASE_DIR", "")
	require.NoError(t, os.Unsetenv("FLEETWATCH_DISTANCE_BASE_DIR"))

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Distance.BaseDir)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"bad sampling mode", Config{Distance: DistanceConfig{Sampling: SamplingConfig{Mode: "hourly"}}}, true},
		{"negative stride", Config{Distance: DistanceConfig{Sampling: SamplingConfig{Stride: -1}}}, true},
		{"blank vessel", Config{Distance: DistanceConfig{Vessels: []string{"JIF LACYDON", ""}}}, true},
		{"mqtt without broker", Config{MQTT: MQTTConfig{Enabled: true}}, true},
		{"mqtt with broker", Config{MQTT: MQTTConfig{Enabled: true, Broker: "localhost:1883"}}, false},
		{"bad pushgateway url", Config{Metrics: MetricsConfig{PushgatewayURL: "not a url"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{Consumption: ConsumptionConfig{InputDir: "/data/conso"}}

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/conso", loaded.Consumption.InputDir)
}

func TestValidate_HomeAssistant(t *testing.T) {
	cfg := Config{HomeAssistant: HAConfig{Enabled: true, URL: "http://ha.local:8123"}}
	assert.Error(t, cfg.Validate())

	cfg.HomeAssistant.Token = "secret"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "fleetwatch", cfg.GetEntityPrefix())
}

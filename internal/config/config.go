package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jifmar/fleetwatch/internal/sheet"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "FLEETWATCH_"

// Config holds the application configuration
type Config struct {
	Consumption   ConsumptionConfig `yaml:"consumption"`
	Distance      DistanceConfig    `yaml:"distance"`
	Dashboard     DashboardConfig   `yaml:"dashboard,omitempty"`
	MQTT          MQTTConfig        `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig          `yaml:"home_assistant,omitempty"`
	Metrics       MetricsConfig     `yaml:"metrics,omitempty"`
	Snapshot      SnapshotConfig    `yaml:"snapshot,omitempty"`
}

// ConsumptionConfig locates the yearly consumption workbooks
type ConsumptionConfig struct {
	InputDir string        `yaml:"input_dir"`
	Database string        `yaml:"database,omitempty"` // Default bdd2/conso.db
	Layout   *sheet.Layout `yaml:"layout,omitempty"`   // Default sheet.DefaultLayout()
}

// DistanceConfig locates the GPS track files: <base_dir>/<year_folder>/<vessel>/*.csv
type DistanceConfig struct {
	BaseDir     string         `yaml:"base_dir"`
	YearFolders []string       `yaml:"year_folders,omitempty"` // Empty: every subdirectory of base_dir
	Vessels     []string       `yaml:"vessels" validate:"dive,required"`
	Database    string         `yaml:"database,omitempty"` // Default bdd2/distance.db
	Sampling    SamplingConfig `yaml:"sampling,omitempty"`
}

// SamplingConfig selects the trajectory downsampling
type SamplingConfig struct {
	Mode   string `yaml:"mode,omitempty" validate:"omitempty,oneof=daily raw"` // Default daily
	Stride int    `yaml:"stride,omitempty" validate:"gte=0"`                   // Default 2
}

// DashboardConfig holds the HTTP dashboard settings
type DashboardConfig struct {
	Addr        string   `yaml:"addr,omitempty"`       // Default :8050
	ExportDir   string   `yaml:"export_dir,omitempty"` // Default exports
	MapZoom     int      `yaml:"map_zoom,omitempty" validate:"gte=0,lte=22"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
	RateLimit   int      `yaml:"rate_limit,omitempty" validate:"gte=0"` // Requests per minute per IP, 0 disables
}

// MQTTConfig holds the MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker" validate:"required_if=Enabled true"` // e.g., "localhost:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // Default fleetwatch
	ClientID    string `yaml:"client_id,omitempty"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url" validate:"required_if=Enabled true"`   // e.g., "http://homeassistant.local:8123"
	Token        string `yaml:"token" validate:"required_if=Enabled true"` // Long-lived access token
	EntityPrefix string `yaml:"entity_prefix,omitempty"`                   // Default fleetwatch
}

// MetricsConfig holds the Pushgateway settings for batch runs
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url,omitempty" validate:"omitempty,url"`
	Job            string `yaml:"job,omitempty"` // Default fleetwatch
}

// SnapshotConfig holds the headless browser settings for PNG exports
type SnapshotConfig struct {
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Width   int           `yaml:"width,omitempty" validate:"gte=0"`
	Height  int           `yaml:"height,omitempty" validate:"gte=0"`
}

// Load reads the config file, then applies environment overrides
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Validate checks the structural constraints of the configuration
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"CONSO_INPUT_DIR":   &c.Consumption.InputDir,
		"CONSO_DB":          &c.Consumption.Database,
		"DISTANCE_BASE_DIR": &c.Distance.BaseDir,
		"DISTANCE_DB":       &c.Distance.Database,
		"SAMPLING_MODE":     &c.Distance.Sampling.Mode,
		"DASHBOARD_ADDR":    &c.Dashboard.Addr,
		"EXPORT_DIR":        &c.Dashboard.ExportDir,
		"MQTT_BROKER":       &c.MQTT.Broker,
		"MQTT_USERNAME":     &c.MQTT.Username,
		"MQTT_PASSWORD":     &c.MQTT.Password,
		"MQTT_TOPIC_PREFIX": &c.MQTT.TopicPrefix,
		"HA_URL":            &c.HomeAssistant.URL,
		"HA_TOKEN":          &c.HomeAssistant.Token,
		"PUSHGATEWAY_URL":   &c.Metrics.PushgatewayURL,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "VESSELS"); ok {
		c.Distance.Vessels = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "YEAR_FOLDERS"); ok {
		c.Distance.YearFolders = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SAMPLING_STRIDE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parsing %sSAMPLING_STRIDE: %w", EnvPrefix, err)
		}
		c.Distance.Sampling.Stride = n
	}
	bools := map[string]*bool{
		"MQTT_ENABLED": &c.MQTT.Enabled,
		"HA_ENABLED":   &c.HomeAssistant.Enabled,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parsing %s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetConsoDBPath returns the consumption datastore path
func (c *Config) GetConsoDBPath() string {
	if c.Consumption.Database == "" {
		return filepath.Join("bdd2", "conso.db")
	}
	return c.Consumption.Database
}

// GetDistanceDBPath returns the distance datastore path
func (c *Config) GetDistanceDBPath() string {
	if c.Distance.Database == "" {
		return filepath.Join("bdd2", "distance.db")
	}
	return c.Distance.Database
}

// GetLayout returns the workbook layout, falling back to the standard one
func (c *Config) GetLayout() sheet.Layout {
	if c.Consumption.Layout == nil {
		return sheet.DefaultLayout()
	}
	return *c.Consumption.Layout
}

// GetSamplingMode returns "daily" or "raw"
func (c *Config) GetSamplingMode() string {
	if c.Distance.Sampling.Mode == "" {
		return "daily"
	}
	return c.Distance.Sampling.Mode
}

// GetSamplingStride returns the sampling stride with a default of 2
func (c *Config) GetSamplingStride() int {
	if c.Distance.Sampling.Stride <= 0 {
		return 2
	}
	return c.Distance.Sampling.Stride
}

// GetDashboardAddr returns the dashboard listen address
func (c *Config) GetDashboardAddr() string {
	if c.Dashboard.Addr == "" {
		return ":8050"
	}
	return c.Dashboard.Addr
}

// GetExportDir returns the chart export directory
func (c *Config) GetExportDir() string {
	if c.Dashboard.ExportDir == "" {
		return "exports"
	}
	return c.Dashboard.ExportDir
}

// GetMapZoom returns the initial map zoom level
func (c *Config) GetMapZoom() int {
	if c.Dashboard.MapZoom <= 0 {
		return 5
	}
	return c.Dashboard.MapZoom
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "fleetwatch"
	}
	return strings.TrimSuffix(c.MQTT.TopicPrefix, "/")
}

// GetEntityPrefix returns the Home Assistant entity prefix
func (c *Config) GetEntityPrefix() string {
	if c.HomeAssistant.EntityPrefix == "" {
		return "fleetwatch"
	}
	return c.HomeAssistant.EntityPrefix
}

// GetMetricsJob returns the Pushgateway job name
func (c *Config) GetMetricsJob() string {
	if c.Metrics.Job == "" {
		return "fleetwatch"
	}
	return c.Metrics.Job
}

// GetSnapshotTimeout returns the PNG snapshot timeout with a default of 30s
func (c *Config) GetSnapshotTimeout() time.Duration {
	if c.Snapshot.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Snapshot.Timeout
}

// GetSnapshotSize returns the browser viewport used for PNG snapshots
func (c *Config) GetSnapshotSize() (width, height int) {
	width, height = c.Snapshot.Width, c.Snapshot.Height
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 800
	}
	return width, height
}

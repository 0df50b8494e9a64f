package config

import (
	"fmt"
	"math"
	"net/url"
	"os"

	"quake-observer/src/helpers"
	"quake-observer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from YAML bytes, filling defaults before validation.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the built-in dashboard settings.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 7
	}

	d := &c.Dashboard
	if d.Defaults == (models.MFilterSnapshot{}) {
		d.Defaults = models.MFilterSnapshot{MinMagnitude: 1, MaxDepth: 40, TimeRangeHours: 24}
	}
	if d.Controls.Magnitude == (models.MRangeControl{}) {
		d.Controls.Magnitude = models.MRangeControl{Min: 0, Max: 10, Step: 0.1}
	}
	if d.Controls.Depth == (models.MRangeControl{}) {
		d.Controls.Depth = models.MRangeControl{Min: 0, Max: 100, Step: 1}
	}
	if d.Controls.TimeRange == (models.MRangeControl{}) {
		d.Controls.TimeRange = models.MRangeControl{Min: 1, Max: 168, Step: 1}
	}
	if d.RetriesPerMinute == 0 {
		d.RetriesPerMinute = 6
	}
	if d.HistorySize == 0 {
		d.HistorySize = 32
	}
	if d.Map.TileURL == "" {
		d.Map.TileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
		d.Map.Attribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a>`
	}
	if d.Map.Zoom == 0 {
		d.Map.CenterLat, d.Map.CenterLon, d.Map.Zoom = -40.9, 174.9, 5
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty")
	}

	if c.Host == "" {
		return helpers.NewConfigurationError("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return helpers.NewConfigurationError("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return helpers.NewConfigurationError("invalid grpc port number: %d", c.GrpcPort)
	}

	// Backend
	if c.Backend.BaseURL == "" {
		return helpers.NewConfigurationError("backend base_url cannot be empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return helpers.NewConfigurationError("backend base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	if c.Backend.RequestTimeout < 0 {
		return helpers.NewConfigurationError("backend timeout cannot be negative")
	}
	if c.Backend.Proxy != "" {
		if _, err := url.Parse(c.Backend.Proxy); err != nil {
			return helpers.NewConfigurationError("invalid backend proxy %q: %v", c.Backend.Proxy, err)
		}
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return helpers.NewConfigurationError("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return helpers.NewConfigurationError("database connection string cannot be empty for postgres")
		}
	case "none":
	default:
		return helpers.NewConfigurationError("unsupported database type: %s", c.Storage.DBType)
	}
	if c.Storage.RetentionDays < 0 {
		return helpers.NewConfigurationError("retention days cannot be negative")
	}

	// Dashboard
	d := c.Dashboard
	for name, rc := range map[string]models.MRangeControl{
		"magnitude":  d.Controls.Magnitude,
		"depth":      d.Controls.Depth,
		"time_range": d.Controls.TimeRange,
	} {
		if rc.Max <= rc.Min || rc.Step <= 0 {
			return helpers.NewConfigurationError("control %s has an invalid range [%v, %v] step %v", name, rc.Min, rc.Max, rc.Step)
		}
	}
	for name, v := range map[string]float64{
		models.ParamMinMagnitude:   d.Defaults.MinMagnitude,
		models.ParamMaxDepth:       d.Defaults.MaxDepth,
		models.ParamTimeRangeHours: d.Defaults.TimeRangeHours,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return helpers.NewConfigurationError("default %s must be finite", name)
		}
	}
	if d.RefreshIntervalSeconds < 0 {
		return helpers.NewConfigurationError("refresh interval cannot be negative")
	}
	if d.RetriesPerMinute < 0 {
		return helpers.NewConfigurationError("retries per minute cannot be negative")
	}
	if d.HistorySize <= 0 {
		return helpers.NewConfigurationError("history size must be greater than 0")
	}

	return nil
}

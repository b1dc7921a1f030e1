package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")           // Current directory
		v.AddConfigPath("./configs")   // Project configs directory
		v.AddConfigPath("./config")    // Alternative config directory
		v.AddConfigPath("/etc/txcast") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides (TXCAST_DATASET_PATH, ...)
	v.SetEnvPrefix("TXCAST")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	// Dataset defaults
	v.SetDefault("dataset.path", d.Dataset.Path)
	v.SetDefault("dataset.user_path", d.Dataset.UserPath)
	v.SetDefault("dataset.skip_invalid_markers", d.Dataset.SkipInvalidMarkers)
	v.SetDefault("dataset.reload_interval", "0s")
	v.SetDefault("dataset.reload_schedule", "")

	// Forecast defaults
	v.SetDefault("forecast.default_model", d.Forecast.DefaultModel)
	v.SetDefault("forecast.default_horizon", d.Forecast.DefaultHorizon)
	v.SetDefault("forecast.min_horizon", d.Forecast.MinHorizon)
	v.SetDefault("forecast.max_horizon", d.Forecast.MaxHorizon)
	v.SetDefault("forecast.default_granularity", d.Forecast.DefaultGranularity)
	v.SetDefault("forecast.fallback_to_naive", d.Forecast.FallbackToNaive)
	v.SetDefault("forecast.max_iterations", d.Forecast.MaxIterations)
	v.SetDefault("forecast.metric_decimals", d.Forecast.MetricDecimals)

	// Cache defaults
	v.SetDefault("cache.type", d.Cache.Type)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.compress", d.Cache.Compress)
	v.SetDefault("cache.prefix", d.Cache.Prefix)

	// Events defaults
	v.SetDefault("events.type", d.Events.Type)
	v.SetDefault("events.prefix", d.Events.Prefix)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Dataset: DatasetConfig{
			Path:               "./data/agg_trans.csv",
			UserPath:           "./data/agg_user.csv",
			SkipInvalidMarkers: true,
		},
		Forecast: ForecastConfig{
			DefaultModel:       "trend_smoothing",
			DefaultHorizon:     4,
			MinHorizon:         1,
			MaxHorizon:         12,
			DefaultGranularity: "Q",
			FallbackToNaive:    true,
			MaxIterations:      2000,
			MetricDecimals:     2,
		},
		Cache: CacheConfig{
			Type:     "memory",
			TTL:      10 * time.Minute,
			Compress: true,
			Prefix:   "txcast",
		},
		Events: EventsConfig{
			Type:   "none",
			Prefix: "txcast",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

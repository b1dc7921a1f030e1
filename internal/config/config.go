package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Events   EventsConfig   `mapstructure:"events"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`         // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort    int      `mapstructure:"http_port"`    // HTTP server port
	CORSOrigins []string `mapstructure:"cors_origins"` // Allowed browser origins for the dashboard
}

// DatasetConfig represents the transaction dataset source
type DatasetConfig struct {
	Path               string        `mapstructure:"path"`                 // Aggregated transactions file (.csv or .xlsx)
	UserPath           string        `mapstructure:"user_path"`            // Optional per-brand user file
	SkipInvalidMarkers bool          `mapstructure:"skip_invalid_markers"` // Drop rows without a usable year/quarter or date
	ReloadInterval     time.Duration `mapstructure:"reload_interval"`      // 0 disables periodic reload
	ReloadSchedule     string        `mapstructure:"reload_schedule"`      // cron spec, e.g. "0 2 * * *" or "@hourly"
}

// ForecastConfig holds forecasting defaults and limits
type ForecastConfig struct {
	DefaultModel       string `mapstructure:"default_model"`       // naive or trend_smoothing
	DefaultHorizon     int    `mapstructure:"default_horizon"`     // periods ahead when not requested
	MinHorizon         int    `mapstructure:"min_horizon"`         // requests below are rejected
	MaxHorizon         int    `mapstructure:"max_horizon"`         // requests above are rejected
	DefaultGranularity string `mapstructure:"default_granularity"` // M, Q or Y
	FallbackToNaive    bool   `mapstructure:"fallback_to_naive"`   // degrade to naive when the fit does not converge
	MaxIterations      int    `mapstructure:"max_iterations"`      // optimizer iteration budget
	MetricDecimals     int    `mapstructure:"metric_decimals"`     // rounding of reported metrics
}

// CacheConfig represents the forecast result cache
type CacheConfig struct {
	Type     string        `mapstructure:"type"`     // memory (default), redis, none
	URL      string        `mapstructure:"url"`      // redis://localhost:6379/0
	TTL      time.Duration `mapstructure:"ttl"`      // entry lifetime
	Compress bool          `mapstructure:"compress"` // snappy-compress cached payloads
	Prefix   string        `mapstructure:"prefix"`   // key prefix (default: "txcast")
}

// EventsConfig represents the event bus configuration
type EventsConfig struct {
	Type     string `mapstructure:"type"`     // none (default), nats, redis, kafka, memory
	URL      string `mapstructure:"url"`      // nats://localhost:4222, redis://localhost:6379
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication
	Prefix   string `mapstructure:"prefix"`   // Subject/topic/stream prefix (default: "txcast")

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "txcast-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates dataset configuration
func (c *DatasetConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}

	if c.ReloadInterval < 0 {
		return fmt.Errorf("dataset.reload_interval cannot be negative")
	}

	if c.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.ReloadSchedule); err != nil {
			return fmt.Errorf("dataset.reload_schedule: %w", err)
		}
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	switch c.DefaultModel {
	case "naive", "trend_smoothing":
	default:
		return fmt.Errorf("forecast.default_model must be 'naive' or 'trend_smoothing'")
	}

	if c.MinHorizon < 1 {
		return fmt.Errorf("forecast.min_horizon must be at least 1")
	}

	if c.MaxHorizon < c.MinHorizon {
		return fmt.Errorf("forecast.max_horizon cannot be lower than forecast.min_horizon")
	}

	if c.DefaultHorizon < c.MinHorizon || c.DefaultHorizon > c.MaxHorizon {
		return fmt.Errorf("forecast.default_horizon must be within [%d, %d]", c.MinHorizon, c.MaxHorizon)
	}

	switch c.DefaultGranularity {
	case "M", "Q", "Y":
	default:
		return fmt.Errorf("forecast.default_granularity must be one of: M, Q, Y")
	}

	if c.MaxIterations < 1 {
		return fmt.Errorf("forecast.max_iterations must be positive")
	}

	if c.MetricDecimals < 0 || c.MetricDecimals > 10 {
		return fmt.Errorf("forecast.metric_decimals must be within [0, 10]")
	}

	return nil
}

// Validate validates cache configuration
func (c *CacheConfig) Validate() error {
	switch c.Type {
	case "", "none", "memory":
	case "redis":
		if c.URL == "" {
			return fmt.Errorf("cache.url is required for redis cache")
		}
	default:
		return fmt.Errorf("cache.type must be one of: none, memory, redis")
	}

	if c.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	return nil
}

// Validate validates events configuration
func (c *EventsConfig) Validate() error {
	switch c.Type {
	case "", "none", "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("events.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("events.kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("events.type must be one of: none, memory, nats, redis, kafka")
	}

	return nil
}

// Validate validates authentication configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys is required when auth is enabled")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

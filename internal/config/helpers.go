package config

import (
	"net"
	"strconv"
	"strings"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// Enabled reports whether forecast results are cached
func (c *CacheConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

// Enabled reports whether an event bus is configured
func (c *EventsConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

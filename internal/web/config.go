package web

import (
	"net"
	"strconv"

	"github.com/crimeprep/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Features FeatureConfig
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int
	Host string

	// MaxBodyBytes caps request bodies of the clean and prepare endpoints.
	MaxBodyBytes int64
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	PrepareEnabled bool
	EncodeColumns  []string
}

// FromConfig derives the server configuration from the application config.
// Authentication is on whenever an API key is set.
func FromConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	c.Server.Host = cfg.Server.Host
	c.Server.Port = cfg.Server.Port
	c.Auth.APIKey = cfg.Server.APIKey
	c.Auth.Enabled = cfg.Server.APIKey != ""
	c.Features.EncodeColumns = append([]string(nil), cfg.Encode.Columns...)
	return c
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			MaxBodyBytes: 64 << 20,
		},
		Features: FeatureConfig{
			PrepareEnabled: true,
			EncodeColumns:  config.Default().Encode.Columns,
		},
	}
}

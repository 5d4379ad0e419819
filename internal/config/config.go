// Package config loads the crimeprep pipeline configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crimeprep/internal/etl"
	"github.com/crimeprep/internal/records"
)

// Configuration validation errors.
var (
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidPort         = errors.New("server.port must be between 1 and 65535")
	ErrInvalidPoolSize     = errors.New("warehouse.max_open_conns must be at least 1")
	ErrIdleExceedsOpen     = errors.New("warehouse.max_idle_conns cannot exceed warehouse.max_open_conns")
	ErrInvalidTimeout      = errors.New("warehouse.timeout_sec must be at least 1")
	ErrNoEncodeColumns     = errors.New("encode.columns must name at least one column")
	ErrDuplicateEncodeCol  = errors.New("encode.columns lists a column twice")
	ErrFetchNeedsDistricts = errors.New("warehouse.query requires districts")
)

// Config is the complete crimeprep configuration.
type Config struct {
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Districts string          `yaml:"districts"`
	Input     InputConfig     `yaml:"input"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Encode    EncodeConfig    `yaml:"encode"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
}

// WarehouseConfig locates the analytical store incidents are queried from.
type WarehouseConfig struct {
	DSN          string `yaml:"dsn"`
	Query        string `yaml:"query"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

// InputConfig describes a CSV export read instead of the warehouse.
type InputConfig struct {
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"`
}

// PipelineConfig selects the cleaning stages. An empty list runs all of them.
type PipelineConfig struct {
	Stages  []string `yaml:"stages"`
	Verbose bool     `yaml:"verbose"`
}

// EncodeConfig lists the categorical columns handed to the one-hot encoder.
type EncodeConfig struct {
	Columns []string `yaml:"columns"`
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			MaxOpenConns: 20,
			MaxIdleConns: 10,
			TimeoutSec:   300,
		},
		Encode: EncodeConfig{
			Columns: []string{
				records.ColPrimaryType,
				records.ColLocation,
				records.ColMonth,
				records.ColHour,
				records.ColCommunityName,
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
	}
}

// Load reads the YAML file at path over the defaults, applies the
// environment and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from CRIMEPREP_* variables. Without an explicit
// DSN one is built from the PG* variables when PGHOST is set.
func (c *Config) ApplyEnv() {
	c.Warehouse.DSN = GetEnv("CRIMEPREP_DSN", c.Warehouse.DSN)
	c.Warehouse.Query = GetEnv("CRIMEPREP_QUERY", c.Warehouse.Query)
	c.Warehouse.MaxOpenConns = GetEnvInt("CRIMEPREP_MAX_OPEN_CONNS", c.Warehouse.MaxOpenConns)
	c.Warehouse.MaxIdleConns = GetEnvInt("CRIMEPREP_MAX_IDLE_CONNS", c.Warehouse.MaxIdleConns)
	c.Districts = GetEnv("CRIMEPREP_DISTRICTS", c.Districts)
	c.Input.Path = GetEnv("CRIMEPREP_INPUT", c.Input.Path)
	c.Input.Encoding = GetEnv("CRIMEPREP_ENCODING", c.Input.Encoding)
	c.Pipeline.Verbose = GetEnvBool("CRIMEPREP_VERBOSE", c.Pipeline.Verbose)
	c.Logging.Level = GetEnv("CRIMEPREP_LOG_LEVEL", c.Logging.Level)
	c.Logging.Pretty = GetEnvBool("CRIMEPREP_LOG_PRETTY", c.Logging.Pretty)
	c.Server.Host = GetEnv("CRIMEPREP_HOST", c.Server.Host)
	c.Server.Port = GetEnvInt("CRIMEPREP_PORT", c.Server.Port)
	c.Server.APIKey = GetEnv("CRIMEPREP_API_KEY", c.Server.APIKey)

	if v := os.Getenv("CRIMEPREP_STAGES"); v != "" {
		c.Pipeline.Stages = splitList(v)
	}
	if v := os.Getenv("CRIMEPREP_ENCODE_COLUMNS"); v != "" {
		c.Encode.Columns = splitList(v)
	}

	if c.Warehouse.DSN == "" && os.Getenv("PGHOST") != "" {
		c.Warehouse.DSN = PostgresDSNFromEnv()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Warehouse.MaxOpenConns < 1 {
		return ErrInvalidPoolSize
	}
	if c.Warehouse.MaxIdleConns > c.Warehouse.MaxOpenConns {
		return ErrIdleExceedsOpen
	}
	if c.Warehouse.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}
	if c.Warehouse.Query != "" && c.Districts == "" {
		return ErrFetchNeedsDistricts
	}

	if _, err := etl.ParseStages(c.Pipeline.Stages); err != nil {
		return fmt.Errorf("pipeline.stages: %w", err)
	}

	if len(c.Encode.Columns) == 0 {
		return ErrNoEncodeColumns
	}
	seen := make(map[string]bool, len(c.Encode.Columns))
	for _, col := range c.Encode.Columns {
		if seen[col] {
			return fmt.Errorf("%w: %s", ErrDuplicateEncodeCol, col)
		}
		seen[col] = true
	}

	return nil
}

// Flags converts the pipeline section into stage toggles. Call Validate first.
func (c *Config) Flags() etl.Flags {
	if len(c.Pipeline.Stages) == 0 {
		fl := etl.DefaultFlags()
		fl.Verbose = c.Pipeline.Verbose
		return fl
	}
	stages, err := etl.ParseStages(c.Pipeline.Stages)
	if err != nil {
		return etl.Flags{Verbose: c.Pipeline.Verbose}
	}
	return etl.FlagsFor(stages, c.Pipeline.Verbose)
}

// Save writes the configuration as YAML. The warehouse password and the API
// key are left out; they come back through the environment.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c.withoutSecrets())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) withoutSecrets() *Config {
	out := *c
	out.Warehouse.DSN = stripPassword(c.Warehouse.DSN)
	out.Server.APIKey = ""
	return &out
}

var dsnPassword = regexp.MustCompile(`(^|\s)password\s*=\s*('(?:[^'\\]|\\.)*'|\S*)`)

// stripPassword removes the password from a URL or key=value DSN.
func stripPassword(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		if u.User != nil {
			u.User = url.User(u.User.Username())
		}
		if q := u.Query(); q.Has("password") {
			q.Del("password")
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	return strings.TrimSpace(dsnPassword.ReplaceAllString(dsn, ""))
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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimeprep/internal/etl"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crimeprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PGHOST", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Warehouse.DSN)
	assert.Equal(t, etl.DefaultFlags(), cfg.Flags())
	assert.Len(t, cfg.Encode.Columns, 5)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
warehouse:
  dsn: "postgres://reader@warehouse/chicago?sslmode=disable"
  query: "SELECT * FROM crimes"
  max_open_conns: 4
  max_idle_conns: 2
districts: testdata/districts.xlsx
pipeline:
  stages: [normalize-category, normalize-location, add-month]
  verbose: true
encode:
  columns: [primary_type, Month]
logging:
  level: debug
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM crimes", cfg.Warehouse.Query)
	assert.Equal(t, 4, cfg.Warehouse.MaxOpenConns)
	assert.Equal(t, 300, cfg.Warehouse.TimeoutSec, "default kept")
	assert.Equal(t, []string{"primary_type", "Month"}, cfg.Encode.Columns)
	assert.Equal(t, 9090, cfg.Server.Port)

	fl := cfg.Flags()
	assert.True(t, fl.Verbose)
	assert.Equal(t, []etl.Stage{etl.StageNormalizeCategory, etl.StageNormalizeLocation, etl.StageAddMonth}, fl.Stages())
}

func TestLoadEnvOverlay(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: warn\n")
	t.Setenv("CRIMEPREP_LOG_LEVEL", "error")
	t.Setenv("CRIMEPREP_PORT", "7000")
	t.Setenv("CRIMEPREP_STAGES", "add-month, add-hour")
	t.Setenv("CRIMEPREP_DSN", "")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGDATABASE", "crimes")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"add-month", "add-hour"}, cfg.Pipeline.Stages)
	assert.Contains(t, cfg.Warehouse.DSN, "host=db.internal")
	assert.Contains(t, cfg.Warehouse.DSN, "dbname=crimes")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "pipeline: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel},
		{"port", func(c *Config) { c.Server.Port = 0 }, ErrInvalidPort},
		{"pool", func(c *Config) { c.Warehouse.MaxOpenConns = 0 }, ErrInvalidPoolSize},
		{"idle", func(c *Config) { c.Warehouse.MaxIdleConns = 50 }, ErrIdleExceedsOpen},
		{"timeout", func(c *Config) { c.Warehouse.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"no encode columns", func(c *Config) { c.Encode.Columns = nil }, ErrNoEncodeColumns},
		{"duplicate encode column", func(c *Config) { c.Encode.Columns = []string{"Hour", "Hour"} }, ErrDuplicateEncodeCol},
		{"query without districts", func(c *Config) { c.Warehouse.Query = "SELECT 1" }, ErrFetchNeedsDistricts},
		{"unknown stage", func(c *Config) { c.Pipeline.Stages = []string{"dedupe"} }, etl.ErrUnknownStage},
		{"stage order", func(c *Config) { c.Pipeline.Stages = []string{"normalize-location", "impute-location"} }, etl.ErrStageOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.Stages = []string{"add-hour"}
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, cfg.Save(path))
	t.Setenv("CRIMEPREP_STAGES", "")
	t.Setenv("PGHOST", "")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveLeavesOutSecrets(t *testing.T) {
	t.Setenv("CRIMEPREP_DSN", "")
	t.Setenv("CRIMEPREP_API_KEY", "")
	t.Setenv("PGHOST", "")

	cfg := Default()
	cfg.Warehouse.DSN = "postgres://crime:s3cret@db:5432/crimes?sslmode=disable"
	cfg.Server.APIKey = "k3y-s3cret"
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, cfg.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://crime@db:5432/crimes?sslmode=disable", loaded.Warehouse.DSN)
	assert.Empty(t, loaded.Server.APIKey)
	assert.Equal(t, "k3y-s3cret", cfg.Server.APIKey, "receiver untouched")
}

func TestStripPassword(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://crime:s3cret@db/crimes", "postgres://crime@db/crimes"},
		{"postgres://db/crimes?password=s3cret&sslmode=require", "postgres://db/crimes?sslmode=require"},
		{"postgres://db/crimes", "postgres://db/crimes"},
		{"host=db user=crime password=s3cret dbname=crimes", "host=db user=crime dbname=crimes"},
		{"host=db password='s3 cret' dbname=crimes", "host=db dbname=crimes"},
		{"password=s3cret host=db", "host=db"},
		{"host=db dbname=crimes", "host=db dbname=crimes"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, stripPassword(tt.dsn))
		})
	}
}

func TestApplyEnvFile(t *testing.T) {
	t.Setenv("CRIMEPREP_TEST_SET", "kept")
	t.Setenv("CRIMEPREP_TEST_NEW", "")

	err := applyEnvFile("# comment\nexport CRIMEPREP_TEST_NEW=\"fresh\"\nCRIMEPREP_TEST_SET=ignored\nnot a pair\n")
	require.NoError(t, err)

	assert.Equal(t, "fresh", os.Getenv("CRIMEPREP_TEST_NEW"))
	assert.Equal(t, "kept", os.Getenv("CRIMEPREP_TEST_SET"))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CRIMEPREP_TEST_INT", "12")
	t.Setenv("CRIMEPREP_TEST_BAD", "twelve")
	t.Setenv("CRIMEPREP_TEST_BOOL", "yes")

	assert.Equal(t, 12, GetEnvInt("CRIMEPREP_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("CRIMEPREP_TEST_BAD", 1))
	assert.True(t, GetEnvBool("CRIMEPREP_TEST_BOOL", false))
	assert.True(t, GetEnvBool("CRIMEPREP_TEST_BAD", true))
	assert.Equal(t, "fallback", GetEnv("CRIMEPREP_TEST_UNSET", "fallback"))
}

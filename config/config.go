// Package config loads the advisor's configuration. Values layer in
// priority order: built-in defaults, then an optional YAML file, then
// environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the complete advisor configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Census   CensusConfig   `yaml:"census"`
	BigQuery BigQueryConfig `yaml:"bigquery"`
	Postal   PostalConfig   `yaml:"postal"`
	Redis    RedisConfig    `yaml:"redis"`
	History  HistoryConfig  `yaml:"history"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	// Model is the default model for every agent.
	Model string `yaml:"model"`
	// APIKey is the Gemini API key.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each API call.
	Timeout time.Duration `yaml:"timeout"`
}

// CensusConfig configures the Census Bureau API client.
type CensusConfig struct {
	// APIKey is the Census API key. Empty triggers the -1.0 sentinel.
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// BigQueryConfig configures the EPA and clinic data sources. An empty
// ProjectID disables BigQuery entirely; the affected tools then return
// empty results.
type BigQueryConfig struct {
	ProjectID      string `yaml:"project_id"`
	ClinicsDataset string `yaml:"clinics_dataset"`
	ClinicsTable   string `yaml:"clinics_table"`
}

// PostalConfig locates the offline postal dataset.
type PostalConfig struct {
	// DatasetPath is a GeoNames-style US postal file.
	DatasetPath string `yaml:"dataset_path"`
}

// RedisConfig configures the tool-result cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// HistoryConfig configures the run-history store.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 60 * time.Second,
		},
		Census: CensusConfig{
			Timeout: 15 * time.Second,
		},
		BigQuery: BigQueryConfig{
			ClinicsDataset: "community_health",
			ClinicsTable:   "mobile_clinic_deployments",
		},
		Postal: PostalConfig{
			DatasetPath: "data/us_postal_codes.txt",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  15 * time.Minute,
		},
		History: HistoryConfig{
			Path: "advisor_history.db",
		},
		Metrics: MetricsConfig{
			Addr: ":9091",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Postal.DatasetPath == "" {
		return fmt.Errorf("postal.dataset_path is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return nil
}

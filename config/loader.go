package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from defaults, an optional YAML file, and
// environment variables, in that order of precedence.
type Loader struct {
	configPath string
}

// NewLoader creates a loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath sets the YAML file to layer over the defaults. A
// missing file is only an error when the path was set explicitly.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load assembles and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv layers environment variables over the config. Variable
// names follow the original deployment conventions (MODEL,
// GEMINI_API_KEY, CENSUS_API_KEY) rather than a single prefix.
func applyEnv(cfg *Config) {
	setString(&cfg.LLM.Model, "MODEL")
	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.BaseURL, "GEMINI_BASE_URL")

	setString(&cfg.Census.APIKey, "CENSUS_API_KEY")

	setString(&cfg.BigQuery.ProjectID, "GOOGLE_CLOUD_PROJECT")
	setString(&cfg.BigQuery.ClinicsDataset, "CLINICS_DATASET")
	setString(&cfg.BigQuery.ClinicsTable, "CLINICS_TABLE")

	setString(&cfg.Postal.DatasetPath, "POSTAL_DATASET_PATH")

	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setDuration(&cfg.Redis.TTL, "REDIS_TTL")

	setBool(&cfg.History.Enabled, "HISTORY_ENABLED")
	setString(&cfg.History.Path, "HISTORY_PATH")

	setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	setString(&cfg.Metrics.Addr, "METRICS_ADDR")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

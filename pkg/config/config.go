// Package config provides configuration loading and validation for the bridge backend.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CurrentSchemaVersion is the only accepted prices.schema_version.
const CurrentSchemaVersion = 1

// Mode values.
const (
	ModeJobs = "jobs"
	ModeAPI  = "api"
	ModeBoth = "both"
)

// Match modes for the persistence sink.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

// Load loads configuration from YAML file and environment variables.
// A .env file next to the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes after environment expansion and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeBoth
	}

	if cfg.MongoDB.ConnectTimeout == 0 {
		cfg.MongoDB.ConnectTimeout = Duration(10 * time.Second)
	}

	// Prices defaults
	if cfg.Prices.Interval == 0 {
		cfg.Prices.Interval = Duration(5 * time.Minute)
	}
	if len(cfg.Prices.Collections) == 0 {
		cfg.Prices.Collections = []string{"token_pairing", "secret_tokens"}
	}
	if cfg.Prices.TokenLimit == 0 {
		cfg.Prices.TokenLimit = 100
	}
	if cfg.Prices.LPPrefix == "" {
		cfg.Prices.LPPrefix = "lp"
	}
	if cfg.Prices.MatchMode == "" {
		cfg.Prices.MatchMode = MatchExact
	}

	if cfg.Chain.Timeout == 0 {
		cfg.Chain.Timeout = Duration(10 * time.Second)
	}

	// Jobs defaults
	if cfg.Jobs.Pairs.Interval == 0 {
		cfg.Jobs.Pairs.Interval = Duration(10 * time.Minute)
	}
	if cfg.Jobs.Pairs.Collection == "" {
		cfg.Jobs.Pairs.Collection = "secretswap_pairs"
	}
	if cfg.Jobs.Statistics.Interval == 0 {
		cfg.Jobs.Statistics.Interval = Duration(time.Hour)
	}
	if cfg.Jobs.Statistics.Collection == "" {
		cfg.Jobs.Statistics.Collection = "sienna_token_statistics"
	}
	if cfg.Jobs.Statistics.SourceCollection == "" {
		cfg.Jobs.Statistics.SourceCollection = "token_pairing"
	}
	if cfg.Jobs.Statistics.Network == "" {
		cfg.Jobs.Statistics.Network = "Secret Network"
	}
	if cfg.Jobs.Statistics.TokenType == "" {
		cfg.Jobs.Statistics.TokenType = "SNIP-20"
	}

	// API defaults
	if cfg.API.HTTP.Addr == "" {
		cfg.API.HTTP.Addr = ":8080"
	}
	if cfg.API.Cache.TTL == 0 {
		cfg.API.Cache.TTL = Duration(60 * time.Second)
	}
	if cfg.API.Cache.Redis.Prefix == "" {
		cfg.API.Cache.Redis.Prefix = "bridge:"
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// NormalizeMode converts mode string to lowercase.
func (c *Config) NormalizeMode() string {
	return strings.ToLower(c.Mode)
}

// RunsJobs returns true if the scheduled jobs should run.
func (c *Config) RunsJobs() bool {
	mode := c.NormalizeMode()
	return mode == ModeBoth || mode == ModeJobs
}

// RunsAPI returns true if the HTTP API should run.
func (c *Config) RunsAPI() bool {
	mode := c.NormalizeMode()
	return mode == ModeBoth || mode == ModeAPI
}

// EnabledOracles returns the enabled oracle entries in configured order.
func (p *PricesConfig) EnabledOracles() []OracleConfig {
	out := make([]OracleConfig, 0, len(p.Oracles))
	for _, o := range p.Oracles {
		if o.Enabled {
			out = append(out, o)
		}
	}
	return out
}

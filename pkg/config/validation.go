package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	mode := cfg.NormalizeMode()
	if mode != ModeBoth && mode != ModeJobs && mode != ModeAPI {
		return fmt.Errorf("%w: %s (must be 'both', 'jobs', or 'api')", ErrInvalidMode, cfg.Mode)
	}

	if cfg.MongoDB.URL == "" {
		return ErrMongoURLRequired
	}
	if cfg.MongoDB.Database == "" {
		return ErrMongoDatabaseRequired
	}

	if cfg.RunsJobs() {
		if err := validatePricesConfig(&cfg.Prices); err != nil {
			return fmt.Errorf("prices config: %w", err)
		}
		if err := validateJobsConfig(cfg); err != nil {
			return fmt.Errorf("jobs config: %w", err)
		}
	}

	if cfg.RunsAPI() {
		if len(cfg.Chain.GRPCEndpoints) == 0 {
			return fmt.Errorf("api config: %w", ErrNoGRPCEndpoints)
		}
		if err := validateAPIConfig(&cfg.API); err != nil {
			return fmt.Errorf("api config: %w", err)
		}
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validatePricesConfig(cfg *PricesConfig) error {
	if cfg.SchemaVersion != CurrentSchemaVersion {
		return fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedSchema, cfg.SchemaVersion, CurrentSchemaVersion)
	}

	if cfg.Interval <= 0 {
		return fmt.Errorf("prices.%w", ErrInvalidInterval)
	}

	if cfg.TokenLimit <= 0 {
		return ErrInvalidTokenLimit
	}

	matchMode := strings.ToLower(cfg.MatchMode)
	if matchMode != MatchExact && matchMode != MatchSubstring {
		return fmt.Errorf("%w: %s (must be 'exact' or 'substring')", ErrInvalidMatchMode, cfg.MatchMode)
	}

	if len(cfg.EnabledOracles()) == 0 {
		return ErrNoOraclesEnabled
	}
	for i, o := range cfg.Oracles {
		if o.Type == "" {
			return fmt.Errorf("oracle %d (%s): %w", i, o.Name, ErrOracleTypeRequired)
		}
	}

	return nil
}

func validateJobsConfig(cfg *Config) error {
	pairs := cfg.Jobs.Pairs
	stats := cfg.Jobs.Statistics

	if (pairs.Enabled || stats.Enabled) && len(cfg.Chain.GRPCEndpoints) == 0 {
		return ErrNoGRPCEndpoints
	}
	for i, ep := range cfg.Chain.GRPCEndpoints {
		if ep.Address == "" {
			return fmt.Errorf("chain.grpc_endpoints[%d]: %w", i, ErrNoGRPCEndpoints)
		}
	}

	if pairs.Enabled {
		if pairs.Interval <= 0 {
			return fmt.Errorf("jobs.pairs.%w", ErrInvalidInterval)
		}
		if pairs.FactoryContract == "" {
			return ErrFactoryRequired
		}
		if pairs.PairCodeID == 0 {
			return ErrPairCodeIDRequired
		}
	}

	if stats.Enabled {
		if stats.Interval <= 0 {
			return fmt.Errorf("jobs.statistics.%w", ErrInvalidInterval)
		}
		if stats.TokenName == "" || stats.TokenSymbol == "" {
			return ErrStatisticsTokenRequired
		}
	}

	return nil
}

func validateAPIConfig(cfg *APIConfig) error {
	if cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.Cert == "" || cfg.HTTP.TLS.Key == "" {
			return ErrTLSConfigIncomplete
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Cert); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSCertNotFound, cfg.HTTP.TLS.Cert)
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Key); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSKeyNotFound, cfg.HTTP.TLS.Key)
		}
	}
	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Level)) {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	format := strings.ToLower(cfg.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}

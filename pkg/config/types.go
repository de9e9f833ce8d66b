package config

import "time"

// Config is the root configuration structure
type Config struct {
	Mode    string        `yaml:"mode"`
	MongoDB MongoConfig   `yaml:"mongodb"`
	Prices  PricesConfig  `yaml:"prices"`
	Chain   ChainConfig   `yaml:"chain"`
	Jobs    JobsConfig    `yaml:"jobs"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// MongoConfig configures the document store connection.
type MongoConfig struct {
	URL            string   `yaml:"url"`
	Database       string   `yaml:"database"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

// PricesConfig configures the price update job and its lookup tables.
// SchemaVersion guards the layout of the tables below so that an old
// file is rejected instead of silently misread.
type PricesConfig struct {
	SchemaVersion   int                 `yaml:"schema_version"`
	Interval        Duration            `yaml:"interval"`
	Collections     []string            `yaml:"collections"`
	TokenLimit      int64               `yaml:"token_limit"`
	ExcludePrefixes []string            `yaml:"exclude_prefixes"`
	LPPrefix        string              `yaml:"lp_prefix"`
	MatchMode       string              `yaml:"match_mode"`
	Variants        map[string][]string `yaml:"variants"`
	Oracles         []OracleConfig      `yaml:"oracles"`
}

// OracleConfig configures a price oracle
type OracleConfig struct {
	Type    string                 `yaml:"type"`
	Name    string                 `yaml:"name"`
	Enabled bool                   `yaml:"enabled"`
	Config  map[string]interface{} `yaml:"config"`
}

// ChainConfig configures access to the CosmWasm chain.
type ChainConfig struct {
	GRPCEndpoints []GRPCEndpoint `yaml:"grpc_endpoints"`
	Timeout       Duration       `yaml:"timeout"`
}

// GRPCEndpoint is a single node gRPC endpoint with its TLS setting.
type GRPCEndpoint struct {
	Address string `yaml:"address"`
	TLS     bool   `yaml:"tls"`
}

// JobsConfig holds the mirroring jobs.
type JobsConfig struct {
	Pairs      PairsJobConfig      `yaml:"pairs"`
	Statistics StatisticsJobConfig `yaml:"statistics"`
}

// PairsJobConfig configures secretswap pair discovery.
type PairsJobConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Interval        Duration `yaml:"interval"`
	Collection      string   `yaml:"collection"`
	FactoryContract string   `yaml:"factory_contract"`
	PairCodeID      uint64   `yaml:"pair_code_id"`
}

// StatisticsJobConfig configures the token statistics job.
type StatisticsJobConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Interval           Duration `yaml:"interval"`
	Collection         string   `yaml:"collection"`
	SourceCollection   string   `yaml:"source_collection"`
	TokenName          string   `yaml:"token_name"`
	TokenSymbol        string   `yaml:"token_symbol"`
	TokensLockedByTeam string   `yaml:"tokens_locked_by_team"`
	ScheduleFile       string   `yaml:"schedule_file"`
	Network            string   `yaml:"network"`
	TokenType          string   `yaml:"token_type"`
}

// APIConfig configures the HTTP read API.
type APIConfig struct {
	HTTP               HTTPConfig  `yaml:"http"`
	Cache              CacheConfig `yaml:"cache"`
	GovernancePoolAddr string      `yaml:"governance_pool_addr"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string    `yaml:"addr"`
	TLS  TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration
type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// CacheConfig configures the read-through cache in front of the store.
type CacheConfig struct {
	TTL   Duration    `yaml:"ttl"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis cache backend. Empty Addr selects the
// in-process cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	Output string        `yaml:"output"`
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig configures log file rotation
type LogFileConfig struct {
	MaxSize    int `yaml:"max_size"`
	MaxBackups int `yaml:"max_backups"`
	MaxAge     int `yaml:"max_age"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}

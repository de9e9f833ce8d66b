package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
mode: jobs
mongodb:
  url: ${TEST_MONGODB_URL}
  database: bridge
prices:
  schema_version: 1
  interval: 2m
  exclude_prefixes: [lp, UNILP, SEFI]
  variants:
    ETH: [WETH]
  oracles:
    - type: coingecko
      name: coingecko
      enabled: true
      config:
        timeout: 5s
        ids:
          BTC: bitcoin
    - type: binance
      name: binance
      enabled: false
    - type: constant
      name: pinned
      enabled: true
      config:
        prices:
          SIENNA: "6.0"
`

func TestParse_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_MONGODB_URL", "mongodb://localhost:27017")

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URL)
	assert.Equal(t, 2*time.Minute, cfg.Prices.Interval.ToDuration())
	assert.Equal(t, []string{"token_pairing", "secret_tokens"}, cfg.Prices.Collections)
	assert.EqualValues(t, 100, cfg.Prices.TokenLimit)
	assert.Equal(t, "lp", cfg.Prices.LPPrefix)
	assert.Equal(t, MatchExact, cfg.Prices.MatchMode)
	assert.Equal(t, []string{"WETH"}, cfg.Prices.Variants["ETH"])
	assert.Equal(t, ":8080", cfg.API.HTTP.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)

	enabled := cfg.Prices.EnabledOracles()
	require.Len(t, enabled, 2)
	assert.Equal(t, "coingecko", enabled[0].Name)
	assert.Equal(t, "pinned", enabled[1].Name)

	ids, ok := enabled[0].Config["ids"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bitcoin", ids["BTC"])
	assert.Equal(t, "5s", enabled[0].Config["timeout"])

	require.NoError(t, Validate(cfg))
}

func TestValidate_Errors(t *testing.T) {
	t.Setenv("TEST_MONGODB_URL", "mongodb://localhost:27017")
	base := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Parse([]byte(sampleConfig))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "feeder" },
			wantErr: ErrInvalidMode,
		},
		{
			name:    "missing mongo url",
			mutate:  func(c *Config) { c.MongoDB.URL = "" },
			wantErr: ErrMongoURLRequired,
		},
		{
			name:    "old schema",
			mutate:  func(c *Config) { c.Prices.SchemaVersion = 0 },
			wantErr: ErrUnsupportedSchema,
		},
		{
			name:    "bad match mode",
			mutate:  func(c *Config) { c.Prices.MatchMode = "regex" },
			wantErr: ErrInvalidMatchMode,
		},
		{
			name: "no enabled oracles",
			mutate: func(c *Config) {
				for i := range c.Prices.Oracles {
					c.Prices.Oracles[i].Enabled = false
				}
			},
			wantErr: ErrNoOraclesEnabled,
		},
		{
			name: "pairs job without chain",
			mutate: func(c *Config) {
				c.Jobs.Pairs.Enabled = true
			},
			wantErr: ErrNoGRPCEndpoints,
		},
		{
			name: "chain endpoint without address",
			mutate: func(c *Config) {
				c.Chain.GRPCEndpoints = []GRPCEndpoint{{TLS: true}}
			},
			wantErr: ErrNoGRPCEndpoints,
		},
		{
			name: "pairs job without factory",
			mutate: func(c *Config) {
				c.Chain.GRPCEndpoints = []GRPCEndpoint{{Address: "localhost:9090"}}
				c.Jobs.Pairs.Enabled = true
				c.Jobs.Pairs.PairCodeID = 12
			},
			wantErr: ErrFactoryRequired,
		},
		{
			name:    "api without chain",
			mutate:  func(c *Config) { c.Mode = ModeAPI },
			wantErr: ErrNoGRPCEndpoints,
		},
		{
			name:    "negative price interval",
			mutate:  func(c *Config) { c.Prices.Interval = Duration(-time.Minute) },
			wantErr: ErrInvalidInterval,
		},
		{
			name: "negative statistics interval",
			mutate: func(c *Config) {
				c.Chain.GRPCEndpoints = []GRPCEndpoint{{Address: "localhost:9090"}}
				c.Jobs.Statistics.Enabled = true
				c.Jobs.Statistics.Interval = Duration(-time.Hour)
			},
			wantErr: ErrInvalidInterval,
		},
		{
			name: "negative pairs interval",
			mutate: func(c *Config) {
				c.Chain.GRPCEndpoints = []GRPCEndpoint{{Address: "localhost:9090"}}
				c.Jobs.Pairs.Enabled = true
				c.Jobs.Pairs.Interval = Duration(-time.Second)
			},
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestModes(t *testing.T) {
	cfg := &Config{Mode: "API"}
	assert.True(t, cfg.RunsAPI())
	assert.False(t, cfg.RunsJobs())

	cfg.Mode = ModeBoth
	assert.True(t, cfg.RunsAPI())
	assert.True(t, cfg.RunsJobs())
}

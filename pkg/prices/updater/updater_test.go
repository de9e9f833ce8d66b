package updater

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/aggregator"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/oracles"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
	"github.com/vazco/EthereumBridgeBackend/pkg/store/memstore"
)

func token(symbol string) store.Token {
	return store.Token{"display_props": map[string]interface{}{"symbol": symbol}, "name": symbol}
}

func pricesConfig() *config.PricesConfig {
	return &config.PricesConfig{
		SchemaVersion:   config.CurrentSchemaVersion,
		Collections:     []string{"token_pairing", "secret_tokens"},
		TokenLimit:      100,
		ExcludePrefixes: []string{"lp", "UNILP", "SEFI"},
		LPPrefix:        "lp",
		MatchMode:       config.MatchExact,
		Variants:        map[string][]string{"SCRT": {"SSCRT"}},
	}
}

func pinned(t *testing.T, name string, prices map[string]interface{}) oracles.Oracle {
	t.Helper()
	o, err := oracles.Create("constant", name, map[string]interface{}{"prices": prices}, nil)
	require.NoError(t, err)
	return o
}

func priceOf(t *testing.T, s *memstore.Store, collection, symbol string) interface{} {
	t.Helper()
	docs, err := s.FindTokens(context.Background(), collection, 0)
	require.NoError(t, err)
	for _, d := range docs {
		if sym, _ := d.DisplaySymbol(); sym == symbol {
			return d["price"]
		}
	}
	t.Fatalf("no document %s in %s", symbol, collection)
	return nil
}

func TestJob_Run(t *testing.T) {
	mem := memstore.New()
	mem.AddTokens("token_pairing", token("BTC"), token("BTC(BSC)"), token("lpBTC"), token("ETH"), token("XYZ"))
	mem.AddTokens("secret_tokens", token("SSCRT"), token("SCRT"))

	job := NewJob(pricesConfig(), mem, []oracles.Oracle{
		pinned(t, "a", map[string]interface{}{"BTC": "100", "ETH": "10", "SCRT": "1.5"}),
		pinned(t, "b", map[string]interface{}{"BTC": "200"}),
	}, logging.NewNoopLogger())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, "150.0000", priceOf(t, mem, "token_pairing", "BTC"))
	assert.Equal(t, "150.0000", priceOf(t, mem, "token_pairing", "BTC(BSC)"))
	assert.Nil(t, priceOf(t, mem, "token_pairing", "lpBTC"), "LP tokens are never written")
	assert.Equal(t, "10.0000", priceOf(t, mem, "token_pairing", "ETH"))
	assert.Nil(t, priceOf(t, mem, "token_pairing", "XYZ"), "unpriced symbols are skipped")
	assert.Equal(t, "1.5000", priceOf(t, mem, "secret_tokens", "SCRT"))
	assert.Equal(t, "1.5000", priceOf(t, mem, "secret_tokens", "SSCRT"))

	connects, closes := mem.Connections()
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, closes)
}

func TestSink_RoundTripAndIdempotence(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	mem.AddTokens("token_pairing", token("BTC"))

	sink := NewSink(pricesConfig(), logging.NewNoopLogger())
	prices := []aggregator.Price{{Symbol: "BTC", Price: "43000.1234", Sources: 2}}

	for i := 0; i < 2; i++ {
		res, err := sink.Persist(ctx, mem, "token_pairing", prices)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Written)
		assert.EqualValues(t, 1, res.Matched)
		assert.Equal(t, "43000.1234", priceOf(t, mem, "token_pairing", "BTC"))
	}
}

func TestSink_SubstringMode(t *testing.T) {
	cfg := pricesConfig()
	cfg.MatchMode = config.MatchSubstring

	mem := memstore.New()
	mem.AddTokens("token_pairing", token("ETH"), token("bETH"), token("lpETH"))

	sink := NewSink(cfg, logging.NewNoopLogger())
	res, err := sink.Persist(context.Background(), mem, "token_pairing", []aggregator.Price{{Symbol: "ETH", Price: "1.0000", Sources: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Matched)
	assert.Equal(t, "1.0000", priceOf(t, mem, "token_pairing", "bETH"))
	assert.Nil(t, priceOf(t, mem, "token_pairing", "lpETH"))
}

func TestJob_MalformedTokenAbortsBeforeOracles(t *testing.T) {
	mem := memstore.New()
	mem.AddTokens("token_pairing", token("BTC"), store.Token{"name": "broken"})

	called := false
	job := NewJob(pricesConfig(), mem, []oracles.Oracle{&spyOracle{called: &called}}, logging.NewNoopLogger())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRun)
	assert.False(t, called)

	_, closes := mem.Connections()
	assert.Equal(t, 1, closes, "connection is closed on the error path")
}

func TestJob_ConnectFailure(t *testing.T) {
	mem := memstore.New()
	mem.ConnectErr = errors.New("no route to host")

	job := NewJob(pricesConfig(), mem, nil, logging.NewNoopLogger())
	err := job.Run(context.Background())
	assert.ErrorIs(t, err, ErrRun)
	assert.ErrorIs(t, err, store.ErrConnect)
}

type spyOracle struct {
	called *bool
}

func (s *spyOracle) Name() string { return "spy" }

func (s *spyOracle) GetPrices(_ context.Context, symbols []string) ([]oracles.Quote, error) {
	*s.called = true
	return make([]oracles.Quote, len(symbols)), nil
}

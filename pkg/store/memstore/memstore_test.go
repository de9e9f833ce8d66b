package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

func TestMatches(t *testing.T) {
	exact := store.SymbolMatch{Symbol: "ETH", Variants: []string{"WETH"}, LPPrefix: "lp", Mode: store.MatchExact}
	legacy := store.SymbolMatch{Symbol: "ETH", LPPrefix: "lp", Mode: store.MatchSubstring}

	tests := []struct {
		symbol     string
		wantExact  bool
		wantLegacy bool
	}{
		{symbol: "ETH", wantExact: true, wantLegacy: true},
		{symbol: "eth", wantExact: true, wantLegacy: true},
		{symbol: "ETH(BSC)", wantExact: true, wantLegacy: true},
		{symbol: "WETH", wantExact: true, wantLegacy: true},
		{symbol: "bETH", wantExact: false, wantLegacy: true},
		{symbol: "SETH2", wantExact: false, wantLegacy: true},
		{symbol: "ETHX", wantExact: false, wantLegacy: true},
		{symbol: "lpETH", wantExact: false, wantLegacy: false},
		{symbol: "LP-ETH-SCRT", wantExact: false, wantLegacy: false},
		{symbol: "BTC", wantExact: false, wantLegacy: false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.wantExact, Matches(exact, tt.symbol), "exact")
			assert.Equal(t, tt.wantLegacy, Matches(legacy, tt.symbol), "substring")
		})
	}
}

func TestStore_FindAndSetPrice(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddTokens("token_pairing",
		store.Token{"display_props": map[string]interface{}{"symbol": "BTC"}, "src_coin": "BTC"},
		store.Token{"display_props": map[string]interface{}{"symbol": "BTC(BSC)"}, "src_coin": "BTCB"},
		store.Token{"display_props": map[string]interface{}{"symbol": "lpBTC"}},
	)

	n, err := s.SetPrice(ctx, "token_pairing", store.SymbolMatch{Symbol: "BTC", LPPrefix: "lp"}, "100.0000")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	docs, err := s.FindTokens(ctx, "token_pairing", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "100.0000", docs[0]["price"])
	assert.Equal(t, "100.0000", docs[1]["price"])

	byCoin, err := s.FindTokensBy(ctx, "token_pairing", "src_coin", "BTCB")
	require.NoError(t, err)
	require.Len(t, byCoin, 1)
	sym, _ := byCoin[0].DisplaySymbol()
	assert.Equal(t, "BTC(BSC)", sym)
}

func TestStore_Votes(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.FindVote(ctx, "secret1vote")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.InsertVote(ctx, store.Vote{Address: "secret1vote", Status: store.VoteInProgress}))

	pct := 42.0
	before, err := s.UpdateVote(ctx, "secret1vote", store.VoteUpdate{Finalized: true, Valid: true, Status: store.VotePassed, VotingPercentage: &pct})
	require.NoError(t, err)
	assert.Equal(t, store.VoteInProgress, before.Status)

	after, err := s.FindVote(ctx, "secret1vote")
	require.NoError(t, err)
	assert.Equal(t, store.VotePassed, after.Status)
	assert.Equal(t, 42.0, *after.VotingPercentage)
}

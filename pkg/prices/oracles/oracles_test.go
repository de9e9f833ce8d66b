package oracles

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
)

func TestQuote_Decimal(t *testing.T) {
	tests := []struct {
		price string
		ok    bool
	}{
		{price: "1.5", ok: true},
		{price: "0", ok: true},
		{price: "", ok: false},
		{price: "NaN", ok: false},
		{price: "Infinity", ok: false},
		{price: "undefined", ok: false},
	}
	for _, tt := range tests {
		_, ok := Quote{Symbol: "X", Price: tt.price}.Decimal()
		assert.Equal(t, tt.ok, ok, "price %q", tt.price)
	}
}

func TestConstantOracle(t *testing.T) {
	o, err := Create("constant", "pinned", map[string]interface{}{
		"prices": map[string]interface{}{"SIENNA": "6.0", "WSIENNA": 6.5},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pinned", o.Name())

	quotes, err := o.GetPrices(context.Background(), []string{"SIENNA", "BTC", "WSIENNA"})
	require.NoError(t, err)
	assert.Equal(t, []Quote{
		{Symbol: "SIENNA", Price: "6.0"},
		Absent("BTC"),
		{Symbol: "WSIENNA", Price: "6.5"},
	}, quotes)
}

func TestRegistry(t *testing.T) {
	assert.Subset(t, List(), []string{"binance", "coingecko", "constant", "uniswap"})

	_, err := Create("kraken", "", nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownOracle))

	built, err := Build([]config.OracleConfig{
		{Type: "constant", Name: "a", Enabled: true},
		{Type: "kraken", Name: "disabled", Enabled: false},
		{Type: "constant", Name: "b", Enabled: true},
	}, logging.NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, built, 2)
	assert.Equal(t, "a", built[0].Name())
	assert.Equal(t, "b", built[1].Name())
}

type fakeCaller struct {
	reserves map[common.Address][2]*big.Int
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	r, ok := f.reserves[*call.To]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	parsed, err := abi.JSON(strings.NewReader(pairABIJSON))
	if err != nil {
		return nil, err
	}
	return parsed.Methods["getReserves"].Outputs.Pack(r[0], r[1], uint32(0))
}

func TestUniswapOracle_GetPrices(t *testing.T) {
	wethUSDC := common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
	dead := common.HexToAddress("0x000000000000000000000000000000000000dEaD")

	// 1000 WETH (18 decimals) against 2,500,000 USDC (6 decimals).
	weth := new(big.Int).Mul(big.NewInt(1000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	usdc := big.NewInt(2_500_000_000_000)

	caller := &fakeCaller{reserves: map[common.Address][2]*big.Int{
		wethUSDC: {usdc, weth},
	}}
	o, err := NewUniswapOracleWithCaller("uniswap", caller, []PoolConfig{
		{Symbol: "WETH", PairAddress: wethUSDC, BaseIsToken0: false, Decimals0: 6, Decimals1: 18},
		{Symbol: "DEAD", PairAddress: dead, BaseIsToken0: true, Decimals0: 18, Decimals1: 18},
	}, time.Second, logging.NewNoopLogger())
	require.NoError(t, err)

	quotes, err := o.GetPrices(context.Background(), []string{"WETH", "DEAD", "BTC"})
	require.NoError(t, err)
	assert.Equal(t, []Quote{
		{Symbol: "WETH", Price: "2500"},
		Absent("DEAD"),
		Absent("BTC"),
	}, quotes)
}

func TestCalculatePoolPrice(t *testing.T) {
	price, err := CalculatePoolPrice(big.NewInt(4), big.NewInt(10), 0, 0)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("2.5")))

	_, err = CalculatePoolPrice(big.NewInt(0), big.NewInt(10), 0, 0)
	assert.ErrorIs(t, err, ErrZeroLiquidity)
}

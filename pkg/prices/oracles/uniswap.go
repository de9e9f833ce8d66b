package oracles

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
)

// Uniswap V2 Pair ABI (only getReserves function).
const pairABIJSON = `[{
	"constant": true,
	"inputs": [],
	"name": "getReserves",
	"outputs": [
		{"internalType": "uint112", "name": "reserve0", "type": "uint112"},
		{"internalType": "uint112", "name": "reserve1", "type": "uint112"},
		{"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
	],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}]`

// PoolConfig describes the pair used to price one symbol. The symbol is
// the base token; the other side is assumed to be USD-pegged.
type PoolConfig struct {
	Symbol       string
	PairAddress  common.Address
	BaseIsToken0 bool
	Decimals0    int
	Decimals1    int
}

// UniswapOracle prices symbols from Uniswap V2 pair reserves.
type UniswapOracle struct {
	name    string
	caller  ethereum.ContractCaller
	pools   map[string]PoolConfig
	pairABI abi.ABI
	timeout time.Duration
	logger  *logging.Logger
}

// NewUniswapOracle dials config["rpc_url"] and reads config["pools"].
func NewUniswapOracle(name string, cfg map[string]interface{}, logger *logging.Logger) (Oracle, error) {
	rpcURL := getString(cfg, "rpc_url", "")
	if rpcURL == "" {
		return nil, ErrRPCURLRequired
	}

	pools, err := parsePools(cfg)
	if err != nil {
		return nil, err
	}

	timeout, err := getDuration(cfg, "timeout", defaultTimeout)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	o, err := NewUniswapOracleWithCaller(name, client, pools, timeout, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return o, nil
}

// NewUniswapOracleWithCaller builds the oracle on an existing contract caller.
func NewUniswapOracleWithCaller(name string, caller ethereum.ContractCaller, pools []PoolConfig, timeout time.Duration, logger *logging.Logger) (*UniswapOracle, error) {
	pairABI, err := abi.JSON(strings.NewReader(pairABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	bySymbol := make(map[string]PoolConfig, len(pools))
	for _, p := range pools {
		bySymbol[p.Symbol] = p
	}

	return &UniswapOracle{
		name:    name,
		caller:  caller,
		pools:   bySymbol,
		pairABI: pairABI,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Name returns the oracle name
func (o *UniswapOracle) Name() string {
	return o.name
}

// GetPrices reads reserves for every configured symbol concurrently.
func (o *UniswapOracle) GetPrices(ctx context.Context, symbols []string) ([]Quote, error) {
	out := make([]Quote, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		pool, ok := o.pools[symbol]
		if !ok {
			out[i] = Absent(symbol)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			price, err := o.poolPrice(ctx, pool)
			if err != nil {
				o.logger.Debug("Pool price unavailable", "symbol", symbol, "pair", pool.PairAddress.Hex(), "error", err)
				out[i] = Absent(symbol)
				return
			}
			out[i] = Quote{Symbol: symbol, Price: price.String()}
		}()
	}
	wg.Wait()

	return out, nil
}

func (o *UniswapOracle) poolPrice(ctx context.Context, pool PoolConfig) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	r0, r1, err := o.getReserves(ctx, pool.PairAddress)
	if err != nil {
		return decimal.Zero, err
	}

	if pool.BaseIsToken0 {
		return CalculatePoolPrice(r0, r1, pool.Decimals0, pool.Decimals1)
	}
	return CalculatePoolPrice(r1, r0, pool.Decimals1, pool.Decimals0)
}

// getReserves calls the getReserves() function on a Uniswap V2 pair contract.
func (o *UniswapOracle) getReserves(ctx context.Context, pairAddr common.Address) (*big.Int, *big.Int, error) {
	data, err := o.pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pack getReserves call: %w", err)
	}

	result, err := o.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &pairAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call getReserves: %w", err)
	}

	var reserves struct {
		Reserve0           *big.Int
		Reserve1           *big.Int
		BlockTimestampLast uint32
	}
	if err := o.pairABI.UnpackIntoInterface(&reserves, "getReserves", result); err != nil {
		return nil, nil, fmt.Errorf("failed to unpack getReserves result: %w", err)
	}

	return reserves.Reserve0, reserves.Reserve1, nil
}

// CalculatePoolPrice returns the price of the base token in quote units:
// (quote / 10^quoteDecimals) / (base / 10^baseDecimals).
func CalculatePoolPrice(base, quote *big.Int, baseDecimals, quoteDecimals int) (decimal.Decimal, error) {
	if base == nil || quote == nil || base.Sign() == 0 || quote.Sign() == 0 {
		return decimal.Zero, ErrZeroLiquidity
	}

	baseAmount := decimal.NewFromBigInt(base, -int32(clampDecimals(baseDecimals)))
	quoteAmount := decimal.NewFromBigInt(quote, -int32(clampDecimals(quoteDecimals)))

	return quoteAmount.Div(baseAmount), nil
}

func clampDecimals(d int) int {
	if d < 0 || d > 255 {
		return 0
	}
	return d
}

func parsePools(cfg map[string]interface{}) ([]PoolConfig, error) {
	raw, ok := cfg["pools"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("%w: pools must be a non-empty list", ErrInvalidConfig)
	}

	pools := make([]PoolConfig, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: pool entry is %T", ErrInvalidConfig, entry)
		}

		symbol := getString(m, "symbol", "")
		addr := getString(m, "pair_address", "")
		if symbol == "" || !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("%w: pool needs symbol and a hex pair_address", ErrInvalidConfig)
		}

		baseIsToken0 := true
		if v, ok := m["base_is_token0"].(bool); ok {
			baseIsToken0 = v
		}

		pools = append(pools, PoolConfig{
			Symbol:       symbol,
			PairAddress:  common.HexToAddress(addr),
			BaseIsToken0: baseIsToken0,
			Decimals0:    getInt(m, "decimals0", 18),
			Decimals1:    getInt(m, "decimals1", 18),
		})
	}
	return pools, nil
}

func init() {
	Register("uniswap", NewUniswapOracle)
}

package oracles

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
)

const (
	binanceBaseURL     = "https://api.binance.com"
	binanceTickerPath  = "/api/v3/ticker/price"
	binanceDefaultRef  = "BTC"
	binanceDefaultUSD  = "USDT"
	binanceStablePrice = "1.000"
)

// binanceTicker is the /ticker/price response
type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// BinanceOracle prices symbols through their reference-asset pairs: every
// <SYMBOL><REF> price is multiplied by the REF/USD price fetched first.
type BinanceOracle struct {
	*httpOracle
	reference   string
	stable      string
	stablePrice string
}

// NewBinanceOracle creates a new Binance ratio oracle.
func NewBinanceOracle(name string, cfg map[string]interface{}, logger *logging.Logger) (Oracle, error) {
	base, err := newHTTPOracle(name, binanceBaseURL, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &BinanceOracle{
		httpOracle:  base,
		reference:   getString(cfg, "reference_asset", binanceDefaultRef),
		stable:      getString(cfg, "stable_symbol", binanceDefaultUSD),
		stablePrice: getString(cfg, "stable_price", binanceStablePrice),
	}, nil
}

// GetPrices fetches the reference price, then every other symbol against it.
func (o *BinanceOracle) GetPrices(ctx context.Context, symbols []string) ([]Quote, error) {
	ref, err := o.fetchReference(ctx)
	if err != nil {
		return nil, err
	}
	return o.fanOut(ctx, symbols, ref), nil
}

// fetchReference is phase one: the reference asset's USD price. Any
// failure here fails the batch.
func (o *BinanceOracle) fetchReference(ctx context.Context) (decimal.Decimal, error) {
	pair := o.reference + o.stable
	price, err := o.ticker(ctx, pair)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrPrerequisite, pair, err)
	}
	return price, nil
}

// fanOut is phase two. Each symbol is fetched independently; a failed
// fetch only makes that symbol absent.
func (o *BinanceOracle) fanOut(ctx context.Context, symbols []string, ref decimal.Decimal) []Quote {
	out := make([]Quote, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		switch symbol {
		case o.stable:
			out[i] = Quote{Symbol: symbol, Price: o.stablePrice}
			continue
		case o.reference:
			out[i] = Quote{Symbol: symbol, Price: ref.String()}
			continue
		}

		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			relative, err := o.ticker(ctx, symbol+o.reference)
			if err != nil {
				o.logger.Debug("Relative price unavailable", "symbol", symbol, "error", err)
				out[i] = Absent(symbol)
				return
			}
			out[i] = Quote{Symbol: symbol, Price: relative.Mul(ref).String()}
		}(i, symbol)
	}
	wg.Wait()

	return out
}

func (o *BinanceOracle) ticker(ctx context.Context, pair string) (decimal.Decimal, error) {
	endpoint := o.baseURL + binanceTickerPath + "?" + url.Values{"symbol": {pair}}.Encode()

	var t binanceTicker
	if err := o.getJSON(ctx, endpoint, &t); err != nil {
		return decimal.Zero, err
	}

	price, err := decimal.NewFromString(t.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q: %v", ErrDecode, t.Price, err)
	}
	return price, nil
}

func init() {
	Register("binance", NewBinanceOracle)
}

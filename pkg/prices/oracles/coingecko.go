package oracles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoOracle quotes symbols directly in USD by their CoinGecko id.
type CoinGeckoOracle struct {
	*httpOracle
	ids    map[string]string
	apiKey string
}

// NewCoinGeckoOracle creates a new CoinGecko oracle from config["ids"].
func NewCoinGeckoOracle(name string, cfg map[string]interface{}, logger *logging.Logger) (Oracle, error) {
	base, err := newHTTPOracle(name, coingeckoBaseURL, cfg, logger)
	if err != nil {
		return nil, err
	}

	ids, err := getStringMap(cfg, "ids")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		logger.Warn("No CoinGecko ids configured, every symbol will be absent")
	}

	return &CoinGeckoOracle{
		httpOracle: base,
		ids:        ids,
		apiKey:     getString(cfg, "api_key", ""),
	}, nil
}

// GetPrices queries every mapped symbol concurrently. Unmapped symbols and
// failed requests are absent. A 2xx body without a USD number fails the
// whole batch and cancels the requests still in flight.
func (o *CoinGeckoOracle) GetPrices(ctx context.Context, symbols []string) ([]Quote, error) {
	out := make([]Quote, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		id, ok := o.ids[symbol]
		if !ok {
			out[i] = Absent(symbol)
			continue
		}

		g.Go(func() error {
			price, err := o.fetch(gctx, id)
			switch {
			case err == nil:
				out[i] = Quote{Symbol: symbol, Price: price}
				return nil
			case errors.Is(err, ErrMalformedResponse):
				return fmt.Errorf("symbol %s (id %s): %w", symbol, id, err)
			default:
				o.logger.Debug("Price unavailable", "symbol", symbol, "id", id, "error", err)
				out[i] = Absent(symbol)
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *CoinGeckoOracle) fetch(ctx context.Context, id string) (string, error) {
	params := url.Values{"ids": {id}, "vs_currencies": {"usd"}}
	if o.apiKey != "" {
		params.Set("x_cg_demo_api_key", o.apiKey)
	}
	endpoint := o.baseURL + "/simple/price?" + params.Encode()

	var body map[string]map[string]json.RawMessage
	if err := o.getJSON(ctx, endpoint, &body); err != nil {
		if errors.Is(err, ErrDecode) {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return "", err
	}

	raw, ok := body[id]["usd"]
	if !ok {
		return "", fmt.Errorf("%w: missing %s.usd", ErrMalformedResponse, id)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return "", fmt.Errorf("%w: %s.usd is not a number", ErrMalformedResponse, id)
	}
	return n.String(), nil
}

func init() {
	Register("coingecko", NewCoinGeckoOracle)
}

// Package aggregator reduces the quotes of several oracles into one mean
// price per symbol.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/metrics"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/oracles"
)

// PriceDecimals is the number of fractional digits of an aggregate price.
const PriceDecimals = 4

// NaN is the rendering of a price that no oracle could provide.
const NaN = "NaN"

// Price is the aggregate for one symbol.
type Price struct {
	Symbol  string
	Price   string
	Sources int
}

// Valid reports whether at least one oracle priced the symbol.
func (p Price) Valid() bool {
	return p.Sources > 0
}

// OracleFailure records an oracle whose whole batch failed.
type OracleFailure struct {
	Oracle string
	Err    error
}

// Report summarizes one aggregation.
type Report struct {
	Failures []OracleFailure
	Unpriced []string
}

// batchResult is the outcome of one oracle batch.
type batchResult struct {
	oracle string
	quotes []oracles.Quote
	err    error
}

// AverageAggregator computes the plain arithmetic mean across oracles.
type AverageAggregator struct {
	logger *logging.Logger
}

// NewAverageAggregator creates a new average aggregator
func NewAverageAggregator(logger *logging.Logger) *AverageAggregator {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &AverageAggregator{logger: logger}
}

// Aggregate queries every oracle concurrently and returns one Price per
// symbol in input order. A failed oracle batch is recorded in the report
// and the remaining oracles are still used.
func (a *AverageAggregator) Aggregate(ctx context.Context, symbols []string, sources []oracles.Oracle) ([]Price, Report) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregation(time.Since(start))
	}()

	results := a.collect(ctx, symbols, sources)

	var report Report
	sums := make(map[string]decimal.Decimal, len(symbols))
	counts := make(map[string]int, len(symbols))

	for _, r := range results {
		if r.err != nil {
			a.logger.Error("Oracle batch failed", "oracle", r.oracle, "error", r.err)
			report.Failures = append(report.Failures, OracleFailure{Oracle: r.oracle, Err: r.err})
			continue
		}
		for _, q := range r.quotes {
			d, ok := q.Decimal()
			metrics.RecordQuote(r.oracle, ok)
			if !ok {
				continue
			}
			sums[q.Symbol] = sums[q.Symbol].Add(d)
			counts[q.Symbol]++
		}
	}

	out := make([]Price, len(symbols))
	for i, symbol := range symbols {
		n := counts[symbol]
		if n == 0 {
			out[i] = Price{Symbol: symbol, Price: NaN}
			report.Unpriced = append(report.Unpriced, symbol)
			metrics.RecordUnpriced(symbol)
			continue
		}
		mean := sums[symbol].Div(decimal.NewFromInt(int64(n)))
		out[i] = Price{Symbol: symbol, Price: mean.StringFixed(PriceDecimals), Sources: n}
	}

	a.logger.Debug("Aggregated prices using average",
		"symbols", len(symbols),
		"oracles", len(sources),
		"failed_oracles", len(report.Failures),
		"unpriced", len(report.Unpriced))

	return out, report
}

// collect runs every oracle in its own goroutine. A panicking or failing
// oracle never affects its siblings.
func (a *AverageAggregator) collect(ctx context.Context, symbols []string, sources []oracles.Oracle) []batchResult {
	results := make([]batchResult, len(sources))

	var wg sync.WaitGroup
	for i, o := range sources {
		wg.Add(1)
		go func(i int, o oracles.Oracle) {
			defer wg.Done()
			results[i] = runOracle(ctx, o, symbols)
		}(i, o)
	}
	wg.Wait()

	return results
}

func runOracle(ctx context.Context, o oracles.Oracle, symbols []string) (res batchResult) {
	res.oracle = o.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.quotes = nil
			res.err = &panicError{value: r}
		}
		metrics.RecordOracleRequest(res.oracle, res.err, time.Since(start))
	}()

	res.quotes, res.err = o.GetPrices(ctx, symbols)
	return res
}

package updater

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/aggregator"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

const maxConcurrentWrites = 8

// Sink writes aggregate prices back into token collections.
type Sink struct {
	mode     string
	lpPrefix string
	variants map[string][]string
	logger   *logging.Logger
}

// NewSink creates a sink from the prices config.
func NewSink(cfg *config.PricesConfig, logger *logging.Logger) *Sink {
	variants := make(map[string][]string, len(cfg.Variants))
	for k, v := range cfg.Variants {
		variants[strings.ToUpper(k)] = v
	}

	mode := store.MatchExact
	if strings.EqualFold(cfg.MatchMode, config.MatchSubstring) {
		mode = store.MatchSubstring
	}

	return &Sink{
		mode:     mode,
		lpPrefix: cfg.LPPrefix,
		variants: variants,
		logger:   logger,
	}
}

// PersistResult counts what a Persist call did.
type PersistResult struct {
	Written int
	Skipped int
	Matched int64
}

// Match returns the document selector for symbol.
func (s *Sink) Match(symbol string) store.SymbolMatch {
	return store.SymbolMatch{
		Symbol:   symbol,
		Variants: s.variants[strings.ToUpper(symbol)],
		LPPrefix: s.lpPrefix,
		Mode:     s.mode,
	}
}

// Persist sets the price of every valid aggregate on the matching documents
// of collection. Prices without any quote are skipped. The first failed
// write cancels the rest and is returned.
func (s *Sink) Persist(ctx context.Context, tokens store.Tokens, collection string, prices []aggregator.Price) (PersistResult, error) {
	var res PersistResult
	matched := make([]int64, len(prices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWrites)

	for i, p := range prices {
		if !p.Valid() {
			s.logger.Warn("Skipping symbol without valid quote", "collection", collection, "symbol", p.Symbol)
			res.Skipped++
			continue
		}
		res.Written++

		g.Go(func() error {
			n, err := tokens.SetPrice(gctx, collection, s.Match(p.Symbol), p.Price)
			if err != nil {
				return fmt.Errorf("persist %s: %w", p.Symbol, err)
			}
			matched[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}

	for _, n := range matched {
		res.Matched += n
	}
	return res, nil
}

// Package oracles provides the price oracle clients queried by the price job.
package oracles

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is one oracle's answer for one symbol. An empty Price means the
// oracle could not price the symbol.
type Quote struct {
	Symbol string
	Price  string
}

// Absent returns a quote-absent placeholder for symbol.
func Absent(symbol string) Quote {
	return Quote{Symbol: symbol}
}

// Present reports whether the oracle returned any price text.
func (q Quote) Present() bool {
	return q.Price != ""
}

// Decimal parses the price. The second result is false for absent quotes
// and for anything that is not a finite number.
func (q Quote) Decimal() (decimal.Decimal, bool) {
	if q.Price == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(q.Price)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Oracle prices a batch of symbols.
//
// GetPrices returns exactly one Quote per requested symbol, in request
// order. A non-nil error means the whole batch failed and no quote from it
// may be used.
type Oracle interface {
	Name() string
	GetPrices(ctx context.Context, symbols []string) ([]Quote, error)
}

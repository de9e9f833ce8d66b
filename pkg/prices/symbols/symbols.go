// Package symbols derives the query symbol set from token documents.
package symbols

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedToken indicates a token document without a string
// display_props.symbol.
var ErrMalformedToken = errors.New("token has no display_props.symbol")

// Token is the part of a token document the extraction reads.
type Token interface {
	DisplaySymbol() (string, bool)
}

// Extract returns the distinct query symbols of tokens in first-seen order.
// Each symbol is cut at its first "(" and dropped when it starts with any of
// excludePrefixes (case-sensitive). A single malformed token fails the call.
func Extract[T Token](tokens []T, excludePrefixes []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))

	for i, t := range tokens {
		raw, ok := t.DisplaySymbol()
		if !ok {
			return nil, fmt.Errorf("token %d: %w", i, ErrMalformedToken)
		}

		symbol := StripQualifier(raw)
		if symbol == "" || hasAnyPrefix(symbol, excludePrefixes) {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}

	return out, nil
}

// StripQualifier removes an exchange qualifier such as "(BSC)".
func StripQualifier(symbol string) string {
	base, _, _ := strings.Cut(symbol, "(")
	return base
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

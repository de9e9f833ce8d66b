package mongostore

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vazco/EthereumBridgeBackend/pkg/store"
	"github.com/vazco/EthereumBridgeBackend/pkg/store/memstore"
)

func TestSymbolPattern(t *testing.T) {
	tests := []struct {
		name  string
		match store.SymbolMatch
		want  string
	}{
		{
			name:  "exact",
			match: store.SymbolMatch{Symbol: "BTC", LPPrefix: "lp", Mode: store.MatchExact},
			want:  `^(?!lp)(?:BTC)(?:\(.*\))?$`,
		},
		{
			name:  "exact with variants",
			match: store.SymbolMatch{Symbol: "ETH", Variants: []string{"WETH", ""}, LPPrefix: "lp"},
			want:  `^(?!lp)(?:ETH|WETH)(?:\(.*\))?$`,
		},
		{
			name:  "metacharacters are quoted",
			match: store.SymbolMatch{Symbol: "S.ETH", Mode: store.MatchExact},
			want:  `^(?:S\.ETH)(?:\(.*\))?$`,
		},
		{
			name:  "legacy substring",
			match: store.SymbolMatch{Symbol: "ETH", LPPrefix: "lp", Mode: store.MatchSubstring},
			want:  `^(?!lp).*ETH`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SymbolPattern(tt.match))
		})
	}
}

func TestSymbolFilter(t *testing.T) {
	f := SymbolFilter(store.SymbolMatch{Symbol: "SCRT", LPPrefix: "lp"})
	re, ok := f["display_props.symbol"].(primitive.Regex)
	assert.True(t, ok)
	assert.Equal(t, "i", re.Options)
	assert.Equal(t, `^(?!lp)(?:SCRT)(?:\(.*\))?$`, re.Pattern)
}

// patternMatches evaluates SymbolPattern the way the server does with the
// "i" option. Go regexp has no lookahead, so the LP exclusion is checked as
// its own anchored prefix and removed from the pattern.
func patternMatches(t *testing.T, m store.SymbolMatch, symbol string) bool {
	t.Helper()
	pattern := SymbolPattern(m)
	if m.LPPrefix != "" {
		lookahead := "(?!" + regexp.QuoteMeta(m.LPPrefix) + ")"
		require.True(t, strings.HasPrefix(pattern, "^"+lookahead), pattern)
		if regexp.MustCompile("(?i)^" + regexp.QuoteMeta(m.LPPrefix)).MatchString(symbol) {
			return false
		}
		pattern = strings.Replace(pattern, lookahead, "", 1)
	}
	return regexp.MustCompile("(?i)" + pattern).MatchString(symbol)
}

func TestSymbolPattern_AgreesWithMemstore(t *testing.T) {
	matches := map[string]store.SymbolMatch{
		"exact":          {Symbol: "ETH", LPPrefix: "lp", Mode: store.MatchExact},
		"exact variants": {Symbol: "ETH", Variants: []string{"WETH"}, LPPrefix: "lp", Mode: store.MatchExact},
		"no lp prefix":   {Symbol: "ETH", Mode: store.MatchExact},
		"quoted":         {Symbol: "S.ETH", LPPrefix: "lp", Mode: store.MatchExact},
		"substring":      {Symbol: "ETH", LPPrefix: "lp", Mode: store.MatchSubstring},
	}
	symbols := []string{
		"ETH", "eth", "eth(BSC)", "ETH (BSC)", "ETH(BSC", "lpETH", "LPeth", "WETH",
		"weth(bsc)", "bETH", "ETHX", "S.ETH", "SxETH", "",
	}

	for name, m := range matches {
		for _, symbol := range symbols {
			assert.Equal(t, memstore.Matches(m, symbol), patternMatches(t, m, symbol),
				"%s: symbol %q", name, symbol)
		}
	}
}

func TestSymbolPattern_ExactSelection(t *testing.T) {
	m := store.SymbolMatch{Symbol: "ETH", Variants: []string{"WETH"}, LPPrefix: "lp", Mode: store.MatchExact}
	want := map[string]bool{
		"ETH":      true,
		"eth(BSC)": true,
		"WETH":     true,
		"lpETH":    false,
		"bETH":     false,
	}
	for symbol, ok := range want {
		assert.Equal(t, ok, patternMatches(t, m, symbol), symbol)
		assert.Equal(t, ok, memstore.Matches(m, symbol), symbol)
	}
}

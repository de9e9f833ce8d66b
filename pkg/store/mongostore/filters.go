package mongostore

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

const symbolField = "display_props.symbol"

// SymbolPattern returns the case-insensitive regular expression a symbol
// field has to match for m. The LP exclusion is a leading negative
// lookahead, which the server's PCRE engine supports.
func SymbolPattern(m store.SymbolMatch) string {
	var b strings.Builder
	b.WriteString("^")
	if m.LPPrefix != "" {
		b.WriteString("(?!")
		b.WriteString(regexp.QuoteMeta(m.LPPrefix))
		b.WriteString(")")
	}

	if m.Mode == store.MatchSubstring {
		b.WriteString(".*")
		b.WriteString(regexp.QuoteMeta(m.Symbol))
		return b.String()
	}

	names := make([]string, 0, 1+len(m.Variants))
	names = append(names, regexp.QuoteMeta(m.Symbol))
	for _, v := range m.Variants {
		if v != "" {
			names = append(names, regexp.QuoteMeta(v))
		}
	}
	b.WriteString("(?:")
	b.WriteString(strings.Join(names, "|"))
	b.WriteString(`)(?:\(.*\))?$`)
	return b.String()
}

// SymbolFilter is the UpdateMany filter for m.
func SymbolFilter(m store.SymbolMatch) bson.M {
	return bson.M{
		symbolField: primitive.Regex{Pattern: SymbolPattern(m), Options: "i"},
	}
}

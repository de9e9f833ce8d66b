package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token is a token document. Its layout is owned by the ingestion side, so
// it is kept as a loose document and only the fields this service reads
// are accessed through helpers.
type Token bson.M

// Lookup returns the value at a dotted path such as "display_props.symbol".
func (t Token) Lookup(path ...string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(t)
	for _, key := range path {
		switch m := cur.(type) {
		case map[string]interface{}:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.M:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case Token:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range m {
				if e.Key == key {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at path.
func (t Token) String(path ...string) (string, bool) {
	v, ok := t.Lookup(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DisplaySymbol returns display_props.symbol.
func (t Token) DisplaySymbol() (string, bool) {
	return t.String("display_props", "symbol")
}

// Pair is a secretswap pair document keyed by its contract address.
type Pair struct {
	ID             string      `bson:"_id" json:"_id"`
	ContractAddr   string      `bson:"contract_addr" json:"contract_addr"`
	LiquidityToken string      `bson:"liquidity_token" json:"liquidity_token"`
	TokenCodeHash  string      `bson:"token_code_hash" json:"token_code_hash"`
	AssetInfos     []AssetInfo `bson:"asset_infos" json:"asset_infos"`
	Factory        Contract    `bson:"factory" json:"factory"`
	Asset0Volume   string      `bson:"asset0_volume" json:"asset0_volume"`
	Asset1Volume   string      `bson:"asset1_volume" json:"asset1_volume"`
}

// AssetInfo is one side of a pair.
type AssetInfo struct {
	Token AssetToken `bson:"token" json:"token"`
}

// AssetToken identifies a SNIP-20 token contract.
type AssetToken struct {
	ContractAddr  string `bson:"contract_addr" json:"contract_addr"`
	TokenCodeHash string `bson:"token_code_hash" json:"token_code_hash"`
}

// Contract is an address with its code hash.
type Contract struct {
	Address  string `bson:"address" json:"address"`
	CodeHash string `bson:"code_hash" json:"code_hash"`
}

// TokenStatistics is the supply and market cap document of one token.
type TokenStatistics struct {
	Name               string  `bson:"name" json:"name"`
	Symbol             string  `bson:"symbol" json:"symbol"`
	Decimals           int     `bson:"decimals" json:"decimals"`
	TotalSupply        float64 `bson:"total_supply" json:"total_supply"`
	MaxSupply          float64 `bson:"max_supply" json:"max_supply"`
	CirculatingSupply  float64 `bson:"circulating_supply" json:"circulating_supply"`
	PriceUSD           float64 `bson:"price_usd" json:"price_usd"`
	MarketCapUSD       float64 `bson:"market_cap_usd" json:"market_cap_usd"`
	TokensLockedByTeam float64 `bson:"tokens_locked_by_team" json:"tokens_locked_by_team"`
	ContractAddress    string  `bson:"contract_address" json:"contract_address"`
	Network            string  `bson:"network" json:"network"`
	Type               string  `bson:"type" json:"type"`
}

// Vote statuses.
const (
	VoteInProgress = "IN PROGRESS"
	VotePassed     = "PASSED"
	VoteFailed     = "FAILED"
)

// Vote is a registered voting contract.
type Vote struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Address          string             `bson:"address" json:"address"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	VoteType         string             `bson:"vote_type" json:"vote_type"`
	AuthorAddr       string             `bson:"author_addr" json:"author_addr"`
	AuthorAlias      string             `bson:"author_alias" json:"author_alias"`
	EndTimestamp     int64              `bson:"end_timestamp" json:"end_timestamp"`
	Quorum           float64            `bson:"quorum" json:"quorum"`
	MinThreshold     float64            `bson:"min_threshold" json:"min_threshold"`
	Choices          []string           `bson:"choices" json:"choices"`
	Finalized        bool               `bson:"finalized" json:"finalized"`
	Valid            bool               `bson:"valid" json:"valid"`
	Status           string             `bson:"status" json:"status"`
	VotingPercentage *float64           `bson:"voting_percentage,omitempty" json:"voting_percentage,omitempty"`
	RevealCom        RevealCommittee    `bson:"reveal_com" json:"reveal_com"`
}

// RevealCommittee is the reveal committee of a vote.
type RevealCommittee struct {
	N         int      `bson:"n" json:"n"`
	Revealers []string `bson:"revealers" json:"revealers"`
}

// VoteUpdate is the result of finalizing a vote.
type VoteUpdate struct {
	Finalized        bool     `bson:"finalized"`
	Valid            bool     `bson:"valid"`
	Status           string   `bson:"status"`
	VotingPercentage *float64 `bson:"voting_percentage,omitempty"`
}

// Package store defines the document store used by the jobs and the API.
package store

import (
	"context"
	"errors"
)

// Collection names shared by the jobs and the API.
const (
	TokenPairingCollection = "token_pairing"
	SecretTokensCollection = "secret_tokens"
	VotesCollection        = "secret_votes"
)

var (
	// ErrNotFound indicates that no document matched.
	ErrNotFound = errors.New("document not found")
	// ErrConnect indicates that the store could not be reached.
	ErrConnect = errors.New("failed to connect to store")
)

// Match modes of SymbolMatch.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

// SymbolMatch selects the token documents a price is written to.
//
// In exact mode a document matches when its display_props.symbol equals
// Symbol or one of Variants, case-insensitively, optionally followed by a
// parenthetical qualifier such as "(BSC)". In substring mode it matches when
// the symbol contains Symbol anywhere. Symbols starting with LPPrefix
// (case-insensitive) never match in either mode.
type SymbolMatch struct {
	Symbol   string
	Variants []string
	LPPrefix string
	Mode     string
}

// Tokens is the token collection access used by the price job and the API.
type Tokens interface {
	// FindTokens returns at most limit documents of collection. limit <= 0
	// means no cap.
	FindTokens(ctx context.Context, collection string, limit int64) ([]Token, error)
	// FindTokensBy returns the documents whose field equals value.
	FindTokensBy(ctx context.Context, collection, field string, value interface{}) ([]Token, error)
	// SetPrice writes price to every matching document and returns the
	// number of matched documents.
	SetPrice(ctx context.Context, collection string, match SymbolMatch, price string) (int64, error)
}

// Pairs is the secretswap pair collection.
type Pairs interface {
	PairIDs(ctx context.Context, collection string) (map[string]struct{}, error)
	InsertPairs(ctx context.Context, collection string, pairs []Pair) error
}

// Statistics is the token statistics collection.
type Statistics interface {
	UpsertStatistics(ctx context.Context, collection string, stats TokenStatistics) error
}

// Votes is the secret vote collection.
type Votes interface {
	ListVotes(ctx context.Context) ([]Vote, error)
	FindVote(ctx context.Context, address string) (*Vote, error)
	InsertVote(ctx context.Context, vote Vote) error
	// UpdateVote applies update and returns the document before the update.
	UpdateVote(ctx context.Context, address string, update VoteUpdate) (*Vote, error)
}

// Store is one open connection to the document store.
type Store interface {
	Tokens
	Pairs
	Statistics
	Votes
	Close(ctx context.Context) error
}

// Connector opens a Store. Jobs connect once per run and close on exit.
type Connector interface {
	Connect(ctx context.Context) (Store, error)
}

// Package memstore is an in-memory store.Store for tests and local runs.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

// Store keeps every collection in memory. The zero value is not usable;
// call New.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.Token
	pairs       map[string][]store.Pair
	stats       map[string][]store.TokenStatistics
	votes       []store.Vote

	// ConnectErr, when set, is returned by Connect.
	ConnectErr error
	connects   int
	closes     int
}

var (
	_ store.Store     = (*Store)(nil)
	_ store.Connector = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string][]store.Token),
		pairs:       make(map[string][]store.Pair),
		stats:       make(map[string][]store.TokenStatistics),
	}
}

// Connect returns the store itself.
func (s *Store) Connect(_ context.Context) (store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ConnectErr != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrConnect, s.ConnectErr)
	}
	s.connects++
	return s, nil
}

// Close counts the call.
func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Connections returns how many times Connect and Close succeeded.
func (s *Store) Connections() (connects, closes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connects, s.closes
}

// AddTokens appends documents to collection.
func (s *Store) AddTokens(collection string, tokens ...store.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], tokens...)
}

// FindTokens returns copies of up to limit documents.
func (s *Store) FindTokens(_ context.Context, collection string, limit int64) ([]store.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	if limit > 0 && int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	out := make([]store.Token, len(docs))
	for i, d := range docs {
		out[i] = maps.Clone(d)
	}
	return out, nil
}

// FindTokensBy returns copies of the documents whose top-level field equals value.
func (s *Store) FindTokensBy(_ context.Context, collection, field string, value interface{}) ([]store.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Token, 0)
	for _, d := range s.collections[collection] {
		if v, ok := d.Lookup(strings.Split(field, ".")...); ok && v == value {
			out = append(out, maps.Clone(d))
		}
	}
	return out, nil
}

// SetPrice sets price on every matching document.
func (s *Store) SetPrice(_ context.Context, collection string, m store.SymbolMatch, price string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched int64
	for _, d := range s.collections[collection] {
		sym, ok := d.DisplaySymbol()
		if !ok || !Matches(m, sym) {
			continue
		}
		d["price"] = price
		matched++
	}
	return matched, nil
}

// Matches reports whether symbol is selected by m, with the same rules as
// the MongoDB filter.
func Matches(m store.SymbolMatch, symbol string) bool {
	if m.LPPrefix != "" && len(symbol) >= len(m.LPPrefix) && strings.EqualFold(symbol[:len(m.LPPrefix)], m.LPPrefix) {
		return false
	}

	if m.Mode == store.MatchSubstring {
		return strings.Contains(strings.ToLower(symbol), strings.ToLower(m.Symbol))
	}

	if matchesName(symbol, m.Symbol) {
		return true
	}
	for _, v := range m.Variants {
		if v != "" && matchesName(symbol, v) {
			return true
		}
	}
	return false
}

// matchesName accepts name, or name followed by a "(...)" qualifier.
func matchesName(symbol, name string) bool {
	if len(symbol) < len(name) || !strings.EqualFold(symbol[:len(name)], name) {
		return false
	}
	rest := symbol[len(name):]
	return rest == "" || (strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") && !strings.Contains(rest, "\n"))
}

// PairIDs returns the ids of the stored pairs.
func (s *Store) PairIDs(_ context.Context, collection string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{}, len(s.pairs[collection]))
	for _, p := range s.pairs[collection] {
		ids[p.ID] = struct{}{}
	}
	return ids, nil
}

// InsertPairs appends pairs, failing on a duplicate id like a unique _id index.
func (s *Store) InsertPairs(_ context.Context, collection string, pairs []store.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pairs {
		for _, existing := range s.pairs[collection] {
			if existing.ID == p.ID {
				return fmt.Errorf("duplicate key %s in %s", p.ID, collection)
			}
		}
		s.pairs[collection] = append(s.pairs[collection], p)
	}
	return nil
}

// Pairs returns the stored pairs of collection.
func (s *Store) Pairs(collection string) []store.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Pair(nil), s.pairs[collection]...)
}

// UpsertStatistics replaces the document with the same name and symbol.
func (s *Store) UpsertStatistics(_ context.Context, collection string, stats store.TokenStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.stats[collection] {
		if existing.Name == stats.Name && existing.Symbol == stats.Symbol {
			s.stats[collection][i] = stats
			return nil
		}
	}
	s.stats[collection] = append(s.stats[collection], stats)
	return nil
}

// Statistics returns the stored statistics of collection.
func (s *Store) Statistics(collection string) []store.TokenStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.TokenStatistics(nil), s.stats[collection]...)
}

// ListVotes returns every vote.
func (s *Store) ListVotes(_ context.Context) ([]store.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Vote{}, s.votes...), nil
}

// FindVote returns the vote of address.
func (s *Store) FindVote(_ context.Context, address string) (*store.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.votes {
		if s.votes[i].Address == address {
			v := s.votes[i]
			return &v, nil
		}
	}
	return nil, store.ErrNotFound
}

// InsertVote appends vote.
func (s *Store) InsertVote(_ context.Context, vote store.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = append(s.votes, vote)
	return nil
}

// UpdateVote applies update and returns the previous document.
func (s *Store) UpdateVote(_ context.Context, address string, update store.VoteUpdate) (*store.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.votes {
		if s.votes[i].Address != address {
			continue
		}
		before := s.votes[i]
		s.votes[i].Finalized = update.Finalized
		s.votes[i].Valid = update.Valid
		s.votes[i].Status = update.Status
		if update.VotingPercentage != nil {
			s.votes[i].VotingPercentage = update.VotingPercentage
		}
		return &before, nil
	}
	return nil, store.ErrNotFound
}
